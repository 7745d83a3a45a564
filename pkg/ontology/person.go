package ontology

import (
	"database/sql"
	"time"
)

type Person struct {
	ID           string       `json:"id" db:"id"`
	FirstName    string       `json:"first_name" db:"first_name"`
	LastName     string       `json:"last_name" db:"last_name"`
	MiddleName   string       `json:"middle_name" db:"middle_name"`
	Title        string       `json:"title" db:"title"`
	Email        string       `json:"email" db:"email"`
	Phone        string       `json:"phone" db:"phone"`
	MobilePhone  string       `json:"mobile_phone" db:"mobile_phone"`
	LinkedIn     string       `json:"linkedin" db:"linkedin"`
	Twitter      string       `json:"twitter" db:"twitter"`
	AddressLine1 string       `json:"address_line1" db:"address_line1"`
	AddressLine2 string       `json:"address_line2" db:"address_line2"`
	City         string       `json:"city" db:"city"`
	State        string       `json:"state" db:"state"`
	PostalCode   string       `json:"postal_code" db:"postal_code"`
	Country      string       `json:"country" db:"country"`
	Notes        string       `json:"notes" db:"notes"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	FullName     string       `json:"full_name" db:"full_name"`
	BirthDate    sql.NullTime `json:"-" db:"birth_date"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

type Issue struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultIssueCategory is assigned to issues created from free-text input.
const DefaultIssueCategory = "General"
