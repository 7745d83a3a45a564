package ontology

import (
	"time"
)

type Organization struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	NormalizedName string    `json:"-" db:"normalized_name"`
	LegalName      string    `json:"legal_name" db:"legal_name"`
	Email          string    `json:"email" db:"email"`
	Phone          string    `json:"phone" db:"phone"`
	Website        string    `json:"website" db:"website"`
	AddressLine1   string    `json:"address_line1" db:"address_line1"`
	AddressLine2   string    `json:"address_line2" db:"address_line2"`
	City           string    `json:"city" db:"city"`
	State          string    `json:"state" db:"state"`
	PostalCode     string    `json:"postal_code" db:"postal_code"`
	Country        string    `json:"country" db:"country"`
	Industry       string    `json:"industry" db:"industry"`
	Size           string    `json:"size" db:"size"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	IsClient       bool      `json:"is_client" db:"is_client"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// PersonOrganization links a person to an organization.
type PersonOrganization struct {
	ID             string    `json:"id" db:"id"`
	PersonID       string    `json:"person_id" db:"person_id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	JobTitle       string    `json:"job_title" db:"job_title"`
	Department     string    `json:"department" db:"department"`
	IsPrimary      bool      `json:"is_primary" db:"is_primary"`
	IsCurrent      bool      `json:"is_current" db:"is_current"`
	WorkEmail      string    `json:"work_email" db:"work_email"`
	WorkPhone      string    `json:"work_phone" db:"work_phone"`
	Notes          string    `json:"notes" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// OrganizationIssue links an organization to an issue.
type OrganizationIssue struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	IssueID        string    `json:"issue_id" db:"issue_id"`
	Priority       string    `json:"priority" db:"priority"`
	Notes          string    `json:"notes" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
