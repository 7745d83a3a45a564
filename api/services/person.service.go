package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"contact-intake/db"
	"contact-intake/pkg/ontology"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/sirupsen/logrus"
)

// Maximum stored lengths, in characters.
const (
	maxNameLength     = 150
	maxEmailLength    = 254
	maxPhoneLength    = 50
	maxFullNameLength = 255
	maxJobTitleLength = 200
)

type PersonService struct {
	flavor sqlbuilder.Flavor
	logger logrus.FieldLogger
}

func NewPersonService(dialect db.Dialect, logger logrus.FieldLogger) *PersonService {
	return &PersonService{flavor: dialect.Flavor, logger: logger}
}

// NewPerson builds the person row for a submission, applying the column
// length limits. The full name is derived from the truncated names.
func NewPerson(sub *ontology.ContactSubmission) *ontology.Person {
	now := time.Now().UTC()
	first := truncate(sub.FirstName, maxNameLength)
	last := truncate(sub.LastName, maxNameLength)

	return &ontology.Person{
		ID:          uuid.New().String(),
		FirstName:   first,
		LastName:    last,
		MiddleName:  sub.MiddleName,
		Title:       sub.Title,
		Email:       truncate(sub.Email, maxEmailLength),
		Phone:       truncate(sub.Phone, maxPhoneLength),
		MobilePhone: truncate(sub.MobilePhone, maxPhoneLength),
		LinkedIn:    sub.LinkedIn,
		Twitter:     sub.Twitter,
		Notes:       sub.Notes,
		IsActive:    true,
		FullName:    truncate(first+" "+last, maxFullNameLength),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Create inserts a person for the submission and returns its id.
func (s *PersonService) Create(ctx context.Context, q db.Querier, sub *ontology.ContactSubmission) (string, error) {
	ctx, span := startSpan(ctx, "PersonService.Create")
	defer span.End()

	p := NewPerson(sub)

	ib := s.flavor.NewInsertBuilder()
	ib.InsertInto("people").
		Cols(
			"id", "first_name", "last_name", "middle_name", "title", "email", "phone", "mobile_phone",
			"linkedin", "twitter", "notes", "is_active", "full_name", "created_at", "updated_at",
		).
		Values(
			p.ID, p.FirstName, p.LastName, p.MiddleName, p.Title, p.Email, p.Phone, p.MobilePhone,
			p.LinkedIn, p.Twitter, p.Notes, p.IsActive, p.FullName, p.CreatedAt, p.UpdatedAt,
		)

	query, args := ib.Build()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to create person: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"person_id": p.ID}).Debug("Created person")
	return p.ID, nil
}

// truncate cuts s to at most max characters.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
