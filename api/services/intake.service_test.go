package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"contact-intake/db"
	"contact-intake/pkg/ontology"
	"contact-intake/pkg/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTables = []string{"organizations", "people", "issues", "person_organizations", "organization_issues"}

func assertEmpty(t *testing.T, svc *db.Service) {
	t.Helper()
	for _, table := range allTables {
		assert.Equal(t, 0, countRows(t, svc, table), table)
	}
}

func TestSubmitResolvesOrganizationVariantsToSameID(t *testing.T) {
	svc := newTestDB(t)
	intake := NewIntakeService(svc, LinkOptions{}, nil, newTestLogger())
	ctx := context.Background()

	first, err := intake.Submit(ctx, &ontology.ContactSubmission{FirstName: "Jane", LastName: "Doe", Company: "ACME Inc."})
	require.NoError(t, err)
	require.NotNil(t, first.OrganizationID)

	second, err := intake.Submit(ctx, &ontology.ContactSubmission{FirstName: "Jane", LastName: "Doe", Company: "acme"})
	require.NoError(t, err)
	require.NotNil(t, second.OrganizationID)

	assert.Equal(t, *first.OrganizationID, *second.OrganizationID)
	assert.NotEqual(t, first.PersonID, second.PersonID)
	assert.Equal(t, 1, countRows(t, svc, "organizations"))
	assert.Equal(t, 2, countRows(t, svc, "people"))
	// Person-organization links are never deduplicated by default.
	assert.Equal(t, 2, countRows(t, svc, "person_organizations"))
	assert.Equal(t, "Contact Jane Doe created and linked to ACME Inc.", first.Message)
}

func TestSubmitWithoutCompany(t *testing.T) {
	svc := newTestDB(t)
	intake := NewIntakeService(svc, LinkOptions{}, nil, newTestLogger())

	result, err := intake.Submit(context.Background(), &ontology.ContactSubmission{
		FirstName:  "Sam",
		LastName:   "Lee",
		Company:    "   ",
		IssueAreas: "Housing",
	})
	require.NoError(t, err)

	assert.Nil(t, result.OrganizationID)
	assert.Equal(t, "Contact Sam Lee created successfully", result.Message)
	assert.Equal(t, 1, countRows(t, svc, "people"))
	assert.Equal(t, 0, countRows(t, svc, "organizations"))
	assert.Equal(t, 0, countRows(t, svc, "person_organizations"))
	assert.Equal(t, 0, countRows(t, svc, "issues"))
}

func TestSubmitLinksIssues(t *testing.T) {
	svc := newTestDB(t)
	intake := NewIntakeService(svc, LinkOptions{}, nil, newTestLogger())
	sub := func() *ontology.ContactSubmission {
		return &ontology.ContactSubmission{
			FirstName:  "Ana",
			LastName:   "Ruiz",
			Company:    "Tenant Union LLC",
			IssueAreas: "Housing, Healthcare;\nEducation",
		}
	}

	_, err := intake.Submit(context.Background(), sub())
	require.NoError(t, err)
	_, err = intake.Submit(context.Background(), sub())
	require.NoError(t, err)

	assert.Equal(t, 1, countRows(t, svc, "organizations"))
	assert.Equal(t, 3, countRows(t, svc, "issues"))
	assert.Equal(t, 3, countRows(t, svc, "organization_issues"))
}

func TestSubmitMissingLastNameWritesNothing(t *testing.T) {
	svc := newTestDB(t)
	intake := NewIntakeService(svc, LinkOptions{}, nil, newTestLogger())

	_, err := intake.Submit(context.Background(), &ontology.ContactSubmission{
		FirstName:  "Jane",
		Company:    "ACME Inc.",
		IssueAreas: "Housing",
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"last_name"}, validationErr.Fields)
	assert.Equal(t, "last_name is required", err.Error())
	assertEmpty(t, svc)
}

func TestSubmitBlankNamesAreInvalid(t *testing.T) {
	svc := newTestDB(t)
	intake := NewIntakeService(svc, LinkOptions{}, nil, newTestLogger())

	_, err := intake.Submit(context.Background(), &ontology.ContactSubmission{FirstName: "  ", LastName: "\t"})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"first_name", "last_name"}, validationErr.Fields)
	assert.Equal(t, "first_name and last_name are required", err.Error())
	assertEmpty(t, svc)
}

func TestSubmitTruncatesFields(t *testing.T) {
	svc := newTestDB(t)
	intake := NewIntakeService(svc, LinkOptions{}, nil, newTestLogger())

	longFirst := strings.Repeat("a", 200)
	result, err := intake.Submit(context.Background(), &ontology.ContactSubmission{
		FirstName:   longFirst,
		LastName:    "Doe",
		Email:       strings.Repeat("e", 300),
		Phone:       strings.Repeat("1", 60),
		MobilePhone: strings.Repeat("2", 60),
		Company:     "ACME",
		Role:        strings.Repeat("r", 250),
	})
	require.NoError(t, err)

	var person ontology.Person
	require.NoError(t, svc.DB.Get(&person, `SELECT id, first_name, last_name, email, phone, mobile_phone, full_name FROM people WHERE id = ?`, result.PersonID))
	assert.Equal(t, strings.Repeat("a", 150), person.FirstName)
	assert.Len(t, person.Email, 254)
	assert.Len(t, person.Phone, 50)
	assert.Len(t, person.MobilePhone, 50)
	assert.Equal(t, strings.Repeat("a", 150)+" Doe", person.FullName)

	var jobTitle string
	require.NoError(t, svc.DB.Get(&jobTitle, `SELECT job_title FROM person_organizations WHERE person_id = ?`, result.PersonID))
	assert.Equal(t, strings.Repeat("r", 200), jobTitle)
}

func TestSubmitFullNameTruncatedTo255(t *testing.T) {
	p := NewPerson(&ontology.ContactSubmission{
		FirstName: strings.Repeat("f", 150),
		LastName:  strings.Repeat("l", 150),
	})
	assert.Equal(t, 255, len([]rune(p.FullName)))
	assert.True(t, strings.HasPrefix(p.FullName, strings.Repeat("f", 150)+" "))
}

func TestTruncateCountsCharacters(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 10))
}

func TestSubmitLinkFields(t *testing.T) {
	svc := newTestDB(t)
	intake := NewIntakeService(svc, LinkOptions{}, nil, newTestLogger())

	result, err := intake.Submit(context.Background(), &ontology.ContactSubmission{
		FirstName: "Jane",
		LastName:  "Doe",
		Company:   "ACME",
		JobTitle:  "Director",
		Role:      "ignored",
		Notes:     "met at conference",
		OrgNotes:  "board contact",
	})
	require.NoError(t, err)

	var link ontology.PersonOrganization
	require.NoError(t, svc.DB.Get(&link, `SELECT id, person_id, organization_id, job_title, is_primary, is_current, notes FROM person_organizations`))
	assert.Equal(t, result.PersonID, link.PersonID)
	assert.Equal(t, *result.OrganizationID, link.OrganizationID)
	assert.Equal(t, "Director", link.JobTitle)
	assert.True(t, link.IsPrimary)
	assert.True(t, link.IsCurrent)
	assert.Equal(t, "board contact", link.Notes)

	var notes string
	require.NoError(t, svc.DB.Get(&notes, `SELECT notes FROM people WHERE id = ?`, result.PersonID))
	assert.Equal(t, "met at conference", notes)
}

func TestSubmitRollsBackWhenLinkStepFails(t *testing.T) {
	svc := newTestDB(t)
	intake := NewIntakeService(svc, LinkOptions{}, nil, newTestLogger())

	_, err := svc.DB.Exec(`DROP TABLE person_organizations`)
	require.NoError(t, err)

	_, err = intake.Submit(context.Background(), &ontology.ContactSubmission{
		FirstName: "Jane",
		LastName:  "Doe",
		Company:   "ACME Inc.",
	})

	var storageErr *db.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, db.KindUnknown, storageErr.Kind)
	assert.Equal(t, 0, countRows(t, svc, "people"))
	assert.Equal(t, 0, countRows(t, svc, "organizations"))
}

func TestSubmitRollsBackWhenIssueStepFails(t *testing.T) {
	svc := newTestDB(t)
	intake := NewIntakeService(svc, LinkOptions{}, nil, newTestLogger())

	_, err := svc.DB.Exec(`DROP TABLE organization_issues`)
	require.NoError(t, err)

	_, err = intake.Submit(context.Background(), &ontology.ContactSubmission{
		FirstName:  "Jane",
		LastName:   "Doe",
		Company:    "ACME Inc.",
		IssueAreas: "Housing",
	})
	require.Error(t, err)

	for _, table := range []string{"people", "organizations", "person_organizations", "issues"} {
		assert.Equal(t, 0, countRows(t, svc, table), table)
	}
}

func TestSubmitClassifiesValueTooLong(t *testing.T) {
	svc := newTestDB(t)
	intake := NewIntakeService(svc, LinkOptions{}, nil, newTestLogger())

	_, err := intake.Submit(context.Background(), &ontology.ContactSubmission{
		FirstName: "Jane",
		LastName:  "Doe",
		Company:   strings.Repeat("x", 300),
	})
	require.Error(t, err)
	assert.Equal(t, db.KindValueTooLong, db.KindOf(err))
	assert.Equal(t, "One or more fields exceed the maximum allowed length", DescribeStorageError(err))
	assertEmpty(t, svc)
}

func TestSubmitPublishesEvent(t *testing.T) {
	svc := newTestDB(t)
	publisher := &fakePublisher{}
	intake := NewIntakeService(svc, LinkOptions{}, publisher, newTestLogger())

	result, err := intake.Submit(context.Background(), &ontology.ContactSubmission{
		FirstName:  "Jane",
		LastName:   "Doe",
		Company:    "ACME Inc.",
		IssueAreas: "Housing, Transit",
	})
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	published := publisher.events[0]
	assert.Equal(t, result.PersonID, published.msgID)
	assert.Equal(t, shared.ContactCreatedSubject(result.OrganizationID), published.subject)

	var event shared.ContactCreatedEvent
	require.NoError(t, json.Unmarshal(published.data, &event))
	assert.Equal(t, shared.EventTypeContactCreated, event.Type)
	assert.Equal(t, result.PersonID, event.PersonID)
	assert.Equal(t, 2, event.IssueLinks)
}

func TestSubmitSucceedsWhenPublishFails(t *testing.T) {
	svc := newTestDB(t)
	publisher := &fakePublisher{err: errors.New("nats down")}
	intake := NewIntakeService(svc, LinkOptions{}, publisher, newTestLogger())

	_, err := intake.Submit(context.Background(), &ontology.ContactSubmission{FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, svc, "people"))
}

func TestSubmitDoesNotPublishOnFailure(t *testing.T) {
	svc := newTestDB(t)
	publisher := &fakePublisher{}
	intake := NewIntakeService(svc, LinkOptions{}, publisher, newTestLogger())

	_, err := intake.Submit(context.Background(), &ontology.ContactSubmission{FirstName: "Jane"})
	require.Error(t, err)
	assert.Empty(t, publisher.events)
}

func TestLinkPersonToOrganizationReuseOption(t *testing.T) {
	tests := []struct {
		name    string
		options LinkOptions
		rows    int
	}{
		{name: "always insert", options: LinkOptions{}, rows: 2},
		{name: "reuse existing", options: LinkOptions{ReusePersonLinks: true}, rows: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestDB(t)
			logger := newTestLogger()
			orgs := NewOrganizationService(svc.Dialect, logger)
			people := NewPersonService(svc.Dialect, logger)
			links := NewLinkService(svc.Dialect, NewIssueService(svc.Dialect, logger), tt.options, logger)
			sub := &ontology.ContactSubmission{FirstName: "Jane", LastName: "Doe", Company: "ACME"}

			inTx(t, svc, func(ctx context.Context, q db.Querier) error {
				res, err := orgs.Resolve(ctx, q, sub.Company)
				if err != nil {
					return err
				}
				personID, err := people.Create(ctx, q, sub)
				if err != nil {
					return err
				}
				first, err := links.LinkPersonToOrganization(ctx, q, personID, res.ID, sub)
				if err != nil {
					return err
				}
				second, err := links.LinkPersonToOrganization(ctx, q, personID, res.ID, sub)
				if tt.options.ReusePersonLinks {
					assert.Equal(t, first, second)
				}
				return err
			})

			assert.Equal(t, tt.rows, countRows(t, svc, "person_organizations"))
		})
	}
}
