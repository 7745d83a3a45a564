package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"contact-intake/db"
	"contact-intake/pkg/ontology"
	"contact-intake/pkg/shared"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// EventPublisher receives contact events after a submission commits.
type EventPublisher interface {
	PublishWithDedup(subject string, data []byte, msgID string) error
}

// IntakeService records one contact submission per call. All writes of a
// submission share a single transaction.
type IntakeService struct {
	db       *db.Service
	orgs     *OrganizationService
	people   *PersonService
	links    *LinkService
	validate *validator.Validate
	events   EventPublisher
	logger   logrus.FieldLogger
}

// NewIntakeService wires the resolvers and writers for database. events may
// be nil.
func NewIntakeService(database *db.Service, options LinkOptions, events EventPublisher, logger logrus.FieldLogger) *IntakeService {
	issues := NewIssueService(database.Dialect, logger)
	return &IntakeService{
		db:       database,
		orgs:     NewOrganizationService(database.Dialect, logger),
		people:   NewPersonService(database.Dialect, logger),
		links:    NewLinkService(database.Dialect, issues, options, logger),
		validate: newValidator(),
		events:   events,
		logger:   logger,
	}
}

func (s *IntakeService) DB() *db.Service {
	return s.db
}

// Submit validates sub and records it. Validation failures return a
// *ValidationError without touching storage; storage failures roll back every
// write of the submission and return a *db.StorageError.
func (s *IntakeService) Submit(ctx context.Context, sub *ontology.ContactSubmission) (*ontology.IntakeResult, error) {
	ctx, span := startSpan(ctx, "IntakeService.Submit")
	defer span.End()

	sub.Trim()
	if err := s.validate.StructCtx(ctx, sub); err != nil {
		recordSubmission("invalid")
		return nil, validationError(err)
	}

	var (
		personID   string
		orgID      *string
		issueLinks int
	)

	err := s.db.Transaction(ctx, func(ctx context.Context, q db.Querier) error {
		if sub.Company != "" {
			res, err := s.orgs.Resolve(ctx, q, sub.Company)
			if err != nil {
				return err
			}
			orgID = &res.ID
		}

		var err error
		personID, err = s.people.Create(ctx, q, sub)
		if err != nil {
			return err
		}

		if orgID == nil {
			return nil
		}

		if _, err := s.links.LinkPersonToOrganization(ctx, q, personID, *orgID, sub); err != nil {
			return err
		}

		if sub.IssueAreas != "" {
			issueLinks, err = s.links.LinkOrganizationToIssues(ctx, q, *orgID, sub.IssueAreas)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		err = db.Classify(err)
		recordSubmission(db.KindOf(err).String())
		span.RecordError(err)
		s.logger.WithError(err).WithFields(logrus.Fields{
			"company": sub.Company,
		}).Error("Failed to record contact submission")
		return nil, err
	}

	recordSubmission("success")
	span.SetAttributes(attribute.String("person_id", personID))

	fullName := truncate(sub.FirstName, maxNameLength) + " " + truncate(sub.LastName, maxNameLength)
	message := fmt.Sprintf("Contact %s created successfully", fullName)
	if orgID != nil {
		message = fmt.Sprintf("Contact %s created and linked to %s", fullName, sub.Company)
	}

	s.logger.WithFields(logrus.Fields{
		"person_id":       personID,
		"organization_id": orgID,
		"issue_links":     issueLinks,
	}).Info("Recorded contact submission")

	s.publish(personID, orgID, sub.Company, issueLinks)

	return &ontology.IntakeResult{
		PersonID:       personID,
		OrganizationID: orgID,
		Message:        message,
	}, nil
}

// publish emits the created event. The submission is already committed, so
// failures are only logged.
func (s *IntakeService) publish(personID string, orgID *string, company string, issueLinks int) {
	if s.events == nil {
		return
	}

	event := shared.ContactCreatedEvent{
		ID:             uuid.New().String(),
		Type:           shared.EventTypeContactCreated,
		PersonID:       personID,
		OrganizationID: orgID,
		Organization:   company,
		IssueLinks:     issueLinks,
		Timestamp:      time.Now().UTC(),
		Source:         shared.ServiceName,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode contact event")
		return
	}

	if err := s.events.PublishWithDedup(shared.ContactCreatedSubject(orgID), data, personID); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"person_id": personID}).Warn("Failed to publish contact event")
	}
}
