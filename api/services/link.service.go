package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contact-intake/db"
	"contact-intake/pkg/ontology"
	"contact-intake/pkg/shared"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type LinkOptions struct {
	// ReusePersonLinks skips inserting a person-organization link when the
	// pair is already linked. Off by default: every submission adds a row.
	ReusePersonLinks bool
}

type LinkService struct {
	flavor  sqlbuilder.Flavor
	issues  *IssueService
	options LinkOptions
	logger  logrus.FieldLogger
}

func NewLinkService(dialect db.Dialect, issues *IssueService, options LinkOptions, logger logrus.FieldLogger) *LinkService {
	return &LinkService{
		flavor:  dialect.Flavor,
		issues:  issues,
		options: options,
		logger:  logger,
	}
}

// LinkPersonToOrganization records the person's role at the organization.
// The link is always primary and current.
func (s *LinkService) LinkPersonToOrganization(ctx context.Context, q db.Querier, personID, orgID string, sub *ontology.ContactSubmission) (string, error) {
	ctx, span := startSpan(ctx, "LinkService.LinkPersonToOrganization")
	defer span.End()

	if s.options.ReusePersonLinks {
		id, err := s.existing(ctx, q, "person_organizations", "person_id", personID, orgID)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}

	now := time.Now().UTC()
	link := ontology.PersonOrganization{
		ID:             uuid.New().String(),
		PersonID:       personID,
		OrganizationID: orgID,
		JobTitle:       truncate(sub.EffectiveJobTitle(), maxJobTitleLength),
		Department:     sub.Department,
		IsPrimary:      true,
		IsCurrent:      true,
		Notes:          sub.OrgNotes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	ib := s.flavor.NewInsertBuilder()
	ib.InsertInto("person_organizations").
		Cols("id", "person_id", "organization_id", "job_title", "department", "is_primary", "is_current",
			"work_email", "work_phone", "notes", "created_at", "updated_at").
		Values(link.ID, link.PersonID, link.OrganizationID, link.JobTitle, link.Department, link.IsPrimary, link.IsCurrent,
			link.WorkEmail, link.WorkPhone, link.Notes, link.CreatedAt, link.UpdatedAt)

	query, args := ib.Build()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to link person to organization: %w", err)
	}

	return link.ID, nil
}

// LinkOrganizationToIssues resolves every issue named in text and links it to
// the organization once. It returns the number of links created.
func (s *LinkService) LinkOrganizationToIssues(ctx context.Context, q db.Querier, orgID, text string) (int, error) {
	ctx, span := startSpan(ctx, "LinkService.LinkOrganizationToIssues")
	defer span.End()

	names := ParseIssueAreas(text)
	if len(names) == 0 {
		return 0, nil
	}

	created := 0
	for _, name := range names {
		issueID, err := s.issues.Resolve(ctx, q, name)
		if err != nil {
			return created, err
		}

		existing, err := s.existing(ctx, q, "organization_issues", "issue_id", issueID, orgID)
		if err != nil {
			return created, err
		}
		if existing != "" {
			continue
		}

		now := time.Now().UTC()
		link := ontology.OrganizationIssue{
			ID:             uuid.New().String(),
			OrganizationID: orgID,
			IssueID:        issueID,
			Priority:       shared.PriorityNormal,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		ib := s.flavor.NewInsertBuilder()
		ib.InsertInto("organization_issues").
			Cols("id", "organization_id", "issue_id", "priority", "notes", "created_at", "updated_at").
			Values(link.ID, link.OrganizationID, link.IssueID, link.Priority, link.Notes, link.CreatedAt, link.UpdatedAt)

		query, args := ib.Build()
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return created, fmt.Errorf("failed to link organization to issue: %w", err)
		}
		created++
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"issues":          len(names),
		"links_created":   created,
	}).Debug("Linked organization to issues")
	return created, nil
}

// existing returns the id of the row in table joining the organization to
// other, or "" when there is none.
func (s *LinkService) existing(ctx context.Context, q db.Querier, table, otherCol, otherID, orgID string) (string, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("id").From(table).
		Where(sb.Equal(otherCol, otherID), sb.Equal("organization_id", orgID)).
		Limit(1)

	query, args := sb.Build()
	var id string
	err := sqlx.GetContext(ctx, q, &id, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", table, err)
	}
	return id, nil
}
