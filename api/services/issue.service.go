package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"contact-intake/db"
	"contact-intake/pkg/ontology"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type IssueService struct {
	flavor sqlbuilder.Flavor
	logger logrus.FieldLogger
}

func NewIssueService(dialect db.Dialect, logger logrus.FieldLogger) *IssueService {
	return &IssueService{flavor: dialect.Flavor, logger: logger}
}

// ParseIssueAreas splits free text on commas, semicolons and newlines.
// Empty segments and exact repeats are dropped; case variants are kept.
func ParseIssueAreas(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})

	names := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		names = append(names, p)
	}
	return names
}

// Resolve returns the id of the issue called name, creating it when no
// case-insensitive match exists.
func (s *IssueService) Resolve(ctx context.Context, q db.Querier, name string) (string, error) {
	ctx, span := startSpan(ctx, "IssueService.Resolve")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("issue name is required")
	}

	sb := s.flavor.NewSelectBuilder()
	sb.Select("id").From("issues").
		Where("LOWER(name) = LOWER(" + sb.Var(name) + ")").
		Limit(1)

	query, args := sb.Build()
	var id string
	err := sqlx.GetContext(ctx, q, &id, query, args...)
	if err == nil {
		recordIssueResolution(true)
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to query issue: %w", err)
	}

	now := time.Now().UTC()
	issue := ontology.Issue{
		ID:        uuid.New().String(),
		Name:      name,
		Category:  ontology.DefaultIssueCategory,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ib := s.flavor.NewInsertBuilder()
	ib.InsertInto("issues").
		Cols("id", "name", "category", "description", "created_at", "updated_at").
		Values(issue.ID, issue.Name, issue.Category, issue.Description, issue.CreatedAt, issue.UpdatedAt)

	query, args = ib.Build()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to create issue: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"issue_id": issue.ID, "issue": issue.Name}).Debug("Created issue")
	recordIssueResolution(false)
	return issue.ID, nil
}
