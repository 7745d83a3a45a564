package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"contact-intake/db"
	"contact-intake/pkg/normalize"
	"contact-intake/pkg/ontology"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// MatchStep reports how an organization was resolved.
type MatchStep string

const (
	MatchExact   MatchStep = "exact"
	MatchFolded  MatchStep = "folded"
	MatchCreated MatchStep = "created"
)

// Resolution is the outcome of OrganizationService.Resolve.
type Resolution struct {
	ID   string
	Key  string
	Step MatchStep
}

type OrganizationService struct {
	dialect db.Dialect
	logger  logrus.FieldLogger
}

func NewOrganizationService(dialect db.Dialect, logger logrus.FieldLogger) *OrganizationService {
	return &OrganizationService{dialect: dialect, logger: logger}
}

// Resolve finds the organization matching rawName or creates one. Matching
// uses the normalized key; the stored display name is the trimmed input.
//
// Two transactions resolving the same new name concurrently can both miss
// and both insert. There is no unique constraint on normalized_name.
func (s *OrganizationService) Resolve(ctx context.Context, q db.Querier, rawName string) (*Resolution, error) {
	ctx, span := startSpan(ctx, "OrganizationService.Resolve")
	defer span.End()

	name := strings.TrimSpace(rawName)
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}
	key := normalize.OrganizationName(name)

	id, err := s.findExact(ctx, q, name, key)
	if err != nil {
		return nil, err
	}
	if id != "" {
		return s.resolved(id, key, MatchExact), nil
	}

	if key != "" {
		id, err = s.findFolded(ctx, q, key)
		if err != nil {
			return nil, err
		}
		if id != "" {
			return s.resolved(id, key, MatchFolded), nil
		}
	}

	org, err := s.create(ctx, q, name, key)
	if err != nil {
		return nil, err
	}
	return s.resolved(org.ID, key, MatchCreated), nil
}

func (s *OrganizationService) resolved(id, key string, step MatchStep) *Resolution {
	recordOrganizationResolution(step)
	s.logger.WithFields(logrus.Fields{
		"organization_id": id,
		"normalized_key":  key,
		"match":           step,
	}).Debug("Resolved organization")
	return &Resolution{ID: id, Key: key, Step: step}
}

// findExact matches the display name case-insensitively against the raw
// name or the key, or the stored key against the key.
func (s *OrganizationService) findExact(ctx context.Context, q db.Querier, name, key string) (string, error) {
	sb := s.dialect.Flavor.NewSelectBuilder()
	conds := []string{
		"LOWER(name) = LOWER(" + sb.Var(name) + ")",
	}
	if key != "" {
		conds = append(conds,
			sb.Equal("LOWER(name)", key),
			sb.Equal("normalized_name", key),
		)
	}
	sb.Select("id").From("organizations").
		Where(sb.Or(conds...)).
		OrderBy("created_at").Asc().
		Limit(1)

	return s.queryID(ctx, q, sb.Build)
}

// findFolded compares a storage-side fold of the display name with the key.
// The fold knows nothing about abbreviations or suffixes, so variants that
// only the application normalizer equates can still be missed here.
func (s *OrganizationService) findFolded(ctx context.Context, q db.Querier, key string) (string, error) {
	sb := s.dialect.Flavor.NewSelectBuilder()
	sb.Select("id").From("organizations").
		Where(sb.Equal(s.dialect.Fold("name"), key)).
		OrderBy("created_at").Asc().
		Limit(1)

	return s.queryID(ctx, q, sb.Build)
}

func (s *OrganizationService) queryID(ctx context.Context, q db.Querier, build func() (string, []interface{})) (string, error) {
	query, args := build()
	var id string
	err := sqlx.GetContext(ctx, q, &id, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query organization: %w", err)
	}
	return id, nil
}

func (s *OrganizationService) create(ctx context.Context, q db.Querier, name, key string) (*ontology.Organization, error) {
	now := time.Now().UTC()
	org := &ontology.Organization{
		ID:             uuid.New().String(),
		Name:           name,
		NormalizedName: key,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	ib := s.dialect.Flavor.NewInsertBuilder()
	ib.InsertInto("organizations").
		Cols("id", "name", "normalized_name", "is_active", "is_client", "created_at", "updated_at").
		Values(org.ID, org.Name, org.NormalizedName, org.IsActive, org.IsClient, org.CreatedAt, org.UpdatedAt)

	query, args := ib.Build()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"organization_id": org.ID, "name": org.Name}).Info("Created organization")
	return org, nil
}
