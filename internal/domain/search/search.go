// Package search runs text lookups over the entities of the metadata registry.
package search

import (
	"context"
	"fmt"
	"strings"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/metadata"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	minQueryLen  = 2
)

// Hit is one matching row, keyed by the entity's list columns.
type Hit map[string]any

// Result groups the hits of one entity.
type Result struct {
	Entity string `json:"entity"`
	Label  string `json:"label"`
	Hits   []Hit  `json:"hits"`
}

// Repository executes the case-insensitive OR match for one entity.
type Repository interface {
	Search(ctx context.Context, def metadata.EntityDef, query string, limit int) ([]Hit, error)
}

// Service searches registered entities.
type Service struct {
	registry *metadata.Registry
	repo     Repository
}

// NewService creates a search service.
func NewService(registry *metadata.Registry, repo Repository) *Service {
	return &Service{registry: registry, repo: repo}
}

// Search matches q against the searchable fields of a single entity.
func (s *Service) Search(ctx context.Context, entity, q string, limit int) (*Result, error) {
	def, ok := s.registry.Get(entity)
	if !ok {
		return nil, apperror.NewNotFound("entity", entity)
	}
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}

	hits, err := s.repo.Search(ctx, def, q, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", entity, err)
	}
	if hits == nil {
		hits = []Hit{}
	}
	return &Result{Entity: def.Name, Label: def.Label, Hits: hits}, nil
}

// SearchAll fans q out over every registered entity. Entities without hits are omitted.
func (s *Service) SearchAll(ctx context.Context, q string, limit int) ([]Result, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	results := make([]Result, 0)
	for _, def := range s.registry.List() {
		hits, err := s.repo.Search(ctx, def, q, limit)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", def.Name, err)
		}
		if len(hits) == 0 {
			continue
		}
		results = append(results, Result{Entity: def.Name, Label: def.Label, Hits: hits})
	}
	return results, nil
}

func normalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minQueryLen {
		return "", apperror.NewValidation(fmt.Sprintf("query must be at least %d characters", minQueryLen)).
			WithDetail("field", "q")
	}
	return q, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
