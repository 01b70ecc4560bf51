// Package dashboard aggregates stock and sales figures for the management overview.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dsrsales/internal/core/cache"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/types"
	"dsrsales/pkg/logger"
)

// CacheKey is where the summary is cached.
const CacheKey = "dashboard:summary"

// SalesTotals counts non-returned sales in a period.
type SalesTotals struct {
	Count   int64       `json:"count"`
	Revenue types.Money `json:"revenue"`
}

// Holding is the number of units assigned to one seller.
type Holding struct {
	UserID   id.ID  `db:"user_id" json:"userId"`
	Username string `db:"username" json:"username"`
	Units    int64  `db:"units" json:"units"`
}

// Summary is the dashboard snapshot.
type Summary struct {
	ProductCount  int64            `json:"productCount"`
	UnitsByStatus map[string]int64 `json:"unitsByStatus"`
	SalesToday    SalesTotals      `json:"salesToday"`
	Holdings      []Holding        `json:"holdings"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}

// Repository computes the aggregates. Sales are counted in [from, to).
type Repository interface {
	Summary(ctx context.Context, from, to time.Time) (*Summary, error)
}

// Service serves the summary through a TTL cache.
type Service struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates a dashboard service. A nil cache disables caching.
func NewService(repo Repository, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{
		repo:  repo,
		cache: c,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Summary returns the cached snapshot, computing it on a miss.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	raw, err := s.cache.Get(ctx, CacheKey)
	switch {
	case err == nil:
		var cached Summary
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		logger.Warn(ctx, "discarding undecodable dashboard cache entry")
	case !errors.Is(err, cache.ErrMiss):
		logger.Warn(ctx, "dashboard cache read failed", "error", err)
	}

	return s.Refresh(ctx)
}

// Refresh recomputes the snapshot and stores it in the cache.
func (s *Service) Refresh(ctx context.Context) (*Summary, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	summary, err := s.repo.Summary(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("compute dashboard summary: %w", err)
	}
	if summary.UnitsByStatus == nil {
		summary.UnitsByStatus = map[string]int64{}
	}
	if summary.Holdings == nil {
		summary.Holdings = []Holding{}
	}
	summary.GeneratedAt = now

	if raw, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, CacheKey, raw, s.ttl); err != nil {
			logger.Warn(ctx, "dashboard cache write failed", "error", err)
		}
	}
	return summary, nil
}

// Invalidate drops the cached snapshot.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, CacheKey); err != nil {
		logger.Warn(ctx, "dashboard cache delete failed", "error", err)
	}
}
