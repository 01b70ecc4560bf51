package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsrsales/internal/core/cache"
	"dsrsales/internal/core/types"
)

type countingRepo struct {
	calls    int
	from, to time.Time
	err      error
}

func (r *countingRepo) Summary(_ context.Context, from, to time.Time) (*Summary, error) {
	r.calls++
	r.from, r.to = from, to
	if r.err != nil {
		return nil, r.err
	}
	return &Summary{
		ProductCount:  3,
		UnitsByStatus: map[string]int64{"in_stock": 4, "sold": 2},
		SalesToday:    SalesTotals{Count: 2, Revenue: types.MustMoney("399.98")},
	}, nil
}

type mapCache struct {
	data map[string][]byte
	ttl  time.Duration
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	c.ttl = ttl
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func TestService_SummaryIsCached(t *testing.T) {
	repo := &countingRepo{}
	c := &mapCache{data: map[string][]byte{}}
	svc := NewService(repo, c, time.Minute)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.ProductCount)
	assert.NotNil(t, first.Holdings)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), repo.from)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), repo.to)
	assert.Equal(t, time.Minute, c.ttl)

	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.True(t, second.SalesToday.Revenue.Equal(types.MustMoney("399.98")))
	assert.Equal(t, int64(4), second.UnitsByStatus["in_stock"])

	svc.Invalidate(ctx)
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestService_SummaryWithoutCache(t *testing.T) {
	repo := &countingRepo{}
	svc := NewService(repo, nil, time.Minute)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)

	repo.err = errors.New("db down")
	_, err = svc.Summary(context.Background())
	assert.ErrorIs(t, err, repo.err)
}
