package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/metadata"
)

type fakeRepo struct {
	rows   map[string][]Hit
	calls  []string
	limits []int
	err    error
}

func (f *fakeRepo) Search(_ context.Context, def metadata.EntityDef, q string, limit int) ([]Hit, error) {
	f.calls = append(f.calls, def.Name+":"+q)
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[def.Name], nil
}

func TestService_Search(t *testing.T) {
	repo := &fakeRepo{rows: map[string][]Hit{
		metadata.EntityProduct: {{"id": "1", "model_name": "Galaxy A15"}},
	}}
	svc := NewService(metadata.Default(), repo)
	ctx := context.Background()

	res, err := svc.Search(ctx, metadata.EntityProduct, "  galaxy ", 0)
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
	assert.Equal(t, []string{"product:galaxy"}, repo.calls)
	assert.Equal(t, DefaultLimit, repo.limits[0])

	res, err = svc.Search(ctx, metadata.EntityCustomer, "galaxy", 1000)
	require.NoError(t, err)
	assert.NotNil(t, res.Hits)
	assert.Empty(t, res.Hits)
	assert.Equal(t, MaxLimit, repo.limits[1])

	_, err = svc.Search(ctx, "warehouse", "galaxy", 5)
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Search(ctx, metadata.EntityProduct, " g ", 5)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_SearchAll(t *testing.T) {
	repo := &fakeRepo{rows: map[string][]Hit{
		metadata.EntityStock: {{"id": "s1"}},
		metadata.EntitySale:  {{"id": "o1"}, {"id": "o2"}},
	}}
	svc := NewService(metadata.Default(), repo)

	results, err := svc.SearchAll(context.Background(), "35", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, metadata.EntitySale, results[0].Entity)
	assert.Equal(t, metadata.EntityStock, results[1].Entity)
	assert.Len(t, repo.calls, 5)

	repo.err = errors.New("boom")
	_, err = svc.SearchAll(context.Background(), "35", 3)
	assert.Error(t, err)
}
