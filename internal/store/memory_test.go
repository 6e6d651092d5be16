package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-catalog-service/internal/domain"
)

func TestMemoryStore_ReplaceAndSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	products, revision, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, uint64(0), revision)

	rev1, err := s.Replace(ctx, []domain.ResolvedProduct{{ID: "1"}, {ID: "2"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rev1)

	products, revision, err = s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, rev1, revision)

	// Each replace bumps the revision, even with identical content.
	rev2, err := s.Replace(ctx, []domain.ResolvedProduct{{ID: "1"}})
	require.NoError(t, err)
	assert.Greater(t, rev2, rev1)
}

func TestMemoryStore_GetProductByID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetProductByID(ctx, "1")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = s.Replace(ctx, []domain.ResolvedProduct{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}})
	require.NoError(t, err)

	p, err := s.GetProductByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "B", p.Name)

	_, err = s.GetProductByID(ctx, "99")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
