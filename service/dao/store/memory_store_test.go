package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/composer/service/dao"
)

type record struct {
	ID    string
	Value int
}

func newStore() *MemoryStore[string, record] {
	return NewMemoryStore(func(r *record) string { return r.ID }, func(r *record) *record {
		ret := *r
		return &ret
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	require.NoError(t, s.Save(ctx, &record{ID: "b", Value: 2}))
	original := &record{ID: "a", Value: 1}
	require.NoError(t, s.Save(ctx, original))
	original.Value = 100

	loaded, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Value)
	loaded.Value = 50
	again, _ := s.Load(ctx, "a")
	assert.Equal(t, 1, again.Value)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "a"), dao.ErrNotFound)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	assert.ErrorIs(t, s.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, s.Save(ctx, &record{}), dao.ErrInvalidID)
	_, err := s.Load(ctx, "")
	assert.ErrorIs(t, err, dao.ErrInvalidID)
}
