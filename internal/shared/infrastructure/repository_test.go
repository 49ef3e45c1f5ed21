package infrastructure

import (
	"context"
	"testing"

	"crmdash/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyedRow struct {
	ID int64 `json:"ID"`
}

func TestDistinctKeys(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, DistinctKeys([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, DistinctKeys[int64](nil))
}

func TestFetchByKeys_NoKeysSkipsStore(t *testing.T) {
	repo := NewBaseRepository(store.NewMemoryClient(), 0)
	assert.Equal(t, store.DefaultRowCap, repo.RowCap())

	rows, err := FetchByKeys[keyedRow](context.Background(), repo, store.From("t"), "ID", []int64{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchByKeys_FiltersAndCaps(t *testing.T) {
	mem := store.NewMemoryClient()
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, mem.Insert("t", keyedRow{ID: i}))
	}
	repo := NewBaseRepository(mem, 2)

	rows, err := FetchByKeys[keyedRow](context.Background(), repo, store.From("t").OrderBy("ID", false), "ID", []int64{5, 4, 1, 4})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, int64(4), rows[1].ID)

	all, err := FetchAll[keyedRow](context.Background(), repo, store.From("t"))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
