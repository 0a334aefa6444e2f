package btree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func k(v int64) []any { return []any{v} }

func TestTree_InsertAndSearch(t *testing.T) {
	tr := NewTree(3, true)
	for i := int64(1); i <= 100; i++ {
		require.NoError(t, tr.Insert(k(i), i*10))
	}

	require.Equal(t, 100, tr.Len())
	require.NoError(t, tr.Validate())

	require.Equal(t, []int64{420}, tr.Search(k(42)))
	require.Nil(t, tr.Search(k(101)))
}

func TestTree_UniqueRejectsDuplicate(t *testing.T) {
	tr := NewTree(3, true)
	require.NoError(t, tr.Insert(k(7), 1))

	err := tr.Insert(k(7), 2)
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.Equal(t, 1, tr.Len())
	require.Equal(t, []int64{1}, tr.Search(k(7)))
}

func TestTree_SecondaryAccumulatesRefs(t *testing.T) {
	tr := NewTree(3, false)
	require.NoError(t, tr.Insert(k(5), 1))
	require.NoError(t, tr.Insert(k(5), 2))
	require.NoError(t, tr.Insert(k(5), 3))

	require.Equal(t, 1, tr.Len())
	require.ElementsMatch(t, []int64{1, 2, 3}, tr.Search(k(5)))

	// removing one ref keeps the key
	require.NoError(t, tr.Delete(k(5), 2))
	require.Equal(t, 1, tr.Len())
	require.ElementsMatch(t, []int64{1, 3}, tr.Search(k(5)))

	// removing the last refs removes the key
	require.NoError(t, tr.Delete(k(5), 1))
	require.NoError(t, tr.Delete(k(5), 3))
	require.Equal(t, 0, tr.Len())
	require.Nil(t, tr.Search(k(5)))
}

func TestTree_RangeSearch(t *testing.T) {
	tr := NewTree(3, true)
	for i := int64(1); i <= 6; i++ {
		require.NoError(t, tr.Insert(k(i), i))
	}

	require.Equal(t, []int64{2, 3, 4, 5}, tr.RangeSearch(k(2), k(5)))
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, tr.RangeSearch(k(0), k(100)))
	require.Empty(t, tr.RangeSearch(k(7), k(9)))
}

func TestTree_DeleteMissingKey(t *testing.T) {
	tr := NewTree(3, true)
	require.NoError(t, tr.Insert(k(1), 1))

	require.ErrorIs(t, tr.Delete(k(2), 2), ErrKeyNotFound)
	require.ErrorIs(t, tr.Delete(k(1), 99), ErrKeyNotFound) // wrong ref
	require.Equal(t, 1, tr.Len())
}

func TestTree_DeleteRebalances(t *testing.T) {
	tr := NewTree(2, true) // small degree forces splits and merges early
	const n = 64
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(k(i), i))
	}
	require.NoError(t, tr.Validate())

	// delete every other key, then the rest
	for i := int64(0); i < n; i += 2 {
		require.NoError(t, tr.Delete(k(i), i))
		require.NoError(t, tr.Validate())
	}
	require.Equal(t, n/2, tr.Len())
	for i := int64(1); i < n; i += 2 {
		require.Equal(t, []int64{i}, tr.Search(k(i)))
	}
	for i := int64(1); i < n; i += 2 {
		require.NoError(t, tr.Delete(k(i), i))
		require.NoError(t, tr.Validate())
	}
	require.Equal(t, 0, tr.Len())
}

func TestTree_RandomInsertDelete(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tr := NewTree(3, true)
	alive := map[int64]bool{}

	for i := 0; i < 2000; i++ {
		v := int64(rng.Intn(500))
		if alive[v] {
			require.NoError(t, tr.Delete(k(v), v))
			delete(alive, v)
		} else {
			require.NoError(t, tr.Insert(k(v), v))
			alive[v] = true
		}
	}

	require.NoError(t, tr.Validate())
	require.Equal(t, len(alive), tr.Len())
	for v := range alive {
		require.Equal(t, []int64{v}, tr.Search(k(v)))
	}
}

func TestTree_AscendOrder(t *testing.T) {
	tr := NewTree(3, true)
	for _, v := range []int64{9, 3, 7, 1, 5} {
		require.NoError(t, tr.Insert(k(v), v))
	}

	var seen []int64
	tr.Ascend(func(key []any, refs []int64) bool {
		seen = append(seen, key[0].(int64))
		return true
	})
	require.Equal(t, []int64{1, 3, 5, 7, 9}, seen)

	// early stop
	count := 0
	tr.Ascend(func([]any, []int64) bool {
		count++
		return count < 2
	})
	require.Equal(t, 2, count)
}

func TestTree_CompositeKeys(t *testing.T) {
	tr := NewTree(3, true)
	require.NoError(t, tr.Insert([]any{"nairobi", int64(1)}, 1))
	require.NoError(t, tr.Insert([]any{"nairobi", int64(2)}, 2))
	require.NoError(t, tr.Insert([]any{"kisumu", int64(1)}, 3))

	require.Equal(t, []int64{2}, tr.Search([]any{"nairobi", int64(2)}))
	require.Equal(t, []int64{1, 2},
		tr.RangeSearch([]any{"nairobi", int64(0)}, []any{"nairobi", int64(9)}))
}
