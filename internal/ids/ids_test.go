package ids

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestNewProducesValidULIDs(t *testing.T) {
	id := New()
	require.Len(t, id, 26)
	_, err := ulid.Parse(id)
	require.NoError(t, err)
}

func TestNewIsUniqueAndOrdered(t *testing.T) {
	seen := make(map[string]struct{})
	prev := ""
	for i := 0; i < 1000; i++ {
		id := New()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
		require.Greater(t, id, prev, "ids must be monotonically sortable")
		prev = id
	}
}
