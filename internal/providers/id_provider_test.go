package providers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDProvider_ReturnsParsableDistinctIDs(t *testing.T) {
	p := NewIDProvider()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := p.NewID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)
}
