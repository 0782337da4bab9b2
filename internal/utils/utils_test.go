package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateId(t *testing.T) {
	id := GenerateId(PlayerIdLength)
	require.Len(t, id, PlayerIdLength)
	for _, ch := range id {
		assert.Contains(t, safeAlphabet, string(ch))
	}

	key := GenerateId(RoomKeyLength)
	assert.Len(t, key, RoomKeyLength)
}

func TestGenerateIdIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateId(PlayerIdLength)
		require.False(t, seen[id], "id %s repeated", id)
		seen[id] = true
	}
}

func TestRandomSeedVaries(t *testing.T) {
	a, b := RandomSeed(), RandomSeed()
	assert.NotEqual(t, a, b)
}

func TestGenerateIdNoPadding(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.False(t, strings.ContainsAny(GenerateId(8), "=+/"))
	}
}
