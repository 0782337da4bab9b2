package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordWithinIsStrict(t *testing.T) {
	a := Coord{X: 0, Y: 0}
	b := Coord{X: 10, Y: 10}

	assert.True(t, Coord{X: 5, Y: 5}.Within(a, b))
	assert.True(t, Coord{X: 1, Y: 9}.Within(a, b))

	// border cells do not count
	assert.False(t, Coord{X: 0, Y: 5}.Within(a, b))
	assert.False(t, Coord{X: 10, Y: 5}.Within(a, b))
	assert.False(t, Coord{X: 5, Y: 0}.Within(a, b))
	assert.False(t, Coord{X: 5, Y: 10}.Within(a, b))

	// corner order must not matter
	assert.True(t, Coord{X: 5, Y: 5}.Within(b, a))
}

func TestLineCoordsIn(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want int
	}{
		{"horizontal", Line{Start: Coord{X: 2, Y: 3}, End: Coord{X: 6, Y: 3}}, 5},
		{"vertical", Line{Start: Coord{X: 4, Y: 1}, End: Coord{X: 4, Y: 5}}, 5},
		{"diagonal", Line{Start: Coord{X: 0, Y: 0}, End: Coord{X: 4, Y: 4}}, 5},
		{"point", Line{Start: Coord{X: 7, Y: 7}, End: Coord{X: 7, Y: 7}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := tt.line.CoordsIn()
			assert.Len(t, cells, tt.want)
			assert.Contains(t, cells, tt.line.Start)
			assert.Contains(t, cells, tt.line.End)
		})
	}
}

func TestLineCoordsInDeterministic(t *testing.T) {
	line := Line{Start: Coord{X: 3, Y: 9}, End: Coord{X: 17, Y: 2}}
	require.Equal(t, line.CoordsIn(), line.CoordsIn())
}

func TestUsernameOrdering(t *testing.T) {
	alice := Username{Name: "alice", UniqueId: "a1"}
	alice2 := Username{Name: "alice", UniqueId: "a2"}
	bob := Username{Name: "bob", UniqueId: "a0"}

	assert.True(t, alice.Less(bob))
	assert.True(t, alice.Less(alice2))
	assert.False(t, bob.Less(alice))
	assert.False(t, alice.Less(alice))
}

func TestMessageKinds(t *testing.T) {
	sys := SystemMsg("waiting for more users to join the game..")
	assert.True(t, sys.IsSystem())
	assert.Equal(t, "waiting for more users to join the game..", sys.String())

	user := UserMsg(Username{Name: "carol"}, "is it a cat?")
	assert.False(t, user.IsSystem())
	assert.Equal(t, "carol: is it a cat?", user.String())
}

func TestParseDimensions(t *testing.T) {
	d, err := ParseDimensions("900x60")
	require.NoError(t, err)
	assert.Equal(t, Dimensions{Width: 900, Height: 60}, d)
	assert.Equal(t, "900x60", d.String())

	for _, bad := range []string{
		"", "900", "x60", "0x60", "900x0", "ax b",
		"900x60junk", "junk900x60", "12x34x56", " 900x60",
	} {
		_, err := ParseDimensions(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestPaletteCoversAllColors(t *testing.T) {
	assert.Len(t, Palette, 16)
	seen := make(map[CanvasColor]bool)
	for _, c := range Palette {
		assert.False(t, seen[c], "duplicate color %s", c)
		seen[c] = true
	}
}
