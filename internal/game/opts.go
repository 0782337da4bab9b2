package game

import (
	"time"

	"termibbl/internal"
)

const (
	DefaultRoundDuration = 120 * time.Second
	DefaultRounds        = 3
)

// DefaultDimensions matches the typical size of a maximised terminal.
var DefaultDimensions = internal.Dimensions{Width: 900, Height: 60}

// Opts holds the per-room game settings. Immutable after a game starts.
type Opts struct {
	Dimensions    internal.Dimensions
	Words         []string
	Rounds        int
	RoundDuration time.Duration
}

func DefaultOpts() Opts {
	return Opts{
		Dimensions:    DefaultDimensions,
		Words:         DefaultWords,
		Rounds:        DefaultRounds,
		RoundDuration: DefaultRoundDuration,
	}
}

func (o Opts) roundSeconds() uint32 {
	return uint32(o.RoundDuration / time.Second)
}
