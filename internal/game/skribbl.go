package game

import (
	"math/rand"
	"slices"
	"time"
	"unicode"

	"termibbl/internal"

	"github.com/benbjohnson/clock"
)

// Player is the per-game view of a participant.
type Player struct {
	Username  internal.Username `json:"username"`
	Score     uint32            `json:"score"`
	HasSolved bool              `json:"has_solved"`
}

// onSolve awards the time-based score and marks the player as done for
// this turn. Scores only ever grow.
func (p *Player) onSolve(remaining, roundDuration uint32) {
	p.Score += ScoreIncrease(remaining, roundDuration)
	p.HasSolved = true
}

// ScoreIncrease is the bonus for solving with remaining seconds left on
// the clock: a flat 50 plus up to 50 more the earlier the solve.
func ScoreIncrease(remaining, roundDuration uint32) uint32 {
	return 50 + uint32(float64(remaining)/float64(roundDuration)*50)
}

// SkribblState is the shareable game state of a room. Everything in here
// is safe to show to any player; the current word lives on Skribbl.
type SkribblState struct {
	CurrentRound int    `json:"current_round"`
	LastRound    int    `json:"last_round"`
	TurnEndTime  uint64 `json:"turn_end_time"`
	WordLength   int    `json:"word_length"`

	// index -> revealed character; whitespace is always revealed
	RevealedCharacters map[int]rune `json:"revealed_characters"`

	Canvas           []internal.Line               `json:"canvas"`
	RemainingPlayers []internal.PlayerId           `json:"remaining_players"`
	Players          map[internal.PlayerId]*Player `json:"players"`
	DrawingUser      internal.PlayerId             `json:"drawing_user"`
}

// HintedCurrentWord renders the word as seen by guessers: revealed indices
// show their character, everything else is '?'.
func (st *SkribblState) HintedCurrentWord() string {
	hinted := make([]rune, st.WordLength)
	for i := range hinted {
		if ch, ok := st.RevealedCharacters[i]; ok {
			hinted[i] = ch
		} else {
			hinted[i] = '?'
		}
	}
	return string(hinted)
}

func (st *SkribblState) canRevealChar() bool {
	return len(st.RevealedCharacters) < st.WordLength/2
}

// Clone deep-copies the state so it can be handed to writer goroutines
// while the room keeps mutating the original.
func (st *SkribblState) Clone() *SkribblState {
	c := *st
	c.RevealedCharacters = make(map[int]rune, len(st.RevealedCharacters))
	for idx, ch := range st.RevealedCharacters {
		c.RevealedCharacters[idx] = ch
	}
	c.Canvas = slices.Clone(st.Canvas)
	c.RemainingPlayers = slices.Clone(st.RemainingPlayers)
	c.Players = make(map[internal.PlayerId]*Player, len(st.Players))
	for id, p := range st.Players {
		cp := *p
		c.Players[id] = &cp
	}
	return &c
}

// Seat pairs a player id with its username when a game starts.
type Seat struct {
	Id       internal.PlayerId
	Username internal.Username
}

// Skribbl wraps the shareable state with the ground-truth word, the game
// options and the injected clock and RNG.
type Skribbl struct {
	word  string
	State *SkribblState

	opts  Opts
	words *WordList
	clock clock.Clock
	rng   *rand.Rand
}

// NewSkribbl builds a fresh game for the given seats. The word list is
// shuffled once with the room RNG and then cycled, so every word comes up
// before any repeats.
func NewSkribbl(seats []Seat, opts Opts, clk clock.Clock, rng *rand.Rand) *Skribbl {
	st := &SkribblState{
		CurrentRound:       0,
		LastRound:          opts.Rounds,
		RevealedCharacters: make(map[int]rune),
		Players:            make(map[internal.PlayerId]*Player, len(seats)),
	}
	for _, seat := range seats {
		st.Players[seat.Id] = &Player{Username: seat.Username}
	}

	words := NewWordList(slices.Clone(opts.Words))
	words.Shuffle(rng)

	return &Skribbl{
		State: st,
		opts:  opts,
		words: words,
		clock: clk,
		rng:   rng,
	}
}

func (s *Skribbl) Opts() Opts          { return s.opts }
func (s *Skribbl) CurrentWord() string { return s.word }

func (s *Skribbl) now() uint64 {
	return uint64(s.clock.Now().Unix())
}

// RemainingTime returns the seconds left in the current turn, never
// negative.
func (s *Skribbl) RemainingTime() uint32 {
	now := s.now()
	if s.State.TurnEndTime <= now {
		return 0
	}
	return uint32(s.State.TurnEndTime - now)
}

// NextTurn rotates to the next drawer and picks a fresh word. When every
// player of the round has drawn, the rotation refills and a new round
// begins.
func (s *Skribbl) NextTurn() {
	st := s.State

	word := s.words.Next()
	s.word = word

	st.Canvas = nil
	st.WordLength = len([]rune(word))
	st.TurnEndTime = s.now() + uint64(s.opts.RoundDuration/time.Second)
	st.RevealedCharacters = make(map[int]rune)
	for idx, ch := range []rune(word) {
		if unicode.IsSpace(ch) {
			st.RevealedCharacters[idx] = ch
		}
	}

	if len(st.RemainingPlayers) == 0 {
		ids := make([]internal.PlayerId, 0, len(st.Players))
		for id := range st.Players {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		st.RemainingPlayers = ids
		st.CurrentRound++
	}

	st.DrawingUser = st.RemainingPlayers[0]
	st.RemainingPlayers = st.RemainingPlayers[1:]

	for _, p := range st.Players {
		p.HasSolved = false
	}
}

// CanGuess reports whether the player may still submit guesses this turn.
func (s *Skribbl) CanGuess(id internal.PlayerId) bool {
	if id == s.State.DrawingUser {
		return false
	}
	p, ok := s.State.Players[id]
	return ok && !p.HasSolved
}

// hasAnySolved reports whether any non-drawing player has solved already.
func (s *Skribbl) hasAnySolved() bool {
	for id, p := range s.State.Players {
		if id != s.State.DrawingUser && p.HasSolved {
			return true
		}
	}
	return false
}

// DoGuess evaluates a guess and returns its edit distance to the current
// word. A zero distance awards the score and marks the player as solved;
// every solve after the first halves the remaining turn time. ok is false
// when the player cannot guess at all.
func (s *Skribbl) DoGuess(id internal.PlayerId, guess string) (distance int, ok bool) {
	if !s.CanGuess(id) {
		return 0, false
	}

	remaining := s.RemainingTime()
	distance = Levenshtein(guess, s.word)
	if distance == 0 {
		if s.hasAnySolved() {
			s.State.TurnEndTime -= uint64(remaining / 2)
		}
		s.State.Players[id].onSolve(remaining, s.opts.roundSeconds())
	}
	return distance, true
}

// RevealRandomChar uncovers one random hidden non-whitespace character,
// as long as that keeps less than half of the word revealed.
func (s *Skribbl) RevealRandomChar() bool {
	if !s.State.canRevealChar() {
		return false
	}
	idx, ch, ok := RevealOne(s.word, s.State.RevealedCharacters, s.rng)
	if !ok {
		return false
	}
	s.State.RevealedCharacters[idx] = ch
	return true
}

// HasTurnEnded reports whether every non-drawing player has solved.
func (s *Skribbl) HasTurnEnded() bool {
	for id, p := range s.State.Players {
		if id != s.State.DrawingUser && !p.HasSolved {
			return false
		}
	}
	return true
}

// HasRoundEnded reports whether the rotation is exhausted or the turn
// deadline has passed.
func (s *Skribbl) HasRoundEnded() bool {
	return len(s.State.RemainingPlayers) == 0 || s.State.TurnEndTime <= s.now()
}

// IsFinished reports whether the game is over.
func (s *Skribbl) IsFinished() bool {
	return s.HasRoundEnded() && s.State.CurrentRound == s.State.LastRound
}

// EndTurn awards the drawer a flat 50 plus the same time-based bonus a
// solver would get for the remaining time.
func (s *Skribbl) EndTurn() {
	remaining := s.RemainingTime()
	if p, ok := s.State.Players[s.State.DrawingUser]; ok {
		p.Score += 50
		p.onSolve(remaining, s.opts.roundSeconds())
	}
}

// AddLine appends one stroke to the canvas of the current turn.
func (s *Skribbl) AddLine(line internal.Line) {
	s.State.Canvas = append(s.State.Canvas, line)
}

// ClearCanvas drops every line drawn this turn.
func (s *Skribbl) ClearCanvas() {
	s.State.Canvas = nil
}

// AddPlayer seats a late joiner at the end of the rotation so they draw
// later this round. Adding a present player is a no-op.
func (s *Skribbl) AddPlayer(id internal.PlayerId, username internal.Username) {
	if _, ok := s.State.Players[id]; ok {
		return
	}
	s.State.Players[id] = &Player{Username: username}
	s.State.RemainingPlayers = append(s.State.RemainingPlayers, id)
}

// RemovePlayer drops a player from the game and reports whether they were
// drawing; the room must rotate the turn if so.
func (s *Skribbl) RemovePlayer(id internal.PlayerId) (wasDrawing bool) {
	delete(s.State.Players, id)
	s.State.RemainingPlayers = slices.DeleteFunc(s.State.RemainingPlayers,
		func(other internal.PlayerId) bool { return other == id })
	return id == s.State.DrawingUser
}
