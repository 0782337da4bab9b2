package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"testing"

	"termibbl/internal"
	"termibbl/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMessageRoundTrip(t *testing.T) {
	user := internal.Username{Name: "ferris", UniqueId: "u7"}

	tests := []struct {
		name string
		msg  ClientMsg
	}{
		{"chat", NewMessage{Msg: internal.UserMsg(user, "hello there")}},
		{"line", NewLine{Line: internal.Line{
			Start: internal.Coord{X: 1, Y: 2},
			End:   internal.Coord{X: 30, Y: 2},
			Color: internal.Red,
		}}},
		{"clear", ClearCanvas{}},
		{"kick command", Command{Cmd: internal.CommandMsg{KickPlayer: "mallory"}}},
		{"play", Play{}},
		{"join room", JoinRoom{Key: "aB3_x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadClient(bytes.NewReader(Encode(tt.msg)))
			require.NoError(t, err)
			assert.Equal(t, tt.msg, got)
		})
	}
}

func TestServerMessageRoundTrip(t *testing.T) {
	word := "banana"
	state := &game.SkribblState{
		CurrentRound:       1,
		LastRound:          3,
		TurnEndTime:        1700000120,
		WordLength:         6,
		RevealedCharacters: map[int]rune{2: 'n'},
		Canvas: []internal.Line{{
			Start: internal.Coord{X: 0, Y: 0},
			End:   internal.Coord{X: 5, Y: 5},
			Color: internal.White,
		}},
		RemainingPlayers: []internal.PlayerId{"p2"},
		Players: map[internal.PlayerId]*game.Player{
			"p1": {Username: internal.Username{Name: "alice", UniqueId: "u1"}, Score: 75},
			"p2": {Username: internal.Username{Name: "bob", UniqueId: "u2"}},
		},
		DrawingUser: "p1",
	}

	tests := []struct {
		name string
		msg  ServerMsg
	}{
		{"chat", NewMessage{Msg: internal.SystemMsg("alice guessed it!")}},
		{"line", NewLine{Line: internal.Line{
			Start: internal.Coord{X: 9, Y: 9},
			End:   internal.Coord{X: 9, Y: 20},
			Color: internal.Blue,
		}}},
		{"clear", ClearCanvas{}},
		{"initial state", InitialState{
			Dimensions:     internal.Dimensions{Width: 900, Height: 60},
			NumberOfRounds: 3,
			SkribblState:   state,
			PlayerId:       "p2",
		}},
		{"round start for drawer", RoundStart{Word: &word, State: state}},
		{"round start for guesser", RoundStart{State: state}},
		{"round end", RoundEnd{State: state}},
		{"game over", GameOver{State: state}},
		{"time changed", TimeChanged{Remaining: 42}},
		{"kick", Kick{Reason: "room is closing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadServer(bytes.NewReader(Encode(tt.msg)))
			require.NoError(t, err)
			assert.Equal(t, tt.msg, got)
		})
	}
}

func TestWordOmittedForGuessers(t *testing.T) {
	frame := Encode(RoundStart{State: &game.SkribblState{WordLength: 5}})
	assert.NotContains(t, string(frame[4:]), `"word"`)
}

func TestReadEOF(t *testing.T) {
	_, err := ReadClient(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadTruncatedFrame(t *testing.T) {
	frame := Encode(Play{})

	// cut the prefix short
	_, err := ReadClient(bytes.NewReader(frame[:2]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// cut the body short
	_, err = ReadClient(bytes.NewReader(frame[:len(frame)-3]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadOversizeFrame(t *testing.T) {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], MaxFrameSize+1)

	_, err := ReadClient(bytes.NewReader(prefix[:]))
	assert.ErrorIs(t, err, ErrFrameTooBig)

	_, err = ReadServer(bytes.NewReader(prefix[:]))
	assert.ErrorIs(t, err, ErrFrameTooBig)
}

func TestReadUnknownType(t *testing.T) {
	body, err := json.Marshal(envelope{Type: "self_destruct"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(len(body))))
	buf.Write(body)

	_, err = ReadClient(bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = ReadServer(bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestDirectionalTypes(t *testing.T) {
	// play is client-only, initial_state is server-only
	_, err := ReadServer(bytes.NewReader(Encode(Play{})))
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = ReadClient(bytes.NewReader(Encode(InitialState{PlayerId: "p1"})))
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestManyFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Play{}))
	require.NoError(t, Write(&buf, NewMessage{Msg: internal.UserMsg(
		internal.Username{Name: "alice", UniqueId: "u1"}, "apple")}))
	require.NoError(t, Write(&buf, ClearCanvas{}))

	first, err := ReadClient(&buf)
	require.NoError(t, err)
	assert.Equal(t, Play{}, first)

	second, err := ReadClient(&buf)
	require.NoError(t, err)
	require.IsType(t, NewMessage{}, second)
	assert.Equal(t, "apple", second.(NewMessage).Msg.Text)

	third, err := ReadClient(&buf)
	require.NoError(t, err)
	assert.Equal(t, ClearCanvas{}, third)

	_, err = ReadClient(&buf)
	assert.ErrorIs(t, err, io.EOF)
}
