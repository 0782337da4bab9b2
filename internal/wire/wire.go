// Package wire implements the framed message protocol spoken between the
// termibbl server and its clients.
//
// After the username handshake line, every payload on the connection is a
// self-delimiting frame:
//
//	+--------------+---------------------------------+
//	| len: u32 big |  {"type": ..., "data": ...}     |
//	+--------------+---------------------------------+
//
// The same framing applies in both directions; only the set of message
// types differs.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"termibbl/internal"
	"termibbl/internal/game"
)

// MaxFrameSize bounds a single frame. Anything larger is a protocol
// error and closes the connection.
const MaxFrameSize = 1 << 20

var (
	ErrFrameTooBig    = errors.New("wire: frame exceeds maximum size")
	ErrUnknownMessage = errors.New("wire: unknown message type")
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ClientMsg is a message sent by a client to the server.
type ClientMsg interface{ clientMsg() }

// ServerMsg is a message sent by the server to a client.
type ServerMsg interface{ serverMsg() }

// NewMessage carries a chat message; during a game, client-sent chat is
// treated as a guess.
type NewMessage struct {
	Msg internal.Message
}

// NewLine carries one drawn stroke.
type NewLine struct {
	Line internal.Line
}

// ClearCanvas wipes the canvas of the current turn.
type ClearCanvas struct{}

// Command is a chat command addressed to the room.
type Command struct {
	Cmd internal.CommandMsg
}

// Play asks the server to queue the client for a game.
type Play struct{}

// JoinRoom requests a specific room by key. Reserved; the server does not
// route it yet.
type JoinRoom struct {
	Key string `json:"key"`
}

// InitialState is the private snapshot a client receives when it enters a
// room. The current word is never included; the drawer learns it from its
// private RoundStart.
type InitialState struct {
	Dimensions     internal.Dimensions `json:"dimensions"`
	NumberOfRounds int                 `json:"number_of_rounds"`
	SkribblState   *game.SkribblState  `json:"skribbl_state,omitempty"`
	PlayerId       internal.PlayerId   `json:"player_id"`
}

// RoundStart announces a new turn. Word is set only on the copy sent to
// the drawer; every other recipient receives nil. It doubles as the state
// refresh whenever a hint is revealed.
type RoundStart struct {
	Word  *string            `json:"word,omitempty"`
	State *game.SkribblState `json:"state"`
}

// RoundEnd announces the end of a turn with the settled scores.
type RoundEnd struct {
	State *game.SkribblState `json:"state"`
}

// GameOver announces the end of the game.
type GameOver struct {
	State *game.SkribblState `json:"state"`
}

// TimeChanged reports the remaining seconds of the current turn.
type TimeChanged struct {
	Remaining uint32 `json:"remaining"`
}

// Kick tells a client it is being disconnected on purpose.
type Kick struct {
	Reason string `json:"reason"`
}

func (NewMessage) clientMsg()  {}
func (NewLine) clientMsg()     {}
func (ClearCanvas) clientMsg() {}
func (Command) clientMsg()     {}
func (Play) clientMsg()        {}
func (JoinRoom) clientMsg()    {}

func (NewMessage) serverMsg()   {}
func (NewLine) serverMsg()      {}
func (ClearCanvas) serverMsg()  {}
func (InitialState) serverMsg() {}
func (RoundStart) serverMsg()   {}
func (RoundEnd) serverMsg()     {}
func (GameOver) serverMsg()     {}
func (TimeChanged) serverMsg()  {}
func (Kick) serverMsg()         {}

const (
	typeNewMessage   = "new_message"
	typeNewLine      = "new_line"
	typeClearCanvas  = "clear_canvas"
	typeCommand      = "command"
	typePlay         = "play"
	typeJoinRoom     = "join_room"
	typeInitialState = "initial_state"
	typeRoundStart   = "skribbl_round_start"
	typeRoundEnd     = "skribbl_round_end"
	typeGameOver     = "game_over"
	typeTimeChanged  = "time_changed"
	typeKick         = "kick"
)

// Encode serialises a message into a complete frame. Being handed a value
// that cannot be encoded is a programmer error and panics.
func Encode(msg any) []byte {
	var (
		tag     string
		payload any
	)

	switch m := msg.(type) {
	case NewMessage:
		tag, payload = typeNewMessage, m.Msg
	case NewLine:
		tag, payload = typeNewLine, m.Line
	case ClearCanvas:
		tag = typeClearCanvas
	case Command:
		tag, payload = typeCommand, m.Cmd
	case Play:
		tag = typePlay
	case JoinRoom:
		tag, payload = typeJoinRoom, m
	case InitialState:
		tag, payload = typeInitialState, m
	case RoundStart:
		tag, payload = typeRoundStart, m
	case RoundEnd:
		tag, payload = typeRoundEnd, m
	case GameOver:
		tag, payload = typeGameOver, m
	case TimeChanged:
		tag, payload = typeTimeChanged, m
	case Kick:
		tag, payload = typeKick, m
	default:
		panic(fmt.Sprintf("wire: cannot encode %T", msg))
	}

	env := envelope{Type: tag}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			panic(fmt.Sprintf("wire: encoding %T: %v", msg, err))
		}
		env.Data = data
	}

	body, err := json.Marshal(env)
	if err != nil {
		panic(fmt.Sprintf("wire: encoding %T: %v", msg, err))
	}
	if len(body) > MaxFrameSize {
		panic(fmt.Sprintf("wire: %T encodes to %d bytes", msg, len(body)))
	}

	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)
	return frame
}

// Write frames msg onto w.
func Write(w io.Writer, msg any) error {
	_, err := w.Write(Encode(msg))
	return err
}

// readFrame reads exactly one frame body from r. A clean EOF on the
// length prefix is returned as io.EOF; a truncated frame is
// io.ErrUnexpectedEOF.
func readFrame(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxFrameSize {
		return nil, ErrFrameTooBig
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}

// ReadClient reads and decodes the next client-to-server message from r.
func ReadClient(r io.Reader) (ClientMsg, error) {
	body, err := readFrame(r)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("wire: decoding frame: %w", err)
	}

	switch env.Type {
	case typeNewMessage:
		var msg internal.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return NewMessage{Msg: msg}, nil
	case typeNewLine:
		var line internal.Line
		if err := json.Unmarshal(env.Data, &line); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return NewLine{Line: line}, nil
	case typeClearCanvas:
		return ClearCanvas{}, nil
	case typeCommand:
		var cmd internal.CommandMsg
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return Command{Cmd: cmd}, nil
	case typePlay:
		return Play{}, nil
	case typeJoinRoom:
		var m JoinRoom
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
}

// ReadServer reads and decodes the next server-to-client message from r.
func ReadServer(r io.Reader) (ServerMsg, error) {
	body, err := readFrame(r)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("wire: decoding frame: %w", err)
	}

	switch env.Type {
	case typeNewMessage:
		var msg internal.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return NewMessage{Msg: msg}, nil
	case typeNewLine:
		var line internal.Line
		if err := json.Unmarshal(env.Data, &line); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return NewLine{Line: line}, nil
	case typeClearCanvas:
		return ClearCanvas{}, nil
	case typeInitialState:
		var m InitialState
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return m, nil
	case typeRoundStart:
		var m RoundStart
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return m, nil
	case typeRoundEnd:
		var m RoundEnd
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return m, nil
	case typeGameOver:
		var m GameOver
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return m, nil
	case typeTimeChanged:
		var m TimeChanged
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return m, nil
	case typeKick:
		var m Kick
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("wire: decoding %s: %w", env.Type, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
}
