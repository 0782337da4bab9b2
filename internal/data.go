package internal

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
)

const (
	MinPlayersToStart = 2

	// A room never seats more players than this; matchmaking prefers
	// topping up small rooms before it gets anywhere close.
	MaxPlayersPerRoom = 8
)

// Debug is a secondary logger for protocol and scheduling chatter. It
// discards everything unless EnableDebug is called at startup.
var Debug = log.New(io.Discard, "[debug] ", log.LstdFlags|log.Lmsgprefix)

func EnableDebug(w io.Writer) {
	Debug.SetOutput(w)
}

// PlayerId identifies a connected player for the lifetime of its session.
// Ids are URL-safe random strings and are never reused across sessions.
type PlayerId string

// Username is a self-declared display name plus an optional server-issued
// identifier. Display names are not unique across a server; the identifier
// disambiguates.
type Username struct {
	Name     string `json:"name"`
	UniqueId string `json:"unique_id,omitempty"`
}

func UsernameFrom(name string) Username {
	return Username{Name: name}
}

func (u Username) Identifier() string { return u.UniqueId }

func (u *Username) SetIdentifier(id string) { u.UniqueId = id }

func (u Username) String() string { return u.Name }

// Less orders usernames lexicographically by display name, then identifier.
func (u Username) Less(o Username) bool {
	if u.Name != o.Name {
		return u.Name < o.Name
	}
	return u.UniqueId < o.UniqueId
}

// Coord is a cell position on the canvas.
type Coord struct {
	X uint16 `json:"x"`
	Y uint16 `json:"y"`
}

// Within reports whether c lies strictly inside the rectangle spanned by
// a and b, exclusive of the border.
func (c Coord) Within(a, b Coord) bool {
	return min(a.X, b.X) < c.X && c.X < max(a.X, b.X) &&
		min(a.Y, b.Y) < c.Y && c.Y < max(a.Y, b.Y)
}

// CanvasColor is one of the 16 colors a terminal client can render.
type CanvasColor string

const (
	White        CanvasColor = "white"
	Gray         CanvasColor = "gray"
	DarkGray     CanvasColor = "dark_gray"
	Black        CanvasColor = "black"
	Red          CanvasColor = "red"
	LightRed     CanvasColor = "light_red"
	Green        CanvasColor = "green"
	LightGreen   CanvasColor = "light_green"
	Blue         CanvasColor = "blue"
	LightBlue    CanvasColor = "light_blue"
	Yellow       CanvasColor = "yellow"
	LightYellow  CanvasColor = "light_yellow"
	Cyan         CanvasColor = "cyan"
	LightCyan    CanvasColor = "light_cyan"
	Magenta      CanvasColor = "magenta"
	LightMagenta CanvasColor = "light_magenta"
)

// Palette is the fixed swatch order clients present for color selection.
var Palette = []CanvasColor{
	White, Gray, DarkGray, Black,
	Red, LightRed, Green, LightGreen,
	Blue, LightBlue, Yellow, LightYellow,
	Cyan, LightCyan, Magenta, LightMagenta,
}

// Line is a single stroke on the canvas.
type Line struct {
	Start Coord       `json:"start"`
	End   Coord       `json:"end"`
	Color CanvasColor `json:"color"`
}

// Message is a chat entry: either a system notice or a user message.
// A nil user marks a system message. Messages are immutable once built.
type Message struct {
	User *Username `json:"user,omitempty"`
	Text string    `json:"text"`
}

func SystemMsg(text string) Message {
	return Message{Text: text}
}

func UserMsg(user Username, text string) Message {
	return Message{User: &user, Text: text}
}

func (m Message) IsSystem() bool { return m.User == nil }

func (m Message) String() string {
	if m.User == nil {
		return m.Text
	}
	return fmt.Sprintf("%s: %s", m.User, m.Text)
}

// CommandMsg is a chat command. Only kicking is declared so far, and no
// authorization model exists yet, so rooms refuse it.
type CommandMsg struct {
	KickPlayer string `json:"kick_player,omitempty"`
}

// Dimensions is the canvas size offered to joining clients.
type Dimensions struct {
	Width  uint16 `json:"width"`
	Height uint16 `json:"height"`
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// ParseDimensions parses a "WxH" pair, e.g. "900x60".
func ParseDimensions(s string) (Dimensions, error) {
	var d Dimensions
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return d, fmt.Errorf("dimensions %q: expected <width>x<height>", s)
	}
	width, err := strconv.ParseUint(w, 10, 16)
	if err != nil {
		return d, fmt.Errorf("dimensions %q: %w", s, err)
	}
	height, err := strconv.ParseUint(h, 10, 16)
	if err != nil {
		return d, fmt.Errorf("dimensions %q: %w", s, err)
	}
	d = Dimensions{Width: uint16(width), Height: uint16(height)}
	if d.Width == 0 || d.Height == 0 {
		return d, fmt.Errorf("dimensions %q: must be positive", s)
	}
	return d, nil
}
