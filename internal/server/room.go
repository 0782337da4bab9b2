package server

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	"termibbl/internal"
	"termibbl/internal/game"
	"termibbl/internal/wire"

	"github.com/benbjohnson/clock"
)

const roomEventBuffer = 32

// roomEvent is one unit of work for a room's event loop. Everything that
// touches room state arrives as one of these, so handlers never race.
type roomEvent interface{ isRoomEvent() }

type evConnect struct{ h Handle }
type evDisconnect struct{ id internal.PlayerId }
type evInbound struct {
	id  internal.PlayerId
	msg wire.ClientMsg
}
type evGameStart struct{}
type evTurnStart struct{}
type evTurnOver struct{ gen uint64 }
type evGameEnd struct{}
type evTick struct{}
type evStop struct{ reason string }

func (evConnect) isRoomEvent()    {}
func (evDisconnect) isRoomEvent() {}
func (evInbound) isRoomEvent()    {}
func (evGameStart) isRoomEvent()  {}
func (evTurnStart) isRoomEvent()  {}
func (evTurnOver) isRoomEvent()   {}
func (evGameEnd) isRoomEvent()    {}
func (evTick) isRoomEvent()       {}
func (evStop) isRoomEvent()       {}

// Room is one game instance: a lobby that becomes a running Skribbl once
// enough players are seated. It runs as a single-goroutine event loop;
// sessions and the server only ever talk to it through its inbox.
type Room struct {
	key string

	opts  game.Opts
	clock clock.Clock
	rng   *rand.Rand

	events chan roomEvent
	done   chan struct{}

	// pending holds events a handler wants processed next. Handlers must
	// never send to their own inbox, that can deadlock the loop.
	pending []roomEvent

	clients map[internal.PlayerId]Handle
	skribbl *game.Skribbl

	// turnGen guards against stale turn timers: an expiry whose
	// generation does not match the live one is ignored.
	turnGen    uint64
	turnActive bool
	turnTimer  *clock.Timer

	onClose func(key string)
}

// NewRoom starts a room's event loop. onClose is called exactly once,
// from the room goroutine, after the loop has stopped.
func NewRoom(key string, opts game.Opts, clk clock.Clock, rng *rand.Rand, onClose func(string)) *Room {
	r := &Room{
		key:     key,
		opts:    opts,
		clock:   clk,
		rng:     rng,
		events:  make(chan roomEvent, roomEventBuffer),
		done:    make(chan struct{}),
		clients: make(map[internal.PlayerId]Handle),
		onClose: onClose,
	}
	go r.run()
	return r
}

func (r *Room) Key() string { return r.key }

// Connect seats a player in the room.
func (r *Room) Connect(h Handle) { r.enqueue(evConnect{h: h}) }

// Disconnect removes a player; safe to call for ids the room never saw.
func (r *Room) Disconnect(id internal.PlayerId) { r.enqueue(evDisconnect{id: id}) }

// ClientMsg hands an inbound message to the room.
func (r *Room) ClientMsg(id internal.PlayerId, msg wire.ClientMsg) {
	r.enqueue(evInbound{id: id, msg: msg})
}

// Stop shuts the room down and kicks every remaining player with reason.
func (r *Room) Stop(reason string) { r.enqueue(evStop{reason: reason}) }

func (r *Room) enqueue(ev roomEvent) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

func (r *Room) run() {
	ticker := r.clock.Ticker(time.Second)
	defer ticker.Stop()

	for {
		if len(r.pending) > 0 {
			ev := r.pending[0]
			r.pending = r.pending[1:]
			if r.handle(ev) {
				return
			}
			continue
		}
		select {
		case ev := <-r.events:
			if r.handle(ev) {
				return
			}
		case <-ticker.C:
			if r.handle(evTick{}) {
				return
			}
		}
	}
}

func (r *Room) handle(ev roomEvent) (stopped bool) {
	switch ev := ev.(type) {
	case evConnect:
		r.onConnect(ev.h)
	case evDisconnect:
		return r.onDisconnect(ev.id)
	case evInbound:
		r.onInbound(ev.id, ev.msg)
	case evGameStart:
		r.onGameStart()
	case evTurnStart:
		r.onTurnStart()
	case evTurnOver:
		r.onTurnOver(ev.gen)
	case evGameEnd:
		r.onGameEnd()
	case evTick:
		r.onTick()
	case evStop:
		return r.shutdown(ev.reason)
	}
	return false
}

func (r *Room) onConnect(h Handle) {
	r.clients[h.Id()] = h
	h.JoinedRoom(r)

	var snapshot *game.SkribblState
	if r.skribbl != nil {
		r.skribbl.AddPlayer(h.Id(), h.Username())
		snapshot = r.skribbl.State.Clone()
	}
	h.Send(wire.InitialState{
		Dimensions:     r.opts.Dimensions,
		NumberOfRounds: r.opts.Rounds,
		SkribblState:   snapshot,
		PlayerId:       h.Id(),
	})

	r.systemMsg(fmt.Sprintf("%s has joined game room.", h.Username()))
	log.Printf("[onConnect] room=%s player=%s name=%s players=%d",
		r.key, h.Id(), h.Username(), len(r.clients))

	switch {
	case r.skribbl != nil:
		r.broadcastRoundStart()
	case len(r.clients) >= internal.MinPlayersToStart:
		r.pending = append(r.pending, evGameStart{})
	default:
		r.systemMsg("waiting for more users to join the game..")
	}
}

func (r *Room) onDisconnect(id internal.PlayerId) bool {
	h, ok := r.clients[id]
	if !ok {
		return false
	}
	delete(r.clients, id)
	h.JoinedRoom(nil)
	r.systemMsg(fmt.Sprintf("%s has left the game.", h.Username()))
	log.Printf("[onDisconnect] room=%s player=%s players=%d", r.key, id, len(r.clients))

	if len(r.clients) == 0 {
		return r.shutdown("")
	}

	if r.skribbl != nil {
		if wasDrawing := r.skribbl.RemovePlayer(id); wasDrawing {
			r.pending = append(r.pending, evTurnOver{gen: r.turnGen})
		} else {
			r.broadcastRoundStart()
		}
	}
	return false
}

func (r *Room) onInbound(id internal.PlayerId, msg wire.ClientMsg) {
	h, ok := r.clients[id]
	if !ok {
		internal.Debug.Printf("room %s: message from unknown player %s", r.key, id)
		return
	}

	switch m := msg.(type) {
	case wire.NewMessage:
		r.onChat(h, m.Msg)
	case wire.NewLine:
		r.onLine(h, m.Line)
	case wire.ClearCanvas:
		r.onClearCanvas(h)
	case wire.Command:
		r.onCommand(h, m.Cmd)
	default:
		internal.Debug.Printf("room %s: unhandled %T from %s", r.key, msg, id)
	}
}

// onChat treats chat as a guess while a game runs. Exact guesses become a
// system announcement, near misses stay private to the sender, and players
// who may no longer guess only reach each other and the drawer.
func (r *Room) onChat(h Handle, msg internal.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	chat := wire.NewMessage{Msg: internal.UserMsg(h.Username(), text)}

	if r.skribbl == nil {
		r.broadcast(chat)
		return
	}

	dist, guessed := r.skribbl.DoGuess(h.Id(), text)
	if !guessed {
		for id, other := range r.clients {
			if !r.skribbl.CanGuess(id) {
				_ = other.Send(chat)
			}
		}
		return
	}

	switch {
	case dist == 0:
		r.systemMsg(fmt.Sprintf("%s guessed it!", h.Username()))
		r.broadcastRoundStart()
		if r.skribbl.HasTurnEnded() {
			r.pending = append(r.pending, evTurnOver{gen: r.turnGen})
		}
	case dist == 1:
		h.Send(wire.NewMessage{Msg: internal.SystemMsg("You're very close!")})
	default:
		r.broadcast(chat)
	}
}

func (r *Room) onLine(h Handle, line internal.Line) {
	if r.skribbl == nil {
		return
	}
	if h.Id() != r.skribbl.State.DrawingUser {
		h.Send(wire.NewMessage{Msg: internal.SystemMsg("It is not your turn to draw!")})
		return
	}
	r.skribbl.AddLine(line)
	r.broadcastExcept(h.Id(), wire.NewLine{Line: line})
}

func (r *Room) onClearCanvas(h Handle) {
	if r.skribbl == nil {
		return
	}
	if h.Id() != r.skribbl.State.DrawingUser {
		h.Send(wire.NewMessage{Msg: internal.SystemMsg("It is not your turn to draw!")})
		return
	}
	r.skribbl.ClearCanvas()
	r.broadcast(wire.ClearCanvas{})
}

// onCommand refuses kicks. The command exists on the wire but nobody holds
// the capability to use it.
func (r *Room) onCommand(h Handle, cmd internal.CommandMsg) {
	if cmd.KickPlayer != "" {
		h.Send(wire.NewMessage{Msg: internal.SystemMsg("you are not allowed to kick players")})
	}
}

func (r *Room) onGameStart() {
	if r.skribbl != nil {
		return
	}

	seats := make([]game.Seat, 0, len(r.clients))
	for id, h := range r.clients {
		seats = append(seats, game.Seat{Id: id, Username: h.Username()})
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].Id < seats[j].Id })

	r.skribbl = game.NewSkribbl(seats, r.opts, r.clock, r.rng)
	log.Printf("[onGameStart] room=%s players=%d rounds=%d", r.key, len(seats), r.opts.Rounds)
	r.pending = append(r.pending, evTurnStart{})
}

func (r *Room) onTurnStart() {
	if r.skribbl == nil {
		return
	}

	r.skribbl.NextTurn()
	r.turnGen++
	r.turnActive = true

	gen := r.turnGen
	if r.turnTimer != nil {
		r.turnTimer.Stop()
	}
	r.turnTimer = r.clock.AfterFunc(r.opts.RoundDuration, func() {
		r.enqueue(evTurnOver{gen: gen})
	})

	internal.Debug.Printf("room %s: turn %d, %s draws %q",
		r.key, r.turnGen, r.skribbl.State.DrawingUser, r.skribbl.CurrentWord())
	r.broadcastRoundStart()
}

func (r *Room) onTurnOver(gen uint64) {
	if r.skribbl == nil || !r.turnActive || gen != r.turnGen {
		return
	}
	r.turnActive = false
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}

	r.skribbl.EndTurn()
	r.systemMsg(fmt.Sprintf("The word was: %q", r.skribbl.CurrentWord()))
	r.broadcast(wire.RoundEnd{State: r.skribbl.State.Clone()})

	if r.skribbl.IsFinished() {
		r.pending = append(r.pending, evGameEnd{})
	} else {
		r.pending = append(r.pending, evTurnStart{})
	}
}

func (r *Room) onGameEnd() {
	if r.skribbl == nil {
		return
	}
	r.broadcast(wire.GameOver{State: r.skribbl.State.Clone()})
	r.skribbl = nil
	log.Printf("[onGameEnd] room=%s back to lobby", r.key)
	r.systemMsg("waiting for more users to join the game..")
}

// onTick runs once a second while a turn is live: it notices a shortened
// deadline, drips out hints, and keeps the clients' clocks in sync.
func (r *Room) onTick() {
	if r.skribbl == nil || !r.turnActive {
		return
	}

	remaining := r.skribbl.RemainingTime()
	if remaining == 0 {
		r.pending = append(r.pending, evTurnOver{gen: r.turnGen})
		return
	}

	duration := uint32(r.opts.RoundDuration / time.Second)
	var due bool
	switch len(r.skribbl.State.RevealedCharacters) {
	case 0:
		due = remaining <= duration/2
	case 1:
		due = remaining <= duration/4
	}
	if due && r.skribbl.RevealRandomChar() {
		r.broadcastRoundStart()
	}

	r.broadcast(wire.TimeChanged{Remaining: remaining})
}

func (r *Room) shutdown(reason string) bool {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
	}
	close(r.done)
	for _, h := range r.clients {
		h.JoinedRoom(nil)
		if reason != "" {
			h.Kick(reason)
		}
	}
	if r.onClose != nil {
		r.onClose(r.key)
	}
	log.Printf("[shutdown] room=%s reason=%q", r.key, reason)
	return true
}

// broadcastRoundStart sends the current state to everyone; only the drawer
// receives the word.
func (r *Room) broadcastRoundStart() {
	if r.skribbl == nil {
		return
	}
	state := r.skribbl.State.Clone()
	drawer := r.skribbl.State.DrawingUser
	for id, h := range r.clients {
		if id == drawer {
			word := r.skribbl.CurrentWord()
			h.Send(wire.RoundStart{Word: &word, State: state})
		} else {
			h.Send(wire.RoundStart{State: state})
		}
	}
}

func (r *Room) systemMsg(text string) {
	r.broadcast(wire.NewMessage{Msg: internal.SystemMsg(text)})
}

func (r *Room) broadcast(msg wire.ServerMsg) {
	for _, h := range r.clients {
		h.Send(msg)
	}
}

func (r *Room) broadcastExcept(skip internal.PlayerId, msg wire.ServerMsg) {
	for id, h := range r.clients {
		if id != skip {
			h.Send(msg)
		}
	}
}
