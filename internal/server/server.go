package server

import (
	"container/heap"
	"errors"
	"log"
	"math/rand"
	"net"
	"slices"
	"time"

	"termibbl/internal"
	"termibbl/internal/game"
	"termibbl/internal/utils"

	"github.com/benbjohnson/clock"
)

const (
	// matchmakingInterval paces the queue drain.
	matchmakingInterval = 2 * time.Second

	// queueSurge is the queue length above which a fresh room is opened
	// even when rooms already exist.
	queueSurge = 3

	serverEventBuffer = 64
)

type serverEvent interface{ isServerEvent() }

type evClientConnect struct{ h Handle }
type evClientQueue struct{ id internal.PlayerId }
type evClientLeave struct{ id internal.PlayerId }
type evRoomClosed struct{ key string }
type evRoomList struct{ reply chan []RoomInfo }
type evServerStop struct{ stopped chan struct{} }

func (evClientConnect) isServerEvent() {}
func (evClientQueue) isServerEvent()   {}
func (evClientLeave) isServerEvent()   {}
func (evRoomClosed) isServerEvent()    {}
func (evRoomList) isServerEvent()      {}
func (evServerStop) isServerEvent()    {}

// RoomInfo is the occupancy of one room, as reported on /rooms.
type RoomInfo struct {
	Key     string `json:"key"`
	Players int    `json:"players"`
}

// roomSlot tracks a room's population inside the matchmaking min-heap.
type roomSlot struct {
	key   string
	size  int
	index int
}

type roomHeap []*roomSlot

func (h roomHeap) Len() int           { return len(h) }
func (h roomHeap) Less(i, j int) bool { return h[i].size < h[j].size }
func (h roomHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *roomHeap) Push(x any)        { s := x.(*roomSlot); s.index = len(*h); *h = append(*h, s) }
func (h *roomHeap) Pop() any {
	old := *h
	s := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return s
}

// GameServer owns the accept socket, the matchmaking queue and the room
// registry. Like rooms and sessions it is an event loop; the accept loop
// and the sessions talk to it only through the inbox.
type GameServer struct {
	opts  game.Opts
	clock clock.Clock

	events chan serverEvent
	done   chan struct{}

	listener net.Listener

	sessions map[internal.PlayerId]Handle
	queue    []internal.PlayerId
	rooms    map[string]*Room
	slots    map[string]*roomSlot
	roomOf   map[internal.PlayerId]string
	byLoad   roomHeap
}

// NewGameServer starts the server event loop. The listener is attached
// separately with Listen.
func NewGameServer(opts game.Opts, clk clock.Clock) *GameServer {
	gs := &GameServer{
		opts:     opts,
		clock:    clk,
		events:   make(chan serverEvent, serverEventBuffer),
		done:     make(chan struct{}),
		sessions: make(map[internal.PlayerId]Handle),
		rooms:    make(map[string]*Room),
		slots:    make(map[string]*roomSlot),
		roomOf:   make(map[internal.PlayerId]string),
	}
	go gs.run()
	return gs
}

// Listen binds the TCP accept socket.
func (gs *GameServer) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	gs.listener = ln
	log.Printf("[Listen] listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound listener address.
func (gs *GameServer) Addr() net.Addr {
	if gs.listener == nil {
		return nil
	}
	return gs.listener.Addr()
}

// Serve accepts connections until the listener closes, running one
// session per connection.
func (gs *GameServer) Serve() {
	for {
		conn, err := gs.listener.Accept()
		if err != nil {
			select {
			case <-gs.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("[Serve] accept: %v", err)
			continue
		}
		go ServeConn(gs, conn)
	}
}

// Connect registers a freshly handshaken session and puts it in the
// matchmaking queue. It reports false when the server is shutting down.
func (gs *GameServer) Connect(h Handle) bool {
	select {
	case gs.events <- evClientConnect{h: h}:
		return true
	case <-gs.done:
		return false
	}
}

// Queue re-requests matchmaking for an idle session.
func (gs *GameServer) Queue(h Handle) {
	gs.enqueue(evClientQueue{id: h.Id()})
}

// Disconnect removes a session from the registry and the queue.
func (gs *GameServer) Disconnect(id internal.PlayerId) {
	gs.enqueue(evClientLeave{id: id})
}

// Rooms lists current rooms and their occupancy.
func (gs *GameServer) Rooms() []RoomInfo {
	reply := make(chan []RoomInfo, 1)
	select {
	case gs.events <- evRoomList{reply: reply}:
		return <-reply
	case <-gs.done:
		return nil
	}
}

// Shutdown stops accepting, kicks every client and stops every room, then
// waits up to grace for writers to flush.
func (gs *GameServer) Shutdown(grace time.Duration) {
	if gs.listener != nil {
		gs.listener.Close()
	}

	select {
	case <-gs.done:
		return
	default:
	}

	stopped := make(chan struct{})
	select {
	case gs.events <- evServerStop{stopped: stopped}:
		<-stopped
	case <-gs.done:
		return
	}

	timer := gs.clock.Timer(grace)
	defer timer.Stop()
	<-timer.C
}

func (gs *GameServer) enqueue(ev serverEvent) {
	select {
	case gs.events <- ev:
	case <-gs.done:
	}
}

func (gs *GameServer) run() {
	ticker := gs.clock.Ticker(matchmakingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-gs.events:
			switch ev := ev.(type) {
			case evClientConnect:
				gs.onConnect(ev.h)
			case evClientQueue:
				gs.onQueue(ev.id)
			case evClientLeave:
				gs.onLeave(ev.id)
			case evRoomClosed:
				gs.onRoomClosed(ev.key)
			case evRoomList:
				ev.reply <- gs.roomList()
			case evServerStop:
				gs.onStop()
				close(ev.stopped)
				return
			}
		case <-ticker.C:
			gs.matchmake()
		}
	}
}

func (gs *GameServer) onConnect(h Handle) {
	gs.sessions[h.Id()] = h
	gs.queue = append(gs.queue, h.Id())
	internal.Debug.Printf("server: %s (%s) queued, queue=%d", h.Id(), h.Username(), len(gs.queue))
}

func (gs *GameServer) onQueue(id internal.PlayerId) {
	if _, ok := gs.sessions[id]; !ok {
		return
	}
	if key, ok := gs.roomOf[id]; ok {
		if _, live := gs.rooms[key]; live {
			return
		}
		delete(gs.roomOf, id)
	}
	if slices.Contains(gs.queue, id) {
		return
	}
	gs.queue = append(gs.queue, id)
}

func (gs *GameServer) onLeave(id internal.PlayerId) {
	delete(gs.sessions, id)
	gs.queue = slices.DeleteFunc(gs.queue,
		func(other internal.PlayerId) bool { return other == id })

	if key, ok := gs.roomOf[id]; ok {
		delete(gs.roomOf, id)
		if slot, ok := gs.slots[key]; ok && slot.size > 0 {
			slot.size--
			heap.Fix(&gs.byLoad, slot.index)
		}
	}
}

func (gs *GameServer) onRoomClosed(key string) {
	delete(gs.rooms, key)
	if slot, ok := gs.slots[key]; ok {
		delete(gs.slots, key)
		heap.Remove(&gs.byLoad, slot.index)
	}

	// players assigned while the close report was in flight never made it
	// into the room; they go back in line
	for id, k := range gs.roomOf {
		if k != key {
			continue
		}
		delete(gs.roomOf, id)
		if _, ok := gs.sessions[id]; ok && !slices.Contains(gs.queue, id) {
			gs.queue = append(gs.queue, id)
		}
	}
	log.Printf("[onRoomClosed] room=%s rooms=%d", key, len(gs.rooms))
}

func (gs *GameServer) roomList() []RoomInfo {
	infos := make([]RoomInfo, 0, len(gs.slots))
	for key, slot := range gs.slots {
		infos = append(infos, RoomInfo{Key: key, Players: slot.size})
	}
	slices.SortFunc(infos, func(a, b RoomInfo) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})
	return infos
}

// matchmake drains the queue into rooms, least-populated first, opening a
// fresh room when none exist or the queue has piled up.
func (gs *GameServer) matchmake() {
	if len(gs.queue) == 0 {
		return
	}
	if len(gs.rooms) == 0 || len(gs.queue) > queueSurge {
		gs.createRoom()
	}

	for len(gs.queue) > 0 && gs.byLoad.Len() > 0 {
		slot := gs.byLoad[0]
		if slot.size >= internal.MaxPlayersPerRoom {
			gs.createRoom()
			continue
		}

		id := gs.queue[0]
		gs.queue = gs.queue[1:]
		h, ok := gs.sessions[id]
		if !ok {
			continue
		}

		gs.rooms[slot.key].Connect(h)
		gs.roomOf[id] = slot.key
		slot.size++
		heap.Fix(&gs.byLoad, slot.index)
		internal.Debug.Printf("server: assigned %s to room %s (size %d)", id, slot.key, slot.size)
	}
}

func (gs *GameServer) createRoom() *Room {
	key := utils.GenerateId(utils.RoomKeyLength)
	rng := rand.New(rand.NewSource(utils.RandomSeed()))
	room := NewRoom(key, gs.opts, gs.clock, rng, func(k string) {
		gs.enqueue(evRoomClosed{key: k})
	})

	gs.rooms[key] = room
	slot := &roomSlot{key: key}
	gs.slots[key] = slot
	heap.Push(&gs.byLoad, slot)
	log.Printf("[createRoom] room=%s rooms=%d", key, len(gs.rooms))
	return room
}

func (gs *GameServer) onStop() {
	const reason = "server is shutting down"

	for _, room := range gs.rooms {
		room.Stop(reason)
	}
	for id, h := range gs.sessions {
		if _, inRoom := gs.roomOf[id]; !inRoom {
			h.Kick(reason)
		}
	}
	close(gs.done)
	log.Printf("[onStop] server stopped, %d sessions notified", len(gs.sessions))
}
