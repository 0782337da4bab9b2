package server

import (
	"bufio"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	"termibbl/internal"
	"termibbl/internal/utils"
	"termibbl/internal/wire"
)

// outBufferSize is the per-session high-water mark for outbound frames.
// A client that falls this far behind is stalled and gets dropped.
const outBufferSize = 64

// usernameIdLength sizes the identifier appended to display names so that
// equal names stay distinguishable.
const usernameIdLength = 4

var errEmptyUsername = errors.New("session: empty username")

// Handle is the room- and server-facing side of a connected player.
type Handle interface {
	Id() internal.PlayerId
	Username() internal.Username

	// Send queues an outbound message without blocking. It reports false
	// when the session is stalled or gone.
	Send(msg wire.ServerMsg) bool

	// JoinedRoom points the session's inbound routing at r; nil detaches.
	JoinedRoom(r *Room)

	// Kick tells the client why and closes the connection.
	Kick(reason string)
}

// Session drives one client connection. After the username handshake it
// runs exactly one reader and one writer goroutine; the two share nothing
// but the outbound channel and the done signal.
type Session struct {
	id   internal.PlayerId
	user internal.Username

	conn io.ReadWriteCloser
	srv  *GameServer

	out  chan wire.ServerMsg
	done chan struct{}
	once sync.Once

	mu   sync.Mutex
	room *Room
}

// ServeConn runs the whole lifetime of one connection: handshake,
// registration with the server, then the read loop until the client goes
// away. It blocks until the session is over.
func ServeConn(srv *GameServer, conn io.ReadWriteCloser) {
	sess := &Session{
		id:   internal.PlayerId(utils.GenerateId(utils.PlayerIdLength)),
		conn: conn,
		srv:  srv,
		out:  make(chan wire.ServerMsg, outBufferSize),
		done: make(chan struct{}),
	}

	reader := bufio.NewReader(conn)
	name, err := readUsername(reader)
	if err != nil {
		internal.Debug.Printf("session %s: handshake: %v", sess.id, err)
		conn.Close()
		return
	}
	sess.user = internal.UsernameFrom(name)
	sess.user.SetIdentifier(utils.GenerateId(usernameIdLength))

	go sess.writeLoop()

	if !sess.srv.Connect(sess) {
		sess.Kick("server is shutting down")
		return
	}
	log.Printf("[ServeConn] player=%s name=%s connected", sess.id, sess.user)

	sess.readLoop(reader)
}

// readUsername consumes the LF-terminated handshake line. An empty or
// missing name is a protocol error.
func readUsername(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(line)
	if name == "" {
		return "", errEmptyUsername
	}
	return name, nil
}

func (s *Session) Id() internal.PlayerId       { return s.id }
func (s *Session) Username() internal.Username { return s.user }

func (s *Session) JoinedRoom(r *Room) {
	s.mu.Lock()
	s.room = r
	s.mu.Unlock()
}

func (s *Session) currentRoom() *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Send queues msg for the writer. A full queue means the client stopped
// reading; the session is closed rather than blocking the caller.
func (s *Session) Send(msg wire.ServerMsg) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.out <- msg:
		return true
	default:
		log.Printf("[Send] player=%s stalled, closing", s.id)
		s.Close()
		return false
	}
}

func (s *Session) Kick(reason string) {
	s.Send(wire.Kick{Reason: reason})
	s.Close()
}

// Close signals shutdown. The writer flushes what is already queued and
// closes the connection, which in turn unblocks the reader.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Session) readLoop(r *bufio.Reader) {
	defer s.teardown()

	for {
		msg, err := wire.ReadClient(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				internal.Debug.Printf("session %s: read: %v", s.id, err)
			}
			return
		}

		switch m := msg.(type) {
		case wire.Play:
			if s.currentRoom() == nil {
				s.srv.Queue(s)
			}
		case wire.JoinRoom:
			internal.Debug.Printf("session %s: join_room key=%s not routed", s.id, m.Key)
			s.Send(wire.NewMessage{Msg: internal.SystemMsg(
				"joining rooms by key is not available yet")})
		default:
			if room := s.currentRoom(); room != nil {
				room.ClientMsg(s.id, msg)
			} else {
				internal.Debug.Printf("session %s: dropping %T outside a room", s.id, msg)
			}
		}
	}
}

func (s *Session) teardown() {
	if room := s.currentRoom(); room != nil {
		room.Disconnect(s.id)
	}
	s.srv.Disconnect(s.id)
	s.Close()
	log.Printf("[teardown] player=%s disconnected", s.id)
}

func (s *Session) writeLoop() {
	for {
		select {
		case msg := <-s.out:
			if err := wire.Write(s.conn, msg); err != nil {
				internal.Debug.Printf("session %s: write: %v", s.id, err)
				s.Close()
				s.conn.Close()
				return
			}
		case <-s.done:
			// flush what was queued before the signal
			for {
				select {
				case msg := <-s.out:
					if wire.Write(s.conn, msg) != nil {
						s.conn.Close()
						return
					}
				default:
					s.conn.Close()
					return
				}
			}
		}
	}
}
