package server

import (
	"io"
	"net/http"

	"termibbl/internal"

	"github.com/gorilla/websocket"
)

// wsrwc adapts a websocket connection to io.ReadWriteCloser so websocket
// clients go through the exact same session code as TCP ones. Each frame
// the session writes becomes one binary websocket message; inbound
// messages are concatenated into the byte stream the codec expects.
type wsrwc struct {
	*websocket.Conn
	r io.Reader
}

func (c *wsrwc) Write(p []byte) (int, error) {
	if err := c.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsrwc) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			var err error
			_, c.r, err = c.NextReader()
			if err != nil {
				return 0, err
			}
		}
		n, err := c.r.Read(p)
		if err == io.EOF {
			// end of this message, move on to the next
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// handleWebsocket upgrades the request and hands the connection to an
// ordinary session.
func (gs *GameServer) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := (&websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}).Upgrade(w, r, nil)
	if err != nil {
		internal.Debug.Printf("websocket upgrade: %v", err)
		return
	}

	go ServeConn(gs, &wsrwc{Conn: conn})
}
