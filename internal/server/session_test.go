package server

import (
	"fmt"
	"net"
	"testing"
	"time"

	"termibbl/internal/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStalledSessionIsClosed(t *testing.T) {
	gs := bareServer([]string{"apple"})

	client, srvConn := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		srvConn.Close()
	})
	go ServeConn(gs, srvConn)

	_, err := fmt.Fprintln(client, "alice")
	require.NoError(t, err)

	var sess *Session
	select {
	case ev := <-gs.events:
		sess = ev.(evClientConnect).h.(*Session)
	case <-time.After(waitFor):
		t.Fatal("session never registered")
	}

	// the client never reads, so the writer wedges on its first frame and
	// the out queue fills to the high-water mark
	sent := 0
	for i := 0; i < 2*outBufferSize; i++ {
		if !sess.Send(wire.TimeChanged{Remaining: uint32(i)}) {
			break
		}
		sent++
	}

	require.Less(t, sent, 2*outBufferSize, "a stalled session must refuse frames")
	assert.GreaterOrEqual(t, sent, outBufferSize)

	select {
	case <-sess.done:
	default:
		t.Fatal("session should be closed after the stall")
	}
	assert.False(t, sess.Send(wire.ClearCanvas{}))
}
