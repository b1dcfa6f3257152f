package sink

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	xsax "github.com/qydysky/xsax"
)

// WSHub pushes each event, JSON-encoded as a Record, to every
// connected websocket viewer. Slow or dead connections are dropped
// rather than allowed to stall the parse.
type WSHub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	seq   int
}

func NewWSHub() *WSHub {
	return &WSHub{
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades and registers the connection. Reads are drained
// and discarded; the hub is one-directional.
func (t *WSHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	t.mu.Lock()
	t.conns[ws] = struct{}{}
	t.mu.Unlock()

	go func() {
		for {
			ws.SetReadDeadline(time.Now().Add(time.Second * time.Duration(300)))
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}
		t.drop(ws)
	}()
}

// Viewers reports how many connections are registered.
func (t *WSHub) Viewers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

func (t *WSHub) drop(ws *websocket.Conn) {
	t.mu.Lock()
	delete(t.conns, ws)
	t.mu.Unlock()
	ws.Close()
}

// Sink broadcasts each event as one JSON text frame.
func (t *WSHub) Sink() xsax.Sink {
	return xsax.FuncSink(func(e xsax.Event) {
		t.mu.Lock()
		r := RecordOf(t.seq, e)
		t.seq++
		data, err := json.Marshal(r)
		if err != nil {
			t.mu.Unlock()
			return
		}
		var dead []*websocket.Conn
		for ws := range t.conns {
			ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				dead = append(dead, ws)
			}
		}
		t.mu.Unlock()
		for _, ws := range dead {
			t.drop(ws)
		}
	})
}

// Close disconnects every viewer.
func (t *WSHub) Close() {
	t.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(t.conns))
	for ws := range t.conns {
		conns = append(conns, ws)
	}
	t.conns = make(map[*websocket.Conn]struct{})
	t.mu.Unlock()
	for _, ws := range conns {
		ws.Close()
	}
}
