// Package transcript fans a confirmed-transcript stream out to connected
// websocket clients, the output side of the confirmation core.
package transcript

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/lokutor-ai/streamconfirm/pkg/confirm"
)

// Update is one confirmed chunk of transcript, sent to every connected
// client as JSON.
type Update struct {
	Begin *float64 `json:"begin,omitempty"`
	End   *float64 `json:"end,omitempty"`
	Text  string   `json:"text"`
}

// Broadcaster accepts websocket connections on an http.Handler and fans
// every Publish call out to all of them. A client whose write fails is
// dropped. Writes go to clients one after another under the caller's
// context, so a slow client delays the clients after it until its write
// returns.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewBroadcaster constructs an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the request to a websocket and registers it as a
// broadcast target until the connection closes.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		conn.CloseNow()
	}()

	// Block until the client disconnects; this connection is write-only
	// from our side.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

// Publish sends result to every currently connected client as an Update.
// Results with empty text are skipped — nothing new to report.
func (b *Broadcaster) Publish(ctx context.Context, result confirm.Result) {
	if result.Empty() {
		return
	}
	update := Update{Begin: result.Begin, End: result.End, Text: result.Text}

	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		if err := wsjson.Write(ctx, c, update); err != nil {
			b.mu.Lock()
			delete(b.clients, c)
			b.mu.Unlock()
			c.CloseNow()
		}
	}
}
