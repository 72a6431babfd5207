package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Watcher is one feed subscriber.
type Watcher struct {
	id   string
	conn WSConn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newWatcher(id string, conn WSConn, buffer int) *Watcher {
	return &Watcher{id: id, conn: conn, send: make(chan []byte, buffer)}
}

func (w *Watcher) ID() string { return w.id }

func (w *Watcher) TrySend(b []byte) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.send)
	_ = w.conn.Close()
}

func (w *Watcher) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "adapters.feed").Str("watcher", w.id).Msg("writePump ctx done")
			return
		case data, ok := <-w.send:
			if !ok {
				return
			}
			if err := w.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "adapters.feed").Msg("writePump set deadline")
				return
			}
			if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.feed").Str("watcher", w.id).Msg("writePump write error")
				return
			}
		}
	}
}

// readPump serves ping requests until the peer goes away.
func (w *Watcher) readPump(ctx context.Context, onClose func()) {
	defer onClose()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := w.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "adapters.feed").Str("watcher", w.id).Msg("readPump read error")
				return
			}
			w.handle(data)
		}
	}
}
