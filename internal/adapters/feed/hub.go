// Package feed streams policy decisions to websocket watchers.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type envelope struct {
	Type     string         `json:"type"`
	Decision *core.Decision `json:"decision,omitempty"`
}

// Hub implements core.DecisionSink. Publish never blocks: a watcher whose
// buffer is full is disconnected.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]*Watcher
	buffer   int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{watchers: make(map[string]*Watcher), buffer: buffer}
}

func (h *Hub) Publish(d core.Decision) {
	b, err := json.Marshal(envelope{Type: "decision", Decision: &d})
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.feed").Msg("marshal decision")
		return
	}
	var slow []*Watcher
	h.mu.RLock()
	for _, w := range h.watchers {
		if err := w.TrySend(b); err != nil {
			slow = append(slow, w)
		}
	}
	h.mu.RUnlock()
	for _, w := range slow {
		log.Warn().Str("module", "adapters.feed").Str("watcher", w.id).Msg("dropping slow watcher")
		h.remove(w)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// Close disconnects every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	ws := h.watchers
	h.watchers = make(map[string]*Watcher)
	h.mu.Unlock()
	for _, w := range ws {
		w.Close()
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Serve upgrades the request and streams decisions until the peer leaves or
// ctx is done.
func (h *Hub) Serve(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.feed").Msg("ws upgrade")
		return
	}
	h.Attach(ctx, ws)
}

// Attach registers conn as a watcher and starts its pumps.
func (h *Hub) Attach(ctx context.Context, conn WSConn) *Watcher {
	w := newWatcher(uuid.NewString(), conn, h.buffer)
	h.mu.Lock()
	h.watchers[w.id] = w
	h.mu.Unlock()
	log.Info().Str("module", "adapters.feed").Str("watcher", w.id).Msg("watcher connected")

	ctx, cancel := context.WithCancel(ctx)
	go w.writePump(ctx)
	go w.readPump(ctx, func() {
		cancel()
		h.remove(w)
	})
	return w
}

func (h *Hub) remove(w *Watcher) {
	h.mu.Lock()
	if cur, ok := h.watchers[w.id]; ok && cur == w {
		delete(h.watchers, w.id)
	}
	h.mu.Unlock()
	w.Close()
}

func (w *Watcher) handle(data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "adapters.feed").Msg("bad json")
		return
	}
	switch env.Type {
	case "ping":
		b, _ := json.Marshal(envelope{Type: "pong"})
		_ = w.TrySend(b)
	default:
		log.Warn().Str("module", "adapters.feed").Str("type", env.Type).Msg("unknown message")
	}
}
