package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	in     chan []byte
	mu     sync.Mutex
	out    [][]byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 4), closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case b := <-f.in:
		return websocket.TextMessage, b, nil
	case <-f.closed:
		return 0, nil, errors.New("closed")
	}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, data)
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.out))
	for i, b := range f.out {
		out[i] = string(b)
	}
	return out
}

func TestHub_PublishReachesWatcher(t *testing.T) {
	h := NewHub(4)
	conn := newFakeConn()
	h.Attach(context.Background(), conn)
	require.Equal(t, 1, h.Len())

	h.Publish(core.Decision{ID: "d1", Client: 3, Role: domain.RoleNavi, Action: core.ActionDucked})

	require.Eventually(t, func() bool { return len(conn.written()) == 1 }, time.Second, 5*time.Millisecond)
	var env struct {
		Type     string        `json:"type"`
		Decision core.Decision `json:"decision"`
	}
	require.NoError(t, json.Unmarshal([]byte(conn.written()[0]), &env))
	assert.Equal(t, "decision", env.Type)
	assert.Equal(t, core.ActionDucked, env.Decision.Action)
	assert.Equal(t, domain.ClientID(3), env.Decision.Client)
}

func TestHub_Ping(t *testing.T) {
	h := NewHub(4)
	conn := newFakeConn()
	h.Attach(context.Background(), conn)

	conn.in <- []byte(`{"type":"ping"}`)
	require.Eventually(t, func() bool {
		w := conn.written()
		return len(w) == 1 && strings.Contains(w[0], `"pong"`)
	}, time.Second, 5*time.Millisecond)
}

func TestHub_PeerGoneUnregisters(t *testing.T) {
	h := NewHub(4)
	conn := newFakeConn()
	h.Attach(context.Background(), conn)
	_ = conn.Close()
	require.Eventually(t, func() bool { return h.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_SlowWatcherDropped(t *testing.T) {
	h := NewHub(1)
	w := newWatcher("slow", newFakeConn(), 1)
	h.watchers[w.id] = w

	h.Publish(core.Decision{ID: "a"})
	assert.Equal(t, 1, h.Len())
	h.Publish(core.Decision{ID: "b"})
	assert.Equal(t, 0, h.Len())
	assert.ErrorIs(t, w.TrySend([]byte("x")), ErrClosed)
}

func TestHub_Close(t *testing.T) {
	h := NewHub(4)
	h.Attach(context.Background(), newFakeConn())
	h.Attach(context.Background(), newFakeConn())
	h.Close()
	assert.Equal(t, 0, h.Len())
}

func TestHub_ServeOverWebsocket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHub(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { h.Serve(ctx, c) })
	srv := httptest.NewServer(r)
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)
	h.Publish(core.Decision{ID: "d", Action: core.ActionSilenced})

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), core.ActionSilenced)
}
