package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkeye/audiopolicy/internal/adapters"
	"github.com/dkeye/audiopolicy/internal/adapters/feed"
	"github.com/dkeye/audiopolicy/internal/adapters/sim"
	"github.com/dkeye/audiopolicy/internal/app"
	"github.com/dkeye/audiopolicy/internal/app/dispatch"
	"github.com/dkeye/audiopolicy/internal/app/orch"
	"github.com/dkeye/audiopolicy/internal/config"
	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientsResponse struct {
	Clients []core.ClientView `json:"clients"`
	Count   int               `json:"count"`
}

func setup(t *testing.T, withSim bool, limiter *RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reg := prometheus.NewRegistry()
	srv := sim.New()
	hub := feed.NewHub(8)
	o := orch.New(srv, app.NewMetrics(reg), orch.Options{Decisions: hub})
	loop := dispatch.New(16)
	go loop.Run(ctx)

	d := Deps{
		Loop:     loop,
		Orch:     o,
		Feed:     hub,
		Gatherer: reg,
		Events:   adapters.NewEvents(o, "media.role"),
		Limiter:  limiter,
	}
	if withSim {
		d.Sim = srv
	}
	return SetupRouter(ctx, &config.Config{Mode: "test", RoleKey: "media.role"}, d)
}

func post(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sim/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) clientsResponse {
	t.Helper()
	var resp clientsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	r := setup(t, false, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDKept(t *testing.T) {
	r := setup(t, false, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestSimEvents_DrivePolicy(t *testing.T) {
	r := setup(t, true, nil)

	require.Equal(t, http.StatusOK, post(t, r, `{"type":"client_new","client":1,"name":"UNIX socket client"}`).Code)
	require.Equal(t, http.StatusOK, post(t, r, `{"type":"stream_new","client":1,"stream":10,"role":"music"}`).Code)
	w := post(t, r, `{"type":"stream_new","client":2,"stream":20,"role":"phone"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, app.PhaseSilenced, resp.Clients[0].Phase)
	assert.False(t, resp.Clients[0].Linked)
	assert.Equal(t, "null.agl.0", resp.Clients[0].Mix)
	assert.True(t, resp.Clients[1].Linked)

	w = post(t, r, `{"type":"client_gone","client":2}`)
	resp = decode(t, w)
	require.Equal(t, 1, resp.Count)
	assert.True(t, resp.Clients[0].Linked)
	assert.Equal(t, app.PhaseRoled, resp.Clients[0].Phase)
}

func TestSimEvents_BadRequest(t *testing.T) {
	r := setup(t, true, nil)
	assert.Equal(t, http.StatusBadRequest, post(t, r, `{"type":"explode"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, r, `not json`).Code)
}

func TestSimEvents_OnlyWithSimBackend(t *testing.T) {
	r := setup(t, false, nil)
	assert.Equal(t, http.StatusNotFound, post(t, r, `{"type":"client_new","client":1}`).Code)
}

func TestSimEvents_RateLimited(t *testing.T) {
	r := setup(t, true, NewRateLimiter(1, time.Minute))
	assert.Equal(t, http.StatusOK, post(t, r, `{"type":"client_new","client":1}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, r, `{"type":"client_new","client":2}`).Code)
}

func TestClients(t *testing.T) {
	r := setup(t, true, nil)
	post(t, r, `{"type":"client_new","client":7,"name":"TCP/IP client from 10.0.0.2:4713"}`)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.Len(t, resp.Clients, 1)
	assert.EqualValues(t, 7, resp.Clients[0].ID)
	assert.EqualValues(t, "tcp", resp.Clients[0].Conn)
	assert.Equal(t, app.PhaseRegistered, resp.Clients[0].Phase)
}

func TestMetrics(t *testing.T) {
	r := setup(t, true, nil)
	post(t, r, `{"type":"stream_new","client":1,"stream":10,"role":"navi"}`)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "audiopolicy_routing_created_total 1")
	assert.Contains(t, w.Body.String(), `audiopolicy_decisions_total{action="routed"} 1`)
}
