package app

import (
	"context"
	"slices"

	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog/log"
)

// Entry is a registered client together with its lifecycle phase.
type Entry struct {
	*domain.Client
	life    *fsm.FSM
	closing bool
}

func (e *Entry) Phase() string { return e.life.Current() }

// Closing reports whether the entry is being removed.
func (e *Entry) Closing() bool { return e.closing }

// Fire moves the entry to the phase the event leads to.
func (e *Entry) Fire(event string) error {
	return e.life.Event(context.Background(), event)
}

// Releaser gives back a routing handle it now owns.
type Releaser interface {
	DestroyRouting(h *domain.RoutingHandle)
}

// Registry owns every Client record. It is used from the dispatch thread
// only and takes no locks.
type Registry struct {
	clients map[domain.ClientID]*Entry
	seq     uint64
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[domain.ClientID]*Entry)}
}

// GetOrCreate returns the entry for id, inserting a fresh one if needed.
// The boolean reports whether it was created.
func (r *Registry) GetOrCreate(id domain.ClientID) (*Entry, bool) {
	if e, ok := r.clients[id]; ok {
		return e, false
	}
	e := &Entry{
		Client: &domain.Client{ID: id, Seq: r.seq},
		life:   newLifecycle(id),
	}
	r.seq++
	r.clients[id] = e
	log.Info().Str("module", "app.registry").Uint32("client", uint32(id)).Uint64("seq", e.Seq).Msg("created new client")
	return e, true
}

func (r *Registry) Get(id domain.ClientID) (*Entry, bool) {
	e, ok := r.clients[id]
	return e, ok
}

// Holds reports whether e is still the registered entry for its id.
func (r *Registry) Holds(e *Entry) bool {
	cur, ok := r.clients[e.ID]
	return ok && cur == e
}

// RemoveAndDestroy releases the client's routing and drops the record.
// The record stays visible while its routing is released, so nested
// notifications for the same client never recreate it.
func (r *Registry) RemoveAndDestroy(id domain.ClientID, rel Releaser) (*Entry, bool) {
	e, ok := r.clients[id]
	if !ok {
		return nil, false
	}
	e.closing = true
	if h := e.Routing; h != nil {
		e.Routing = nil
		rel.DestroyRouting(h)
	}
	delete(r.clients, id)
	log.Info().Str("module", "app.registry").Uint32("client", uint32(id)).Msg("removed client")
	return e, true
}

// FindByStream returns the entry a stream is attached to.
func (r *Registry) FindByStream(stream domain.StreamID) (*Entry, bool) {
	for _, e := range r.clients {
		for _, s := range e.Streams {
			if s.ID == stream {
				return e, true
			}
		}
	}
	return nil, false
}

// Snapshot returns the current entries ordered by registration.
func (r *Registry) Snapshot() []*Entry {
	out := make([]*Entry, 0, len(r.clients))
	for _, e := range r.clients {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Entry) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return out
}

// ForEach calls f over a snapshot. Entries removed by f's side effects are
// skipped; entries added are not visited.
func (r *Registry) ForEach(f func(*Entry)) {
	for _, e := range r.Snapshot() {
		if !r.Holds(e) {
			continue
		}
		f(e)
	}
}

// Any reports whether some entry satisfies pred.
func (r *Registry) Any(pred func(*Entry) bool) bool {
	for _, e := range r.clients {
		if pred(e) {
			return true
		}
	}
	return false
}
