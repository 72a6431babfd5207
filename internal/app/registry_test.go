package app

import (
	"testing"

	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type releaseRecorder struct {
	released []*domain.RoutingHandle
	during   func()
}

func (r *releaseRecorder) DestroyRouting(h *domain.RoutingHandle) {
	r.released = append(r.released, h)
	if r.during != nil {
		r.during()
	}
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()
	a, created := r.GetOrCreate(7)
	require.True(t, created)
	again, created := r.GetOrCreate(7)
	assert.False(t, created)
	assert.Same(t, a, again)

	b, _ := r.GetOrCreate(3)
	assert.Equal(t, uint64(0), a.Seq)
	assert.Equal(t, uint64(1), b.Seq)
	assert.Equal(t, PhaseRegistered, a.Phase())
	assert.Len(t, r.Snapshot(), 2)
}

func TestRegistry_SeqNeverReused(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate(1)
	r.RemoveAndDestroy(1, &releaseRecorder{})
	e, _ := r.GetOrCreate(1)
	assert.Equal(t, uint64(1), e.Seq)
}

func TestRegistry_RemoveAndDestroy(t *testing.T) {
	r := NewRegistry()
	e, _ := r.GetOrCreate(1)
	h := &domain.RoutingHandle{Mix: domain.MixEndpoint{Name: "null.agl.0"}}
	e.Routing = h

	rel := &releaseRecorder{}
	rel.during = func() {
		cur, ok := r.Get(1)
		require.True(t, ok, "record visible while releasing")
		assert.True(t, cur.Closing())
		assert.Nil(t, cur.Routing)
		again, created := r.GetOrCreate(1)
		assert.False(t, created)
		assert.Same(t, e, again)
	}
	got, ok := r.RemoveAndDestroy(1, rel)
	require.True(t, ok)
	assert.Same(t, e, got)
	assert.Equal(t, []*domain.RoutingHandle{h}, rel.released)
	assert.False(t, r.Holds(e))

	_, ok = r.RemoveAndDestroy(1, rel)
	assert.False(t, ok)
}

func TestRegistry_FindByStream(t *testing.T) {
	r := NewRegistry()
	e, _ := r.GetOrCreate(1)
	e.AddStream(domain.StreamRef{ID: 10, Channels: 2})

	got, ok := r.FindByStream(10)
	require.True(t, ok)
	assert.Same(t, e, got)
	_, ok = r.FindByStream(11)
	assert.False(t, ok)
}

func TestRegistry_ForEachSkipsRemoved(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate(1)
	r.GetOrCreate(2)
	r.GetOrCreate(3)

	var seen []domain.ClientID
	r.ForEach(func(e *Entry) {
		seen = append(seen, e.ID)
		if e.ID == 1 {
			r.RemoveAndDestroy(2, &releaseRecorder{})
			r.GetOrCreate(4)
		}
	})
	assert.Equal(t, []domain.ClientID{1, 3}, seen)
}

func TestRegistry_Any(t *testing.T) {
	r := NewRegistry()
	e, _ := r.GetOrCreate(1)
	e.Role = domain.RolePhone
	assert.True(t, r.Any(func(e *Entry) bool { return e.Role == domain.RolePhone }))
	assert.False(t, r.Any(func(e *Entry) bool { return e.Role == domain.RoleNavi }))
}

func TestEntry_Lifecycle(t *testing.T) {
	r := NewRegistry()
	e, _ := r.GetOrCreate(1)

	require.NoError(t, e.Fire(EventAttach))
	assert.Equal(t, PhaseAttaching, e.Phase())
	require.NoError(t, e.Fire(EventAttachFailed))
	assert.Equal(t, PhaseRegistered, e.Phase())

	require.NoError(t, e.Fire(EventAttach))
	require.NoError(t, e.Fire(EventAttached))
	require.NoError(t, e.Fire(EventAssignRole))
	require.NoError(t, e.Fire(EventDuck))
	assert.Equal(t, PhaseDucked, e.Phase())
	assert.Error(t, e.Fire(EventSilence), "ducked clients are not silenced")
	require.NoError(t, e.Fire(EventRestore))
	assert.Equal(t, PhaseRoled, e.Phase())
	assert.Error(t, e.Fire(EventAttach))
}
