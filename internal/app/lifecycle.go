package app

import (
	"context"

	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog/log"
)

// Client phases. Ducked and silenced are only reachable while a priority
// client is active.
const (
	PhaseRegistered = "registered"
	PhaseAttaching  = "attaching"
	PhaseRouted     = "routed"
	PhaseRoled      = "roled"
	PhaseDucked     = "ducked"
	PhaseSilenced   = "silenced"
)

const (
	EventAttach       = "attach"
	EventAttached     = "attached"
	EventAttachFailed = "attach_failed"
	EventAssignRole   = "assign_role"
	EventDuck         = "duck"
	EventSilence      = "silence"
	EventRestore      = "restore"
)

func newLifecycle(id domain.ClientID) *fsm.FSM {
	return fsm.NewFSM(
		PhaseRegistered,
		fsm.Events{
			{Name: EventAttach, Src: []string{PhaseRegistered}, Dst: PhaseAttaching},
			{Name: EventAttached, Src: []string{PhaseAttaching}, Dst: PhaseRouted},
			{Name: EventAttachFailed, Src: []string{PhaseAttaching}, Dst: PhaseRegistered},
			{Name: EventAssignRole, Src: []string{PhaseRouted}, Dst: PhaseRoled},
			{Name: EventDuck, Src: []string{PhaseRoled}, Dst: PhaseDucked},
			{Name: EventSilence, Src: []string{PhaseRoled}, Dst: PhaseSilenced},
			{Name: EventRestore, Src: []string{PhaseDucked, PhaseSilenced}, Dst: PhaseRoled},
		},
		fsm.Callbacks{
			"after_event": func(_ context.Context, e *fsm.Event) {
				log.Debug().
					Str("module", "app.lifecycle").
					Uint32("client", uint32(id)).
					Str("event", e.Event).
					Str("from", e.Src).
					Str("to", e.Dst).
					Msg("phase change")
			},
		},
	)
}
