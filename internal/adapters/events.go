package adapters

import (
	"strings"

	"github.com/dkeye/audiopolicy/internal/app/orch"
	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/rs/zerolog/log"
)

// DefaultRoleKey is the stream property holding the declared role.
const DefaultRoleKey = "media.role"

// Events maps audio-server notifications onto the policy engine.
// It implements core.NotificationHandler.
type Events struct {
	Orch    *orch.Orchestrator
	RoleKey string
}

func NewEvents(o *orch.Orchestrator, roleKey string) *Events {
	if roleKey == "" {
		roleKey = DefaultRoleKey
	}
	return &Events{Orch: o, RoleKey: roleKey}
}

func (a *Events) Handle(n core.Notification) {
	switch ev := n.(type) {
	case core.ClientNew:
		a.Orch.OnClientNew(ev.Client)
	case core.ClientGone:
		a.Orch.OnClientGone(ev.ID)
	case core.StreamNew:
		role, _ := a.Role(ev.Stream)
		log.Debug().
			Str("module", "adapters.events").
			Uint32("client", uint32(ev.Stream.Client)).
			Uint32("stream", uint32(ev.Stream.ID)).
			Str("role", string(role)).
			Msg("new playback stream")
		a.Orch.OnStreamNew(ev.Stream, role)
	case core.StreamGone:
		a.Orch.OnStreamGone(ev.Stream)
	default:
		log.Warn().Str("module", "adapters.events").Msgf("unknown notification %T", n)
	}
}

// Role reads the declared role of a stream. Blank values count as absent.
func (a *Events) Role(s core.StreamInfo) (domain.Role, bool) {
	v, ok := s.Props[a.RoleKey]
	if !ok {
		return domain.RoleNone, false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return domain.RoleNone, false
	}
	return domain.Role(v), true
}
