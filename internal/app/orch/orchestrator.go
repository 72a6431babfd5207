package orch

import (
	"fmt"
	"time"

	"github.com/dkeye/audiopolicy/internal/app"
	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the role policy engine. All methods run on the dispatch
// thread; nested notifications caused by resource calls re-enter them.
type Orchestrator struct {
	Registry  *app.Registry
	Router    *app.Router
	Server    core.AudioServer
	Policy    app.Policy
	Ramps     app.Ramps
	Metrics   *app.Metrics
	Decisions core.DecisionSink
	MixPrefix string
}

// Options tune an Orchestrator. Zero values fall back to the defaults.
type Options struct {
	HardwareMatch string
	MixChannels   int
	MixPrefix     string
	Policy        app.Policy
	Ramps         app.Ramps
	Decisions     core.DecisionSink
}

const (
	DefaultHardwareMatch = "alsa"
	DefaultMixPrefix     = "null.agl."
	DefaultMixChannels   = 2
)

func New(server core.AudioServer, metrics *app.Metrics, opts Options) *Orchestrator {
	if opts.HardwareMatch == "" {
		opts.HardwareMatch = DefaultHardwareMatch
	}
	if opts.MixPrefix == "" {
		opts.MixPrefix = DefaultMixPrefix
	}
	if opts.MixChannels <= 0 {
		opts.MixChannels = DefaultMixChannels
	}
	if opts.Policy == nil {
		opts.Policy = app.RolePolicy{}
	}
	if opts.Ramps == (app.Ramps{}) {
		opts.Ramps = app.DefaultRamps()
	}
	return &Orchestrator{
		Registry:  app.NewRegistry(),
		Router:    app.NewRouter(server, opts.HardwareMatch, opts.MixChannels),
		Server:    server,
		Policy:    opts.Policy,
		Ramps:     opts.Ramps,
		Metrics:   metrics,
		Decisions: opts.Decisions,
		MixPrefix: opts.MixPrefix,
	}
}

// OnClientNew registers a client that has no role yet. No routing happens.
func (o *Orchestrator) OnClientNew(info core.ClientInfo) {
	e := o.register(info.ID)
	if info.Name != "" {
		e.Name = info.Name
		e.Conn = domain.ClassifyConnection(info.Name)
	}
	log.Info().
		Str("module", "orch").
		Uint32("client", uint32(info.ID)).
		Str("name", info.Name).
		Str("conn", string(e.Conn)).
		Msg("client connected")
}

// OnClientGone drops the client and, if it held the last priority role,
// restores everyone it silenced or ducked.
func (o *Orchestrator) OnClientGone(id domain.ClientID) {
	e, ok := o.Registry.Get(id)
	if !ok {
		log.Debug().Str("module", "orch").Err(&domain.PolicyError{Op: "client gone", Client: id}).Msg("ignored")
		return
	}
	if e.Closing() {
		return
	}
	wasPriority := o.Policy.IsPriority(e.Role)
	role := e.Role

	o.Registry.RemoveAndDestroy(id, o.Router)
	o.Metrics.ClientsActive.Dec()
	if wasPriority {
		o.Metrics.PriorityActive.Dec()
	}
	o.publish(id, role, core.ActionReleased, "")
	log.Info().Str("module", "orch").Uint32("client", uint32(id)).Str("role", string(role)).Msg("client disconnected")

	if !wasPriority {
		return
	}
	if o.priorityActive() {
		log.Info().Str("module", "orch").Msg("another priority client still active")
		return
	}
	o.restoreAll()
}

// OnStreamNew handles a new playback stream of stream.Client declaring role.
func (o *Orchestrator) OnStreamNew(stream core.StreamInfo, role domain.Role) {
	e := o.register(stream.Client)
	if e.Closing() {
		return
	}
	if role == domain.RoleNone {
		log.Debug().Str("module", "orch").Uint32("client", uint32(e.ID)).Uint32("stream", uint32(stream.ID)).Msg("stream without role left alone")
		return
	}
	if !o.attach(e, stream) {
		return
	}
	if !o.Registry.Holds(e) {
		return
	}
	if !e.HasRole() {
		e.Role = role
		if err := e.Fire(app.EventAssignRole); err != nil {
			log.Warn().Err(err).Str("module", "orch").Uint32("client", uint32(e.ID)).Msg("assign role")
		}
		if o.Policy.IsPriority(role) {
			o.Metrics.PriorityActive.Inc()
		}
		log.Info().Str("module", "orch").Uint32("client", uint32(e.ID)).Str("role", string(role)).Msg("role recorded")
	} else if e.Role != role {
		log.Debug().Str("module", "orch").Uint32("client", uint32(e.ID)).Str("role", string(e.Role)).Str("declared", string(role)).Msg("role already recorded, keeping it")
	}
	o.arbitrate(e, stream)
}

// OnStreamGone forgets a stream attached to some client.
func (o *Orchestrator) OnStreamGone(stream domain.StreamID) {
	e, ok := o.Registry.FindByStream(stream)
	if !ok {
		return
	}
	e.RemoveStream(stream)
	log.Debug().Str("module", "orch").Uint32("client", uint32(e.ID)).Uint32("stream", uint32(stream)).Msg("stream removed")
}

// Snapshot describes every registered client.
func (o *Orchestrator) Snapshot() []core.ClientView {
	entries := o.Registry.Snapshot()
	out := make([]core.ClientView, 0, len(entries))
	for _, e := range entries {
		v := core.ClientView{
			ID:      e.ID,
			Name:    e.Name,
			Conn:    e.Conn,
			Role:    e.Role,
			Phase:   e.Phase(),
			Ducked:  e.Ducked,
			Linked:  e.Linked(),
			Streams: make([]domain.StreamID, 0, len(e.Streams)),
		}
		if e.Routing != nil {
			v.Mix = e.Routing.Mix.Name
		}
		for _, s := range e.Streams {
			v.Streams = append(v.Streams, s.ID)
		}
		out = append(out, v)
	}
	return out
}

// Shutdown releases every client's routing.
func (o *Orchestrator) Shutdown() {
	for _, e := range o.Registry.Snapshot() {
		o.Registry.RemoveAndDestroy(e.ID, o.Router)
		o.Metrics.ClientsActive.Dec()
		if o.Policy.IsPriority(e.Role) {
			o.Metrics.PriorityActive.Dec()
		}
	}
	log.Info().Str("module", "orch").Msg("all routing released")
}

func (o *Orchestrator) register(id domain.ClientID) *app.Entry {
	e, created := o.Registry.GetOrCreate(id)
	if created {
		o.Metrics.ClientsActive.Inc()
		o.publish(id, domain.RoleNone, core.ActionRegistered, "")
	}
	return e
}

func (o *Orchestrator) mixName(e *app.Entry) string {
	return fmt.Sprintf("%s%d", o.MixPrefix, e.Seq)
}

func (o *Orchestrator) publish(id domain.ClientID, role domain.Role, action, detail string) {
	o.Metrics.Decisions.WithLabelValues(action).Inc()
	if o.Decisions == nil {
		return
	}
	o.Decisions.Publish(core.Decision{
		ID:     uuid.NewString(),
		At:     time.Now(),
		Client: id,
		Role:   role,
		Action: action,
		Detail: detail,
	})
}
