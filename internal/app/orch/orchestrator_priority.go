package orch

import (
	"slices"

	"github.com/dkeye/audiopolicy/internal/app"
	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/rs/zerolog/log"
)

// arbitrate applies the priority rule after e's stream was attached.
func (o *Orchestrator) arbitrate(e *app.Entry, stream core.StreamInfo) {
	if o.Policy.IsPriority(e.Role) {
		o.yieldAllTo(e)
		return
	}
	if !o.priorityActive() {
		o.relink(e)
		return
	}
	if e.Ducked {
		// A new stream of an already ducked client joins at the ducked level.
		o.ramp(e, []domain.StreamRef{{ID: stream.ID, Channels: stream.Channels}}, o.Ramps.Duck)
		return
	}
	o.yield(e)
}

// yieldAllTo ducks or silences every other roled client for priority client p.
func (o *Orchestrator) yieldAllTo(p *app.Entry) {
	o.Registry.ForEach(func(e *app.Entry) {
		if e == p || !e.HasRole() || e.Closing() {
			return
		}
		o.yield(e)
	})
}

// yield applies the table action for e. Clients already ducked or silenced
// are left as they are.
func (o *Orchestrator) yield(e *app.Entry) {
	switch o.Policy.OnPriority(e.Role) {
	case app.Duck:
		if e.Ducked {
			return
		}
		o.ramp(e, e.Streams, o.Ramps.Duck)
		e.Ducked = true
		o.fire(e, app.EventDuck)
		o.publish(e.ID, e.Role, core.ActionDucked, "")
		log.Info().Str("module", "orch").Uint32("client", uint32(e.ID)).Str("role", string(e.Role)).Msg("reducing volume for app")
	case app.Silence:
		if e.Routing == nil || !e.Routing.Linked() {
			return
		}
		if err := o.Router.Disconnect(e.Routing); err != nil {
			o.Metrics.RoutingFailures.WithLabelValues("disconnect").Inc()
			o.publish(e.ID, e.Role, core.ActionFailed, err.Error())
			log.Error().Err(err).Str("module", "orch").Uint32("client", uint32(e.ID)).Msg("unload link")
			return
		}
		o.fire(e, app.EventSilence)
		o.publish(e.ID, e.Role, core.ActionSilenced, "")
		log.Info().Str("module", "orch").Uint32("client", uint32(e.ID)).Str("role", string(e.Role)).Msg("muting app")
	case app.NoAction:
	}
}

// restoreAll undoes every duck and silence. A failure for one client does
// not stop the others.
func (o *Orchestrator) restoreAll() {
	o.Registry.ForEach(func(e *app.Entry) {
		if !e.HasRole() || e.Closing() {
			return
		}
		switch o.Policy.OnPriority(e.Role) {
		case app.Duck:
			if !e.Ducked {
				return
			}
			o.ramp(e, e.Streams, o.Ramps.Restore)
			e.Ducked = false
			o.fire(e, app.EventRestore)
			o.publish(e.ID, e.Role, core.ActionUnducked, "")
			log.Info().Str("module", "orch").Uint32("client", uint32(e.ID)).Msg("restoring volume for app")
		case app.Silence:
			o.relink(e)
		case app.NoAction:
		}
	})
}

// relink restores a silenced client's link. A client whose earlier restore
// failed is retried here on its next stream.
func (o *Orchestrator) relink(e *app.Entry) {
	if e.Routing == nil || e.Routing.Linked() {
		return
	}
	if err := o.Router.Reconnect(e.Routing); err != nil {
		o.Metrics.RoutingFailures.WithLabelValues("reconnect").Inc()
		o.publish(e.ID, e.Role, core.ActionFailed, err.Error())
		log.Error().Err(err).Str("module", "orch").Uint32("client", uint32(e.ID)).Msg("restore link")
		return
	}
	o.fire(e, app.EventRestore)
	o.publish(e.ID, e.Role, core.ActionRelinked, e.Routing.Mix.Name)
	log.Info().Str("module", "orch").Uint32("client", uint32(e.ID)).Msg("restoring sound for app")
}

func (o *Orchestrator) priorityActive() bool {
	return o.Registry.Any(func(e *app.Entry) bool {
		return !e.Closing() && o.Policy.IsPriority(e.Role)
	})
}

func (o *Orchestrator) ramp(e *app.Entry, streams []domain.StreamRef, mk func(int) domain.VolumeRamp) {
	for _, s := range slices.Clone(streams) {
		if err := o.Server.SetVolumeRamp(s.ID, mk(s.Channels)); err != nil {
			log.Error().Err(err).Str("module", "orch").Uint32("client", uint32(e.ID)).Uint32("stream", uint32(s.ID)).Msg("volume ramp")
		}
	}
}

func (o *Orchestrator) fire(e *app.Entry, event string) {
	if err := e.Fire(event); err != nil {
		log.Warn().Err(err).Str("module", "orch").Uint32("client", uint32(e.ID)).Str("event", event).Msg("phase change refused")
	}
}
