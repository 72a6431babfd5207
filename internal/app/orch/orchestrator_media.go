package orch

import (
	"github.com/dkeye/audiopolicy/internal/app"
	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/rs/zerolog/log"
)

// attach puts the stream on the client's mixing endpoint, creating the
// client's routing first if it has none. It reports whether the stream is
// now attached.
func (o *Orchestrator) attach(e *app.Entry, stream core.StreamInfo) bool {
	switch e.Phase() {
	case app.PhaseAttaching:
		// Nested notification fired while this client's routing is loading.
		log.Debug().Str("module", "orch").Uint32("client", uint32(e.ID)).Uint32("stream", uint32(stream.ID)).Msg("routing in progress, stream skipped")
		return false
	case app.PhaseRegistered:
		return o.attachFirst(e, stream)
	}

	if e.Routing == nil {
		return false
	}
	if err := o.Server.RedirectStream(stream.ID, e.Routing.Mix); err != nil {
		o.Metrics.RoutingFailures.WithLabelValues("redirect").Inc()
		log.Error().Err(err).Str("module", "orch").Uint32("client", uint32(e.ID)).Uint32("stream", uint32(stream.ID)).Msg("redirect stream")
		return false
	}
	e.AddStream(domain.StreamRef{ID: stream.ID, Channels: stream.Channels})
	return true
}

func (o *Orchestrator) attachFirst(e *app.Entry, stream core.StreamInfo) bool {
	logger := log.With().
		Str("module", "orch").
		Uint32("client", uint32(e.ID)).
		Uint32("stream", uint32(stream.ID)).
		Logger()

	if err := e.Fire(app.EventAttach); err != nil {
		logger.Warn().Err(err).Msg("attach")
		return false
	}

	name := o.mixName(e)
	h, err := o.Router.CreateRouting(name)
	if !o.Registry.Holds(e) || e.Closing() {
		// The client went away during a nested notification.
		if h != nil {
			o.Router.DestroyRouting(h)
		}
		return false
	}
	if err != nil {
		o.fail(e, "create", err)
		return false
	}
	if err := o.Server.RedirectStream(stream.ID, h.Mix); err != nil {
		o.Router.DestroyRouting(h)
		o.fail(e, "redirect", err)
		return false
	}

	e.Routing = h
	if err := e.Fire(app.EventAttached); err != nil {
		logger.Warn().Err(err).Msg("attached")
	}
	e.AddStream(domain.StreamRef{ID: stream.ID, Channels: stream.Channels})
	o.Metrics.RoutingCreated.Inc()
	o.publish(e.ID, e.Role, core.ActionRouted, name)
	logger.Info().Str("mix", name).Msg("stream routed through private mixing endpoint")
	return true
}

// fail leaves the client registered without routing.
func (o *Orchestrator) fail(e *app.Entry, stage string, err error) {
	if ferr := e.Fire(app.EventAttachFailed); ferr != nil {
		log.Warn().Err(ferr).Str("module", "orch").Uint32("client", uint32(e.ID)).Msg("attach failed")
	}
	o.Metrics.RoutingFailures.WithLabelValues(stage).Inc()
	o.publish(e.ID, e.Role, core.ActionFailed, err.Error())
	log.Error().Err(err).Str("module", "orch").Uint32("client", uint32(e.ID)).Str("stage", stage).Msg("attach aborted")
}
