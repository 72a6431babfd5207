package app

import (
	"errors"
	"strings"

	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/rs/zerolog/log"
)

// Router creates and releases the per-client routing resources: a private
// mixing endpoint and a link from its monitor to the primary output.
// The policy never touches raw audio-server handles except through it.
type Router struct {
	server   core.AudioServer
	match    string
	channels int
}

func NewRouter(server core.AudioServer, hardwareMatch string, channels int) *Router {
	return &Router{server: server, match: hardwareMatch, channels: channels}
}

// CreateRouting loads a mixing endpoint named label and links its monitor to
// the primary output. On failure nothing stays loaded.
func (r *Router) CreateRouting(label string) (*domain.RoutingHandle, error) {
	mix, err := r.server.LoadMixEndpoint(label, r.channels)
	if err != nil {
		return nil, wrapLoad("load mix endpoint", label, err)
	}
	h := &domain.RoutingHandle{Mix: mix}
	if err := r.Reconnect(h); err != nil {
		if uerr := r.server.UnloadMixEndpoint(mix); uerr != nil {
			log.Error().Err(uerr).Str("module", "app.routing").Str("mix", mix.Name).Msg("rollback of mix endpoint failed")
		}
		return nil, err
	}
	log.Info().
		Str("module", "app.routing").
		Str("mix", mix.Name).
		Uint32("capture", uint32(h.Link.Capture)).
		Uint32("output", uint32(h.Link.Output)).
		Msg("routing created")
	return h, nil
}

// DestroyRouting releases the link, then the mixing endpoint. The caller
// gives up h; calling it twice on the same handle is a bug.
func (r *Router) DestroyRouting(h *domain.RoutingHandle) {
	if h == nil {
		return
	}
	if err := r.Disconnect(h); err != nil {
		log.Error().Err(err).Str("module", "app.routing").Str("mix", h.Mix.Name).Msg("unload link")
	}
	if err := r.server.UnloadMixEndpoint(h.Mix); err != nil {
		log.Error().Err(err).Str("module", "app.routing").Str("mix", h.Mix.Name).Msg("unload mix endpoint")
		return
	}
	log.Info().Str("module", "app.routing").Str("mix", h.Mix.Name).Msg("routing destroyed")
}

// Disconnect unloads only the link. The mixing endpoint keeps receiving the
// client's streams, which are then inaudible downstream. On failure the
// handle keeps its link so a later attempt can release it.
func (r *Router) Disconnect(h *domain.RoutingHandle) error {
	if h.Link == nil {
		return nil
	}
	if err := r.server.UnloadLink(*h.Link); err != nil {
		return err
	}
	h.Link = nil
	return nil
}

// Reconnect loads a new link from the handle's monitor capture to the
// current primary output.
func (r *Router) Reconnect(h *domain.RoutingHandle) error {
	if h.Link != nil {
		return nil
	}
	capture, ok := r.ResolveCaptureEndpoint(h)
	if !ok {
		return domain.NewNotFound("resolve capture", h.Mix.Name)
	}
	output, ok := r.FindPrimaryOutput()
	if !ok {
		return domain.NewNotFound("find primary output", r.match)
	}
	link, err := r.server.LoadLink(capture, output)
	if err != nil {
		return wrapLoad("load link", h.Mix.Name, err)
	}
	h.Link = &link
	return nil
}

// FindPrimaryOutput returns the first output whose name contains the
// hardware match string. With several matches enumeration order wins.
func (r *Router) FindPrimaryOutput() (domain.OutputID, bool) {
	outputs, err := r.server.Outputs()
	if err != nil {
		log.Error().Err(err).Str("module", "app.routing").Msg("enumerate outputs")
		return 0, false
	}
	for _, o := range outputs {
		if o.Name != "" && strings.Contains(o.Name, r.match) {
			return domain.OutputID(o.Index), true
		}
	}
	return 0, false
}

// ResolveCaptureEndpoint finds the monitor source of the handle's mixing
// endpoint by name: "<mix>.monitor" exactly, else the first "<mix>." prefix.
func (r *Router) ResolveCaptureEndpoint(h *domain.RoutingHandle) (domain.CaptureID, bool) {
	if h == nil || h.Mix.Name == "" {
		return 0, false
	}
	captures, err := r.server.Captures()
	if err != nil {
		log.Error().Err(err).Str("module", "app.routing").Msg("enumerate captures")
		return 0, false
	}
	monitor := h.Mix.Name + ".monitor"
	var (
		fallback domain.CaptureID
		found    bool
	)
	for _, c := range captures {
		if c.Name == monitor {
			return domain.CaptureID(c.Index), true
		}
		if !found && strings.HasPrefix(c.Name, h.Mix.Name+".") {
			fallback, found = domain.CaptureID(c.Index), true
		}
	}
	return fallback, found
}

func wrapLoad(op, name string, err error) error {
	var re *domain.ResourceError
	if errors.As(err, &re) {
		return err
	}
	return domain.NewLoadFailed(op, name, err)
}
