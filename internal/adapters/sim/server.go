// Package sim is an in-memory audio server. It keeps just enough state to
// drive the policy without a real sound daemon: sinks, sources, loaded
// modules and playback streams.
package sim

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
)

var (
	ErrNoEntity = errors.New("no such entity")
	ErrExists   = errors.New("entity exists")
)

type Op string

const (
	OpLoadMix    Op = "load_mix"
	OpLoadLink   Op = "load_link"
	OpUnloadLink Op = "unload_link"
	OpUnloadMix  Op = "unload_mix"
	OpOutputs    Op = "outputs"
	OpCaptures   Op = "captures"
	OpRamp       Op = "ramp"
	OpRedirect   Op = "redirect"
)

// DefaultOutput is the hardware sink every new Server starts with.
const DefaultOutput = "alsa_output.platform-sound.analog-stereo"

type endpoint struct {
	index  uint32
	name   string
	module uint32
}

type Stream struct {
	ID     domain.StreamID
	Client domain.ClientID
	Sink   domain.OutputID
	Volume domain.Volume
	Ramps  []domain.VolumeRamp
}

type Server struct {
	next       uint32
	nextModule uint32
	sinks      []endpoint
	sources    []endpoint
	mixes      map[uint32]domain.MixEndpoint
	links      map[uint32]domain.Link
	streams    map[domain.StreamID]*Stream
	failOnce   map[Op]error
	failAlways map[Op]error
	calls      []Op

	// OnLinkLoaded runs inside LoadLink once the link exists, the way a real
	// server announces the link's own streams before the load returns.
	OnLinkLoaded func(domain.Link)
	// OnMixUnloaded runs inside UnloadMixEndpoint after streams were moved.
	OnMixUnloaded func(domain.MixEndpoint)
}

func New() *Server {
	s := &Server{
		nextModule: 1,
		mixes:      make(map[uint32]domain.MixEndpoint),
		links:      make(map[uint32]domain.Link),
		streams:    make(map[domain.StreamID]*Stream),
		failOnce:   make(map[Op]error),
		failAlways: make(map[Op]error),
	}
	s.AddOutput(DefaultOutput)
	s.sources = append(s.sources, endpoint{index: s.id(), name: "alsa_input.platform-sound.analog-stereo"})
	return s
}

// AddOutput adds a sink and its monitor source.
func (s *Server) AddOutput(name string) domain.OutputID {
	return s.addSink(name, 0)
}

func (s *Server) addSink(name string, module uint32) domain.OutputID {
	idx := s.id()
	s.sinks = append(s.sinks, endpoint{index: idx, name: name, module: module})
	s.sources = append(s.sources, endpoint{index: s.id(), name: name + ".monitor", module: module})
	return domain.OutputID(idx)
}

// FailNext makes the next call of op return err.
func (s *Server) FailNext(op Op, err error) { s.failOnce[op] = err }

// FailAlways makes every call of op return err until cleared with nil.
func (s *Server) FailAlways(op Op, err error) {
	if err == nil {
		delete(s.failAlways, op)
		return
	}
	s.failAlways[op] = err
}

func (s *Server) LoadMixEndpoint(name string, channels int) (domain.MixEndpoint, error) {
	if err := s.enter(OpLoadMix); err != nil {
		return domain.MixEndpoint{}, err
	}
	if channels <= 0 {
		return domain.MixEndpoint{}, fmt.Errorf("channels=%d: invalid argument", channels)
	}
	if _, ok := s.findSink(name); ok {
		return domain.MixEndpoint{}, fmt.Errorf("sink %q: %w", name, ErrExists)
	}
	module := s.module()
	mix := domain.MixEndpoint{Module: module, Sink: s.addSink(name, module), Name: name}
	s.mixes[module] = mix
	return mix, nil
}

func (s *Server) LoadLink(capture domain.CaptureID, output domain.OutputID) (domain.Link, error) {
	if err := s.enter(OpLoadLink); err != nil {
		return domain.Link{}, err
	}
	if !slices.ContainsFunc(s.sources, func(e endpoint) bool { return e.index == uint32(capture) }) {
		return domain.Link{}, fmt.Errorf("source %d: %w", capture, ErrNoEntity)
	}
	if !slices.ContainsFunc(s.sinks, func(e endpoint) bool { return e.index == uint32(output) }) {
		return domain.Link{}, fmt.Errorf("sink %d: %w", output, ErrNoEntity)
	}
	link := domain.Link{Module: s.module(), Capture: capture, Output: output}
	s.links[link.Module] = link
	if s.OnLinkLoaded != nil {
		s.OnLinkLoaded(link)
	}
	return link, nil
}

func (s *Server) UnloadLink(link domain.Link) error {
	if err := s.enter(OpUnloadLink); err != nil {
		return err
	}
	if _, ok := s.links[link.Module]; !ok {
		return fmt.Errorf("module %d: %w", link.Module, ErrNoEntity)
	}
	delete(s.links, link.Module)
	return nil
}

func (s *Server) UnloadMixEndpoint(mix domain.MixEndpoint) error {
	if err := s.enter(OpUnloadMix); err != nil {
		return err
	}
	if _, ok := s.mixes[mix.Module]; !ok {
		return fmt.Errorf("module %d: %w", mix.Module, ErrNoEntity)
	}
	delete(s.mixes, mix.Module)
	s.sinks = slices.DeleteFunc(s.sinks, func(e endpoint) bool { return e.module == mix.Module })
	s.sources = slices.DeleteFunc(s.sources, func(e endpoint) bool { return e.module == mix.Module })
	for _, st := range s.streams {
		if st.Sink == mix.Sink {
			st.Sink = domain.OutputID(s.sinks[0].index)
		}
	}
	if s.OnMixUnloaded != nil {
		s.OnMixUnloaded(mix)
	}
	return nil
}

func (s *Server) Outputs() ([]core.Endpoint, error) {
	if err := s.enter(OpOutputs); err != nil {
		return nil, err
	}
	return toEndpoints(s.sinks), nil
}

func (s *Server) Captures() ([]core.Endpoint, error) {
	if err := s.enter(OpCaptures); err != nil {
		return nil, err
	}
	return toEndpoints(s.sources), nil
}

func (s *Server) SetVolumeRamp(stream domain.StreamID, ramp domain.VolumeRamp) error {
	if err := s.enter(OpRamp); err != nil {
		return err
	}
	st, ok := s.streams[stream]
	if !ok {
		return fmt.Errorf("stream %d: %w", stream, ErrNoEntity)
	}
	st.Ramps = append(st.Ramps, ramp)
	st.Volume = ramp.Target
	return nil
}

func (s *Server) RedirectStream(stream domain.StreamID, target domain.MixEndpoint) error {
	if err := s.enter(OpRedirect); err != nil {
		return err
	}
	st, ok := s.streams[stream]
	if !ok {
		return fmt.Errorf("stream %d: %w", stream, ErrNoEntity)
	}
	sink, ok := s.findSink(target.Name)
	if !ok {
		return fmt.Errorf("sink %q: %w", target.Name, ErrNoEntity)
	}
	st.Sink = domain.OutputID(sink.index)
	return nil
}

// Deliver mirrors n into the server state, then hands it to h.
func (s *Server) Deliver(h core.NotificationHandler, n core.Notification) {
	switch ev := n.(type) {
	case core.StreamNew:
		s.AddStream(ev.Stream.ID, ev.Stream.Client)
	case core.StreamGone:
		delete(s.streams, ev.Stream)
	case core.ClientGone:
		for id, st := range s.streams {
			if st.Client == ev.ID {
				delete(s.streams, id)
			}
		}
	}
	h.Handle(n)
}

// AddStream starts a stream on the first sink at full volume.
func (s *Server) AddStream(id domain.StreamID, client domain.ClientID) {
	s.streams[id] = &Stream{ID: id, Client: client, Sink: domain.OutputID(s.sinks[0].index), Volume: domain.VolumeNorm}
}

func (s *Server) Stream(id domain.StreamID) (Stream, bool) {
	st, ok := s.streams[id]
	if !ok {
		return Stream{}, false
	}
	out := *st
	out.Ramps = slices.Clone(st.Ramps)
	return out, true
}

// Audible reports whether the stream reaches a hardware sink, directly or
// through a mixing endpoint whose monitor is linked.
func (s *Server) Audible(id domain.StreamID) bool {
	st, ok := s.streams[id]
	if !ok {
		return false
	}
	for _, mix := range s.mixes {
		if mix.Sink != st.Sink {
			continue
		}
		monitor, ok := s.findSource(mix.Name + ".monitor")
		if !ok {
			return false
		}
		for _, l := range s.links {
			if uint32(l.Capture) == monitor.index {
				return true
			}
		}
		return false
	}
	return true
}

func (s *Server) Mixes() []domain.MixEndpoint {
	out := make([]domain.MixEndpoint, 0, len(s.mixes))
	for _, m := range s.mixes {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b domain.MixEndpoint) int { return int(a.Module) - int(b.Module) })
	return out
}

func (s *Server) Links() []domain.Link {
	out := make([]domain.Link, 0, len(s.links))
	for _, l := range s.links {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b domain.Link) int { return int(a.Module) - int(b.Module) })
	return out
}

// Calls lists the operations invoked so far, in order.
func (s *Server) Calls() []Op { return slices.Clone(s.calls) }

func (s *Server) enter(op Op) error {
	s.calls = append(s.calls, op)
	if err, ok := s.failOnce[op]; ok {
		delete(s.failOnce, op)
		return err
	}
	return s.failAlways[op]
}

func (s *Server) id() uint32 {
	idx := s.next
	s.next++
	return idx
}

func (s *Server) module() uint32 {
	m := s.nextModule
	s.nextModule++
	return m
}

func (s *Server) findSink(name string) (endpoint, bool) {
	i := slices.IndexFunc(s.sinks, func(e endpoint) bool { return e.name == name })
	if i < 0 {
		return endpoint{}, false
	}
	return s.sinks[i], true
}

func (s *Server) findSource(name string) (endpoint, bool) {
	i := slices.IndexFunc(s.sources, func(e endpoint) bool { return e.name == name })
	if i < 0 {
		return endpoint{}, false
	}
	return s.sources[i], true
}

func toEndpoints(in []endpoint) []core.Endpoint {
	out := make([]core.Endpoint, len(in))
	for i, e := range in {
		out[i] = core.Endpoint{Index: e.index, Name: e.name}
	}
	return out
}
