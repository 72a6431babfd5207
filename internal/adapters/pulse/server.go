// Package pulse implements the policy's audio-server boundary over the
// PulseAudio native protocol.
package pulse

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/jfreymuth/pulse/proto"
	"github.com/rs/zerolog/log"
)

const (
	protocolVersion = 32
	invalidIndex    = 0xFFFFFFFF

	moduleNullSink = "module-null-sink"
	moduleLoopback = "module-loopback"
)

// Server talks to one PulseAudio daemon. Requests may be issued from any
// goroutine except the protocol callback.
type Server struct {
	client *proto.Client
	conn   net.Conn
	queue  *eventQueue

	mu    sync.Mutex
	ramps map[domain.StreamID]*rampJob
	step  time.Duration
}

// Dial connects to address (empty means the default server) and names the
// connection appName.
func Dial(address, appName string) (*Server, error) {
	client, conn, err := proto.Connect(address)
	if err != nil {
		return nil, fmt.Errorf("connect %q: %w", address, err)
	}
	s := &Server{
		client: client,
		conn:   conn,
		queue:  newEventQueue(),
		ramps:  make(map[domain.StreamID]*rampJob),
		step:   50 * time.Millisecond,
	}
	client.Callback = s.callback

	if err := client.Request(&proto.Auth{Version: protocolVersion, Cookie: readCookie()}, &proto.AuthReply{}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}
	props := proto.PropList{"application.name": proto.PropListString(appName)}
	if err := client.Request(&proto.SetClientName{Props: props}, &proto.SetClientNameReply{}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set client name: %w", err)
	}
	log.Info().Str("module", "adapters.pulse").Str("server", address).Msg("connected")
	return s, nil
}

func (s *Server) Close() error {
	s.mu.Lock()
	for id, job := range s.ramps {
		job.cancel()
		delete(s.ramps, id)
	}
	s.mu.Unlock()
	return s.conn.Close()
}

func (s *Server) LoadMixEndpoint(name string, channels int) (domain.MixEndpoint, error) {
	args := fmt.Sprintf("sink_name=%s channels=%d sink_properties=device.description=%s", name, channels, name)
	var loaded proto.LoadModuleReply
	if err := s.client.Request(&proto.LoadModule{Name: moduleNullSink, Args: args}, &loaded); err != nil {
		return domain.MixEndpoint{}, domain.NewLoadFailed("load "+moduleNullSink, name, err)
	}
	var sink proto.LookupSinkReply
	if err := s.client.Request(&proto.LookupSink{SinkName: name}, &sink); err != nil {
		s.unload(loaded.ModuleIndex)
		return domain.MixEndpoint{}, domain.NewNotFound("lookup sink", name)
	}
	return domain.MixEndpoint{Module: loaded.ModuleIndex, Sink: domain.OutputID(sink.SinkIndex), Name: name}, nil
}

func (s *Server) LoadLink(capture domain.CaptureID, output domain.OutputID) (domain.Link, error) {
	source, err := s.nameOf(s.Captures, uint32(capture))
	if err != nil {
		return domain.Link{}, err
	}
	sink, err := s.nameOf(s.Outputs, uint32(output))
	if err != nil {
		return domain.Link{}, err
	}
	args := fmt.Sprintf("source=%s sink=%s", source, sink)
	var loaded proto.LoadModuleReply
	if err := s.client.Request(&proto.LoadModule{Name: moduleLoopback, Args: args}, &loaded); err != nil {
		return domain.Link{}, domain.NewLoadFailed("load "+moduleLoopback, source, err)
	}
	return domain.Link{Module: loaded.ModuleIndex, Capture: capture, Output: output}, nil
}

func (s *Server) UnloadLink(link domain.Link) error {
	return s.client.Request(&proto.UnloadModule{ModuleIndex: link.Module}, nil)
}

func (s *Server) UnloadMixEndpoint(mix domain.MixEndpoint) error {
	return s.client.Request(&proto.UnloadModule{ModuleIndex: mix.Module}, nil)
}

func (s *Server) Outputs() ([]core.Endpoint, error) {
	var reply proto.GetSinkInfoListReply
	if err := s.client.Request(&proto.GetSinkInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("list sinks: %w", err)
	}
	out := make([]core.Endpoint, 0, len(reply))
	for _, sink := range reply {
		out = append(out, core.Endpoint{Index: sink.SinkIndex, Name: sink.SinkName})
	}
	return out, nil
}

func (s *Server) Captures() ([]core.Endpoint, error) {
	var reply proto.GetSourceInfoListReply
	if err := s.client.Request(&proto.GetSourceInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	out := make([]core.Endpoint, 0, len(reply))
	for _, src := range reply {
		out = append(out, core.Endpoint{Index: src.SourceIndex, Name: src.SourceName})
	}
	return out, nil
}

func (s *Server) RedirectStream(stream domain.StreamID, target domain.MixEndpoint) error {
	return s.client.Request(&proto.MoveSinkInput{
		SinkInputIndex: uint32(stream),
		DeviceIndex:    invalidIndex,
		DeviceName:     target.Name,
	}, nil)
}

func (s *Server) unload(module uint32) {
	if err := s.client.Request(&proto.UnloadModule{ModuleIndex: module}, nil); err != nil {
		log.Error().Err(err).Str("module", "adapters.pulse").Uint32("index", module).Msg("unload module")
	}
}

func (s *Server) nameOf(list func() ([]core.Endpoint, error), index uint32) (string, error) {
	endpoints, err := list()
	if err != nil {
		return "", err
	}
	for _, e := range endpoints {
		if e.Index == index {
			return e.Name, nil
		}
	}
	return "", domain.NewNotFound("lookup endpoint", fmt.Sprint(index))
}

func readCookie() []byte {
	paths := []string{os.Getenv("PULSE_COOKIE")}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "pulse", "cookie"),
			filepath.Join(home, ".pulse-cookie"),
		)
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if b, err := os.ReadFile(p); err == nil && len(b) == 256 {
			return b
		}
	}
	return make([]byte, 256)
}
