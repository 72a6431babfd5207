package core

import "github.com/dkeye/audiopolicy/internal/domain"

//go:generate mockgen -source=audio_server.go -destination=mocks/audio_server.go -package=mocks

// Endpoint is a sink or source as enumerated by the audio server.
type Endpoint struct {
	Index uint32
	Name  string
}

// AudioServer is the set of resource calls the policy needs from the host
// audio server. Calls are synchronous and may deliver nested notifications
// before they return.
type AudioServer interface {
	// LoadMixEndpoint creates a silent sink named name and returns its identifiers.
	LoadMixEndpoint(name string, channels int) (domain.MixEndpoint, error)
	// LoadLink routes capture into output.
	LoadLink(capture domain.CaptureID, output domain.OutputID) (domain.Link, error)
	UnloadLink(link domain.Link) error
	UnloadMixEndpoint(mix domain.MixEndpoint) error
	// Outputs lists sinks in enumeration order.
	Outputs() ([]Endpoint, error)
	// Captures lists sources in enumeration order.
	Captures() ([]Endpoint, error)
	SetVolumeRamp(stream domain.StreamID, ramp domain.VolumeRamp) error
	RedirectStream(stream domain.StreamID, target domain.MixEndpoint) error
}
