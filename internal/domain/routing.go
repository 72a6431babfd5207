package domain

// OutputID identifies a playback endpoint (sink) of the audio server.
type OutputID uint32

// CaptureID identifies a capture endpoint (source), e.g. a sink monitor.
type CaptureID uint32

// MixEndpoint is the private silent sink created for one client.
type MixEndpoint struct {
	Module uint32 // module owning the sink, unloaded on release
	Sink   OutputID
	Name   string
}

// Link routes a capture endpoint to an output.
type Link struct {
	Module  uint32
	Capture CaptureID
	Output  OutputID
}

// RoutingHandle is the pair of resources allocated for one client.
// Link is nil while the client is silenced; it is never set without Mix.
type RoutingHandle struct {
	Mix  MixEndpoint
	Link *Link
}

func (h *RoutingHandle) Linked() bool { return h.Link != nil }
