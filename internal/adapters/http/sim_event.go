package http

import (
	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
)

// simEvent is an injected audio-server notification.
type simEvent struct {
	Type     string `json:"type" binding:"required,oneof=client_new client_gone stream_new stream_gone"`
	Client   uint32 `json:"client"`
	Stream   uint32 `json:"stream"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Channels int    `json:"channels"`
}

func (e simEvent) notification(roleKey string) core.Notification {
	switch e.Type {
	case "client_new":
		return core.ClientNew{Client: core.ClientInfo{ID: domain.ClientID(e.Client), Name: e.Name}}
	case "client_gone":
		return core.ClientGone{ID: domain.ClientID(e.Client)}
	case "stream_gone":
		return core.StreamGone{Stream: domain.StreamID(e.Stream)}
	}
	props := core.Properties{}
	if e.Role != "" {
		props[roleKey] = e.Role
	}
	channels := e.Channels
	if channels <= 0 {
		channels = 2
	}
	return core.StreamNew{Stream: core.StreamInfo{
		ID:       domain.StreamID(e.Stream),
		Client:   domain.ClientID(e.Client),
		Channels: channels,
		Props:    props,
	}}
}
