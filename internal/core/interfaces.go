package core

import (
	"time"

	"github.com/dkeye/audiopolicy/internal/domain"
)

// Properties is a flattened property list of a client or stream.
type Properties map[string]string

type ClientInfo struct {
	ID    domain.ClientID
	Name  string
	Props Properties
}

type StreamInfo struct {
	ID       domain.StreamID
	Client   domain.ClientID
	Channels int
	Props    Properties
}

// Notification is an event delivered by the audio server.
type Notification interface{ notification() }

type ClientNew struct{ Client ClientInfo }

type ClientGone struct{ ID domain.ClientID }

type StreamNew struct{ Stream StreamInfo }

type StreamGone struct{ Stream domain.StreamID }

func (ClientNew) notification()  {}
func (ClientGone) notification() {}
func (StreamNew) notification()  {}
func (StreamGone) notification() {}

// NotificationHandler consumes notifications on the dispatch thread.
type NotificationHandler interface {
	Handle(Notification)
}

// Decision actions published by the policy engine.
const (
	ActionRegistered = "registered"
	ActionRouted     = "routed"
	ActionDucked     = "ducked"
	ActionSilenced   = "silenced"
	ActionUnducked   = "unducked"
	ActionRelinked   = "relinked"
	ActionReleased   = "released"
	ActionFailed     = "failed"
)

// Decision is a record of one policy action, for observers.
type Decision struct {
	ID     string          `json:"id"`
	At     time.Time       `json:"at"`
	Client domain.ClientID `json:"client"`
	Role   domain.Role     `json:"role,omitempty"`
	Action string          `json:"action"`
	Detail string          `json:"detail,omitempty"`
}

// DecisionSink receives decisions. Publish must not block.
type DecisionSink interface {
	Publish(Decision)
}

// ClientView is a read-only view of a registered client for APIs.
type ClientView struct {
	ID      domain.ClientID   `json:"id"`
	Name    string            `json:"name,omitempty"`
	Conn    domain.ConnKind   `json:"conn,omitempty"`
	Role    domain.Role       `json:"role,omitempty"`
	Phase   string            `json:"phase"`
	Ducked  bool              `json:"ducked"`
	Mix     string            `json:"mix,omitempty"`
	Linked  bool              `json:"linked"`
	Streams []domain.StreamID `json:"streams"`
}
