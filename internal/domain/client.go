// Package domain holds the policy entities and the pure helpers over them.
package domain

import "strings"

// ClientID is the audio server's index of a connected client.
// It is only compared, never dereferenced.
type ClientID uint32

// StreamID is the audio server's index of a playback stream.
type StreamID uint32

// ConnKind tells how a client reached the audio server.
type ConnKind string

const (
	ConnUnix  ConnKind = "unix"
	ConnTCP   ConnKind = "tcp"
	ConnOther ConnKind = "other"
)

// ClassifyConnection derives the connection kind from the generic
// application name the server assigns before the client names itself.
func ClassifyConnection(name string) ConnKind {
	switch {
	case strings.Contains(name, "UNIX socket client"):
		return ConnUnix
	case strings.Contains(name, "TCP/IP client from"):
		return ConnTCP
	default:
		return ConnOther
	}
}

// StreamRef is a playback stream attached to a client's mixing endpoint.
type StreamRef struct {
	ID       StreamID
	Channels int
}

// Client is one distinct audio-server client seen by the policy.
type Client struct {
	ID      ClientID
	Seq     uint64 // registration order, names the mixing endpoint
	Name    string
	Conn    ConnKind
	Routing *RoutingHandle
	Role    Role
	Ducked  bool
	Streams []StreamRef
}

func (c *Client) HasRole() bool { return c.Role != RoleNone }

// Linked reports whether the client is audible through a link.
func (c *Client) Linked() bool {
	return c.Routing != nil && c.Routing.Linked()
}

func (c *Client) AddStream(ref StreamRef) {
	for i, s := range c.Streams {
		if s.ID == ref.ID {
			c.Streams[i] = ref
			return
		}
	}
	c.Streams = append(c.Streams, ref)
}

func (c *Client) RemoveStream(id StreamID) bool {
	for i, s := range c.Streams {
		if s.ID == id {
			c.Streams = append(c.Streams[:i], c.Streams[i+1:]...)
			return true
		}
	}
	return false
}
