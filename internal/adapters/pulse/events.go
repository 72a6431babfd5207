package pulse

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/jfreymuth/pulse/proto"
	"github.com/rs/zerolog/log"
)

const (
	maskSinkInput = 0x0004
	maskClient    = 0x0020

	facilityMask      = 0x000F
	facilitySinkInput = 0x0002
	facilityClient    = 0x0005

	typeMask   = 0x0030
	typeNew    = 0x0000
	typeRemove = 0x0020
)

type eventKind int

const (
	eventIgnored eventKind = iota
	eventClientNew
	eventClientGone
	eventStreamNew
	eventStreamGone
)

func classify(event uint32) eventKind {
	facility, kind := event&facilityMask, event&typeMask
	switch {
	case facility == facilityClient && kind == typeNew:
		return eventClientNew
	case facility == facilityClient && kind == typeRemove:
		return eventClientGone
	case facility == facilitySinkInput && kind == typeNew:
		return eventStreamNew
	case facility == facilitySinkInput && kind == typeRemove:
		return eventStreamGone
	}
	return eventIgnored
}

// Subscribe starts delivering client and stream notifications. deliver is
// called from a single goroutine owned by the server until ctx is done.
// With adopt set, clients and streams that already exist are replayed first.
func (s *Server) Subscribe(ctx context.Context, adopt bool, deliver func(core.Notification)) error {
	if err := s.client.Request(&proto.Subscribe{Mask: maskClient | maskSinkInput}, nil); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	var backlog []core.Notification
	if adopt {
		var err error
		if backlog, err = s.existing(); err != nil {
			return err
		}
	}
	go func() {
		for _, n := range backlog {
			deliver(n)
		}
		s.pump(ctx, deliver)
	}()
	return nil
}

// callback runs on the protocol reader goroutine and must not issue requests.
func (s *Server) callback(msg interface{}) {
	if ev, ok := msg.(*proto.SubscribeEvent); ok {
		s.queue.push(*ev)
	}
}

func (s *Server) pump(ctx context.Context, deliver func(core.Notification)) {
	for {
		ev, ok := s.queue.pop(ctx)
		if !ok {
			return
		}
		if n, ok := s.translate(ev); ok {
			deliver(n)
		}
	}
}

func (s *Server) translate(ev proto.SubscribeEvent) (core.Notification, bool) {
	switch classify(uint32(ev.Event)) {
	case eventClientNew:
		var reply proto.GetClientInfoReply
		if err := s.client.Request(&proto.GetClientInfo{ClientIndex: ev.Index}, &reply); err != nil {
			log.Warn().Err(err).Str("module", "adapters.pulse").Uint32("client", ev.Index).Msg("client info")
			return nil, false
		}
		return core.ClientNew{Client: clientInfo(&reply)}, true
	case eventClientGone:
		return core.ClientGone{ID: domain.ClientID(ev.Index)}, true
	case eventStreamNew:
		var reply proto.GetSinkInputInfoReply
		if err := s.client.Request(&proto.GetSinkInputInfo{SinkInputIndex: ev.Index}, &reply); err != nil {
			log.Warn().Err(err).Str("module", "adapters.pulse").Uint32("stream", ev.Index).Msg("sink input info")
			return nil, false
		}
		info, ok := streamInfo(&reply)
		if !ok {
			return nil, false
		}
		return core.StreamNew{Stream: info}, true
	case eventStreamGone:
		s.cancelRamp(domain.StreamID(ev.Index))
		return core.StreamGone{Stream: domain.StreamID(ev.Index)}, true
	}
	return nil, false
}

func (s *Server) existing() ([]core.Notification, error) {
	var clients proto.GetClientInfoListReply
	if err := s.client.Request(&proto.GetClientInfoList{}, &clients); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	var inputs proto.GetSinkInputInfoListReply
	if err := s.client.Request(&proto.GetSinkInputInfoList{}, &inputs); err != nil {
		return nil, fmt.Errorf("list sink inputs: %w", err)
	}
	out := make([]core.Notification, 0, len(clients)+len(inputs))
	for _, c := range clients {
		out = append(out, core.ClientNew{Client: clientInfo(c)})
	}
	for _, in := range inputs {
		if info, ok := streamInfo(in); ok {
			out = append(out, core.StreamNew{Stream: info})
		}
	}
	log.Info().Str("module", "adapters.pulse").Int("clients", len(clients)).Int("streams", len(inputs)).Msg("adopting existing")
	return out, nil
}

func clientInfo(r *proto.GetClientInfoReply) core.ClientInfo {
	return core.ClientInfo{
		ID:    domain.ClientID(r.ClientIndex),
		Name:  r.Application,
		Props: properties(r.Properties),
	}
}

// streamInfo converts a sink input. Inputs without an owning client, such as
// loopback streams, are skipped.
func streamInfo(r *proto.GetSinkInputInfoReply) (core.StreamInfo, bool) {
	if r.ClientIndex == invalidIndex {
		return core.StreamInfo{}, false
	}
	return core.StreamInfo{
		ID:       domain.StreamID(r.SinkInputIndex),
		Client:   domain.ClientID(r.ClientIndex),
		Channels: len(r.ChannelVolumes),
		Props:    properties(r.Properties),
	}, true
}

func properties(p proto.PropList) core.Properties {
	out := make(core.Properties, len(p))
	for k, v := range p {
		out[k] = v.String()
	}
	return out
}

// eventQueue decouples the protocol reader from request-issuing work.
type eventQueue struct {
	mu    sync.Mutex
	items []proto.SubscribeEvent
	wake  chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{wake: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev proto.SubscribeEvent) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) pop(ctx context.Context) (proto.SubscribeEvent, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return ev, true
		}
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return proto.SubscribeEvent{}, false
		case <-q.wake:
		}
	}
}
