package pulse

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		event uint32
		want  eventKind
	}{
		{facilityClient | typeNew, eventClientNew},
		{facilityClient | typeRemove, eventClientGone},
		{facilitySinkInput | typeNew, eventStreamNew},
		{facilitySinkInput | typeRemove, eventStreamGone},
		{facilitySinkInput | 0x0010, eventIgnored}, // change
		{0x0000 | typeNew, eventIgnored},           // sink
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classify(c.event), "event %#x", c.event)
	}
}

func TestStreamInfo(t *testing.T) {
	r := &proto.GetSinkInputInfoReply{
		SinkInputIndex: 12,
		ClientIndex:    4,
		ChannelVolumes: proto.ChannelVolumes{0x10000, 0x10000},
		Properties:     proto.PropList{"media.role": proto.PropListString("phone")},
	}
	info, ok := streamInfo(r)
	require.True(t, ok)
	assert.Equal(t, domain.StreamID(12), info.ID)
	assert.Equal(t, domain.ClientID(4), info.Client)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, "phone", info.Props["media.role"])

	r.ClientIndex = invalidIndex
	_, ok = streamInfo(r)
	assert.False(t, ok, "loopback inputs have no client")
}

func TestClientInfo(t *testing.T) {
	info := clientInfo(&proto.GetClientInfoReply{ClientIndex: 7, Application: "UNIX socket client"})
	assert.Equal(t, domain.ClientID(7), info.ID)
	assert.Equal(t, "UNIX socket client", info.Name)
	assert.Empty(t, info.Props)
}

func TestRampLevel(t *testing.T) {
	assert.Equal(t, uint32(0x10000), rampLevel(0, 0x10000, 4, 4, domain.RampLinear))
	assert.Equal(t, uint32(0x8000), rampLevel(0, 0x10000, 2, 4, domain.RampLinear))
	assert.Equal(t, uint32(0xC000), rampLevel(0x10000, 0x8000, 2, 4, domain.RampLinear))
	assert.Equal(t, uint32(0x8000), rampLevel(0x10000, 0x8000, 9, 4, domain.RampLinear))

	assert.Equal(t, uint32(0x2000), rampLevel(0, 0x10000, 2, 4, domain.RampCubic))
	assert.Equal(t, uint32(0xE000), rampLevel(0x10000, 0, 2, 4, domain.RampCubic))
	assert.Greater(t, rampLevel(0, 0x10000, 2, 4, domain.RampLogarithmic), uint32(0x8000))
	assert.Equal(t, uint32(0x10000), rampLevel(0, 0x10000, 4, 4, domain.RampCubic))
}

func TestRampSteps(t *testing.T) {
	assert.Equal(t, 1, rampSteps(0, 50*time.Millisecond))
	assert.Equal(t, 1, rampSteps(time.Second, 0))
	assert.Equal(t, 60, rampSteps(3*time.Second, 50*time.Millisecond))
}

func TestFillAverage(t *testing.T) {
	v := make(proto.ChannelVolumes, 3)
	fill(v, 0x4000)
	assert.Equal(t, proto.ChannelVolumes{0x4000, 0x4000, 0x4000}, v)
	assert.Equal(t, uint32(0x3000), average(proto.ChannelVolumes{0x2000, 0x4000}))
	assert.Equal(t, uint32(domain.VolumeNorm), average(proto.ChannelVolumes{}))
}

func TestEventQueue(t *testing.T) {
	q := newEventQueue()
	q.push(proto.SubscribeEvent{Index: 1})
	q.push(proto.SubscribeEvent{Index: 2})

	ctx, cancel := context.WithCancel(context.Background())
	ev, ok := q.pop(ctx)
	require.True(t, ok)
	assert.Equal(t, uint32(1), ev.Index)
	ev, ok = q.pop(ctx)
	require.True(t, ok)
	assert.Equal(t, uint32(2), ev.Index)

	got := make(chan uint32)
	go func() {
		ev, ok := q.pop(ctx)
		if ok {
			got <- ev.Index
		}
		close(got)
	}()
	q.push(proto.SubscribeEvent{Index: 3})
	assert.Equal(t, uint32(3), <-got)

	cancel()
	_, ok = q.pop(ctx)
	assert.False(t, ok)
}
