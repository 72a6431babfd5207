package pulse

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/jfreymuth/pulse/proto"
	"github.com/rs/zerolog/log"
)

type rampJob struct {
	cancel context.CancelFunc
}

// SetVolumeRamp fades a sink input to ramp.Target in fixed steps. A newer ramp
// on the same stream replaces the running one.
func (s *Server) SetVolumeRamp(stream domain.StreamID, ramp domain.VolumeRamp) error {
	var info proto.GetSinkInputInfoReply
	if err := s.client.Request(&proto.GetSinkInputInfo{SinkInputIndex: uint32(stream)}, &info); err != nil {
		return domain.NewNotFound("sink input info", fmtStream(stream))
	}
	channels := len(info.ChannelVolumes)
	if channels == 0 {
		channels = ramp.Channels
	}
	from := average(info.ChannelVolumes)

	ctx, cancel := context.WithCancel(context.Background())
	job := &rampJob{cancel: cancel}
	s.mu.Lock()
	if prev, ok := s.ramps[stream]; ok {
		prev.cancel()
	}
	s.ramps[stream] = job
	s.mu.Unlock()

	go s.runRamp(ctx, job, stream, channels, from, ramp)
	return nil
}

func (s *Server) runRamp(ctx context.Context, job *rampJob, stream domain.StreamID, channels int, from uint32, ramp domain.VolumeRamp) {
	defer func() {
		s.mu.Lock()
		if s.ramps[stream] == job {
			delete(s.ramps, stream)
		}
		s.mu.Unlock()
		job.cancel()
	}()
	steps := rampSteps(ramp.Duration, s.step)
	ticker := time.NewTicker(s.step)
	defer ticker.Stop()
	volumes := make(proto.ChannelVolumes, channels)
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		fill(volumes, rampLevel(from, uint32(ramp.Target), i, steps, ramp.Curve))
		err := s.client.Request(&proto.SetSinkInputVolume{SinkInputIndex: uint32(stream), ChannelVolumes: volumes}, nil)
		if err != nil {
			log.Debug().Err(err).Str("module", "adapters.pulse").Uint32("stream", uint32(stream)).Msg("ramp aborted")
			return
		}
	}
}

func (s *Server) cancelRamp(stream domain.StreamID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.ramps[stream]; ok {
		job.cancel()
		delete(s.ramps, stream)
	}
}

func rampSteps(d, step time.Duration) int {
	if step <= 0 || d <= step {
		return 1
	}
	return int(d / step)
}

// rampLevel is the level after step i of steps along curve.
func rampLevel(from, to uint32, i, steps int, curve domain.RampCurve) uint32 {
	if i >= steps {
		return to
	}
	p := curve.Progress(float64(i) / float64(steps))
	delta := float64(int64(to) - int64(from))
	return uint32(math.Round(float64(from) + delta*p))
}

func fill[S ~[]E, E ~uint32](dst S, v E) {
	for i := range dst {
		dst[i] = v
	}
}

func average[S ~[]E, E ~uint32](vs S) uint32 {
	if len(vs) == 0 {
		return uint32(domain.VolumeNorm)
	}
	var sum uint64
	for _, v := range vs {
		sum += uint64(v)
	}
	return uint32(sum / uint64(len(vs)))
}

func fmtStream(id domain.StreamID) string {
	return "sink-input-" + strconv.FormatUint(uint64(id), 10)
}
