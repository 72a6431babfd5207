package domain

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleClass(t *testing.T) {
	cases := []struct {
		role Role
		want RoleClass
	}{
		{RoleNone, RoleClassNone},
		{RolePhone, RoleClassPriority},
		{RoleAbstract, RoleClassExempt},
		{RoleNavi, RoleClassDuckable},
		{Role("music"), RoleClassOther},
		{Role("Phone"), RoleClassOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.role.Class(), "role %q", tc.role)
	}
}

func TestClassifyConnection(t *testing.T) {
	assert.Equal(t, ConnUnix, ClassifyConnection("Native client (UNIX socket client)"))
	assert.Equal(t, ConnTCP, ClassifyConnection("TCP/IP client from 10.0.0.2:40312"))
	assert.Equal(t, ConnOther, ClassifyConnection("paplay"))
	assert.Equal(t, ConnOther, ClassifyConnection(""))
}

func TestVolumePercent(t *testing.T) {
	assert.Equal(t, VolumeMuted, VolumePercent(0))
	assert.Equal(t, VolumeMuted, VolumePercent(-5))
	assert.Equal(t, VolumeNorm, VolumePercent(100))
	assert.Equal(t, VolumeNorm, VolumePercent(250))
	assert.Equal(t, Volume(0x10000*10/100), VolumePercent(10))
}

func TestClientStreams(t *testing.T) {
	c := &Client{ID: 7}
	c.AddStream(StreamRef{ID: 1, Channels: 2})
	c.AddStream(StreamRef{ID: 2, Channels: 1})
	c.AddStream(StreamRef{ID: 1, Channels: 6})
	require.Len(t, c.Streams, 2)
	assert.Equal(t, 6, c.Streams[0].Channels)

	assert.True(t, c.RemoveStream(1))
	assert.False(t, c.RemoveStream(1))
	assert.Equal(t, []StreamRef{{ID: 2, Channels: 1}}, c.Streams)
}

func TestClientLinked(t *testing.T) {
	c := &Client{}
	assert.False(t, c.Linked())
	c.Routing = &RoutingHandle{Mix: MixEndpoint{Name: "null.agl.0"}}
	assert.False(t, c.Linked())
	c.Routing.Link = &Link{Module: 3}
	assert.True(t, c.Linked())
}

func TestResourceErrorMatching(t *testing.T) {
	err := NewLoadFailed("load link", "null.agl.3", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "null.agl.3")

	var re *ResourceError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "load link", re.Op)

	nf := NewNotFound("resolve capture", "null.agl.3")
	assert.ErrorIs(t, nf, ErrNotFound)
}

func TestPolicyError(t *testing.T) {
	err := &PolicyError{Op: "restore", Client: 42}
	assert.ErrorIs(t, err, ErrUnknownClient)
	assert.Contains(t, err.Error(), "client 42")
}

func TestRampCurve(t *testing.T) {
	for _, c := range []RampCurve{RampLinear, RampLogarithmic, RampCubic} {
		got, err := ParseRampCurve(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.Equal(t, 0.0, c.Progress(-1))
		assert.Equal(t, 1.0, c.Progress(2))
	}
	_, err := ParseRampCurve("sine")
	assert.Error(t, err)

	assert.Equal(t, 0.5, RampLinear.Progress(0.5))
	assert.Equal(t, 0.125, RampCubic.Progress(0.5))
	assert.Greater(t, RampLogarithmic.Progress(0.5), 0.5, "logarithmic moves fast first")
}
