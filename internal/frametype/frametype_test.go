package frametype_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tof-collect-go/internal/frametype"
	"tof-collect-go/internal/source"
)

type controlMap map[string]string

func (c controlMap) Control(name string) (string, error) {
	value, ok := c[name]
	if !ok {
		return "", errors.Errorf("no control %q", name)
	}
	return value, nil
}

func allEnabled() controlMap {
	return controlMap{
		"phaseDepthBits": "12",
		"abBits":         "12",
		"confidenceBits": "8",
	}
}

func testFrame() *source.Frame {
	return &source.Frame{
		Width:  512,
		Height: 512,
		Layouts: map[string]source.DataDetails{
			"raw": {
				Width:                 1024,
				Height:                512,
				SubelementsPerElement: 4,
				SubelementSize:        2,
			},
		},
	}
}

func TestResolveSizes(t *testing.T) {
	tests := []struct {
		kind string
		size int
	}{
		{kind: frametype.Depth, size: 2 * 512 * 512},
		{kind: frametype.IR, size: 2 * 512 * 512},
		{kind: frametype.Conf, size: 4 * 512 * 512},
		{kind: frametype.Raw, size: 1024 * 512 * 4 * 2},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			res, err := frametype.Resolve(tt.kind, "sr-native", testFrame(), allEnabled())
			require.NoError(t, err)
			assert.Equal(t, tt.size, res.SizeBytes)
			assert.Equal(t, tt.kind, res.Label)
		})
	}
}

func TestResolveDisabledKinds(t *testing.T) {
	tests := []struct {
		kind    string
		control string
	}{
		{kind: frametype.Depth, control: "phaseDepthBits"},
		{kind: frametype.IR, control: "abBits"},
		{kind: frametype.Conf, control: "confidenceBits"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			controls := allEnabled()
			controls[tt.control] = "0"
			_, err := frametype.Resolve(tt.kind, "sr-native", testFrame(), controls)
			require.Error(t, err)
			assert.ErrorIs(t, err, frametype.ErrKindDisabled)
		})
	}
}

func TestResolveUnknownKind(t *testing.T) {
	_, err := frametype.Resolve("rgb", "sr-native", testFrame(), allEnabled())
	require.Error(t, err)
	assert.ErrorIs(t, err, frametype.ErrUnknownKind)
}

func TestResolveRawIgnoresControls(t *testing.T) {
	// Raw resolution reads layout metadata only, no enable-bit check.
	res, err := frametype.Resolve(frametype.Raw, "sr-native", testFrame(), controlMap{})
	require.NoError(t, err)
	assert.Equal(t, 1024*512*4*2, res.SizeBytes)
}

func TestResolveIRSkipsControlInPCMNative(t *testing.T) {
	res, err := frametype.Resolve(frametype.IR, frametype.ModePCMNative, testFrame(), controlMap{})
	require.NoError(t, err)
	assert.Equal(t, 2*512*512, res.SizeBytes)
}

func TestNormalize(t *testing.T) {
	kind, downgraded := frametype.Normalize(frametype.Depth, frametype.ModePCMNative)
	assert.Equal(t, frametype.IR, kind)
	assert.True(t, downgraded)

	kind, downgraded = frametype.Normalize(frametype.IR, frametype.ModePCMNative)
	assert.Equal(t, frametype.IR, kind)
	assert.False(t, downgraded)

	kind, downgraded = frametype.Normalize(frametype.Depth, "sr-native")
	assert.Equal(t, frametype.Depth, kind)
	assert.False(t, downgraded)
}

func TestModeName(t *testing.T) {
	name, err := frametype.ModeName(0)
	require.NoError(t, err)
	assert.Equal(t, "sr-native", name)

	name, err = frametype.ModeName(4)
	require.NoError(t, err)
	assert.Equal(t, frametype.ModePCMNative, name)

	_, err = frametype.ModeName(7)
	assert.ErrorIs(t, err, frametype.ErrUnknownMode)

	_, err = frametype.ModeName(-1)
	assert.ErrorIs(t, err, frametype.ErrUnknownMode)
}
