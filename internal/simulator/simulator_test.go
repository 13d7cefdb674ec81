package simulator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tof-collect-go/internal/simulator"
)

func TestPayloadsAndSizes(t *testing.T) {
	sim := simulator.New(simulator.Options{Width: 8, Height: 4, Mode: "sr-native"})

	frame, err := sim.RequestFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, frame.Width)
	assert.Equal(t, 4, frame.Height)

	depth, err := frame.Data("depth")
	require.NoError(t, err)
	assert.Len(t, depth, 2*8*4)

	conf, err := frame.Data("conf")
	require.NoError(t, err)
	assert.Len(t, conf, 4*8*4)

	layout, ok := frame.Layout("raw")
	require.True(t, ok)
	raw, err := frame.Data("raw")
	require.NoError(t, err)
	assert.Len(t, raw, layout.Width*layout.Height*layout.SubelementsPerElement*layout.SubelementSize)
}

func TestPCMNativeCarriesOnlyIR(t *testing.T) {
	sim := simulator.New(simulator.Options{Width: 8, Height: 4, Mode: "pcm-native"})

	frame, err := sim.RequestFrame(context.Background())
	require.NoError(t, err)

	_, err = frame.Data("ir")
	require.NoError(t, err)
	_, err = frame.Data("depth")
	assert.Error(t, err)
	_, err = frame.Data("raw")
	assert.Error(t, err)
}

func TestBackingMemoryIsReused(t *testing.T) {
	// Device-owned semantics: the slice behind one frame is recycled by
	// the next request, so callers must copy before requesting again.
	sim := simulator.New(simulator.Options{Width: 8, Height: 4, Mode: "sr-native"})

	first, err := sim.RequestFrame(context.Background())
	require.NoError(t, err)
	firstDepth, err := first.Data("depth")
	require.NoError(t, err)

	second, err := sim.RequestFrame(context.Background())
	require.NoError(t, err)
	secondDepth, err := second.Data("depth")
	require.NoError(t, err)

	assert.Same(t, &firstDepth[0], &secondDepth[0], "payload backing array should be reused")
}

func TestControls(t *testing.T) {
	sim := simulator.New(simulator.Options{Width: 8, Height: 4})
	value, err := sim.Control("phaseDepthBits")
	require.NoError(t, err)
	assert.NotEqual(t, "0", value)

	_, err = sim.Control("unknownControl")
	assert.Error(t, err)
}
