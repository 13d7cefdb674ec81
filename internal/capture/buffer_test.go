package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tof-collect-go/internal/source"
)

func TestAllocatorCeiling(t *testing.T) {
	alloc := Allocator{MaxBytes: 16}

	buf, err := alloc.Alloc(16)
	require.NoError(t, err)
	assert.Equal(t, 16, buf.Len())

	_, err = alloc.Alloc(17)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResource)

	_, err = alloc.Alloc(0)
	assert.ErrorIs(t, err, ErrResource)
}

func TestFrameBufferReleaseExactlyOnce(t *testing.T) {
	buf, err := Allocator{}.Alloc(8)
	require.NoError(t, err)

	require.NoError(t, buf.Release())
	assert.Nil(t, buf.Bytes(), "released buffer must not expose data")
	assert.Error(t, buf.Release(), "second release must fail")
}

func TestCopyOutIsolatesFromSourceMemory(t *testing.T) {
	backing := []byte{1, 2, 3, 4}
	frame := &source.Frame{
		Width:    2,
		Height:   1,
		Payloads: map[string][]byte{"depth": backing},
	}

	buf, err := Allocator{}.CopyOut(frame, "depth", 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())

	// Overwriting the source memory, as the next frame request would,
	// must not leak into the copied buffer.
	for i := range backing {
		backing[i] = 0xFF
	}
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())
}

func TestCopyOutFreshBufferPerCall(t *testing.T) {
	frame := &source.Frame{
		Width:    2,
		Height:   1,
		Payloads: map[string][]byte{"depth": {9, 9, 9, 9}},
	}

	first, err := Allocator{}.CopyOut(frame, "depth", 4)
	require.NoError(t, err)
	second, err := Allocator{}.CopyOut(frame, "depth", 4)
	require.NoError(t, err)

	assert.NotSame(t, &first.Bytes()[0], &second.Bytes()[0],
		"consecutive copies must not share backing memory")
}

func TestCopyOutMissingPayload(t *testing.T) {
	frame := &source.Frame{Width: 2, Height: 1}

	_, err := Allocator{}.CopyOut(frame, "depth", 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAcquisition)
}

func TestCopyOutShortPayload(t *testing.T) {
	frame := &source.Frame{
		Width:    2,
		Height:   1,
		Payloads: map[string][]byte{"depth": {1, 2}},
	}

	_, err := Allocator{}.CopyOut(frame, "depth", 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAcquisition)
}
