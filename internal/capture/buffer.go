package capture

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"tof-collect-go/internal/source"
)

// HeaderBytes is the size of the per-frame embedded header region.
const HeaderBytes = 128

// FrameBuffer is a privately allocated byte region with move-only
// ownership: exactly one component holds it at a time, and whoever holds
// it last releases it exactly once. Bytes returns nil after release, so a
// stale holder fails loudly instead of reading freed data.
type FrameBuffer struct {
	data     []byte
	released atomic.Bool
}

func (b *FrameBuffer) Bytes() []byte {
	if b.released.Load() {
		return nil
	}
	return b.data
}

func (b *FrameBuffer) Len() int {
	return len(b.data)
}

// Release frees the buffer. A second call is an error, never a double
// free.
func (b *FrameBuffer) Release() error {
	if b.released.Swap(true) {
		return errors.New("frame buffer released twice")
	}
	b.data = nil
	return nil
}

// Allocator hands out frame buffers under a total-size ceiling per buffer.
// The ceiling stands in for allocation headroom: a frame larger than it
// means the pipeline cannot safely keep enough buffers in flight.
type Allocator struct {
	// MaxBytes caps a single allocation. Zero means no cap.
	MaxBytes int
}

func (a Allocator) Alloc(size int) (*FrameBuffer, error) {
	if size <= 0 {
		return nil, fatal(ErrResource, errors.Errorf("invalid buffer size %d", size))
	}
	if a.MaxBytes > 0 && size > a.MaxBytes {
		return nil, fatal(ErrResource, errors.Errorf("frame size %d exceeds buffer ceiling %d", size, a.MaxBytes))
	}
	return &FrameBuffer{data: make([]byte, size)}, nil
}

// CopyOut copies the payload for kind out of source-owned frame memory
// into a freshly allocated buffer. After it returns, the frame handle may
// be invalidated by the next request; the buffer is self-contained.
func (a Allocator) CopyOut(frame *source.Frame, kind string, size int) (*FrameBuffer, error) {
	buf, err := a.Alloc(size)
	if err != nil {
		return nil, err
	}
	payload, err := frame.Data(kind)
	if err != nil {
		_ = buf.Release()
		return nil, fatal(ErrAcquisition, err)
	}
	if len(payload) < size {
		_ = buf.Release()
		return nil, fatal(ErrAcquisition,
			errors.Errorf("frame payload for %q is %d bytes, want %d", kind, len(payload), size))
	}
	copy(buf.data, payload[:size])
	return buf, nil
}
