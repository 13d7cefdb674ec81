// Package source defines the frame source consumed by the capture
// pipeline: something that blocks until the sensor has a frame, exposes
// its payloads, and answers device control queries.
package source

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNoPayload = errors.New("frame carries no payload for requested kind")
	ErrNoControl = errors.New("unknown device control")
	ErrStopped   = errors.New("source stopped")
)

// DataDetails describes the layout of one data kind inside a frame.
type DataDetails struct {
	Width                 int
	Height                int
	SubelementsPerElement int
	SubelementSize        int
}

// Frame is one capture obtained from a Source. The frame and every slice
// returned by Data are owned by the source and stay valid only until the
// next RequestFrame call on the same source; callers must copy what they
// need before requesting again.
type Frame struct {
	Width  int
	Height int

	// Payloads holds source-owned payload bytes per kind.
	Payloads map[string][]byte
	// Layouts holds per-kind layout metadata where the source provides it.
	Layouts map[string]DataDetails
}

// Data returns the source-owned payload for kind.
func (f *Frame) Data(kind string) ([]byte, error) {
	payload, ok := f.Payloads[kind]
	if !ok || payload == nil {
		return nil, errors.Wrapf(ErrNoPayload, "kind %q", kind)
	}
	return payload, nil
}

// Layout returns the layout metadata for kind, if the source provided any.
func (f *Frame) Layout(kind string) (DataDetails, bool) {
	details, ok := f.Layouts[kind]
	return details, ok
}

// Source yields frames one at a time. RequestFrame blocks until the next
// frame is available; the returned frame is invalidated by the following
// RequestFrame call.
type Source interface {
	RequestFrame(ctx context.Context) (*Frame, error)
	Control(name string) (string, error)
	Stop() error
}
