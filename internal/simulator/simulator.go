// Package simulator provides a synthetic frame source for development and
// tests, mimicking the ownership rules of the real sensor: the payload
// memory behind a frame is reused by the next request.
package simulator

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"tof-collect-go/internal/source"
)

// Options configure the simulated sensor.
type Options struct {
	Width  int
	Height int
	Mode   string
	// Interval is the simulated acquisition period. Zero means frames are
	// produced as fast as they are requested.
	Interval time.Duration
	// Controls overrides the device control table. When nil, all data
	// kinds are enabled.
	Controls map[string]string
	// RawLayout describes the raw channel. Zero values fall back to a
	// 2-byte, single-subelement layout matching Width and Height.
	RawLayout source.DataDetails
}

type Source struct {
	opts     Options
	controls map[string]string
	seq      uint16

	// Backing arrays reused between frames, like device-owned memory.
	frame source.Frame
	raw   []byte
	depth []byte
	ir    []byte
	conf  []byte
}

func New(opts Options) *Source {
	if opts.Width <= 0 {
		opts.Width = 512
	}
	if opts.Height <= 0 {
		opts.Height = 512
	}
	if opts.RawLayout.Width == 0 {
		opts.RawLayout = source.DataDetails{
			Width:                 opts.Width,
			Height:                opts.Height,
			SubelementsPerElement: 1,
			SubelementSize:        2,
		}
	}
	controls := opts.Controls
	if controls == nil {
		controls = map[string]string{
			"phaseDepthBits": "12",
			"abBits":         "12",
			"confidenceBits": "8",
		}
	}
	return &Source{
		opts:     opts,
		controls: controls,
	}
}

// RequestFrame fills the reused backing arrays with a deterministic
// pattern keyed on the frame sequence number and returns the shared frame
// handle. Any slice handed out by a previous frame is overwritten here.
func (s *Source) RequestFrame(ctx context.Context) (*source.Frame, error) {
	if s.opts.Interval > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.opts.Interval):
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	pixels := s.opts.Width * s.opts.Height
	seq := s.seq
	s.seq++

	if s.frame.Payloads == nil {
		s.frame = source.Frame{
			Payloads: make(map[string][]byte),
			Layouts:  make(map[string]source.DataDetails),
		}
	}
	s.frame.Width = s.opts.Width
	s.frame.Height = s.opts.Height

	s.ir = grow(s.ir, 2*pixels)
	fillUint16(s.ir, seq)
	s.frame.Payloads["ir"] = s.ir

	if s.opts.Mode == "pcm-native" {
		delete(s.frame.Payloads, "raw")
		delete(s.frame.Payloads, "depth")
		delete(s.frame.Payloads, "conf")
		delete(s.frame.Layouts, "raw")
		return &s.frame, nil
	}

	s.depth = grow(s.depth, 2*pixels)
	fillUint16(s.depth, seq)
	s.frame.Payloads["depth"] = s.depth

	s.conf = grow(s.conf, 4*pixels)
	fillFloat32(s.conf, float32(seq))
	s.frame.Payloads["conf"] = s.conf

	layout := s.opts.RawLayout
	rawSize := layout.Width * layout.Height * layout.SubelementsPerElement * layout.SubelementSize
	s.raw = grow(s.raw, rawSize)
	for i := range s.raw {
		s.raw[i] = byte(seq)
	}
	s.frame.Payloads["raw"] = s.raw
	s.frame.Layouts["raw"] = layout

	return &s.frame, nil
}

func (s *Source) Control(name string) (string, error) {
	value, ok := s.controls[name]
	if !ok {
		return "", source.ErrNoControl
	}
	return value, nil
}

func (s *Source) Stop() error {
	return nil
}

// Frames returns the number of frames served so far.
func (s *Source) Frames() int {
	return int(s.seq)
}

func grow(buf []byte, size int) []byte {
	if cap(buf) < size {
		return make([]byte, size)
	}
	return buf[:size]
}

func fillUint16(buf []byte, value uint16) {
	for i := 0; i+1 < len(buf); i += 2 {
		binary.LittleEndian.PutUint16(buf[i:], value)
	}
}

func fillFloat32(buf []byte, value float32) {
	bits := math.Float32bits(value)
	for i := 0; i+3 < len(buf); i += 4 {
		binary.LittleEndian.PutUint32(buf[i:], bits)
	}
}
