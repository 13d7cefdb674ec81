// Package frametype resolves a requested frame data kind against the
// current sensor mode and device controls, yielding the per-frame buffer
// size and the label used for output files.
package frametype

import (
	"strconv"

	"github.com/pkg/errors"

	"tof-collect-go/internal/source"
)

// Supported frame data kinds.
const (
	Raw   = "raw"
	Depth = "depth"
	IR    = "ir"
	Conf  = "conf"
)

// ModePCMNative carries only IR data; depth, confidence and raw channels
// do not exist in this mode.
const ModePCMNative = "pcm-native"

// Modes lists the sensor modes in index order, so a numeric mode argument
// maps onto its name.
var Modes = []string{
	"sr-native",
	"lr-native",
	"sr-qnative",
	"lr-qnative",
	ModePCMNative,
	"lr-mixed",
	"sr-mixed",
}

var (
	ErrUnknownKind  = errors.New("unrecognized frame data kind")
	ErrUnknownMode  = errors.New("unrecognized sensor mode")
	ErrKindDisabled = errors.New("frame data kind disabled on device")
)

// Resolution describes how the payload of one frame is sized and labeled.
type Resolution struct {
	SizeBytes int
	Label     string
}

// ControlReader reads named device controls, reported as decimal strings.
type ControlReader interface {
	Control(name string) (string, error)
}

// ModeName maps a numeric mode index to its name.
func ModeName(index int) (string, error) {
	if index < 0 || index >= len(Modes) {
		return "", errors.Wrapf(ErrUnknownMode, "mode index %d", index)
	}
	return Modes[index], nil
}

// KnownMode reports whether name is a recognized sensor mode.
func KnownMode(name string) bool {
	for _, m := range Modes {
		if m == name {
			return true
		}
	}
	return false
}

// KnownKind reports whether kind is one of the supported data kinds.
func KnownKind(kind string) bool {
	switch kind {
	case Raw, Depth, IR, Conf:
		return true
	}
	return false
}

// Normalize applies the pcm-native policy: that mode carries no
// depth/conf/raw channel, so any other requested kind is downgraded to IR.
// The second return value reports whether a downgrade happened; it is the
// caller's job to warn about it.
func Normalize(kind, mode string) (string, bool) {
	if mode == ModePCMNative && kind != IR {
		return IR, true
	}
	return kind, false
}

// Resolve computes the per-frame buffer size for kind, checking the device
// control that enables the kind. It needs the frame for the raw layout
// metadata only.
func Resolve(kind, mode string, frame *source.Frame, controls ControlReader) (Resolution, error) {
	switch kind {
	case Depth:
		if err := requireControl(controls, "phaseDepthBits"); err != nil {
			return Resolution{}, err
		}
		return Resolution{SizeBytes: 2 * frame.Width * frame.Height, Label: Depth}, nil
	case IR:
		if mode != ModePCMNative {
			if err := requireControl(controls, "abBits"); err != nil {
				return Resolution{}, err
			}
		}
		return Resolution{SizeBytes: 2 * frame.Width * frame.Height, Label: IR}, nil
	case Conf:
		if err := requireControl(controls, "confidenceBits"); err != nil {
			return Resolution{}, err
		}
		return Resolution{SizeBytes: 4 * frame.Width * frame.Height, Label: Conf}, nil
	case Raw:
		layout, ok := frame.Layout(Raw)
		if !ok {
			return Resolution{}, errors.Wrap(ErrUnknownKind, "frame carries no raw layout metadata")
		}
		size := layout.Width * layout.Height * layout.SubelementsPerElement * layout.SubelementSize
		return Resolution{SizeBytes: size, Label: Raw}, nil
	default:
		return Resolution{}, errors.Wrapf(ErrUnknownKind, "kind %q", kind)
	}
}

func requireControl(controls ControlReader, name string) error {
	value, err := controls.Control(name)
	if err != nil {
		return errors.Wrapf(err, "read control %s", name)
	}
	bits, err := strconv.Atoi(value)
	if err != nil {
		return errors.Wrapf(ErrKindDisabled, "control %s has non-numeric value %q", name, value)
	}
	if bits == 0 {
		return errors.Wrapf(ErrKindDisabled, "control %s is 0", name)
	}
	return nil
}
