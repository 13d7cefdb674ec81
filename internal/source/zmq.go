package source

import (
	"context"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pebbe/zmq4"
	"github.com/pkg/errors"
)

// Wire messages pushed by the sensor head. A "config" message refreshes
// the control table; a "frame" message carries one capture with payload
// byte strings per kind.
type wireMessage struct {
	Type     string                `cbor:"type"`
	Width    int                   `cbor:"width"`
	Height   int                   `cbor:"height"`
	Data     map[string][]byte     `cbor:"data"`
	Layouts  map[string]wireLayout `cbor:"layouts"`
	Controls map[string]string     `cbor:"controls"`
}

type wireLayout struct {
	Width                 int `cbor:"width"`
	Height                int `cbor:"height"`
	SubelementsPerElement int `cbor:"subelements_per_element"`
	SubelementSize        int `cbor:"subelement_size"`
}

// ZMQSource pulls CBOR-encoded frame messages from a sensor head over a
// ZMQ PULL socket. Payload buffers are reused between frames, so a frame
// returned by RequestFrame is valid only until the next call.
type ZMQSource struct {
	socket *zmq4.Socket

	mu       sync.Mutex
	controls map[string]string
	stopped  bool

	frame   Frame
	scratch map[string][]byte
}

// NewZMQSource connects a PULL socket to endpoint, e.g. "tcp://10.0.0.5:31005".
func NewZMQSource(endpoint string) (*ZMQSource, error) {
	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		return nil, errors.Wrap(err, "create socket")
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, errors.Wrapf(err, "connect %s", endpoint)
	}
	return &ZMQSource{
		socket:   socket,
		controls: make(map[string]string),
		scratch:  make(map[string][]byte),
	}, nil
}

// RequestFrame blocks until the next frame message arrives. Config
// messages received in between refresh the control table and are absorbed.
func (s *ZMQSource) RequestFrame(ctx context.Context) (*Frame, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		s.mu.Lock()
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return nil, ErrStopped
		}

		raw, err := s.socket.RecvBytes(0)
		if err != nil {
			return nil, errors.Wrap(err, "recv frame message")
		}

		msg, err := decodeWireMessage(raw)
		if err != nil {
			return nil, err
		}

		switch msg.Type {
		case "config":
			s.storeControls(msg.Controls)
			continue
		case "frame":
			s.storeControls(msg.Controls)
			s.fillFrame(msg)
			return &s.frame, nil
		default:
			// Unknown message types are skipped, the way the stream
			// also carries start/end markers.
			continue
		}
	}
}

func (s *ZMQSource) storeControls(controls map[string]string) {
	if len(controls) == 0 {
		return
	}
	s.mu.Lock()
	for name, value := range controls {
		s.controls[name] = value
	}
	s.mu.Unlock()
}

// fillFrame copies the decoded payloads into the reusable scratch buffers
// backing s.frame.
func (s *ZMQSource) fillFrame(msg *wireMessage) {
	s.frame.Width = msg.Width
	s.frame.Height = msg.Height
	if s.frame.Payloads == nil {
		s.frame.Payloads = make(map[string][]byte, len(msg.Data))
	}
	for kind := range s.frame.Payloads {
		if _, ok := msg.Data[kind]; !ok {
			delete(s.frame.Payloads, kind)
		}
	}
	for kind, payload := range msg.Data {
		buf := append(s.scratch[kind][:0], payload...)
		s.scratch[kind] = buf
		s.frame.Payloads[kind] = buf
	}

	s.frame.Layouts = make(map[string]DataDetails, len(msg.Layouts))
	for kind, layout := range msg.Layouts {
		s.frame.Layouts[kind] = DataDetails{
			Width:                 layout.Width,
			Height:                layout.Height,
			SubelementsPerElement: layout.SubelementsPerElement,
			SubelementSize:        layout.SubelementSize,
		}
	}
}

func (s *ZMQSource) Control(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.controls[name]
	if !ok {
		return "", errors.Wrapf(ErrNoControl, "control %q", name)
	}
	return value, nil
}

func (s *ZMQSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	return s.socket.Close()
}

func decodeWireMessage(raw []byte) (*wireMessage, error) {
	var msg wireMessage
	if err := cbor.Unmarshal(raw, &msg); err != nil {
		return nil, errors.Wrap(err, "decode frame message")
	}
	return &msg, nil
}
