package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Manifest records what one capture run produced, next to the frame files
// it describes.
type Manifest struct {
	RunID           string  `json:"run_id"`
	Stamp           string  `json:"stamp"`
	Mode            string  `json:"mode"`
	Kind            string  `json:"kind"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FrameSizeBytes  int     `json:"frame_size_bytes"`
	FramesRequested int     `json:"frames_requested"`
	FramesWritten   uint64  `json:"frames_written"`
	FramesFailed    uint64  `json:"frames_failed"`
	MeasuredFPS     float64 `json:"measured_fps"`
}

// WriteManifest writes the run manifest as manifest_<stamp>.json in dir.
func WriteManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode manifest")
	}
	path := filepath.Join(dir, fmt.Sprintf("manifest_%s.json", m.Stamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write manifest")
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "read manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, errors.Wrap(err, "decode manifest")
	}
	return m, nil
}
