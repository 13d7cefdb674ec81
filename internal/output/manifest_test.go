package output_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tof-collect-go/internal/output"
)

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := output.Manifest{
		RunID:           "abc-123",
		Stamp:           "20240101120000",
		Mode:            "sr-native",
		Kind:            "depth",
		Width:           512,
		Height:          512,
		FrameSizeBytes:  524288,
		FramesRequested: 3,
		FramesWritten:   3,
		MeasuredFPS:     29.7,
	}
	require.NoError(t, output.WriteManifest(dir, m))

	path := filepath.Join(dir, "manifest_20240101120000.json")
	_, err := os.Stat(path)
	require.NoError(t, err, "manifest file named after the run stamp")

	loaded, err := output.ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}
