// tof-frame-info verifies a capture run: it loads the run manifest and
// checks every frame file it names for presence and expected size.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"tof-collect-go/internal/output"
)

func main() {
	var (
		path = flag.String("manifest", "", "Path to a manifest_<stamp>.json file")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("manifest is required")
	}

	manifest, err := output.ReadManifest(*path)
	if err != nil {
		log.Fatalf("load manifest: %v", err)
	}

	dir := filepath.Dir(*path)
	log.Printf("run %s: mode=%s kind=%s %dx%d, %d frames requested, measured %.2f fps",
		manifest.RunID, manifest.Mode, manifest.Kind, manifest.Width, manifest.Height,
		manifest.FramesRequested, manifest.MeasuredFPS)

	ok := 0
	missing := 0
	short := 0
	for i := 0; i < manifest.FramesRequested; i++ {
		name := output.FileName(manifest.Kind, manifest.Stamp, i)
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			fmt.Printf("%s  MISSING\n", name)
			missing++
			continue
		}
		if info.Size() != int64(manifest.FrameSizeBytes) {
			fmt.Printf("%s  SHORT (%d of %d bytes)\n", name, info.Size(), manifest.FrameSizeBytes)
			short++
			continue
		}
		fmt.Printf("%s  OK (%d bytes)\n", name, info.Size())
		ok++
	}

	log.Printf("%d ok, %d missing, %d short", ok, missing, short)
	if missing > 0 || short > 0 {
		os.Exit(1)
	}
}
