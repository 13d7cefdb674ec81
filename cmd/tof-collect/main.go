// tof-collect captures frames from a time-of-flight depth sensor and
// stores each one as a binary file. The sensor is reached over ZMQ, or
// simulated with -debug.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"tof-collect-go/internal/capture"
	"tof-collect-go/internal/config"
	"tof-collect-go/internal/frametype"
	"tof-collect-go/internal/output"
	"tof-collect-go/internal/simulator"
	"tof-collect-go/internal/source"
)

// Exit codes, one per fatal error category.
const (
	exitOK            = 0
	exitUsage         = 1
	exitConfiguration = 2
	exitAcquisition   = 3
	exitResource      = 4
	exitFilesystem    = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "Path to a YAML collector config (optional)")
		folder     = flag.String("f", "", "Output folder for frame files")
		frames     = flag.Int("n", 0, "Number of frames to capture")
		mode       = flag.String("m", "", "Sensor mode, index or name (0/sr-native .. 4/pcm-native .. 6/sr-mixed)")
		warmup     = flag.Int("wt", -1, "Warmup time in seconds")
		kind       = flag.String("ft", "", "Frame kind of saved data (raw/depth/ir/conf)")
		sensorIP   = flag.String("ip", "", "Sensor IP address")
		zmqPort    = flag.Int("zmq-port", 0, "Sensor ZMQ port")
		writers    = flag.Int("writers", 0, "Number of file writer workers")
		queueDepth = flag.Int("queue-depth", 0, "Pending write queue depth")
		debug      = flag.Bool("debug", false, "Run against a simulated sensor")
		debugRate  = flag.Float64("debug-rate", 0, "Simulated acquisition rate (frames/sec)")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Printf("config: %v", err)
			return exitUsage
		}
		cfg = loaded
	}

	// Flags win over the config file.
	if *folder != "" {
		cfg.OutputDir = *folder
	}
	if *frames != 0 {
		cfg.Frames = *frames
	}
	if *mode != "" {
		name, err := resolveMode(*mode)
		if err != nil {
			log.Printf("mode: %v", err)
			return exitUsage
		}
		cfg.Mode = name
	}
	if *warmup >= 0 {
		cfg.WarmupSeconds = *warmup
	}
	if *kind != "" {
		cfg.FrameKind = *kind
	}
	if *sensorIP != "" {
		cfg.SensorIP = *sensorIP
	}
	if *zmqPort != 0 {
		cfg.ZMQPort = *zmqPort
	}
	if *writers != 0 {
		cfg.Writers = *writers
	}
	if *queueDepth != 0 {
		cfg.QueueDepth = *queueDepth
	}
	if *debug {
		cfg.Debug = true
	}
	if *debugRate != 0 {
		cfg.DebugRate = *debugRate
	}

	if err := cfg.Validate(); err != nil {
		log.Printf("config: %v", err)
		return exitUsage
	}

	log.Printf("Output folder: %s", cfg.OutputDir)
	log.Printf("Mode: %s", cfg.Mode)
	log.Printf("Number of frames: %d", cfg.Frames)
	log.Printf("Frame kind: %s", cfg.FrameKind)
	log.Printf("Warmup time: %d seconds", cfg.WarmupSeconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var src source.Source
	if cfg.Debug {
		log.Printf("Using simulated sensor at %.1f frames/sec", cfg.DebugRate)
		src = simulator.New(simulator.Options{
			Mode:     cfg.Mode,
			Interval: cfg.DebugInterval(),
		})
	} else {
		endpoint := cfg.ResolvedEndpoint()
		log.Printf("Connecting to sensor at %s", endpoint)
		zmqSrc, err := source.NewZMQSource(endpoint)
		if err != nil {
			log.Printf("sensor connect: %v", err)
			return exitAcquisition
		}
		src = zmqSrc
	}
	defer func() {
		if err := src.Stop(); err != nil {
			log.Printf("Error stopping sensor: %v", err)
		}
	}()

	pool, err := output.NewPool(cfg.OutputDir, cfg.Writers, cfg.QueueDepth)
	if err != nil {
		log.Printf("output: %v", err)
		return exitFilesystem
	}
	defer pool.Close()

	driver := capture.NewDriver(src, pool, capture.Allocator{MaxBytes: cfg.MaxBufferBytes})

	log.Printf("Requesting %d frames", cfg.Frames)
	report, err := driver.Run(ctx, capture.Params{
		FrameCount: cfg.Frames,
		Warmup:     cfg.Warmup(),
		Kind:       cfg.FrameKind,
		Mode:       cfg.Mode,
	})
	if err != nil {
		log.Printf("capture failed: %v", err)
		switch {
		case errors.Is(err, capture.ErrConfiguration):
			return exitConfiguration
		case errors.Is(err, capture.ErrResource):
			return exitResource
		case errors.Is(err, capture.ErrAcquisition):
			return exitAcquisition
		default:
			return exitUsage
		}
	}

	log.Printf("Frames requested: %d, written: %d, failed: %d",
		report.FramesRequested, report.FramesWritten, report.FramesFailed)
	log.Printf("Measured FPS: %.2f", report.MeasuredFPS)
	if report.Degraded {
		log.Printf("Final frame write failed; run completed degraded")
	}

	manifest := output.Manifest{
		RunID:           uuid.NewString(),
		Stamp:           report.Stamp,
		Mode:            cfg.Mode,
		Kind:            report.Kind,
		Width:           report.Width,
		Height:          report.Height,
		FrameSizeBytes:  report.FrameSizeBytes,
		FramesRequested: report.FramesRequested,
		FramesWritten:   report.FramesWritten,
		FramesFailed:    report.FramesFailed,
		MeasuredFPS:     report.MeasuredFPS,
	}
	if err := output.WriteManifest(cfg.OutputDir, manifest); err != nil {
		log.Printf("manifest write failed: %v", err)
	}

	return exitOK
}

// resolveMode accepts either a mode index or a mode name, the way the
// sensor tooling does.
func resolveMode(value string) (string, error) {
	if index, err := strconv.Atoi(value); err == nil {
		return frametype.ModeName(index)
	}
	if !frametype.KnownMode(value) {
		return "", errors.Errorf("unknown mode %q", value)
	}
	return value, nil
}
