// Package config loads the collector configuration from a YAML file and
// applies defaults and validation. CLI flags override anything set here.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tof-collect-go/internal/frametype"
)

// Config aggregates the collector settings.
type Config struct {
	// Endpoint is the full ZMQ endpoint of the sensor head. When empty it
	// is derived from SensorIP and ZMQPort.
	Endpoint string `yaml:"endpoint"`
	SensorIP string `yaml:"sensor_ip"`
	ZMQPort  int    `yaml:"zmq_port"`

	Mode          string `yaml:"mode"`
	FrameKind     string `yaml:"frame_kind"`
	OutputDir     string `yaml:"output_dir"`
	Frames        int    `yaml:"frames"`
	WarmupSeconds int    `yaml:"warmup_seconds"`

	Writers        int `yaml:"writers"`
	QueueDepth     int `yaml:"queue_depth"`
	MaxBufferBytes int `yaml:"max_buffer_bytes"`

	Debug     bool    `yaml:"debug"`
	DebugRate float64 `yaml:"debug_rate"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ZMQPort:        31005,
		Mode:           frametype.Modes[0],
		FrameKind:      frametype.Depth,
		OutputDir:      ".",
		Frames:         1,
		Writers:        2,
		QueueDepth:     8,
		MaxBufferBytes: 64 << 20,
		DebugRate:      100.0,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal yaml: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields the capture pipeline depends on. It is run
// after flag overrides are applied.
func (c *Config) Validate() error {
	if c.Frames < 1 {
		return fmt.Errorf("frames must be at least 1, got %d", c.Frames)
	}
	if !frametype.KnownKind(c.FrameKind) {
		return fmt.Errorf("frame_kind must be one of raw/depth/ir/conf, got %q", c.FrameKind)
	}
	if !frametype.KnownMode(c.Mode) {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.WarmupSeconds < 0 {
		return fmt.Errorf("warmup_seconds must not be negative, got %d", c.WarmupSeconds)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Writers < 1 {
		c.Writers = 1
	}
	if c.QueueDepth < 1 {
		c.QueueDepth = 1
	}
	if c.DebugRate <= 0 {
		c.DebugRate = 100.0
	}
	if !c.Debug && c.Endpoint == "" && c.SensorIP == "" {
		return fmt.Errorf("either endpoint, sensor_ip or debug mode is required")
	}
	return nil
}

// ResolvedEndpoint returns the ZMQ endpoint, deriving it from the sensor
// IP when no explicit endpoint was configured.
func (c *Config) ResolvedEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	if c.SensorIP == "" {
		return ""
	}
	return fmt.Sprintf("tcp://%s:%d", c.SensorIP, c.ZMQPort)
}

// Warmup returns the warmup phase duration.
func (c *Config) Warmup() time.Duration {
	return time.Duration(c.WarmupSeconds) * time.Second
}

// DebugInterval returns the simulated acquisition period.
func (c *Config) DebugInterval() time.Duration {
	if c.DebugRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.DebugRate)
}
