// Package capture drives the acquisition pipeline: request a frame from
// the source, copy its payload out of source-owned memory, and hand the
// copy to the output pool without waiting on disk I/O. Only the final
// frame's write is waited on, so a run never reports completion before its
// last file is on stable storage.
package capture

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"tof-collect-go/internal/frametype"
	"tof-collect-go/internal/output"
	"tof-collect-go/internal/source"
)

// Params describe one capture run.
type Params struct {
	FrameCount int
	Warmup     time.Duration
	Kind       string
	Mode       string
	// Stamp tags every file of the run. Empty means "now".
	Stamp string
}

// Report is what a finished run looks like to the caller.
type Report struct {
	FramesRequested int
	FramesWritten   uint64
	FramesFailed    uint64
	MeasuredFPS     float64
	FrameSizeBytes  int
	Width           int
	Height          int
	Kind            string
	Stamp           string
	// Degraded is set when the final frame's write failed; the run still
	// completed, but the completion barrier surfaced the failure.
	Degraded bool
}

// Driver orchestrates the request/copy/dispatch loop.
type Driver struct {
	src   source.Source
	pool  *output.Pool
	alloc Allocator

	// Monotonic counters, used only for reporting, never for
	// synchronization between tasks.
	requested  atomic.Uint64
	dispatched atomic.Uint64
}

func NewDriver(src source.Source, pool *output.Pool, alloc Allocator) *Driver {
	return &Driver{
		src:   src,
		pool:  pool,
		alloc: alloc,
	}
}

// Run performs the warmup phase, then captures exactly p.FrameCount frames.
// Fatal errors (acquisition, configuration, resource) abort immediately;
// per-frame write failures are tallied into the report instead. When Run
// returns, no write is in flight.
func (d *Driver) Run(ctx context.Context, p Params) (Report, error) {
	if p.FrameCount < 1 {
		return Report{}, fatal(ErrConfiguration, errors.Errorf("frame count %d, need at least 1", p.FrameCount))
	}

	kind, downgraded := frametype.Normalize(p.Kind, p.Mode)
	if downgraded {
		log.Printf("%s mode carries no depth/conf/raw data, capturing %s instead of %s", p.Mode, kind, p.Kind)
	} else if !frametype.KnownKind(kind) {
		return Report{}, fatal(ErrConfiguration, errors.Errorf("unrecognized frame kind %q", kind))
	}

	if p.Stamp == "" {
		p.Stamp = time.Now().Format("20060102150405")
	}

	if err := d.warmup(ctx, p.Warmup); err != nil {
		return Report{}, err
	}

	d.requested.Store(0)
	d.dispatched.Store(0)
	report := Report{Kind: kind, Stamp: p.Stamp}
	degraded := false

	start := time.Now()
	for i := 0; i < p.FrameCount; i++ {
		frame, err := d.src.RequestFrame(ctx)
		if err != nil {
			return Report{}, fatal(ErrAcquisition, err)
		}
		d.requested.Add(1)

		res, err := frametype.Resolve(kind, p.Mode, frame, d.src)
		if err != nil {
			return Report{}, fatal(ErrConfiguration, err)
		}

		buf, err := d.alloc.CopyOut(frame, kind, res.SizeBytes)
		if err != nil {
			return Report{}, err
		}

		// Header extraction is not available from the source yet; the
		// buffer travels zero-filled so the file layout stays stable.
		header, err := d.alloc.Alloc(HeaderBytes)
		if err != nil {
			_ = buf.Release()
			return Report{}, err
		}

		job := output.NewJob(res.Label, p.Stamp, i, buf, header)
		if err := d.pool.Dispatch(ctx, job); err != nil {
			// Ownership did not transfer; the buffers die here.
			_ = buf.Release()
			_ = header.Release()
			return Report{}, fatal(ErrAcquisition, errors.Wrap(err, "dispatch"))
		}
		d.dispatched.Add(1)

		if i == p.FrameCount-1 {
			// Completion barrier: the run is not done until the final
			// frame is on disk (or its failure is known).
			<-job.Done()
			if job.Err() != nil {
				degraded = true
			}
		}

		report.FrameSizeBytes = res.SizeBytes
		report.Width = frame.Width
		report.Height = frame.Height
	}
	elapsed := time.Since(start)

	report.FramesRequested = int(d.requested.Load())
	if elapsed > 0 {
		report.MeasuredFPS = float64(p.FrameCount) / elapsed.Seconds()
	}

	// Drain the remaining writers before reporting; the process must not
	// move on while any frame is still being written.
	if err := d.pool.Close(); err != nil {
		return Report{}, errors.Wrap(err, "close output pool")
	}
	report.FramesWritten, report.FramesFailed = d.pool.Stats()
	report.Degraded = degraded

	return report, nil
}

// State reports the frames requested and dispatched by the current run.
func (d *Driver) State() (requested, dispatched uint64) {
	return d.requested.Load(), d.dispatched.Load()
}

// warmup requests and discards raw frames until the warmup window has
// elapsed, letting the sensor stabilize before the measured run.
func (d *Driver) warmup(ctx context.Context, window time.Duration) error {
	if window <= 0 {
		return nil
	}
	start := time.Now()
	for time.Since(start) < window {
		if _, err := d.src.RequestFrame(ctx); err != nil {
			return fatal(ErrAcquisition, errors.Wrap(err, "warmup"))
		}
	}
	return nil
}
