// Package output persists captured frames. Writes run on a fixed pool of
// workers fed by a bounded queue, so a slow disk applies backpressure to
// the producer instead of growing an unbounded set of in-flight writers.
package output

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Pool writes frame files under a single destination directory. A write
// failure is logged and tallied, never propagated: one bad frame must not
// abort the capture or other in-flight writes.
type Pool struct {
	dir  string
	jobs chan *Job

	group     errgroup.Group
	closeOnce sync.Once
	closeErr  error

	written atomic.Uint64
	failed  atomic.Uint64
}

// NewPool creates the destination directory and starts the workers. The
// queue holds at most queueDepth jobs; Dispatch blocks once it is full.
func NewPool(dir string, workers, queueDepth int) (*Pool, error) {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create output directory %s", dir)
	}

	p := &Pool{
		dir:  dir,
		jobs: make(chan *Job, queueDepth),
	}
	for i := 0; i < workers; i++ {
		p.group.Go(func() error {
			for job := range p.jobs {
				p.run(job)
			}
			return nil
		})
	}
	return p, nil
}

// Dispatch hands a job to the pool, transferring ownership of its buffers.
// It blocks while the queue is full; that is the backpressure point of the
// pipeline. On context cancellation ownership stays with the caller.
func (p *Pool) Dispatch(ctx context.Context, job *Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

// Close drains the queue and joins the workers. No write is in flight once
// Close returns.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		close(p.jobs)
		p.closeErr = p.group.Wait()
	})
	return p.closeErr
}

// Stats returns the written/failed tallies.
func (p *Pool) Stats() (written, failed uint64) {
	return p.written.Load(), p.failed.Load()
}

// Dir returns the destination directory.
func (p *Pool) Dir() string {
	return p.dir
}

// FileName builds the frame file name for one job.
func FileName(kind, stamp string, index int) string {
	return fmt.Sprintf("%s_frame_%s_%05d.bin", kind, stamp, index)
}

func (p *Pool) run(job *Job) {
	err := p.write(job)
	if err != nil {
		p.failed.Add(1)
		log.Printf("frame %05d: write failed: %v", job.Index, err)
	} else {
		p.written.Add(1)
	}
	job.release()
	job.finish(err)
}

func (p *Pool) write(job *Job) error {
	path := filepath.Join(p.dir, FileName(job.Kind, job.Stamp, job.Index))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	if _, err := f.Write(job.Frame.Bytes()); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "write")
	}
	// TODO: write the 128-byte embedded header once the source exposes it;
	// job.Header is carried through but stays zero-filled until then.
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "sync")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	return nil
}
