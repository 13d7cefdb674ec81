package output

// Buffer is an exclusively owned byte region handed over to a persistence
// job. The pool releases it exactly once after the write attempt, whatever
// the outcome.
type Buffer interface {
	Bytes() []byte
	Release() error
}

// Job bundles everything one persistence task needs: the frame payload,
// the optional header, and the pieces of the destination file name. A job
// is consumed exactly once; ownership of both buffers moves to the pool at
// dispatch time.
type Job struct {
	Kind  string
	Stamp string
	Index int

	Frame  Buffer
	Header Buffer

	err  error
	done chan struct{}
}

func NewJob(kind, stamp string, index int, frame, header Buffer) *Job {
	return &Job{
		Kind:   kind,
		Stamp:  stamp,
		Index:  index,
		Frame:  frame,
		Header: header,
		done:   make(chan struct{}),
	}
}

// Done is closed once the write attempt has finished and the buffers are
// released.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Err reports the write failure, if any. Only valid after Done is closed.
func (j *Job) Err() error {
	return j.err
}

func (j *Job) finish(err error) {
	j.err = err
	close(j.done)
}

// release frees both buffers; it runs exactly once per job, on the worker
// that consumed the job.
func (j *Job) release() {
	if j.Frame != nil {
		_ = j.Frame.Release()
	}
	if j.Header != nil {
		_ = j.Header.Release()
	}
}
