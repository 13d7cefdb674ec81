package capture

import "github.com/pkg/errors"

// Fatal error categories. Each one unwinds the capture loop immediately;
// callers branch on them with errors.Is to pick an exit code. Per-frame
// persistence failures are deliberately not here: those are tallied by the
// output pool and reported, never raised.
var (
	ErrAcquisition   = errors.New("frame acquisition failed")
	ErrConfiguration = errors.New("invalid capture configuration")
	ErrResource      = errors.New("resource exhausted")
)

// fatal folds err into the given category so that errors.Is matches the
// category while the cause stays in the message.
func fatal(category, err error) error {
	if err == nil {
		return category
	}
	return errors.Wrapf(category, "%v", err)
}
