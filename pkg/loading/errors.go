package loading

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnbalanced is the panic value of Decr under UnderflowPanic.
var ErrUnbalanced = errors.New("loading: Decr called without a matching Incr")

var _ error = &TaskFailure{}

// TaskFailure is returned by Run when the task returns an error.
type TaskFailure struct {
	Tracker string
	Err     error
}

func (f *TaskFailure) Error() string {
	return fmt.Sprintf("%s: task failed: %v", f.Tracker, f.Err)
}

func (f *TaskFailure) Unwrap() error { return f.Err }

// Cause lets errors.Cause reach the task's own error.
func (f *TaskFailure) Cause() error { return f.Err }
