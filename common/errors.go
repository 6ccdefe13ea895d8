package common

import (
	"github.com/pkg/errors"
)

var (
	ErrNotFound    = errors.New("gosfs: no such file or directory")
	ErrExists      = errors.New("gosfs: file exists")
	ErrNotDir      = errors.New("gosfs: not a directory")
	ErrIsDir       = errors.New("gosfs: is a directory")
	ErrInvalidFS   = errors.New("gosfs: invalid filesystem")
	ErrNoMem       = errors.New("gosfs: out of space")
	ErrNoSpace     = errors.New("gosfs: directory full")
	ErrNameTooLong = errors.New("gosfs: file name too long")
	ErrInvalid     = errors.New("gosfs: invalid argument")
	ErrAccess      = errors.New("gosfs: permission denied")
	ErrFileTooBig  = errors.New("gosfs: file too big")
	ErrEOF         = errors.New("gosfs: no more entries")
	ErrUnspecified = errors.New("gosfs: unspecified error")
)

// ErrNotEmpty is a refinement of ErrUnspecified.
var ErrNotEmpty error = &classError{msg: "gosfs: directory not empty", class: ErrUnspecified}

// classError is a sentinel that also matches the broader error it refines.
type classError struct {
	msg   string
	class error
}

func (e *classError) Error() string { return e.msg }

func (e *classError) Is(target error) bool { return target == e.class }

// ioError marks a device or cache failure as ErrUnspecified while keeping
// the underlying cause.
type ioError struct {
	err error
}

func (e *ioError) Error() string { return e.err.Error() }

func (e *ioError) Unwrap() error { return e.err }

func (e *ioError) Is(target error) bool { return target == ErrUnspecified }

// IOError wraps err with context; the result matches ErrUnspecified under
// errors.Is. nil stays nil.
func IOError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ioError{err: errors.Wrapf(err, format, args...)}
}
