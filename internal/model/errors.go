package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoPaths = errors.New("no files or directories given")

// ArgumentError is an unrecognized flag or malformed flag value.
type ArgumentError struct {
	Arg string
	Err error
}

func (e *ArgumentError) Error() string {
	switch {
	case e.Err == nil:
		return "invalid option " + e.Arg
	case e.Arg == "":
		return "invalid option: " + e.Err.Error()
	default:
		return fmt.Sprintf("invalid option %s: %s", e.Arg, e.Err)
	}
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// PathError is returned for an input path, which is neither a regular file
// nor a directory.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("path %s does not exist", e.Path)
	}
	return fmt.Sprintf("path %s: %s", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// CheckerInvocationError means the checker could not be run at all.
type CheckerInvocationError struct {
	Executable string
	Err        error
}

func (e *CheckerInvocationError) Error() string {
	return fmt.Sprintf("unable to execute '%s -v': %s", e.Executable, e.Err)
}

func (e *CheckerInvocationError) Unwrap() error { return e.Err }

// SyntaxError is a per file diagnostic reported by the checker.
type SyntaxError struct {
	Path    string
	Message string
}

func (e *SyntaxError) Error() string {
	return e.Path + ": " + e.Message
}

// ProcessError is a per file failure of the checker process itself.
type ProcessError struct {
	Path     string
	ExitCode int
	Message  string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s: checker failed (exit code %d): %s", e.Path, e.ExitCode, e.Message)
}

// IsFatal reports whether err aborts the whole run before any file is
// checked.
func IsFatal(err error) bool {
	var argErr *ArgumentError
	var pathErr *PathError
	var checkerErr *CheckerInvocationError
	return errors.As(err, &argErr) || errors.As(err, &pathErr) || errors.As(err, &checkerErr)
}

// firstLine is used to keep single line log attrs
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
