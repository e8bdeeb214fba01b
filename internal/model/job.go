package model

import (
	"fmt"
	"log/slog"
	"time"
)

// Job is one file and the command used to check it.
type Job struct {
	Path       string
	Executable string
	Args       []string
}

// Class is the outcome category of a single check.
type Class int

const (
	ClassOK Class = iota
	ClassSyntaxError
	ClassProcessError
)

func (c Class) String() string {
	switch c {
	case ClassOK:
		return "ok"
	case ClassSyntaxError:
		return "syntax_error"
	case ClassProcessError:
		return "process_error"
	default:
		return "unknown"
	}
}

func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Class) UnmarshalText(text []byte) error {
	for _, k := range []Class{ClassOK, ClassSyntaxError, ClassProcessError} {
		if k.String() == string(text) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown class %q", text)
}

// Result is the classified outcome of one finished checker process.
type Result struct {
	Path     string
	ExitCode int
	Output   string
	Class    Class
	Message  string // diagnostic for SyntaxError and ProcessError
	Started  time.Time
	Stopped  time.Time
}

func (r Result) OK() bool {
	return r.Class == ClassOK
}

// Err converts the result into SyntaxError, ProcessError or nil.
func (r Result) Err() error {
	switch r.Class {
	case ClassSyntaxError:
		return &SyntaxError{Path: r.Path, Message: r.Message}
	case ClassProcessError:
		return &ProcessError{Path: r.Path, ExitCode: r.ExitCode, Message: r.Message}
	default:
		return nil
	}
}

func (r Result) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("path", r.Path),
		slog.String("class", r.Class.String()),
		slog.Int("exit_code", r.ExitCode),
		slog.String("elapsed", r.Stopped.Sub(r.Started).String()),
	}
	if r.Message != "" {
		attrs = append(attrs, slog.String("message", firstLine(r.Message)))
	}
	return attrs
}
