package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/CZERTAINLY/parallel-lint/internal/model"
)

// Checker builds the argument vector of the external syntax checker.
// Arguments are passed to the process as is, no shell is involved.
type Checker struct {
	Executable   string
	AspTags      bool
	ShortOpenTag bool
}

func NewChecker(cfg model.Checker) Checker {
	return Checker{
		Executable:   model.Get(cfg.Executable),
		AspTags:      model.Get(cfg.AspTags),
		ShortOpenTag: model.Get(cfg.ShortOpenTag),
	}
}

// Args returns <-d asp_tags=On|Off -d short_open_tag=On|Off -n -l path>
func (c Checker) Args(path string) []string {
	return []string{
		"-d", "asp_tags=" + onOff(c.AspTags),
		"-d", "short_open_tag=" + onOff(c.ShortOpenTag),
		"-n",
		"-l", path,
	}
}

func (c Checker) Job(path string) model.Job {
	return model.Job{
		Path:       path,
		Executable: c.Executable,
		Args:       c.Args(path),
	}
}

// Preflight runs <executable -v> and waits for it. Exit codes 0 and 255 are
// accepted, anything else, including a failure to start the binary, returns
// a CheckerInvocationError.
func (c Checker) Preflight(ctx context.Context) error {
	if c.Executable == "" {
		return &model.CheckerInvocationError{Executable: c.Executable, Err: errors.New("executable is empty")}
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Executable, "-v")
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 255 {
			return &model.CheckerInvocationError{Executable: c.Executable, Err: err}
		}
	}

	version, _, _ := strings.Cut(strings.TrimSpace(out.String()), "\n")
	slog.DebugContext(ctx, "checker preflight passed", "executable", c.Executable, "version", version)
	return nil
}

func (c Checker) String() string {
	return fmt.Sprintf("%s %s", c.Executable, strings.Join(c.Args("<file>"), " "))
}

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}
