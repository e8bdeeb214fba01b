package lint

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/CZERTAINLY/parallel-lint/internal/model"
)

// StartOptions changes how Start runs the checker.
type StartOptions struct {
	// Sync makes Start wait until the process exits.
	Sync bool
	// Notify receives a token when the process exits. Sends never block, so
	// a buffered channel of size one is enough to wake up a single waiter.
	Notify chan<- struct{}
}

// Process is a single checker invocation. Standard output and error are
// captured into one buffer, which is read once the process has exited.
type Process struct {
	job     model.Job
	cmd     *exec.Cmd
	output  bytes.Buffer
	started time.Time
	stopped time.Time
	state   *os.ProcessState
	err     error
	done    chan struct{}
}

// Start spawns the process for job. It does NOT wait on process to finish
// unless opts.Sync is set. A process which fails to start is returned as
// already finished, its Result is a ProcessError.
// Note it spawns an internal goroutine, which waits on the process.
// Started process is never killed: ctx is used for logging only.
func Start(ctx context.Context, job model.Job, opts StartOptions) *Process {
	p := &Process{
		job:  job,
		done: make(chan struct{}),
	}
	p.cmd = exec.Command(job.Executable, job.Args...)
	p.cmd.Stdout = &p.output
	p.cmd.Stderr = &p.output

	p.started = time.Now().UTC()
	if err := p.cmd.Start(); err != nil {
		slog.WarnContext(ctx, "checker failed to start", "path", job.Path, "error", err)
		p.stopped = p.started
		p.err = err
		close(p.done)
		notify(opts.Notify)
		return p
	}

	go p.wait(opts.Notify)
	if opts.Sync {
		<-p.done
	}
	return p
}

func (p *Process) wait(ch chan<- struct{}) {
	err := p.cmd.Wait()
	p.stopped = time.Now().UTC()
	p.state = p.cmd.ProcessState
	p.err = err
	close(p.done)
	notify(ch)
}

func notify(ch chan<- struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Ready reports whether the process has exited. It never blocks.
func (p *Process) Ready() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits.
func (p *Process) Wait() {
	<-p.done
}

// Result classifies the finished process. It blocks if the process is still
// running, so callers are expected to check Ready first.
func (p *Process) Result(m *Matcher) model.Result {
	<-p.done

	ret := model.Result{
		Path:     p.job.Path,
		ExitCode: -1,
		Output:   p.output.String(),
		Started:  p.started,
		Stopped:  p.stopped,
	}

	var exitErr *exec.ExitError
	switch {
	case p.state == nil:
		// failed to start
		ret.Class = model.ClassProcessError
		ret.Message = p.err.Error()
	case p.err != nil && !errors.As(p.err, &exitErr):
		// output copy failures and alike
		ret.ExitCode = p.state.ExitCode()
		ret.Class = model.ClassProcessError
		ret.Message = p.err.Error()
	case !p.state.Exited():
		ret.Class = model.ClassProcessError
		ret.Message = describe(p.state.String(), ret.Output)
	default:
		ret.ExitCode = p.state.ExitCode()
		ret.Class, ret.Message = m.Classify(ret.ExitCode, ret.Output)
	}
	return ret
}
