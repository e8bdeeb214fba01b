package lint

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/CZERTAINLY/parallel-lint/internal/log"
	"github.com/CZERTAINLY/parallel-lint/internal/model"
)

// Sink receives the progress of a run. Result is called once per file in
// the order processes finish, Finish once after the last result.
type Sink interface {
	Start(total int)
	Result(model.Result)
	Finish(model.Report)
}

// WaitStrategy says how the control loop suspends while more than one
// checker is running.
type WaitStrategy int

const (
	// WaitNotify blocks until any running process exits.
	WaitNotify WaitStrategy = iota
	// WaitPoll sleeps for a fixed poll interval between readiness checks.
	WaitPoll
)

func ParseWaitStrategy(s string) WaitStrategy {
	if s == model.WaitPoll {
		return WaitPoll
	}
	return WaitNotify
}

func (w WaitStrategy) String() string {
	if w == WaitPoll {
		return model.WaitPoll
	}
	return model.WaitNotify
}

type phase string

const (
	phaseFilling  phase = "filling"
	phasePolling  phase = "polling"
	phaseDraining phase = "draining"
	phaseFinished phase = "finished"
)

// Stats describes the last run of a Scheduler.
type Stats struct {
	Launched    int // processes started
	Peak        int // maximum of simultaneously running processes
	Suspensions int // how many times the loop waited for more than one process
}

// handle is the part of *Process the control loop depends on
type handle interface {
	Ready() bool
	Wait()
	Result(*Matcher) model.Result
}

type startFunc func(ctx context.Context, job model.Job, opts StartOptions) handle

func startProcess(ctx context.Context, job model.Job, opts StartOptions) handle {
	return Start(ctx, job, opts)
}

// Scheduler runs one checker process per file, at most parallelism of them at
// the same time. All the state is owned by the goroutine calling Run, only
// the checker processes run concurrently.
type Scheduler struct {
	checker      Checker
	matcher      *Matcher
	sink         Sink
	parallelism  int
	pollInterval time.Duration
	wait         WaitStrategy
	start        startFunc

	running map[string]handle
	order   []string // dispatch order of running jobs
	stats   Stats
}

func New(checker Checker, sink Sink) *Scheduler {
	return &Scheduler{
		checker:      checker,
		matcher:      MustMatcher(),
		sink:         sink,
		parallelism:  model.DefaultJobs,
		pollInterval: model.DefaultPollInterval,
		wait:         WaitNotify,
		start:        startProcess,
	}
}

// WithParallelism sets the maximum of running checkers, values below one
// are treated as one.
func (s *Scheduler) WithParallelism(n int) *Scheduler {
	s.parallelism = max(n, 1)
	return s
}

func (s *Scheduler) WithPollInterval(d time.Duration) *Scheduler {
	if d > 0 {
		s.pollInterval = d
	}
	return s
}

func (s *Scheduler) WithWaitStrategy(w WaitStrategy) *Scheduler {
	s.wait = w
	return s
}

func (s *Scheduler) WithMatcher(m *Matcher) *Scheduler {
	if m != nil {
		s.matcher = m
	}
	return s
}

// Stats returns the statistics of the last Run.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Run checks the files and returns the aggregated report.
//  1. Runs the checker preflight, fails with CheckerInvocationError
//  2. Builds the queue in files order, duplicate paths are checked once,
//     paths are compared (and reported) in the filepath.Clean form
//  3. Starts processes up to the parallelism, waits and collects the
//     finished ones until there is nothing pending or running
//  4. Calls Sink.Finish with the report
//
// Per file failures are part of the report, they never stop the run. A
// canceled ctx stops launching new processes, the running ones are waited
// for, and ctx.Err() is returned along with the partial report.
func (s *Scheduler) Run(ctx context.Context, files []string) (model.Report, error) {
	ctx = log.ContextAttrs(ctx, slog.String("checker", s.checker.Executable))
	if err := s.checker.Preflight(ctx); err != nil {
		return model.Report{}, err
	}

	pending := s.queue(ctx, files)
	report := model.Report{Total: len(pending)}
	s.running = make(map[string]handle, s.parallelism)
	s.order = make([]string, 0, s.parallelism)
	s.stats = Stats{}

	var notifyCh chan struct{}
	if s.wait == WaitNotify {
		notifyCh = make(chan struct{}, 1)
	}

	slog.DebugContext(ctx, "run started",
		"files", len(pending),
		"parallelism", s.parallelism,
		"wait", s.wait.String(),
	)
	s.sink.Start(len(pending))

	var runErr error
	var last phase
	for len(pending) > 0 || len(s.running) > 0 {
		// fill
		for len(s.running) < s.parallelism && len(pending) > 0 {
			if err := ctx.Err(); err != nil {
				slog.WarnContext(ctx, "run canceled: skipping pending files", "pending", len(pending), "error", err)
				runErr = err
				pending = nil
				break
			}
			job := pending[0]
			pending = pending[1:]
			sync := s.parallelism == 1 || (len(s.running) == 0 && len(pending) == 0)
			s.launch(ctx, job, StartOptions{Sync: sync, Notify: notifyCh})
		}

		if p := s.phase(len(pending)); p != last {
			slog.DebugContext(ctx, "scheduler phase", "phase", string(p), "pending", len(pending), "running", len(s.running))
			last = p
		}

		// wait
		switch len(s.running) {
		case 0:
		case 1:
			// nothing else can be launched, so block on the only one
			if len(pending) == 0 {
				s.running[s.order[0]].Wait()
			}
		default:
			s.suspend(notifyCh)
		}

		// collect
		s.collect(ctx, &report)
	}

	slog.DebugContext(ctx, "run finished",
		"checked", report.Checked,
		"errors", report.Errors,
		"peak", s.stats.Peak,
		"suspensions", s.stats.Suspensions,
	)
	s.sink.Finish(report)
	return report, runErr
}

func (s *Scheduler) queue(ctx context.Context, files []string) []model.Job {
	seen := make(map[string]struct{}, len(files))
	pending := make([]model.Job, 0, len(files))
	for _, path := range files {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			slog.DebugContext(ctx, "file already queued: ignoring", "path", path)
			continue
		}
		seen[path] = struct{}{}
		pending = append(pending, s.checker.Job(path))
	}
	return pending
}

func (s *Scheduler) launch(ctx context.Context, job model.Job, opts StartOptions) {
	slog.DebugContext(ctx, "starting checker", "path", job.Path, "sync", opts.Sync)
	s.running[job.Path] = s.start(ctx, job, opts)
	s.order = append(s.order, job.Path)
	s.stats.Launched++
	s.stats.Peak = max(s.stats.Peak, len(s.running))
}

func (s *Scheduler) suspend(notifyCh <-chan struct{}) {
	s.stats.Suspensions++
	if s.wait == WaitNotify && notifyCh != nil {
		<-notifyCh
		return
	}
	time.Sleep(s.pollInterval)
}

// collect removes every finished process from the running set, in dispatch
// order, and passes its result to the sink and the report
func (s *Scheduler) collect(ctx context.Context, report *model.Report) {
	still := s.order[:0]
	for _, path := range s.order {
		h := s.running[path]
		if !h.Ready() {
			still = append(still, path)
			continue
		}
		res := h.Result(s.matcher)
		delete(s.running, path)

		resCtx := log.ContextAttrs(ctx, res.LogAttrs()...)
		if err := res.Err(); err != nil {
			slog.DebugContext(resCtx, "file failed", "error", err)
		} else {
			slog.DebugContext(resCtx, "file checked")
		}
		s.sink.Result(res)
		report.Add(res)
	}
	clear(s.order[len(still):])
	s.order = still
}

func (s *Scheduler) phase(pending int) phase {
	switch {
	case pending > 0 && len(s.running) < s.parallelism:
		return phaseFilling
	case pending > 0:
		return phasePolling
	case len(s.running) > 0:
		return phaseDraining
	default:
		return phaseFinished
	}
}
