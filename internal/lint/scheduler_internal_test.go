package lint

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CZERTAINLY/parallel-lint/internal/log"
	"github.com/CZERTAINLY/parallel-lint/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	path  string
	class model.Class
	done  chan struct{}
}

func (f *fakeHandle) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *fakeHandle) Wait() { <-f.done }

func (f *fakeHandle) Result(*Matcher) model.Result {
	<-f.done
	ret := model.Result{Path: f.path, Class: f.class}
	if f.class != model.ClassOK {
		ret.Message = "unexpected end of file"
	}
	return ret
}

// fakeProcesses replaces real checker processes by goroutines sleeping for
// a few milliseconds, it tracks how many of them are alive at once
type fakeProcesses struct {
	mx      sync.Mutex
	alive   atomic.Int32
	peak    int32
	started []string
	onStart func(n int)
}

func (f *fakeProcesses) start(_ context.Context, job model.Job, opts StartOptions) handle {
	f.mx.Lock()
	f.started = append(f.started, job.Path)
	n := len(f.started)
	alive := f.alive.Add(1)
	f.peak = max(f.peak, alive)
	f.mx.Unlock()
	if f.onStart != nil {
		f.onStart(n)
	}

	h := &fakeHandle{path: job.Path, done: make(chan struct{})}
	go func() {
		time.Sleep(time.Duration(n%4) * time.Millisecond)
		f.alive.Add(-1)
		close(h.done)
		notify(opts.Notify)
	}()
	if opts.Sync {
		<-h.done
	}
	return h
}

type countSink struct {
	results []model.Result
	report  *model.Report
}

func (s *countSink) Start(int) { s.results = nil }
func (s *countSink) Result(r model.Result) { s.results = append(s.results, r) }
func (s *countSink) Finish(r model.Report) { s.report = &r }

func shChecker(t *testing.T) Checker {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
	// sh -v with empty stdin exits 0, good enough for a preflight
	return Checker{Executable: sh}
}

func paths(n int) []string {
	ret := make([]string, n)
	for i := range ret {
		ret[i] = fmt.Sprintf("src/%03d.php", i)
	}
	return ret
}

func TestSchedulerBound(t *testing.T) {
	t.Parallel()
	checker := shChecker(t)

	for _, wait := range []WaitStrategy{WaitNotify, WaitPoll} {
		for _, parallelism := range []int{1, 2, 3, 8, 64} {
			for _, n := range []int{0, 1, 2, 7, 50} {
				t.Run(fmt.Sprintf("%s/p=%d/n=%d", wait, parallelism, n), func(t *testing.T) {
					t.Parallel()
					fake := &fakeProcesses{}
					sink := &countSink{}
					s := New(checker, sink).
						WithParallelism(parallelism).
						WithWaitStrategy(wait).
						WithPollInterval(time.Millisecond)
					s.start = fake.start

					files := paths(n)
					report, err := s.Run(t.Context(), files)
					require.NoError(t, err)
					require.Equal(t, n, report.Checked)
					require.Len(t, sink.results, n)
					require.NotNil(t, sink.report)

					// dispatch order follows the input, every file exactly once
					if n > 0 {
						require.Equal(t, files, fake.started)
					}
					seen := make(map[string]int, n)
					for _, r := range sink.results {
						seen[r.Path]++
					}
					for _, f := range files {
						require.Equal(t, 1, seen[f], f)
					}

					stats := s.Stats()
					require.LessOrEqual(t, int(fake.peak), parallelism)
					require.LessOrEqual(t, stats.Peak, parallelism)
					require.Equal(t, n, stats.Launched)
					if parallelism == 1 || n <= 1 {
						require.Zero(t, stats.Suspensions)
					}
				})
			}
		}
	}
}

func TestSchedulerCanceled(t *testing.T) {
	t.Parallel()
	checker := shChecker(t)
	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)

	fake := &fakeProcesses{onStart: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	sink := &countSink{}
	s := New(checker, sink).WithParallelism(2)
	s.start = fake.start

	report, err := s.Run(ctx, paths(10))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 10, report.Total)
	require.Equal(t, 3, report.Checked)
	require.Len(t, sink.results, 3)
	require.NotNil(t, sink.report)
}

// not parallel, it replaces the default logger
func TestSchedulerLogsFailures(t *testing.T) {
	checker := shChecker(t)
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(log.New(&buf, true))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s := New(checker, &countSink{}).WithParallelism(1)
	s.start = func(_ context.Context, job model.Job, _ StartOptions) handle {
		class := model.ClassOK
		if job.Path == "bad.php" {
			class = model.ClassSyntaxError
		}
		h := &fakeHandle{path: job.Path, class: class, done: make(chan struct{})}
		close(h.done)
		return h
	}
	report, err := s.Run(t.Context(), []string{"ok.php", "bad.php"})
	require.NoError(t, err)
	require.Equal(t, 1, report.SyntaxErrors)

	var failed, checked int
	for line := range bytes.Lines(buf.Bytes()) {
		switch {
		case bytes.Contains(line, []byte(`"msg":"file failed"`)):
			failed++
			require.Contains(t, string(line), `"level":"DEBUG"`)
			require.Contains(t, string(line), `"error":"bad.php: unexpected end of file"`)
		case bytes.Contains(line, []byte(`"msg":"file checked"`)):
			checked++
			require.Contains(t, string(line), `"path":"ok.php"`)
		}
	}
	require.Equal(t, 1, failed)
	require.Equal(t, 1, checked)
}
