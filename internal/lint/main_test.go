package lint_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/CZERTAINLY/parallel-lint/internal/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakePHP mimics php -l: files containing SYNTAX fail with a parse error
// printed both to stdout and stderr, CRASH exits with 3, KILL is terminated
// by a signal and SLEEP takes a while
const fakePHP = `#!/bin/sh
if [ "$1" = "-v" ]; then
	echo "PHP 8.3.0 (cli) (fake)"
	exit 0
fi
for f; do file="$f"; done
if grep -q SYNTAX "$file"; then
	echo "PHP Parse error:  syntax error, unexpected end of file in $file on line 2" 1>&2
	echo ""
	echo "Parse error: syntax error, unexpected end of file in $file on line 2"
	echo "Errors parsing $file"
	exit 255
fi
if grep -q CRASH "$file"; then
	echo "crashed"
	exit 3
fi
if grep -q KILL "$file"; then
	kill -9 $$
fi
if grep -q SLEEP "$file"; then
	sleep 0.2
fi
echo "No syntax errors detected in $file"
exit 0
`

// checkerScript stores fakePHP into a temporary directory and returns its path
func checkerScript(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
	path := filepath.Join(t.TempDir(), "php")
	require.NoError(t, os.WriteFile(path, []byte(fakePHP), 0o755))
	return path
}

// source creates files in a temporary directory, returns their paths in the
// same order
func source(t *testing.T, contents ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(contents))
	for i, content := range contents {
		path := filepath.Join(dir, "file"+string(rune('a'+i%26))+string(rune('a'+i/26))+".php")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		paths[i] = path
	}
	return paths
}

type recordSink struct {
	mx      sync.Mutex
	total   int
	started int
	results []model.Result
	reports []model.Report
}

func (s *recordSink) Start(total int) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.started++
	s.total = total
}

func (s *recordSink) Result(r model.Result) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.results = append(s.results, r)
}

func (s *recordSink) Finish(r model.Report) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.reports = append(s.reports, r)
}

func (s *recordSink) classes() map[string]model.Class {
	s.mx.Lock()
	defer s.mx.Unlock()
	ret := make(map[string]model.Class, len(s.results))
	for _, r := range s.results {
		ret[r.Path] = r.Class
	}
	return ret
}
