package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/CZERTAINLY/parallel-lint/internal/model"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yml := `
version: 0
checker:
  executable: /usr/bin/php8.3
  short_open_tag: true
  markers:
    - '^Parse error: (.+)$'
files:
  extensions: [php, inc]
  exclude: [vendor]
schedule:
  jobs: 4
  wait: poll
  poll_interval: 20ms
output:
  log: discard
`
	cfg, err := model.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.Equal(t, "/usr/bin/php8.3", model.Get(cfg.Checker.Executable))
	require.True(t, model.Get(cfg.Checker.ShortOpenTag))
	require.Nil(t, cfg.Checker.AspTags)
	require.Equal(t, []string{"^Parse error: (.+)$"}, cfg.Checker.Markers)
	require.Equal(t, []string{"php", "inc"}, cfg.Files.Extensions)
	require.Equal(t, []string{"vendor"}, cfg.Files.Exclude)
	require.Equal(t, 4, model.Get(cfg.Schedule.Jobs))
	require.Equal(t, model.WaitPoll, model.Get(cfg.Schedule.Wait))
	require.Equal(t, 20*time.Millisecond, cfg.Schedule.Interval())
	require.Equal(t, model.LogDiscard, model.Get(cfg.Output.Log))
}

func TestLoadConfig_Fail(t *testing.T) {
	var testCases = []struct {
		scenario string
		yml      string
		path     string
	}{
		{
			scenario: "zero jobs",
			yml:      "version: 0\nschedule:\n  jobs: 0\n",
			path:     "schedule.jobs",
		},
		{
			scenario: "unknown field",
			yml:      "version: 0\nchecker:\n  binary: php\n",
			path:     "checker.binary",
		},
		{
			scenario: "wrong version",
			yml:      "version: 1\n",
			path:     "version",
		},
		{
			scenario: "zero poll interval",
			yml:      "version: 0\nschedule:\n  poll_interval: 0ms\n",
			path:     "schedule.poll_interval",
		},
		{
			scenario: "invalid wait",
			yml:      "version: 0\nschedule:\n  wait: select\n",
			path:     "schedule.wait",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			_, err := model.LoadConfig(strings.NewReader(tt.yml))
			require.Error(t, err)
			details := model.CueErrDetails(err)
			require.NotEmpty(t, details)
			var paths []string
			for _, d := range details {
				require.NotEmpty(t, d.Message)
				paths = append(paths, d.Path)
			}
			require.Contains(t, paths, tt.path)
		})
	}
}

func TestLoadConfigExtensions(t *testing.T) {
	yml := "version: 0\nfiles:\n  extensions: ['.php', ' inc ', phtml]\n"
	cfg, err := model.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.Equal(t, []string{"php", "inc", "phtml"}, cfg.Files.Extensions)
}

func TestNormalizeExtensions(t *testing.T) {
	var testCases = []struct {
		scenario string
		given    []string
		then     []string
	}{
		{"plain", []string{"php", "inc"}, []string{"php", "inc"}},
		{"leading dot", []string{".php", ".phtml"}, []string{"php", "phtml"}},
		{"spaces and empty", []string{" php ", "", "."}, []string{"php"}},
		{"nil", nil, []string{}},
	}
	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			require.Equal(t, tt.then, model.NormalizeExtensions(tt.given))
		})
	}
}

func TestMerge(t *testing.T) {
	jobs := 3
	cfg := model.Config{
		Schedule: model.Schedule{Jobs: &jobs},
	}.Merge(model.DefaultConfig())

	require.Equal(t, 3, model.Get(cfg.Schedule.Jobs))
	require.Equal(t, model.DefaultExecutable, model.Get(cfg.Checker.Executable))
	require.Equal(t, model.DefaultExtensions, cfg.Files.Extensions)
	require.Equal(t, model.WaitNotify, model.Get(cfg.Schedule.Wait))
	require.Equal(t, model.DefaultPollInterval, cfg.Schedule.Interval())
}
