package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/CZERTAINLY/parallel-lint/internal/lint"
	"github.com/CZERTAINLY/parallel-lint/internal/log"
	"github.com/CZERTAINLY/parallel-lint/internal/model"
	"github.com/CZERTAINLY/parallel-lint/internal/report"
	"github.com/CZERTAINLY/parallel-lint/internal/walk"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// reporter is a lint.Sink remembering the first write error
type reporter interface {
	lint.Sink
	Err() error
}

func (c *cli) doLint(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	ctx := log.ContextAttrs(cmd.Context(),
		slog.String("run", uuid.NewString()),
		slog.Int("pid", os.Getpid()),
	)
	cfg := c.config

	files, err := walk.Files(ctx, args, walk.Options{
		Extensions: cfg.Files.Extensions,
		Exclude:    cfg.Files.Exclude,
	})
	if err != nil {
		return err
	}

	matcher, err := lint.NewMatcher(cfg.Checker.Markers...)
	if err != nil {
		return &model.ArgumentError{Arg: "checker.markers", Err: err}
	}

	var sink reporter
	if model.Get(cfg.Output.Format) == model.FormatJSON {
		sink = report.NewJSON(c.stdout)
	} else {
		sink = report.NewConsole(c.stdout)
	}

	sched := lint.New(lint.NewChecker(cfg.Checker), sink).
		WithParallelism(model.Get(cfg.Schedule.Jobs)).
		WithWaitStrategy(lint.ParseWaitStrategy(model.Get(cfg.Schedule.Wait))).
		WithPollInterval(cfg.Schedule.Interval()).
		WithMatcher(matcher)

	rep, err := sched.Run(ctx, files)
	if err != nil {
		return err
	}
	c.report = &rep

	stats := sched.Stats()
	slog.DebugContext(ctx, "lint finished",
		"launched", stats.Launched,
		"peak", stats.Peak,
		"suspensions", stats.Suspensions,
	)
	if err := sink.Err(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
