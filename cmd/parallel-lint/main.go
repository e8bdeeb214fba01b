package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/CZERTAINLY/parallel-lint/internal/log"
	"github.com/CZERTAINLY/parallel-lint/internal/model"
	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

// exit codes
const (
	exitSuccess    = 0
	exitWithErrors = 1
	exitFailed     = 255
)

const (
	configFileName = "parallel-lint.yaml"
	configEnv      = "PARALLELLINTCONFIG"
)

func main() {
	// GOMAXPROCS bounds the concurrent directory walks, respect container quotas
	_, _ = maxprocs.Set()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// cli holds the state of one invocation
type cli struct {
	stdout io.Writer
	stderr io.Writer

	userConfigPath string // /default/config/path/parallel-lint on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config
	closeLog       func() error

	flagConfigFilePath string
	flagVerbose        bool
	flagLog            string
	flagExecutable     string
	flagShortOpenTag   bool
	flagAspTags        bool
	flagExtensions     []string
	flagExclude        []string
	flagJobs           int
	flagJSON           bool

	report *model.Report
}

// run executes the command line and returns the process exit code:
// 0 no errors, 1 syntax or checker errors found, 255 fatal error
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{
		stdout:   stdout,
		stderr:   stderr,
		closeLog: func() error { return nil },
	}
	if d, err := os.UserConfigDir(); err == nil {
		c.userConfigPath = filepath.Join(d, "parallel-lint")
	}
	defer func() {
		_ = c.closeLog()
	}()

	rootCmd := c.rootCmd()
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "parallel-lint failed", "error", err)
		var argErr *model.ArgumentError
		if errors.As(err, &argErr) {
			fmt.Fprintf(c.stderr, "%s\n\n%s", err, rootCmd.UsageString())
		} else {
			fmt.Fprintln(c.stderr, err)
		}
		return exitFailed
	}

	if c.report != nil && !c.report.Success() {
		return exitWithErrors
	}
	return exitSuccess
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parallel-lint [flags] <files or directories>",
		Short: "Check syntax of PHP files in parallel",
		Long: "parallel-lint runs the PHP syntax checker (php -l) for every given file and every\n" +
			"file with a matching extension found in the given directories, several at once.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true, // never print messages
		RunE:          c.doLint,
	}
	rootCmd.SetOut(c.stdout)
	rootCmd.SetErr(c.stderr)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &model.ArgumentError{Err: err}
	})

	// root flags
	pflags := rootCmd.PersistentFlags()
	userConfig := configFileName
	if c.userConfigPath != "" {
		userConfig = filepath.Join(c.userConfigPath, configFileName)
	}
	pflags.StringVar(&c.flagConfigFilePath, "config", "", "Config file to load - default is "+configFileName+" in current directory or "+userConfig)
	pflags.BoolVar(&c.flagVerbose, "verbose", false, "verbose logging")
	pflags.StringVar(&c.flagLog, "log", "", "log destination: stderr, stdout, discard or a file path (default stderr)")

	flags := rootCmd.Flags()
	flags.StringVarP(&c.flagExecutable, "php", "p", model.DefaultExecutable, "PHP executable used to check the files")
	flags.BoolVarP(&c.flagShortOpenTag, "short", "s", false, "set short_open_tag to On")
	flags.BoolVarP(&c.flagAspTags, "asp", "a", false, "set asp_tags to On")
	flags.StringSliceVarP(&c.flagExtensions, "extensions", "e", model.DefaultExtensions, "check only files with selected extensions")
	flags.StringArrayVar(&c.flagExclude, "exclude", nil, "exclude a directory, can be repeated")
	flags.IntVarP(&c.flagJobs, "jobs", "j", model.DefaultJobs, "run <num> jobs in parallel")
	flags.BoolVar(&c.flagJSON, "json", false, "print the report as JSON")

	// parse or create a config, setup logging
	rootCmd.PersistentPreRunE = c.init

	rootCmd.AddCommand(c.versionCmd())
	rootCmd.AddCommand(c.configCmd())
	return rootCmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "version provide version of a parallel-lint",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			info, ok := debug.ReadBuildInfo()
			if !ok {
				fmt.Fprintln(out, "parallel-lint: version info not available")
				return
			}

			if c.configPath != "" {
				fmt.Fprintf(out, "config: %s\n", c.configPath)
			}
			fmt.Fprintf(out, "parallel-lint: %s\n", info.Main.Version)
			fmt.Fprintf(out, "go:            %s\n", info.GoVersion)
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					fmt.Fprintf(out, "commit:        %s\n", s.Value)
				case "vcs.time":
					fmt.Fprintf(out, "date:          %s\n", s.Value)
				case "vcs.modified":
					fmt.Fprintf(out, "dirty:         %s\n", s.Value)
				}
			}
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "config prints the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(c.config); err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			return enc.Close()
		},
	}
}

func (c *cli) init(cmd *cobra.Command, _ []string) error {
	if envConfig, ok := os.LookupEnv(configEnv); ok && envConfig != "" {
		c.configPath = envConfig
	} else if c.flagConfigFilePath != "" {
		c.configPath = c.flagConfigFilePath
	} else {
		for _, d := range []string{".", c.userConfigPath} {
			if d == "" {
				continue
			}
			path := filepath.Join(d, configFileName)
			if exists(path) {
				c.configPath = path
				break
			}
		}
	}

	var cfg model.Config
	if c.configPath != "" {
		var err error
		cfg, err = loadConfig(c.configPath)
		if err != nil {
			return err
		}
	}
	c.config = c.applyFlags(cmd, cfg.Merge(model.DefaultConfig()))

	// initialize logging
	var w io.Writer
	switch dest := model.Get(c.config.Output.Log); dest {
	case "", model.LogStderr:
		w = c.stderr
	case model.LogStdout:
		w = c.stdout
	default:
		var err error
		w, c.closeLog, err = log.Open(dest)
		if err != nil {
			return err
		}
	}
	slog.SetDefault(log.New(w, model.Get(c.config.Output.Verbose)))

	slog.Debug("parallel-lint init", "configPath", c.configPath)
	slog.Debug("parallel-lint init", "config", c.config)
	return nil
}

func loadConfig(path string) (model.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("opening config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	cfg, err := model.LoadConfig(f)
	if err != nil {
		details := model.CueErrDetails(err)
		msgs := make([]string, 0, len(details))
		for _, d := range details {
			slog.Error("invalid config", d.Attr("detail"))
			msgs = append(msgs, d.String())
		}
		if len(msgs) == 0 {
			msgs = append(msgs, err.Error())
		}
		return model.Config{}, fmt.Errorf("parsing config %s: %s", path, strings.Join(msgs, "; "))
	}
	return cfg, nil
}

// applyFlags lets the explicitly set command line flags take a precedence
// over the config file
func (c *cli) applyFlags(cmd *cobra.Command, cfg model.Config) model.Config {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if c.flagVerbose {
		cfg.Output.Verbose = &c.flagVerbose
	}
	if changed("log") {
		cfg.Output.Log = &c.flagLog
	}
	if changed("php") {
		cfg.Checker.Executable = &c.flagExecutable
	}
	if changed("short") {
		cfg.Checker.ShortOpenTag = &c.flagShortOpenTag
	}
	if changed("asp") {
		cfg.Checker.AspTags = &c.flagAspTags
	}
	if changed("extensions") {
		cfg.Files.Extensions = model.NormalizeExtensions(c.flagExtensions)
	}
	if changed("exclude") {
		cfg.Files.Exclude = append(cfg.Files.Exclude, c.flagExclude...)
	}
	if changed("jobs") {
		jobs := max(c.flagJobs, 1)
		cfg.Schedule.Jobs = &jobs
	}
	if c.flagJSON {
		format := model.FormatJSON
		cfg.Output.Format = &format
	}
	return cfg
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
