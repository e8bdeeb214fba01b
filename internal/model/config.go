package model

import (
	"io"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

const (
	WaitNotify = "notify"
	WaitPoll   = "poll"

	FormatText = "text"
	FormatJSON = "json"

	LogStderr  = "stderr"
	LogStdout  = "stdout"
	LogDiscard = "discard"

	DefaultExecutable   = "php"
	DefaultJobs         = 10
	DefaultPollInterval = 50 * time.Millisecond
)

var DefaultExtensions = []string{"php", "php3", "php4", "php5", "phtml"}

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

type Config struct {
	Version  int      `json:"version" yaml:"version"` // fixed 0 for now
	Checker  Checker  `json:"checker" yaml:"checker"`
	Files    Files    `json:"files" yaml:"files"`
	Schedule Schedule `json:"schedule" yaml:"schedule"`
	Output   Output   `json:"output" yaml:"output"`
}

// Checker describes the external syntax checker invocation.
type Checker struct {
	Executable   *string  `json:"executable,omitempty" yaml:"executable,omitempty"`
	ShortOpenTag *bool    `json:"short_open_tag,omitempty" yaml:"short_open_tag,omitempty"`
	AspTags      *bool    `json:"asp_tags,omitempty" yaml:"asp_tags,omitempty"`
	Markers      []string `json:"markers,omitempty" yaml:"markers,omitempty"` // RE2 patterns of error lines
}

// Files configures discovery.
type Files struct {
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Exclude    []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// Schedule configures the scheduler.
type Schedule struct {
	Jobs         *int    `json:"jobs,omitempty" yaml:"jobs,omitempty"`
	Wait         *string `json:"wait,omitempty" yaml:"wait,omitempty"`                   // "notify" | "poll"
	PollInterval *string `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"` // e.g. 50ms
}

// Output configures logging and report format.
type Output struct {
	Verbose *bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	Log     *string `json:"log,omitempty" yaml:"log,omitempty"` // "stderr"|"stdout"|"discard"|path
	Format  *string `json:"format,omitempty" yaml:"format,omitempty"`
}

// DefaultConfig returns a configuration with every field filled in.
func DefaultConfig() Config {
	return Config{
		Version: 0,
		Checker: Checker{
			Executable:   ptr(DefaultExecutable),
			ShortOpenTag: ptr(false),
			AspTags:      ptr(false),
		},
		Files: Files{
			Extensions: append([]string(nil), DefaultExtensions...),
		},
		Schedule: Schedule{
			Jobs:         ptr(DefaultJobs),
			Wait:         ptr(WaitNotify),
			PollInterval: ptr(DefaultPollInterval.String()),
		},
		Output: Output{
			Verbose: ptr(false),
			Log:     ptr(LogStderr),
			Format:  ptr(FormatText),
		},
	}
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
func LoadConfig(r io.Reader) (Config, error) {
	yamlFile, err := yaml.Extract("config.yaml", r)
	if err != nil {
		return Config{}, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return Config{}, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return Config{}, err
	}
	if out.Files.Extensions != nil {
		out.Files.Extensions = NormalizeExtensions(out.Files.Extensions)
	}

	return out, nil
}

// Merge returns c with unset fields taken from dflt.
func (c Config) Merge(dflt Config) Config {
	c.Checker.Executable = or(c.Checker.Executable, dflt.Checker.Executable)
	c.Checker.ShortOpenTag = or(c.Checker.ShortOpenTag, dflt.Checker.ShortOpenTag)
	c.Checker.AspTags = or(c.Checker.AspTags, dflt.Checker.AspTags)
	if c.Checker.Markers == nil {
		c.Checker.Markers = dflt.Checker.Markers
	}
	if c.Files.Extensions == nil {
		c.Files.Extensions = dflt.Files.Extensions
	}
	if c.Files.Exclude == nil {
		c.Files.Exclude = dflt.Files.Exclude
	}
	c.Schedule.Jobs = or(c.Schedule.Jobs, dflt.Schedule.Jobs)
	c.Schedule.Wait = or(c.Schedule.Wait, dflt.Schedule.Wait)
	c.Schedule.PollInterval = or(c.Schedule.PollInterval, dflt.Schedule.PollInterval)
	c.Output.Verbose = or(c.Output.Verbose, dflt.Output.Verbose)
	c.Output.Log = or(c.Output.Log, dflt.Output.Log)
	c.Output.Format = or(c.Output.Format, dflt.Output.Format)
	return c
}

// Interval returns the parsed schedule.poll_interval or the default one.
func (s Schedule) Interval() time.Duration {
	if s.PollInterval == nil {
		return DefaultPollInterval
	}
	d, err := time.ParseDuration(*s.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

// NormalizeExtensions strips spaces and a leading dot, empty entries are
// dropped. Both "php" and ".php" select the same files.
func NormalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimPrefix(strings.TrimSpace(s), ".")
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Get dereferences a pointer, returning a zero value for nil.
func Get[T any](pt *T) T {
	var zero T
	if pt == nil {
		return zero
	}
	return *pt
}

func ptr[T any](v T) *T {
	return &v
}

func or[T any](a, b *T) *T {
	if a != nil {
		return a
	}
	return b
}
