package lint

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/CZERTAINLY/parallel-lint/internal/model"

	re2 "github.com/wasilibs/go-re2"
)

// DefaultMarkers recognize the diagnostics printed by php -l. The first
// capture group is used as a message.
var DefaultMarkers = []string{
	`^(?:PHP )?Parse error:\s*(.+?)\s*$`,
	`^(?:PHP )?Fatal error:\s*(.+?)\s*$`,
}

// Matcher classifies the checker output. It matches every marker against
// each line of the captured output.
type Matcher struct {
	markers []*re2.Regexp
}

// NewMatcher compiles patterns, DefaultMarkers are used if none are given.
func NewMatcher(patterns ...string) (*Matcher, error) {
	if len(patterns) == 0 {
		patterns = DefaultMarkers
	}
	m := &Matcher{markers: make([]*re2.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := re2.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling marker %q: %w", p, err)
		}
		m.markers = append(m.markers, re)
	}
	return m, nil
}

// MustMatcher is like NewMatcher, but panics on invalid pattern.
func MustMatcher(patterns ...string) *Matcher {
	m, err := NewMatcher(patterns...)
	if err != nil {
		panic(err)
	}
	return m
}

// Find returns the diagnostic lines recognized in output. Duplicate
// messages (php prints the same error to stdout and stderr) are reported once.
func (m *Matcher) Find(output string) (string, bool) {
	var msgs []string
	seen := make(map[string]struct{})
	for line := range strings.Lines(output) {
		line = strings.TrimRight(line, "\r\n")
		for _, re := range m.markers {
			match := re.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			msg := match[0]
			if len(match) > 1 && match[1] != "" {
				msg = match[1]
			}
			if _, ok := seen[msg]; !ok {
				seen[msg] = struct{}{}
				msgs = append(msgs, msg)
			}
			break
		}
	}
	if len(msgs) == 0 {
		return "", false
	}
	return strings.Join(msgs, "\n"), true
}

// Classify maps the exit code and output of a finished checker to a class
// and a message.
func (m *Matcher) Classify(exitCode int, output string) (model.Class, string) {
	diag, found := m.Find(output)
	switch {
	case exitCode == 0 && !found:
		return model.ClassOK, ""
	case exitCode > 0 && found:
		return model.ClassSyntaxError, diag
	case found:
		return model.ClassProcessError, fmt.Sprintf("exit code %d: %s", exitCode, diag)
	default:
		return model.ClassProcessError, describe(fmt.Sprintf("exit code %d", exitCode), output)
	}
}

func describe(status, output string) string {
	const maxLen = 512
	output = strings.TrimSpace(output)
	if output == "" {
		return status + ", no output"
	}
	if len(output) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(output[cut]) {
			cut--
		}
		output = output[:cut] + "..."
	}
	return status + ": " + output
}
