package model

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	cue "cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
)

type CueErrorDetail struct {
	Path    string // schedule.jobs
	Code    string // missing_required | unknown_field | type_mismatch | conflicting_values | invalid_enum ...
	Message string // Human text
	Pos     CueErrorPosition
	Raw     string // original message
}

func (c CueErrorDetail) Attr(name string) slog.Attr {
	return slog.GroupAttrs(
		name,
		slog.String("code", c.Code),
		slog.String("path", c.Path),
		slog.String("message", c.Message),
		slog.String("file", c.Pos.Filename),
		slog.Int("line", c.Pos.Line),
		slog.Int("column", c.Pos.Column),
	)
}

func (c CueErrorDetail) String() string {
	if c.Pos.Filename == "" {
		return c.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s", c.Pos.Filename, c.Pos.Line, c.Pos.Column, c.Message)
}

type CueErrorPosition struct {
	Filename string
	Line     int
	Column   int
}

// rules map the raw cue messages to a code and a message template, the
// first match wins
var rules = []struct {
	re   *regexp.Regexp
	code string
	msg  string
}{
	{regexp.MustCompile(`(?i)not allowed|unknown field`), "unknown_field", "Field %s is not allowed"},
	{regexp.MustCompile(`(?i)incomplete value`), "missing_required", "Field %s is required"},
	{regexp.MustCompile(`(?i)must be one of|expected one of|empty disjunction`), "invalid_enum", "Field %s has invalid value"},
	{regexp.MustCompile(`(?i)conflicting values|cannot unify|incompatible|out of bound|invalid value`), "conflicting_values", "Conflicting values for %s"},
	{regexp.MustCompile(`(?i)expected .* got .*`), "type_mismatch", "Field %s has wrong type/value"},
}

// enums lists the config paths with a closed set of string values, so the
// message can name them
var enums = map[string]struct{}{
	"schedule.wait": {},
	"output.format": {},
}

// CueErrDetails converts a LoadConfig error into a list of human readable
// details, at most one per source position.
func CueErrDetails(err error) []CueErrorDetail {
	if err == nil {
		return nil
	}

	var out []CueErrorDetail
	seen := make(map[CueErrorPosition]bool)
	for _, e := range cueerrors.Errors(err) {
		d := detail(e)
		if d.Pos.Filename != "" && seen[d.Pos] {
			continue
		}
		seen[d.Pos] = true
		out = append(out, d)
	}
	return out
}

func detail(e cueerrors.Error) CueErrorDetail {
	format, args := e.Msg()
	d := CueErrorDetail{
		Path: configPath(e.Path()),
		Pos:  position(e),
		Raw:  fmt.Sprintf(format, args...),
	}

	d.Code, d.Message = "validation_error", d.Raw
	for _, r := range rules {
		if r.re.MatchString(d.Raw) {
			d.Code, d.Message = r.code, fmt.Sprintf(r.msg, lastElem(d.Path))
			break
		}
	}

	if _, ok := enums[d.Path]; ok {
		if values := stringValues(schema.LookupPath(cue.ParsePath(d.Path))); len(values) > 0 {
			d.Message += ": possible values (" + strings.Join(values, ",") + ")"
		}
	}
	return d
}

// stringValues returns the string alternatives of a disjunction
func stringValues(v cue.Value) []string {
	if !v.Exists() {
		return nil
	}
	alts := []cue.Value{v}
	if op, args := v.Expr(); op == cue.OrOp {
		alts = args
	}
	var values []string
	for _, a := range alts {
		s, err := a.String()
		if err != nil || slices.Contains(values, s) {
			continue
		}
		values = append(values, s)
	}
	return values
}

func position(err cueerrors.Error) CueErrorPosition {
	for _, r := range cueerrors.Positions(err) {
		if r.Filename() != "" {
			return CueErrorPosition{Filename: r.Filename(), Line: r.Line(), Column: r.Column()}
		}
	}
	return CueErrorPosition{}
}

// configPath joins the cue path without the #Config definition
func configPath(p []string) string {
	if len(p) > 0 && strings.HasPrefix(p[0], "#") {
		p = p[1:]
	}
	return strings.Join(p, ".")
}

func lastElem(p string) string {
	return p[strings.LastIndexByte(p, '.')+1:]
}
