package report

import (
	"encoding/json"
	"io"

	"github.com/CZERTAINLY/parallel-lint/internal/model"
)

// JSON writes the final report as a single JSON document, no progress is
// printed.
type JSON struct {
	w   io.Writer
	err error
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

func (j *JSON) Start(int) {}

func (j *JSON) Result(model.Result) {}

func (j *JSON) Finish(r model.Report) {
	if r.Failures == nil {
		r.Failures = []model.Failure{}
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	j.err = enc.Encode(r)
}

func (j *JSON) Err() error {
	return j.err
}
