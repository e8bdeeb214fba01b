package model

// Failure is a file which has not passed the check.
type Failure struct {
	Path    string `json:"path"`
	Class   Class  `json:"class"`
	Message string `json:"message"`
}

// Report aggregates the results of a single run. Failures are kept in the
// order in which the checker processes have finished.
type Report struct {
	Total         int       `json:"total"`
	Checked       int       `json:"checked"`
	Errors        int       `json:"errors"`
	SyntaxErrors  int       `json:"syntax_errors"`
	ProcessErrors int       `json:"process_errors"`
	Failures      []Failure `json:"failures"`
}

// Add accumulates a single result.
func (r *Report) Add(res Result) {
	r.Checked++
	switch res.Class {
	case ClassOK:
		return
	case ClassSyntaxError:
		r.SyntaxErrors++
	case ClassProcessError:
		r.ProcessErrors++
	}
	r.Errors++
	r.Failures = append(r.Failures, Failure{
		Path:    res.Path,
		Class:   res.Class,
		Message: res.Message,
	})
}

// Success is true iff no file has failed.
func (r Report) Success() bool {
	return r.Errors == 0
}
