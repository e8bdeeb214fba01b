package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/CZERTAINLY/parallel-lint/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// marksPerLine is the number of progress marks printed before the counter
const marksPerLine = 60

// Console prints a progress mark per checked file, a summary line and the
// messages of the failed files. Colors are used only when w is a terminal.
type Console struct {
	w       io.Writer
	total   int
	checked int
	err     error

	okStyle      lipgloss.Style
	errStyle     lipgloss.Style
	summaryStyle lipgloss.Style
}

func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:            w,
		okStyle:      r.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		errStyle:     r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		summaryStyle: r.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
	}
}

func (c *Console) Start(total int) {
	c.total = total
	c.checked = 0
}

func (c *Console) Result(r model.Result) {
	if r.OK() {
		c.write(c.okStyle.Render("."))
	} else {
		c.write(c.errStyle.Render("X"))
	}
	c.checked++
	if c.checked%marksPerLine == 0 {
		c.write(fmt.Sprintf(" %d/%d (%d %%)\n", c.checked, c.total, percent(c.checked, c.total)))
	}
}

func (c *Console) Finish(r model.Report) {
	if c.checked%marksPerLine != 0 {
		c.write("\n")
	}
	c.write("\n")
	c.write(c.summaryStyle.Render(Summary(r)) + "\n")

	if len(r.Failures) == 0 {
		return
	}
	c.write("\n")
	for _, f := range r.Failures {
		c.write(c.errStyle.Render(label(f.Class)+": "+f.Path) + "\n")
		for line := range strings.Lines(f.Message) {
			c.write("    " + strings.TrimRight(line, "\n") + "\n")
		}
	}
}

// Err returns the first write error, later writes are skipped.
func (c *Console) Err() error {
	return c.err
}

func (c *Console) write(s string) {
	if c.err != nil {
		return
	}
	_, c.err = io.WriteString(c.w, s)
}

// Summary returns the one line outcome of a run.
func Summary(r model.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Checked %s, ", plural(r.Checked, "file"))
	if r.SyntaxErrors == 0 {
		b.WriteString("no syntax error found")
	} else {
		fmt.Fprintf(&b, "syntax error found in %s", plural(r.SyntaxErrors, "file"))
	}
	if r.ProcessErrors > 0 {
		fmt.Fprintf(&b, ", checker failed on %s", plural(r.ProcessErrors, "file"))
	}
	return b.String()
}

func label(c model.Class) string {
	switch c {
	case model.ClassSyntaxError:
		return "Syntax error"
	case model.ClassProcessError:
		return "Checker error"
	default:
		return "OK"
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func percent(n, total int) int {
	if total == 0 {
		return 100
	}
	return n * 100 / total
}
