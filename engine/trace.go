package engine

import "fmt"

// Trace is the append-only diagnostic log of one resolution attempt.
// A retried attempt starts a fresh trace.
type Trace struct {
	lines []string
}

func NewTrace() *Trace {
	return &Trace{}
}

// Addf appends one formatted line.
func (t *Trace) Addf(format string, args ...interface{}) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

// Lines returns the accumulated trace.
func (t *Trace) Lines() []string {
	return t.lines
}
