package eval

import (
	"fmt"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// DiagnosticLevel is the severity of a diagnostic record.
type DiagnosticLevel string

const (
	// LevelError is a failure that halted evaluation.
	LevelError DiagnosticLevel = "error"
)

// SourceSpan locates a diagnostic in the configuration script.
type SourceSpan struct {
	Filename string `json:"filename"`
	Line     int32  `json:"line"`
	Column   int32  `json:"column"`
}

// Diagnostic is the single record produced by a failed evaluation. It is
// logged and returned to the caller, never silently discarded.
type Diagnostic struct {
	Level   DiagnosticLevel `json:"level"`
	Message string          `json:"message"`
	Spans   []SourceSpan    `json:"spans,omitempty"`
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if len(d.Spans) == 0 {
		return d.Message
	}
	s := d.Spans[0]
	return fmt.Sprintf("%s:%d:%d: %s", s.Filename, s.Line, s.Column, d.Message)
}

// diagnosticFromErr converts a Starlark evaluation failure into exactly
// one diagnostic.
func diagnosticFromErr(err error) *Diagnostic {
	d := &Diagnostic{Level: LevelError, Message: err.Error()}

	switch e := err.(type) {
	case *starlark.EvalError:
		d.Message = e.Msg
		for _, frame := range e.CallStack {
			d.Spans = append(d.Spans, spanFromPos(frame.Pos))
		}
	case resolve.ErrorList:
		var msgs []string
		for _, re := range e {
			msgs = append(msgs, re.Msg)
			d.Spans = append(d.Spans, spanFromPos(re.Pos))
		}
		d.Message = strings.Join(msgs, "; ")
	case resolve.Error:
		d.Message = e.Msg
		d.Spans = []SourceSpan{spanFromPos(e.Pos)}
	case syntax.Error:
		d.Message = e.Msg
		d.Spans = []SourceSpan{spanFromPos(e.Pos)}
	}

	return d
}

func spanFromPos(pos syntax.Position) SourceSpan {
	return SourceSpan{
		Filename: pos.Filename(),
		Line:     pos.Line,
		Column:   pos.Col,
	}
}
