package ast

import (
	"fmt"
	"strings"

	"blask/pkg/span"
)

type ErrorKind int

const (
	BadImmediate ErrorKind = iota
	UnknownInstruction
	DuplicateLabel
	UnknownLabel
	Syntax
	Multiple
)

var errorKindNames = map[ErrorKind]string{
	BadImmediate:       "BadImmediate",
	UnknownInstruction: "UnknownInstruction",
	DuplicateLabel:     "DuplicateLabel",
	UnknownLabel:       "UnknownLabel",
	Syntax:             "Syntax",
	Multiple:           "Multiple",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a semantic error. Syntax errors wrap the parser's error in Err;
// Multiple holds the per-line errors in Errs, mnemonic first.
type Error struct {
	Kind ErrorKind
	Span span.Span
	Err  error
	Errs []*Error
}

func (e *Error) Error() string {
	switch e.Kind {
	case Syntax:
		return e.Err.Error()
	case Multiple:
		msgs := make([]string, len(e.Errs))
		for i, sub := range e.Errs {
			msgs[i] = sub.Error()
		}
		return strings.Join(msgs, "; ")
	}
	return fmt.Sprintf("%s: %s", e.Span, e.Message())
}

// Message describes the error without its location.
func (e *Error) Message() string {
	switch e.Kind {
	case BadImmediate:
		return "bad immediate"
	case UnknownInstruction:
		return "unknown instruction"
	case DuplicateLabel:
		return "duplicate label"
	case UnknownLabel:
		return "unknown label (labels must be declared before use)"
	case Syntax:
		if m, ok := e.Err.(interface{ Message() string }); ok {
			return m.Message()
		}
		return e.Err.Error()
	case Multiple:
		return fmt.Sprintf("%d errors", len(e.Errs))
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err}
	}
	out := make([]error, len(e.Errs))
	for i, sub := range e.Errs {
		out[i] = sub
	}
	return out
}

// Flatten returns the leaf errors of e in order.
func (e *Error) Flatten() []*Error {
	if e.Kind != Multiple {
		return []*Error{e}
	}
	var out []*Error
	for _, sub := range e.Errs {
		out = append(out, sub.Flatten()...)
	}
	return out
}

func (e *Error) SourceSpan() span.Span {
	return e.Span
}
