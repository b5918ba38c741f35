package asm

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"blask/pkg/ast"
	"blask/pkg/span"
)

type ErrorKind int

const (
	AST ErrorKind = iota
	InvalidRegister
	WrongOperandCount
	FormatMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case AST:
		return "AST"
	case InvalidRegister:
		return "InvalidRegister"
	case WrongOperandCount:
		return "WrongOperandCount"
	case FormatMismatch:
		return "FormatMismatch"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is an assembly error. AST errors are wrapped in Err.
type Error struct {
	Kind ErrorKind
	Span span.Span
	Err  error
	// Want is the operand count the opcode takes, for WrongOperandCount.
	Want int
}

func (e *Error) Error() string {
	if e.Kind == AST {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Span, e.Message())
}

func (e *Error) Message() string {
	switch e.Kind {
	case InvalidRegister:
		if e.Err != nil {
			return "invalid register: " + e.Err.Error()
		}
		return "invalid register"
	case WrongOperandCount:
		return fmt.Sprintf("wrong operand count, want %d", e.Want)
	}
	if m, ok := e.Err.(interface{ Message() string }); ok {
		return m.Message()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorList collects every error of one assembly pass in source order.
type ErrorList []*Error

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

func (l ErrorList) Unwrap() []error {
	out := make([]error, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

type diagnostic interface {
	SourceSpan() span.Span
	Message() string
}

// leaves expands aggregated line errors so each one reports its own span.
func leaves(err error) []diagnostic {
	var aerr *ast.Error
	if e, ok := err.(*Error); ok && e.Kind == AST && errors.As(e.Err, &aerr) {
		var out []diagnostic
		for _, leaf := range aerr.Flatten() {
			out = append(out, leaf)
		}
		return out
	}
	if d, ok := err.(diagnostic); ok {
		return []diagnostic{d}
	}
	return nil
}

func (e *Error) SourceSpan() span.Span {
	return e.Span
}

// WriteDiagnostics prints each error as name:line:col: message followed by
// the source line and a caret under the offending span.
func WriteDiagnostics(w io.Writer, name, src string, err error) {
	var list ErrorList
	if !errors.As(err, &list) {
		if e, ok := err.(*Error); ok {
			list = ErrorList{e}
		}
	}
	if list == nil {
		fmt.Fprintf(w, "%s: %v\n", name, err)
		return
	}
	for _, e := range list {
		for _, d := range leaves(e) {
			sp := d.SourceSpan()
			fmt.Fprintf(w, "%s:%s: %s\n%s\n", name, span.Locate(src, sp.Start), d.Message(), span.Caret(src, sp))
		}
	}
}
