package lst

import (
	"fmt"
	"strings"

	"blask/pkg/lexer"
	"blask/pkg/span"
)

type ErrorKind int

const (
	// UnknownToken is reserved for characters the lexer refuses. The lexer
	// classifies every character, so the parser never produces it today.
	UnknownToken ErrorKind = iota
	ExpectedToken
	UnexpectedToken
	PossibleTokens
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownToken:
		return "UnknownToken"
	case ExpectedToken:
		return "ExpectedToken"
	case UnexpectedToken:
		return "UnexpectedToken"
	case PossibleTokens:
		return "PossibleTokens"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a syntax error at a single source position. Tokens holds the
// expected kind(s) for ExpectedToken and PossibleTokens, or the offending
// kind for UnexpectedToken.
type Error struct {
	Kind   ErrorKind
	Span   span.Span
	Tokens []lexer.Kind
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message())
}

// Message describes the error without its location.
func (e *Error) Message() string {
	names := make([]string, len(e.Tokens))
	for i, k := range e.Tokens {
		names[i] = k.String()
	}
	switch e.Kind {
	case ExpectedToken:
		return "expected " + strings.Join(names, ", ")
	case UnexpectedToken:
		return "unexpected " + strings.Join(names, ", ")
	case PossibleTokens:
		return "expected one of " + strings.Join(names, ", ")
	}
	return "unknown token"
}

func (e *Error) SourceSpan() span.Span {
	return e.Span
}

func newError(kind ErrorKind, sp span.Span, tokens ...lexer.Kind) *Error {
	return &Error{Kind: kind, Span: sp, Tokens: tokens}
}
