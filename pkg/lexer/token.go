package lexer

import (
	"fmt"

	"blask/pkg/span"
)

// Kind identifies the lexical class of a token.
type Kind int

const (
	Comma     Kind = iota // ,
	Comment               // # up to end of line
	Immediate             // optional '-' followed by digits
	Label                 // '@' followed by alphanumerics
	LineFeed              // \n
	Mnemonic              // run of lowercase letters
	Space                 // run of spaces
	Unknown               // any other single character
)

var kindNames = map[Kind]string{
	Comma:     "Comma",
	Comment:   "Comment",
	Immediate: "Immediate",
	Label:     "Label",
	LineFeed:  "LineFeed",
	Mnemonic:  "Mnemonic",
	Space:     "Space",
	Unknown:   "Unknown",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a classified span of the source text.
type Token struct {
	Span span.Span
	Kind Kind
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%s", t.Kind, t.Span)
}
