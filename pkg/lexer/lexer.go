// Package lexer splits blask assembly source into classified tokens.
package lexer

import (
	"iter"
	"unicode/utf8"

	"blask/pkg/span"
)

// Lexer holds the cursor for a single forward scan over src. A Lexer is not
// restartable; construct a new one to scan again.
type Lexer struct {
	src    string
	pos    int // byte offset of the next character to consume
	peeked *Token
}

func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Source returns the text being scanned.
func (l *Lexer) Source() string {
	return l.src
}

// Index is the byte offset where the next token will start.
func (l *Lexer) Index() int {
	if l.peeked != nil {
		return l.peeked.Span.Start
	}
	return l.pos
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, bool) {
	if l.peeked == nil {
		tok, ok := l.scan()
		if !ok {
			return Token{}, false
		}
		l.peeked = &tok
	}
	return *l.peeked, true
}

// Next consumes and returns the next token. ok is false at end of input.
func (l *Lexer) Next() (Token, bool) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, true
	}
	return l.scan()
}

// All yields the remaining tokens.
func (l *Lexer) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			tok, ok := l.Next()
			if !ok || !yield(tok) {
				return
			}
		}
	}
}

// Tokenize scans the whole of src.
func Tokenize(src string) []Token {
	var out []Token
	for tok := range New(src).All() {
		out = append(out, tok)
	}
	return out
}

func (l *Lexer) peekByte(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) takeWhile(pred func(byte) bool) {
	for l.pos < len(l.src) && pred(l.src[l.pos]) {
		l.pos++
	}
}

// scan classifies the token at the cursor. Every call that is not at end of
// input consumes at least one byte.
func (l *Lexer) scan() (Token, bool) {
	if l.pos >= len(l.src) {
		return Token{}, false
	}
	start := l.pos
	c := l.src[l.pos]

	var kind Kind
	switch {
	case c == ' ':
		l.takeWhile(func(b byte) bool { return b == ' ' })
		kind = Space
	case c == ',':
		l.pos++
		kind = Comma
	case c == '\n':
		l.pos++
		kind = LineFeed
	case c == '#':
		l.takeWhile(func(b byte) bool { return b != '\n' })
		kind = Comment
	case isDigit(c), c == '-' && isDigit(l.peekByte(1)):
		l.pos++
		l.takeWhile(isDigit)
		kind = Immediate
	case c == '@' && isAlnum(l.peekByte(1)):
		l.pos++
		l.takeWhile(isAlnum)
		kind = Label
	case isLower(c):
		l.takeWhile(isLower)
		kind = Mnemonic
	default:
		_, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
		kind = Unknown
	}
	return Token{Span: span.New(start, l.pos), Kind: kind}, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isLower(b byte) bool { return b >= 'a' && b <= 'z' }

func isAlnum(b byte) bool {
	return isDigit(b) || isLower(b) || (b >= 'A' && b <= 'Z')
}
