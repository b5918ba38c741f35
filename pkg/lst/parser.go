package lst

import (
	"io"
	"iter"

	"blask/pkg/lexer"
	"blask/pkg/span"
)

// Parser pulls tokens from a lexer and produces one Node per line.
type Parser struct {
	lex *lexer.Lexer
}

func New(src string) *Parser {
	return &Parser{lex: lexer.New(src)}
}

func (p *Parser) Source() string {
	return p.lex.Source()
}

// Next returns the next node, a *Error for a malformed line, or io.EOF once
// the input is exhausted. After an error the rest of the offending line is
// discarded so parsing can continue on the following line.
func (p *Parser) Next() (Node, error) {
	// A stray leading immediate is tolerated and dropped.
	p.accept(lexer.Immediate)

	tok, ok := p.lex.Next()
	if !ok {
		return Node{}, io.EOF
	}

	var node Node
	var err error
	switch tok.Kind {
	case lexer.Label:
		node = Node{Kind: Label, Span: tok.Span}
	case lexer.LineFeed, lexer.Comment:
		node = Node{Kind: EmptyLine, Span: tok.Span}
	case lexer.Mnemonic:
		node, err = p.instruction(tok)
	default:
		err = newError(UnexpectedToken, tok.Span, tok.Kind)
	}
	if err != nil {
		p.skipLine()
		return Node{}, err
	}
	return node, nil
}

// All yields every node or error until end of input.
func (p *Parser) All() iter.Seq2[Node, error] {
	return func(yield func(Node, error) bool) {
		for {
			n, err := p.Next()
			if err == io.EOF || !yield(n, err) {
				return
			}
		}
	}
}

func (p *Parser) instruction(mnemonic lexer.Token) (Node, error) {
	node := Node{Kind: Instruction, Mnemonic: mnemonic.Span}

	if p.accept(lexer.Space) {
		if op, ok := p.operand(); ok {
			node.Operands = append(node.Operands, op)
			for {
				// A space alone ends the list; operands are comma separated.
				p.accept(lexer.Space)
				if !p.accept(lexer.Comma) {
					break
				}
				p.accept(lexer.Space)
				op, ok := p.operand()
				if !ok {
					return Node{}, newError(PossibleTokens, p.here(), lexer.Immediate, lexer.Label)
				}
				node.Operands = append(node.Operands, op)
			}
		}
	}

	p.accept(lexer.Space)
	p.accept(lexer.Comment)

	lf, ok := p.lex.Peek()
	if !ok || lf.Kind != lexer.LineFeed {
		return Node{}, newError(ExpectedToken, p.here(), lexer.LineFeed)
	}
	p.lex.Next()
	node.Span = mnemonic.Span.Join(lf.Span)
	return node, nil
}

func (p *Parser) operand() (Operand, bool) {
	tok, ok := p.lex.Peek()
	if !ok {
		return Operand{}, false
	}
	switch tok.Kind {
	case lexer.Immediate:
		p.lex.Next()
		return Operand{Kind: ImmediateOperand, Span: tok.Span}, true
	case lexer.Label:
		p.lex.Next()
		return Operand{Kind: LabelOperand, Span: tok.Span}, true
	}
	return Operand{}, false
}

// here is the span of the upcoming token, or the empty position past the
// end of input.
func (p *Parser) here() span.Span {
	if tok, ok := p.lex.Peek(); ok {
		return tok.Span
	}
	return span.At(len(p.lex.Source()))
}

// accept consumes the next token if it has the given kind.
func (p *Parser) accept(kind lexer.Kind) bool {
	tok, ok := p.lex.Peek()
	if !ok || tok.Kind != kind {
		return false
	}
	p.lex.Next()
	return true
}

// skipLine discards tokens up to and including the next line feed.
func (p *Parser) skipLine() {
	for {
		tok, ok := p.lex.Next()
		if !ok || tok.Kind == lexer.LineFeed {
			return
		}
	}
}
