// Package ast resolves syntax nodes into instructions with numeric operands,
// tracking label addresses in a single forward pass.
package ast

import (
	"errors"
	"io"
	"iter"
	"strconv"

	"blask/pkg/isa"
	"blask/pkg/lst"
	"blask/pkg/span"
)

const (
	minImmediate = -32768
	maxImmediate = 65535 // exclusive
)

// Operand is a resolved 16-bit operand value and where it came from.
type Operand struct {
	Value uint16
	Span  span.Span
}

// Instruction is a validated instruction line at a fixed address.
type Instruction struct {
	Span     span.Span
	Address  uint16
	Op       isa.Opcode
	Operands []Operand
}

// Builder pulls lines from the syntax parser. Labels are only resolvable
// once their declaration has been seen.
type Builder struct {
	parser *lst.Parser
	addr   uint16
	labels map[string]uint16
}

func New(src string) *Builder {
	return &Builder{parser: lst.New(src), labels: make(map[string]uint16)}
}

func (b *Builder) Source() string {
	return b.parser.Source()
}

// Labels returns the labels declared so far, keyed by their text including
// the leading '@'.
func (b *Builder) Labels() map[string]uint16 {
	return b.labels
}

// Next returns the next instruction or an *Error, and io.EOF at the end.
// The address advances for every instruction line, even one that fails to
// resolve, so later labels keep their positions.
func (b *Builder) Next() (Instruction, error) {
	src := b.parser.Source()
	for {
		node, err := b.parser.Next()
		if err == io.EOF {
			return Instruction{}, io.EOF
		}
		if err != nil {
			var perr *lst.Error
			sp := span.Span{}
			if errors.As(err, &perr) {
				sp = perr.Span
			}
			return Instruction{}, &Error{Kind: Syntax, Span: sp, Err: err}
		}

		switch node.Kind {
		case lst.EmptyLine:
			continue
		case lst.Label:
			name := node.Span.Text(src)
			if _, dup := b.labels[name]; dup {
				return Instruction{}, &Error{Kind: DuplicateLabel, Span: node.Span}
			}
			b.labels[name] = b.addr
			continue
		}

		addr := b.addr
		b.addr++
		return b.instruction(node, addr)
	}
}

// All yields every instruction or error until end of input.
func (b *Builder) All() iter.Seq2[Instruction, error] {
	return func(yield func(Instruction, error) bool) {
		for {
			inst, err := b.Next()
			if err == io.EOF || !yield(inst, err) {
				return
			}
		}
	}
}

func (b *Builder) instruction(node lst.Node, addr uint16) (Instruction, error) {
	src := b.parser.Source()
	var errs []*Error

	op, ok := isa.Lookup(node.Mnemonic.Text(src))
	if !ok {
		errs = append(errs, &Error{Kind: UnknownInstruction, Span: node.Mnemonic})
	}

	operands := make([]Operand, 0, len(node.Operands))
	for _, o := range node.Operands {
		v, err := b.operand(o)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		operands = append(operands, Operand{Value: v, Span: o.Span})
	}

	if len(errs) > 0 {
		return Instruction{}, &Error{Kind: Multiple, Span: node.Span, Errs: errs}
	}
	return Instruction{Span: node.Span, Address: addr, Op: op, Operands: operands}, nil
}

func (b *Builder) operand(o lst.Operand) (uint16, *Error) {
	text := o.Span.Text(b.parser.Source())
	if o.Kind == lst.LabelOperand {
		addr, ok := b.labels[text]
		if !ok {
			return 0, &Error{Kind: UnknownLabel, Span: o.Span}
		}
		return addr, nil
	}
	return parseImmediate(text, o.Span)
}

func parseImmediate(text string, sp span.Span) (uint16, *Error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil || v < minImmediate || v >= maxImmediate {
		return 0, &Error{Kind: BadImmediate, Span: sp}
	}
	return uint16(v), nil
}
