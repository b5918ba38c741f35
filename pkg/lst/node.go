// Package lst groups tokens into line-level syntax nodes without any
// semantic checks.
package lst

import (
	"fmt"
	"strings"

	"blask/pkg/span"
)

type NodeKind int

const (
	EmptyLine NodeKind = iota
	Label
	Instruction
)

func (k NodeKind) String() string {
	switch k {
	case EmptyLine:
		return "EmptyLine"
	case Label:
		return "Label"
	case Instruction:
		return "Instruction"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

type OperandKind int

const (
	ImmediateOperand OperandKind = iota
	LabelOperand
)

func (k OperandKind) String() string {
	if k == LabelOperand {
		return "Label"
	}
	return "Immediate"
}

// Operand is an unresolved operand: the span of a numeric literal or of a
// label reference including its '@'.
type Operand struct {
	Kind OperandKind
	Span span.Span
}

// Node is one parsed line. Mnemonic and Operands are set only for
// Instruction nodes.
type Node struct {
	Kind     NodeKind
	Span     span.Span
	Mnemonic span.Span
	Operands []Operand
}

func (n Node) String() string {
	if n.Kind != Instruction {
		return fmt.Sprintf("%s(%s)", n.Kind, n.Span)
	}
	ops := make([]string, len(n.Operands))
	for i, op := range n.Operands {
		ops[i] = fmt.Sprintf("%s(%s)", op.Kind, op.Span)
	}
	return fmt.Sprintf("Instruction(%s, mnemonic %s, [%s])", n.Span, n.Mnemonic, strings.Join(ops, " "))
}
