// Package asm turns blask assembly source into binary instructions.
package asm

import (
	"errors"
	"io"

	"blask/pkg/ast"
	"blask/pkg/isa"
	"blask/pkg/span"
)

// Line is one assembled statement. Operands holds the span of each
// operand in source order.
type Line struct {
	Address  uint16
	Span     span.Span
	Operands []span.Span
	Pseudo   Pseudo
}

// Assembler converts AST instructions into pseudo-instructions one at a time.
type Assembler struct {
	builder *ast.Builder
}

func New(src string) *Assembler {
	return &Assembler{builder: ast.New(src)}
}

func (a *Assembler) Source() string {
	return a.builder.Source()
}

// Labels returns the label table built so far.
func (a *Assembler) Labels() map[string]uint16 {
	return a.builder.Labels()
}

// Next returns the next pseudo-instruction, an *Error, or io.EOF.
func (a *Assembler) Next() (Line, error) {
	inst, err := a.builder.Next()
	if err == io.EOF {
		return Line{}, io.EOF
	}
	if err != nil {
		var aerr *ast.Error
		sp := span.Span{}
		if errors.As(err, &aerr) {
			sp = aerr.Span
		}
		return Line{}, &Error{Kind: AST, Span: sp, Err: err}
	}
	p, err := FromAST(inst)
	if err != nil {
		return Line{}, err
	}
	ops := make([]span.Span, len(inst.Operands))
	for i, o := range inst.Operands {
		ops[i] = o.Span
	}
	return Line{Address: inst.Address, Span: inst.Span, Operands: ops, Pseudo: p}, nil
}

// operandCount is the same for every opcode class.
const operandCount = 3

// FromAST maps operand positions to registers and immediates according to
// the opcode's class.
func FromAST(inst ast.Instruction) (Pseudo, error) {
	ops := inst.Operands
	if len(ops) != operandCount {
		return nil, &Error{Kind: WrongOperandCount, Span: inst.Span, Want: operandCount}
	}

	nregs := 2
	if inst.Op.Format() == isa.FormatR {
		nregs = 3
	}
	r := make([]Register, nregs)
	for i := range r {
		reg, err := NewRegister(ops[i].Value)
		if err != nil {
			return nil, &Error{Kind: InvalidRegister, Span: ops[i].Span, Err: err}
		}
		r[i] = reg
	}

	switch {
	case inst.Op == isa.LD || inst.Op == isa.STR:
		return MemType{Op: inst.Op, Rd: r[0], Rs: r[1], Offset: ops[2].Value}, nil
	case inst.Op.Format() == isa.FormatR:
		return RType{Op: inst.Op, Rd: r[0], Rs1: r[1], Rs2: r[2]}, nil
	case inst.Op.Format() == isa.FormatI:
		return IType{Op: inst.Op, Rd: r[0], Rs1: r[1], Imm: ops[2].Value}, nil
	}
	return BType{Op: inst.Op, Rs1: r[0], Rs2: r[1], Offset: int16(ops[2].Value)}, nil
}

// Lower encodes one line. An unencodable register is reported at its
// operand when the line carries operand spans, at the whole line otherwise.
func Lower(l Line) (isa.Instruction, error) {
	inst, err := l.Pseudo.Lower()
	if err == nil {
		return inst, nil
	}
	if errors.Is(err, isa.ErrFormatMismatch) {
		return nil, &Error{Kind: FormatMismatch, Span: l.Span, Err: err}
	}
	sp := l.Span
	var werr widthError
	if errors.As(err, &werr) && werr.operand < len(l.Operands) {
		sp = l.Operands[werr.operand]
	}
	return nil, &Error{Kind: InvalidRegister, Span: sp, Err: err}
}

// Assemble runs the whole pipeline over src. The source map sends each
// instruction address to its 1-based source line. Every error is collected
// into an ErrorList; no instructions are returned when it is non-empty.
func Assemble(src string) ([]isa.Instruction, map[uint16]int, error) {
	a := New(src)
	var prog []isa.Instruction
	sourceMap := make(map[uint16]int)
	var errs ErrorList

	for {
		line, err := a.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.(*Error))
			continue
		}
		inst, err := Lower(line)
		if err != nil {
			errs = append(errs, err.(*Error))
			continue
		}
		prog = append(prog, inst)
		sourceMap[line.Address] = span.Locate(src, line.Span.Start).Line
	}

	if len(errs) > 0 {
		return nil, nil, errs
	}
	return prog, sourceMap, nil
}
