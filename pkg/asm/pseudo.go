package asm

import (
	"fmt"

	"blask/pkg/isa"
)

// Pseudo is a typed instruction before lowering to a binary word.
type Pseudo interface {
	Opcode() isa.Opcode
	Lower() (isa.Instruction, error)
}

// RType is rd = rs1 op rs2.
type RType struct {
	Op           isa.Opcode
	Rd, Rs1, Rs2 Register
}

// IType is rd = rs1 op imm.
type IType struct {
	Op      isa.Opcode
	Rd, Rs1 Register
	Imm     uint16
}

// MemType moves a word between Rd and the buffer at Rs + Offset.
type MemType struct {
	Op     isa.Opcode
	Rd, Rs Register
	Offset uint16
}

// BType compares Rs1 with Rs2 and branches to Offset.
type BType struct {
	Op       isa.Opcode
	Rs1, Rs2 Register
	Offset   int16
}

func (p RType) Opcode() isa.Opcode   { return p.Op }
func (p IType) Opcode() isa.Opcode   { return p.Op }
func (p MemType) Opcode() isa.Opcode { return p.Op }
func (p BType) Opcode() isa.Opcode   { return p.Op }

// widthError reports a register that is valid but too wide for the 4-bit
// instruction fields. Operand is the register's operand position.
type widthError struct {
	reg     Register
	operand int
}

func (e widthError) Error() string {
	return fmt.Sprintf("register %d does not fit a %d-register instruction field", e.reg, EncodableRegisters)
}

// check validates the opcode's layout and that regs, given in operand
// order, fit the encoding.
func check(op isa.Opcode, f isa.Format, regs ...Register) error {
	if err := isa.CheckFormat(op, f); err != nil {
		return err
	}
	for i, r := range regs {
		if !r.Encodable() {
			return widthError{reg: r, operand: i}
		}
	}
	return nil
}

func (p RType) Lower() (isa.Instruction, error) {
	if err := check(p.Op, isa.FormatR, p.Rd, p.Rs1, p.Rs2); err != nil {
		return nil, err
	}
	return isa.NewR(p.Op, uint8(p.Rd), uint8(p.Rs1), uint8(p.Rs2)), nil
}

func (p IType) Lower() (isa.Instruction, error) {
	if err := check(p.Op, isa.FormatI, p.Rd, p.Rs1); err != nil {
		return nil, err
	}
	return isa.NewI(p.Op, uint8(p.Rd), uint8(p.Rs1), p.Imm), nil
}

func (p MemType) Lower() (isa.Instruction, error) {
	if err := check(p.Op, isa.FormatI, p.Rd, p.Rs); err != nil {
		return nil, err
	}
	return isa.NewI(p.Op, uint8(p.Rd), uint8(p.Rs), p.Offset), nil
}

// Lower splits the offset into the 4-bit lower and 12-bit upper fields.
func (p BType) Lower() (isa.Instruction, error) {
	if err := check(p.Op, isa.FormatB, p.Rs1, p.Rs2); err != nil {
		return nil, err
	}
	return isa.NewB(p.Op, uint8(p.Rs1), uint8(p.Rs2), uint16(p.Offset)), nil
}

func (p RType) String() string {
	return fmt.Sprintf("%s %s, %s, %s", p.Op, p.Rd, p.Rs1, p.Rs2)
}

func (p IType) String() string {
	return fmt.Sprintf("%s %s, %s, %d", p.Op, p.Rd, p.Rs1, p.Imm)
}

func (p MemType) String() string {
	return fmt.Sprintf("%s %s, %s, %d", p.Op, p.Rd, p.Rs, p.Offset)
}

func (p BType) String() string {
	return fmt.Sprintf("%s %s, %s, %d", p.Op, p.Rs1, p.Rs2, p.Offset)
}
