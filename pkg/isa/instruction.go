package isa

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat reports a word whose format tag is 0b11.
	ErrInvalidFormat = errors.New("isa: invalid format tag")
	// ErrFormatMismatch reports an opcode assigned to a layout it does not use.
	ErrFormatMismatch = errors.New("isa: opcode does not match instruction format")
)

// Instruction is one decoded 32-bit word in one of the three layouts.
type Instruction interface {
	Word() uint32
	Opcode() Opcode
	Format() Format
	String() string
}

// FieldError reports access to a field the instruction's layout lacks.
type FieldError struct {
	Field  string
	Format Format
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("isa: %s-format instruction has no %s field", e.Format, e.Field)
}

const (
	opMask   = 0x0000_00FF
	rdShift  = 8
	rs1Shift = 12
	rs2Shift = 16
	immShift = 16
	upShift  = 20
	nibble   = 0xF
)

func field(w uint32, shift uint, mask uint32) uint32 {
	return (w >> shift) & mask
}

func setField(w uint32, shift uint, mask uint32, v uint32) uint32 {
	return w&^(mask<<shift) | (v&mask)<<shift
}

// CheckFormat reports ErrFormatMismatch unless op belongs to layout f.
func CheckFormat(op Opcode, f Format) error {
	if op.Format() != f {
		return fmt.Errorf("%w: %s is %s-format, not %s", ErrFormatMismatch, op, op.Format(), f)
	}
	return nil
}

func setOpcode(w *uint32, want Format, op Opcode) error {
	if err := CheckFormat(op, want); err != nil {
		return err
	}
	*w = *w&^opMask | uint32(op)
	return nil
}

func mustFormat(op Opcode, f Format) {
	if err := CheckFormat(op, f); err != nil {
		panic(err)
	}
}

// RInstruction: opcode[7:0] rd[11:8] rs1[15:12] rs2[19:16], bits 31:20 zero.
type RInstruction uint32

// NewR builds an R-format word. It panics if op is not R-format; use
// CheckFormat first for opcodes of unknown origin.
func NewR(op Opcode, rd, rs1, rs2 uint8) RInstruction {
	mustFormat(op, FormatR)
	i := RInstruction(op)
	i.SetRd(rd)
	i.SetRs1(rs1)
	i.SetRs2(rs2)
	return i
}

func (i RInstruction) Word() uint32   { return uint32(i) }
func (i RInstruction) Opcode() Opcode { return Opcode(i & opMask) }
func (i RInstruction) Format() Format { return FormatR }
func (i RInstruction) Rd() uint8      { return uint8(field(uint32(i), rdShift, nibble)) }
func (i RInstruction) Rs1() uint8     { return uint8(field(uint32(i), rs1Shift, nibble)) }
func (i RInstruction) Rs2() uint8     { return uint8(field(uint32(i), rs2Shift, nibble)) }

func (i *RInstruction) SetRd(r uint8) {
	*i = RInstruction(setField(uint32(*i), rdShift, nibble, uint32(r)))
}

func (i *RInstruction) SetRs1(r uint8) {
	*i = RInstruction(setField(uint32(*i), rs1Shift, nibble, uint32(r)))
}

func (i *RInstruction) SetRs2(r uint8) {
	*i = RInstruction(setField(uint32(*i), rs2Shift, nibble, uint32(r)))
}

func (i *RInstruction) SetOpcode(op Opcode) error {
	return setOpcode((*uint32)(i), FormatR, op)
}

func (i RInstruction) String() string {
	return fmt.Sprintf("%s %d, %d, %d", i.Opcode(), i.Rd(), i.Rs1(), i.Rs2())
}

// IInstruction: opcode[7:0] rd[11:8] rs1[15:12] immediate[31:16].
type IInstruction uint32

// NewI builds an I-format word and panics if op is not I-format.
func NewI(op Opcode, rd, rs1 uint8, imm uint16) IInstruction {
	mustFormat(op, FormatI)
	i := IInstruction(op)
	i.SetRd(rd)
	i.SetRs1(rs1)
	i.SetImmediate(imm)
	return i
}

func (i IInstruction) Word() uint32      { return uint32(i) }
func (i IInstruction) Opcode() Opcode    { return Opcode(i & opMask) }
func (i IInstruction) Format() Format    { return FormatI }
func (i IInstruction) Rd() uint8         { return uint8(field(uint32(i), rdShift, nibble)) }
func (i IInstruction) Rs1() uint8        { return uint8(field(uint32(i), rs1Shift, nibble)) }
func (i IInstruction) Immediate() uint16 { return uint16(field(uint32(i), immShift, 0xFFFF)) }

func (i *IInstruction) SetRd(r uint8) {
	*i = IInstruction(setField(uint32(*i), rdShift, nibble, uint32(r)))
}

func (i *IInstruction) SetRs1(r uint8) {
	*i = IInstruction(setField(uint32(*i), rs1Shift, nibble, uint32(r)))
}

func (i *IInstruction) SetImmediate(v uint16) {
	*i = IInstruction(setField(uint32(*i), immShift, 0xFFFF, uint32(v)))
}

func (i *IInstruction) SetOpcode(op Opcode) error {
	return setOpcode((*uint32)(i), FormatI, op)
}

func (i IInstruction) String() string {
	return fmt.Sprintf("%s %d, %d, %d", i.Opcode(), i.Rd(), i.Rs1(), i.Immediate())
}

// BInstruction: opcode[7:0] lower[11:8] rs1[15:12] rs2[19:16] upper[31:20].
// The branch target is upper<<4 | lower.
type BInstruction uint32

// NewB builds a B-format word and panics if op is not B-format.
func NewB(op Opcode, rs1, rs2 uint8, target uint16) BInstruction {
	mustFormat(op, FormatB)
	i := BInstruction(op)
	i.SetRs1(rs1)
	i.SetRs2(rs2)
	i.SetTarget(target)
	return i
}

func (i BInstruction) Word() uint32   { return uint32(i) }
func (i BInstruction) Opcode() Opcode { return Opcode(i & opMask) }
func (i BInstruction) Format() Format { return FormatB }
func (i BInstruction) Rs1() uint8     { return uint8(field(uint32(i), rs1Shift, nibble)) }
func (i BInstruction) Rs2() uint8     { return uint8(field(uint32(i), rs2Shift, nibble)) }
func (i BInstruction) Lower() uint8   { return uint8(field(uint32(i), rdShift, nibble)) }
func (i BInstruction) Upper() uint16  { return uint16(field(uint32(i), upShift, 0xFFF)) }
func (i BInstruction) Target() uint16 { return JoinTarget(i.Upper(), i.Lower()) }

func (i *BInstruction) SetRs1(r uint8) {
	*i = BInstruction(setField(uint32(*i), rs1Shift, nibble, uint32(r)))
}

func (i *BInstruction) SetRs2(r uint8) {
	*i = BInstruction(setField(uint32(*i), rs2Shift, nibble, uint32(r)))
}

func (i *BInstruction) SetLower(v uint8) {
	*i = BInstruction(setField(uint32(*i), rdShift, nibble, uint32(v)))
}

func (i *BInstruction) SetUpper(v uint16) {
	*i = BInstruction(setField(uint32(*i), upShift, 0xFFF, uint32(v)))
}

func (i *BInstruction) SetTarget(t uint16) {
	upper, lower := SplitTarget(t)
	i.SetUpper(upper)
	i.SetLower(lower)
}

func (i *BInstruction) SetOpcode(op Opcode) error {
	return setOpcode((*uint32)(i), FormatB, op)
}

func (i BInstruction) String() string {
	return fmt.Sprintf("%s %d, %d, %d", i.Opcode(), i.Rs1(), i.Rs2(), int16(i.Target()))
}

// SplitTarget divides a 16-bit branch target into the 12-bit upper field
// (bits 15:4 of the target) and the 4-bit lower field.
func SplitTarget(t uint16) (upper uint16, lower uint8) {
	return (t &^ nibble) >> 4, uint8(t & nibble)
}

// JoinTarget is the inverse of SplitTarget.
func JoinTarget(upper uint16, lower uint8) uint16 {
	return upper<<4 | uint16(lower&nibble)
}

// New returns a zeroed instruction in the layout selected by op.
func New(op Opcode) (Instruction, error) {
	switch op.Format() {
	case FormatR:
		return RInstruction(op), nil
	case FormatI:
		return IInstruction(op), nil
	case FormatB:
		return BInstruction(op), nil
	}
	return nil, fmt.Errorf("%w: opcode %#02x", ErrInvalidFormat, uint8(op))
}

// Decode classifies w by its format tag. Opcode bytes outside the table
// still decode; only the tag is checked.
func Decode(w uint32) (Instruction, error) {
	switch Opcode(w & opMask).Format() {
	case FormatR:
		return RInstruction(w), nil
	case FormatI:
		return IInstruction(w), nil
	case FormatB:
		return BInstruction(w), nil
	}
	return nil, fmt.Errorf("%w: word %#08x", ErrInvalidFormat, w)
}

// MustDecode is Decode for words known to be well formed.
func MustDecode(w uint32) Instruction {
	inst, err := Decode(w)
	if err != nil {
		panic(err)
	}
	return inst
}

// Rd returns the destination register of an R or I instruction.
func Rd(inst Instruction) (uint8, error) {
	switch i := inst.(type) {
	case RInstruction:
		return i.Rd(), nil
	case IInstruction:
		return i.Rd(), nil
	}
	return 0, &FieldError{Field: "rd", Format: inst.Format()}
}

// Rs1 is present in every layout.
func Rs1(inst Instruction) (uint8, error) {
	switch i := inst.(type) {
	case RInstruction:
		return i.Rs1(), nil
	case IInstruction:
		return i.Rs1(), nil
	case BInstruction:
		return i.Rs1(), nil
	}
	return 0, &FieldError{Field: "rs1", Format: inst.Format()}
}

func Rs2(inst Instruction) (uint8, error) {
	switch i := inst.(type) {
	case RInstruction:
		return i.Rs2(), nil
	case BInstruction:
		return i.Rs2(), nil
	}
	return 0, &FieldError{Field: "rs2", Format: inst.Format()}
}

func Immediate(inst Instruction) (uint16, error) {
	if i, ok := inst.(IInstruction); ok {
		return i.Immediate(), nil
	}
	return 0, &FieldError{Field: "immediate", Format: inst.Format()}
}

func Target(inst Instruction) (uint16, error) {
	if i, ok := inst.(BInstruction); ok {
		return i.Target(), nil
	}
	return 0, &FieldError{Field: "target", Format: inst.Format()}
}
