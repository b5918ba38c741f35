// Package isa defines the blask instruction set: the opcode table and the
// three 32-bit instruction layouts that share the low opcode byte.
package isa

import "fmt"

// Opcode is the low byte of every instruction word. Its two low bits are the
// format tag.
type Opcode uint8

const (
	ADD Opcode = 0x00
	SUB Opcode = 0x10
	OR  Opcode = 0x20
	AND Opcode = 0x30
	XOR Opcode = 0x40
	SLL Opcode = 0x60
	SRL Opcode = 0x70

	ADDI Opcode = 0x01
	SUBI Opcode = 0x11
	ORI  Opcode = 0x21
	ANDI Opcode = 0x31
	XORI Opcode = 0x41
	SLLI Opcode = 0x61
	SRLI Opcode = 0x71
	LD   Opcode = 0x81
	STR  Opcode = 0x91

	BE   Opcode = 0x02
	BNE  Opcode = 0x12
	BLT  Opcode = 0x42
	BGE  Opcode = 0x52
	BLTU Opcode = 0x62
	BGEU Opcode = 0x72
)

// Format selects one of the physical word layouts.
type Format uint8

const (
	FormatR Format = 0b00
	FormatI Format = 0b01
	FormatB Format = 0b10
)

func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatB:
		return "B"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Format returns the layout selected by the opcode's tag bits.
func (op Opcode) Format() Format {
	return Format(op & 0b11)
}

var opcodeNames = map[Opcode]string{
	ADD: "add", SUB: "sub", OR: "or", AND: "and", XOR: "xor", SLL: "sll", SRL: "srl",
	ADDI: "addi", SUBI: "subi", ORI: "ori", ANDI: "andi", XORI: "xori", SLLI: "slli", SRLI: "srli",
	LD: "ld", STR: "str",
	BE: "be", BNE: "bne", BLT: "blt", BGE: "bge", BLTU: "bltu", BGEU: "bgeu",
}

var mnemonics = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

// Lookup maps a lowercase mnemonic to its opcode.
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := mnemonics[mnemonic]
	return op, ok
}

// Valid reports whether op is in the opcode table.
func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok
}

// Opcodes lists the whole table in ascending byte order.
func Opcodes() []Opcode {
	out := make([]Opcode, 0, len(opcodeNames))
	for i := 0; i < 256; i++ {
		if op := Opcode(i); op.Valid() {
			out = append(out, op)
		}
	}
	return out
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%#02x)", uint8(op))
}
