package asm

import (
	"errors"
	"strconv"
)

// NumRegisters is the size of the architectural register file an operand may
// name. Only the first EncodableRegisters fit the 4-bit instruction fields.
const (
	NumRegisters       = 32
	EncodableRegisters = 16
)

var errRegisterRange = errors.New("register out of range")

// Register is a validated register index.
type Register uint8

// NewRegister validates v as a register index in [0, NumRegisters).
func NewRegister(v uint16) (Register, error) {
	if v >= NumRegisters {
		return 0, errRegisterRange
	}
	return Register(v), nil
}

// Encodable reports whether r fits an instruction register field.
func (r Register) Encodable() bool {
	return r < EncodableRegisters
}

func (r Register) String() string {
	return strconv.Itoa(int(r))
}
