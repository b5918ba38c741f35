package isa

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated reports a byte stream whose length is not a multiple of four.
var ErrTruncated = errors.New("isa: program length is not a multiple of 4 bytes")

// EncodeProgram packs instructions as little-endian 32-bit words with no
// header or padding.
func EncodeProgram(prog []Instruction) []byte {
	out := make([]byte, 4*len(prog))
	for i, inst := range prog {
		binary.LittleEndian.PutUint32(out[4*i:], inst.Word())
	}
	return out
}

// DecodeProgram is the inverse of EncodeProgram.
func DecodeProgram(b []byte) ([]Instruction, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrTruncated, len(b))
	}
	prog := make([]Instruction, 0, len(b)/4)
	for i := 0; i < len(b); i += 4 {
		inst, err := Decode(binary.LittleEndian.Uint32(b[i:]))
		if err != nil {
			return nil, fmt.Errorf("word %d: %w", i/4, err)
		}
		prog = append(prog, inst)
	}
	return prog, nil
}

// WriteProgram writes prog to w in the EncodeProgram layout.
func WriteProgram(w io.Writer, prog []Instruction) error {
	_, err := w.Write(EncodeProgram(prog))
	return err
}

// ReadProgram reads words from r until EOF.
func ReadProgram(r io.Reader) ([]Instruction, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeProgram(b)
}

// Disassemble renders one line per instruction, prefixed by its index.
func Disassemble(w io.Writer, prog []Instruction) error {
	for i, inst := range prog {
		if _, err := fmt.Fprintf(w, "%04d  %08x  %s\n", i, inst.Word(), inst); err != nil {
			return err
		}
	}
	return nil
}
