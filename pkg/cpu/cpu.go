// Package cpu executes decoded blask programs against a 16-register machine
// with a 32×32-word data buffer.
package cpu

import (
	"errors"
	"fmt"
	"io"

	"blask/pkg/isa"
)

const (
	NumRegs      = 16
	BufferWidth  = 32
	BufferHeight = 32
	BufferSize   = BufferWidth * BufferHeight
)

var (
	// ErrHalted is returned by Step once the next index equals the program
	// length.
	ErrHalted = errors.New("cpu: halted")
	// ErrPCOutOfRange reports a next index beyond the end of the program,
	// reachable only through a branch.
	ErrPCOutOfRange     = errors.New("cpu: program counter out of range")
	ErrBufferOutOfRange = errors.New("cpu: buffer address out of range")
	ErrStepLimit        = errors.New("cpu: step limit reached")
	ErrBadRegister      = errors.New("cpu: register index out of range")
)

// UnsupportedError reports an instruction the engine has no behaviour for.
type UnsupportedError struct {
	Index int
	Inst  isa.Instruction
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("cpu: unsupported instruction %q (%08x) at %d", e.Inst, e.Inst.Word(), e.Index)
}

// Reg is a checked register index.
type Reg uint8

func NewReg(i int) (Reg, error) {
	if i < 0 || i >= NumRegs {
		return 0, fmt.Errorf("%w: %d", ErrBadRegister, i)
	}
	return Reg(i), nil
}

// Config tunes engine limits.
type Config struct {
	// MaxSteps bounds Run; zero means unbounded.
	MaxSteps int
	// Branches enables BLT, BGE, BLTU and BGEU. Without it only BE and BNE
	// execute and the others are unsupported.
	Branches bool
}

type CPU struct {
	Regs [NumRegs]uint16
	Buf  [BufferSize]uint16

	// PC is the index of the next instruction in Program.
	PC      int
	Halted  bool
	Program []isa.Instruction

	steps  uint64
	config Config
}

func NewCPU(prog []isa.Instruction) *CPU {
	return NewCPUWithConfig(prog, Config{})
}

func NewCPUWithConfig(prog []isa.Instruction, cfg Config) *CPU {
	return &CPU{Program: prog, config: cfg, Halted: len(prog) == 0}
}

func (c *CPU) Config() Config {
	return c.config
}

func (c *CPU) Reg(r Reg) uint16 {
	return c.Regs[r]
}

func (c *CPU) SetReg(r Reg, v uint16) {
	c.Regs[r] = v
}

// Registers returns a copy of the register file.
func (c *CPU) Registers() [NumRegs]uint16 {
	return c.Regs
}

// Buffer exposes the data buffer as a flat word slice.
func (c *CPU) Buffer() []uint16 {
	return c.Buf[:]
}

// Steps counts the instructions executed since construction.
func (c *CPU) Steps() uint64 {
	return c.steps
}

// Len is the program length in instructions.
func (c *CPU) Len() int {
	return len(c.Program)
}

// Current returns the instruction Step will execute next.
func (c *CPU) Current() (isa.Instruction, bool) {
	if c.PC < 0 || c.PC >= len(c.Program) {
		return nil, false
	}
	return c.Program[c.PC], true
}

// Reset rewinds to the first instruction. Registers and the buffer keep
// their contents.
func (c *CPU) Reset() {
	c.PC = 0
	c.Halted = len(c.Program) == 0
}

// Step fetches the instruction at PC, advances PC, then executes it.
func (c *CPU) Step() error {
	if c.PC == len(c.Program) {
		c.Halted = true
		return ErrHalted
	}
	if c.PC < 0 || c.PC > len(c.Program) {
		return fmt.Errorf("%w: %d of %d", ErrPCOutOfRange, c.PC, len(c.Program))
	}

	index := c.PC
	inst := c.Program[index]
	c.PC++
	c.steps++

	var err error
	switch i := inst.(type) {
	case isa.RInstruction:
		err = c.execR(i)
	case isa.IInstruction:
		err = c.execI(i)
	case isa.BInstruction:
		err = c.execB(i)
	default:
		err = errUnsupported
	}
	if errors.Is(err, errUnsupported) {
		return &UnsupportedError{Index: index, Inst: inst}
	}
	if err != nil {
		return fmt.Errorf("instruction %d (%s): %w", index, inst, err)
	}
	if c.PC == len(c.Program) {
		c.Halted = true
	}
	return nil
}

var errUnsupported = errors.New("unsupported")

func alu(op isa.Opcode, a, b uint16) (uint16, bool) {
	switch op {
	case isa.ADD, isa.ADDI:
		return a + b, true
	case isa.SUB, isa.SUBI:
		return a - b, true
	case isa.OR, isa.ORI:
		return a | b, true
	case isa.AND, isa.ANDI:
		return a & b, true
	case isa.XOR, isa.XORI:
		return a ^ b, true
	case isa.SLL, isa.SLLI:
		return a << b, true
	case isa.SRL, isa.SRLI:
		return a >> b, true
	}
	return 0, false
}

func (c *CPU) execR(i isa.RInstruction) error {
	v, ok := alu(i.Opcode(), c.Regs[i.Rs1()], c.Regs[i.Rs2()])
	if !ok {
		return errUnsupported
	}
	c.Regs[i.Rd()] = v
	return nil
}

func (c *CPU) execI(i isa.IInstruction) error {
	switch i.Opcode() {
	case isa.LD:
		addr, err := c.address(i.Rs1(), i.Immediate())
		if err != nil {
			return err
		}
		// The destination is the register whose index rd holds.
		dst := c.Regs[i.Rd()]
		if dst >= NumRegs {
			return fmt.Errorf("%w: r%d holds %d", ErrBadRegister, i.Rd(), dst)
		}
		c.Regs[dst] = c.Buf[addr]
		return nil
	case isa.STR:
		addr, err := c.address(i.Rs1(), i.Immediate())
		if err != nil {
			return err
		}
		c.Buf[addr] = c.Regs[i.Rd()]
		return nil
	}
	v, ok := alu(i.Opcode(), c.Regs[i.Rs1()], i.Immediate())
	if !ok {
		return errUnsupported
	}
	c.Regs[i.Rd()] = v
	return nil
}

// address computes base register + offset with 16-bit wraparound, so an
// offset of 0xFFFF reads the word below the base.
func (c *CPU) address(base uint8, offset uint16) (int, error) {
	addr := int(c.Regs[base] + offset)
	if addr >= BufferSize {
		return 0, fmt.Errorf("%w: %d", ErrBufferOutOfRange, addr)
	}
	return addr, nil
}

func (c *CPU) execB(i isa.BInstruction) error {
	a, b := c.Regs[i.Rs1()], c.Regs[i.Rs2()]
	var taken bool
	switch op := i.Opcode(); {
	case op == isa.BE:
		taken = a == b
	case op == isa.BNE:
		taken = a != b
	case !c.config.Branches:
		return errUnsupported
	case op == isa.BLT:
		taken = int16(a) < int16(b)
	case op == isa.BGE:
		taken = int16(a) >= int16(b)
	case op == isa.BLTU:
		taken = a < b
	case op == isa.BGEU:
		taken = a >= b
	default:
		return errUnsupported
	}
	if taken {
		c.PC = int(i.Target())
	}
	return nil
}

// Run steps until the program halts, honouring Config.MaxSteps.
func (c *CPU) Run() error {
	if c.config.MaxSteps > 0 {
		return c.RunSteps(c.config.MaxSteps)
	}
	for {
		if err := c.Step(); err != nil {
			if errors.Is(err, ErrHalted) {
				return nil
			}
			return err
		}
	}
}

// RunSteps executes at most limit instructions and returns ErrStepLimit if
// the program has not halted by then.
func (c *CPU) RunSteps(limit int) error {
	for n := 0; n < limit; n++ {
		if err := c.Step(); err != nil {
			if errors.Is(err, ErrHalted) {
				return nil
			}
			return err
		}
	}
	if c.PC == len(c.Program) {
		return nil
	}
	return ErrStepLimit
}

// DumpRegisters writes the register file, four registers per line.
func (c *CPU) DumpRegisters(w io.Writer) error {
	for i, v := range c.Regs {
		sep := "  "
		if i%4 == 3 {
			sep = "\n"
		}
		if _, err := fmt.Fprintf(w, "r%-2d %04x%s", i, v, sep); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "pc  %d/%d  steps %d\n", c.PC, len(c.Program), c.steps)
	return err
}
