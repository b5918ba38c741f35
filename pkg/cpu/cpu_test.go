package cpu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"blask/pkg/isa"
)

func prog(insts ...isa.Instruction) []isa.Instruction {
	return insts
}

func TestADDI(t *testing.T) {
	c := NewCPU(prog(isa.NewI(isa.ADDI, 2, 1, 3)))
	c.Regs[1] = 10
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Regs[2] != 13 {
		t.Errorf("r2 = %d; want 13", c.Regs[2])
	}
	if !c.Halted || c.PC != 1 {
		t.Errorf("Halted=%v PC=%d; want halted at 1", c.Halted, c.PC)
	}
}

func TestALU(t *testing.T) {
	tests := []struct {
		op   isa.Opcode
		a, b uint16
		want uint16
	}{
		{isa.ADD, 0xFFFF, 2, 1},
		{isa.SUB, 1, 2, 0xFFFF},
		{isa.OR, 0xF0, 0x0F, 0xFF},
		{isa.AND, 0xF3, 0x3F, 0x33},
		{isa.XOR, 0xFF, 0x0F, 0xF0},
		{isa.SLL, 1, 15, 0x8000},
		{isa.SLL, 1, 16, 0},
		{isa.SRL, 0x8000, 15, 1},
	}
	for _, tc := range tests {
		c := NewCPU(prog(isa.NewR(tc.op, 3, 1, 2)))
		c.Regs[1], c.Regs[2] = tc.a, tc.b
		if err := c.Run(); err != nil {
			t.Fatalf("%v: %v", tc.op, err)
		}
		if c.Regs[3] != tc.want {
			t.Errorf("%v %#x, %#x = %#x; want %#x", tc.op, tc.a, tc.b, c.Regs[3], tc.want)
		}

		// The immediate form computes the same result.
		iop := tc.op | 0b01
		c = NewCPU(prog(isa.NewI(iop, 3, 1, tc.b)))
		c.Regs[1] = tc.a
		if err := c.Run(); err != nil {
			t.Fatalf("%v: %v", iop, err)
		}
		if c.Regs[3] != tc.want {
			t.Errorf("%v %#x, %#x = %#x; want %#x", iop, tc.a, tc.b, c.Regs[3], tc.want)
		}
	}
}

func TestLoadStore(t *testing.T) {
	c := NewCPU(prog(
		isa.NewI(isa.ADDI, 1, 0, 0xABC), // r1 = 0xabc
		isa.NewI(isa.ADDI, 2, 0, 40),    // r2 = 40
		isa.NewI(isa.ADDI, 3, 0, 5),     // r3 = 5
		isa.NewI(isa.ADDI, 4, 0, 6),     // r4 = 6
		isa.NewI(isa.STR, 1, 2, 2),      // buf[42] = r1
		isa.NewI(isa.LD, 3, 2, 2),       // r5 = buf[42]
		isa.NewI(isa.LD, 4, 2, 0xFFFF),  // r6 = buf[39]
	))
	c.Buf[39] = 7
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Buf[42] != 0xABC || c.Regs[5] != 0xABC {
		t.Errorf("buf[42]=%#x r5=%#x; want 0xabc", c.Buf[42], c.Regs[5])
	}
	if c.Regs[6] != 7 {
		t.Errorf("r6 = %d; want 7 from negative offset", c.Regs[6])
	}
	if c.Regs[3] != 5 || c.Regs[4] != 6 {
		t.Errorf("r3=%d r4=%d; want the index registers untouched", c.Regs[3], c.Regs[4])
	}
}

func TestLoadDestinationIsIndirect(t *testing.T) {
	tests := []struct {
		rd, rs1 uint8
		index   uint16 // value held in rd
		want    int    // register that receives the word
	}{
		{1, 2, 5, 5},
		{1, 2, 1, 1},
		{0, 2, 15, 15},
	}
	for _, tc := range tests {
		c := NewCPU(prog(isa.NewI(isa.LD, tc.rd, tc.rs1, 0)))
		c.Regs[tc.rd] = tc.index
		c.Regs[tc.rs1] = 7
		c.Buf[7] = 42
		if err := c.Run(); err != nil {
			t.Fatalf("ld %d, %d: %v", tc.rd, tc.rs1, err)
		}
		if c.Regs[tc.want] != 42 {
			t.Errorf("ld %d, %d with r%d=%d: r%d = %d; want 42", tc.rd, tc.rs1, tc.rd, tc.index, tc.want, c.Regs[tc.want])
		}
	}
}

func TestLoadDestinationOutOfRange(t *testing.T) {
	c := NewCPU(prog(isa.NewI(isa.LD, 0, 1, 0)))
	c.Regs[0] = NumRegs
	if err := c.Step(); !errors.Is(err, ErrBadRegister) {
		t.Errorf("Step() = %v; want ErrBadRegister", err)
	}
}

func TestBufferOutOfRange(t *testing.T) {
	c := NewCPU(prog(isa.NewI(isa.LD, 0, 1, 24)))
	c.Regs[1] = 1000
	if err := c.Step(); !errors.Is(err, ErrBufferOutOfRange) {
		t.Errorf("Step() = %v; want ErrBufferOutOfRange", err)
	}
}

func TestBranchLoop(t *testing.T) {
	// r0 counts up to r1.
	c := NewCPU(prog(
		isa.NewI(isa.ADDI, 1, 1, 5),
		isa.NewI(isa.ADDI, 0, 0, 1),
		isa.NewB(isa.BNE, 0, 1, 1),
		isa.NewB(isa.BE, 0, 1, 4),
		isa.NewI(isa.ADDI, 2, 2, 1),
	))
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Regs[0] != 5 {
		t.Errorf("r0 = %d; want 5", c.Regs[0])
	}
	if c.Regs[2] != 1 {
		t.Errorf("r2 = %d; want 1", c.Regs[2])
	}
	if got := c.Steps(); got != 1+5*2+1+1 {
		t.Errorf("Steps() = %d; want 13", got)
	}
}

func TestStepErrors(t *testing.T) {
	c := NewCPU(prog(isa.NewB(isa.BE, 0, 0, 9)))
	if err := c.Step(); err != nil {
		t.Fatalf("branch: %v", err)
	}
	if err := c.Step(); !errors.Is(err, ErrPCOutOfRange) {
		t.Errorf("Step() past end = %v; want ErrPCOutOfRange", err)
	}

	c = NewCPU(nil)
	if err := c.Step(); !errors.Is(err, ErrHalted) {
		t.Errorf("Step() on empty program = %v; want ErrHalted", err)
	}

	c = NewCPU(prog(isa.NewB(isa.BLT, 0, 1, 0)))
	var uerr *UnsupportedError
	if err := c.Step(); !errors.As(err, &uerr) || uerr.Index != 0 {
		t.Errorf("Step() = %v; want UnsupportedError at 0", err)
	}

	c = NewCPU(prog(isa.RInstruction(0x50)))
	if err := c.Step(); !errors.As(err, &uerr) {
		t.Errorf("Step() on opcode 0x50 = %v; want UnsupportedError", err)
	}
}

func TestExtendedBranches(t *testing.T) {
	tests := []struct {
		op    isa.Opcode
		a, b  uint16
		taken bool
	}{
		{isa.BLT, 0xFFFF, 1, true},
		{isa.BLTU, 0xFFFF, 1, false},
		{isa.BGE, 1, 0xFFFF, true},
		{isa.BGEU, 1, 0xFFFF, false},
		{isa.BGEU, 3, 3, true},
	}
	for _, tc := range tests {
		c := NewCPUWithConfig(prog(isa.NewB(tc.op, 0, 1, 0)), Config{Branches: true})
		c.Regs[0], c.Regs[1] = tc.a, tc.b
		if err := c.Step(); err != nil {
			t.Fatalf("%v: %v", tc.op, err)
		}
		if got := c.PC == 0; got != tc.taken {
			t.Errorf("%v %#x, %#x taken = %v; want %v", tc.op, tc.a, tc.b, got, tc.taken)
		}
	}
}

func TestStepLimit(t *testing.T) {
	loop := prog(isa.NewB(isa.BE, 0, 0, 0))
	c := NewCPUWithConfig(loop, Config{MaxSteps: 100})
	if err := c.Run(); !errors.Is(err, ErrStepLimit) {
		t.Errorf("Run() = %v; want ErrStepLimit", err)
	}
	if c.Steps() != 100 {
		t.Errorf("Steps() = %d; want 100", c.Steps())
	}

	c = NewCPU(prog(isa.NewI(isa.ADDI, 0, 0, 1)))
	if err := c.RunSteps(1); err != nil {
		t.Errorf("RunSteps(1) on one instruction = %v; want nil", err)
	}
}

func TestReset(t *testing.T) {
	c := NewCPU(prog(isa.NewI(isa.ADDI, 0, 0, 1)))
	for range 3 {
		c.Reset()
		if err := c.Run(); err != nil {
			t.Fatal(err)
		}
	}
	if c.Regs[0] != 3 {
		t.Errorf("r0 = %d; want 3 after three runs", c.Regs[0])
	}
	if inst, ok := c.Current(); ok {
		t.Errorf("Current() = %v at end of program", inst)
	}
	c.Reset()
	if inst, ok := c.Current(); !ok || inst.Opcode() != isa.ADDI {
		t.Errorf("Current() after Reset = %v, %v", inst, ok)
	}
}

func TestNewReg(t *testing.T) {
	r, err := NewReg(15)
	if err != nil || r != 15 {
		t.Errorf("NewReg(15) = %v, %v", r, err)
	}
	for _, i := range []int{-1, 16, 31} {
		if _, err := NewReg(i); !errors.Is(err, ErrBadRegister) {
			t.Errorf("NewReg(%d) error = %v; want ErrBadRegister", i, err)
		}
	}
	c := NewCPU(nil)
	c.SetReg(r, 9)
	if c.Reg(r) != 9 || c.Registers()[15] != 9 {
		t.Errorf("SetReg/Reg mismatch")
	}
}

func TestDumpRegisters(t *testing.T) {
	c := NewCPU(prog(isa.NewI(isa.ADDI, 5, 0, 0xBEEF)))
	c.Run()
	var buf bytes.Buffer
	if err := c.DumpRegisters(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "r5  beef") {
		t.Errorf("dump missing r5:\n%s", out)
	}
	if lines := strings.Count(out, "\n"); lines != 5 {
		t.Errorf("dump has %d lines; want 5:\n%s", lines, out)
	}
	if !strings.HasSuffix(out, "pc  1/1  steps 1\n") {
		t.Errorf("dump footer wrong:\n%s", out)
	}
}
