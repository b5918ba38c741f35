package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"blask/pkg/cpu"
	"blask/pkg/files"
)

const help = `commands:
  n [count]    step one or count instructions
  p            print registers
  m addr [n]   print n buffer words starting at addr
  r            run to the end
  reset        rewind to the first instruction
  save file    hibernate the machine to file
  load file    restore the machine from file
  q            quit
`

// debugger holds one interactive session over a loaded program.
type debugger struct {
	vm        *cpu.CPU
	sourceMap map[uint16]int
	out       io.Writer
}

func (d *debugger) where(index int) string {
	if line, ok := d.sourceMap[uint16(index)]; ok {
		return fmt.Sprintf("%04d (line %d)", index, line)
	}
	return fmt.Sprintf("%04d", index)
}

func (d *debugger) step() error {
	inst, ok := d.vm.Current()
	index := d.vm.PC
	if err := d.vm.Step(); err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(d.out, "%s  %s\n", d.where(index), inst)
	}
	return nil
}

// exec runs one command line. quit is true when the session should end.
func (d *debugger) exec(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		fields = []string{"n"}
	}
	arg := func(i, def int) (int, error) {
		if len(fields) <= i {
			return def, nil
		}
		return strconv.Atoi(fields[i])
	}

	switch fields[0] {
	case "n", "next":
		count, err := arg(1, 1)
		if err != nil {
			return false, err
		}
		for range count {
			if err := d.step(); err != nil {
				return false, err
			}
		}
	case "p", "regs":
		return false, d.vm.DumpRegisters(d.out)
	case "m", "mem":
		addr, err := arg(1, 0)
		if err != nil {
			return false, err
		}
		n, err := arg(2, 8)
		if err != nil {
			return false, err
		}
		buf := d.vm.Buffer()
		if addr < 0 || addr+n > len(buf) || n < 0 {
			return false, fmt.Errorf("range %d+%d outside buffer", addr, n)
		}
		for i, w := range buf[addr : addr+n] {
			fmt.Fprintf(d.out, "%04d  %04x\n", addr+i, w)
		}
	case "r", "run":
		if err := d.vm.Run(); err != nil {
			return false, err
		}
		fmt.Fprintf(d.out, "halted after %d steps\n", d.vm.Steps())
	case "reset":
		d.vm.Reset()
	case "save":
		if len(fields) < 2 {
			return false, errors.New("save needs a file name")
		}
		return false, d.vm.HibernateToFile(fields[1])
	case "load":
		if len(fields) < 2 {
			return false, errors.New("load needs a file name")
		}
		vm, err := cpu.RestoreFromFile(fields[1])
		if err != nil {
			return false, err
		}
		d.vm = vm
		d.sourceMap = nil
	case "q", "quit":
		return true, nil
	case "h", "help":
		fmt.Fprint(d.out, help)
	default:
		return false, fmt.Errorf("unknown command %q (h for help)", fields[0])
	}
	return false, nil
}

// lineReader yields input lines from either a raw-mode terminal or a plain
// stream.
type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct {
	sc *bufio.Scanner
}

func (s scannerReader) ReadLine() (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

func (d *debugger) loop(in lineReader) {
	for {
		line, err := in.ReadLine()
		if err != nil {
			return
		}
		quit, err := d.exec(line)
		if err != nil {
			fmt.Fprintf(d.out, "error: %v\n", err)
		}
		if quit {
			return
		}
	}
}

func main() {
	maxSteps := flag.Int("max-steps", 1_000_000, "step budget for the run command")
	branches := flag.Bool("branches", false, "enable blt, bge, bltu and bgeu")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: console [flags] program.{blasm,bin,bits}")
	}

	p, err := files.LoadProgram(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to load program: %v", err)
	}
	vm := cpu.NewCPUWithConfig(p.Instructions, cpu.Config{MaxSteps: *maxSteps, Branches: *branches})

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		d := &debugger{vm: vm, sourceMap: p.SourceMap, out: os.Stdout}
		d.loop(scannerReader{bufio.NewScanner(os.Stdin)})
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatalf("Failed to enter raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "blask> ")
	fmt.Fprintf(t, "%s: %d instructions, h for help\n", p.Path, len(p.Instructions))
	d := &debugger{vm: vm, sourceMap: p.SourceMap, out: t}
	d.loop(t)
}
