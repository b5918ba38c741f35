package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"blask/pkg/asm"
	"blask/pkg/cpu"
	"blask/pkg/files"
	"blask/pkg/isa"
	"blask/pkg/script"
)

var rootCmd = &cobra.Command{
	Use:   "blask",
	Short: "Assembler and emulator for the blask instruction set",
	Long: `Blask assembles .blasm source into 32-bit instruction words and runs
them on a 16-register machine with a 32x32-word data buffer.

Programs are read by extension: .blasm is assembled, .bin holds
little-endian words and .bits holds one base-2 word per line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var asmCmd = &cobra.Command{
	Use:   "asm sourceFile",
	Short: "Assemble a .blasm file into binary words",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = files.DefaultOutputPath(args[0])
		}
		n, err := assembleFile(args[0], out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "assembled %d instructions -> %s\n", n, out)
		return nil
	},
}

type runOptions struct {
	dumpRegs bool
	maxSteps int
	branches bool
	script   string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run programFile",
	Short: "Run a program until it halts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFile(args[0], runOpts, cmd.OutOrStdout())
	},
}

var disCmd = &cobra.Command{
	Use:   "dis programFile",
	Short: "Disassemble a program, one instruction per line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := files.LoadProgram(args[0])
		if err != nil {
			return err
		}
		return isa.Disassemble(cmd.OutOrStdout(), p.Instructions)
	},
}

func init() {
	asmCmd.Flags().StringP("output", "o", "", "output file (default: input with .bin extension)")

	runCmd.Flags().BoolVar(&runOpts.dumpRegs, "dump-regs", false, "print the register file after the run")
	runCmd.Flags().IntVar(&runOpts.maxSteps, "max-steps", 0, "stop after this many instructions (0 = unbounded)")
	runCmd.Flags().BoolVar(&runOpts.branches, "branches", false, "enable blt, bge, bltu and bgeu")
	runCmd.Flags().StringVar(&runOpts.script, "script", "", "Lua file checked against the final state")

	rootCmd.AddCommand(asmCmd, runCmd, disCmd, dumpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints assembly failures as located diagnostics and anything
// else as a single line.
func reportError(w io.Writer, err error) {
	var serr *files.SourceError
	if errors.As(err, &serr) {
		asm.WriteDiagnostics(w, serr.Path, serr.Source, serr.Err)
		return
	}
	fmt.Fprintf(w, "blask: %v\n", err)
}

func assembleFile(in, out string) (int, error) {
	p, err := files.LoadProgram(in)
	if err != nil {
		return 0, err
	}
	if err := files.WriteBinary(out, p.Instructions); err != nil {
		return 0, fmt.Errorf("failed to write binary file %q: %w", out, err)
	}
	return len(p.Instructions), nil
}

func runFile(path string, opts runOptions, w io.Writer) error {
	p, err := files.LoadProgram(path)
	if err != nil {
		return err
	}

	vm := cpu.NewCPUWithConfig(p.Instructions, cpu.Config{MaxSteps: opts.maxSteps, Branches: opts.branches})
	runErr := vm.Run()

	fmt.Fprintf(w, "run complete (%s): pc=%d/%d steps=%d\n", path, vm.PC, vm.Len(), vm.Steps())
	if opts.dumpRegs {
		vm.DumpRegisters(w)
	}
	if runErr != nil {
		// Report the instruction that failed, or the one that would have
		// run next when the step budget ran out.
		index := vm.PC - 1
		var uerr *cpu.UnsupportedError
		switch {
		case errors.As(runErr, &uerr):
			index = uerr.Index
		case errors.Is(runErr, cpu.ErrStepLimit):
			index = vm.PC
		}
		if line, ok := p.SourceMap[uint16(index)]; ok {
			return fmt.Errorf("%s:%d: %w", path, line, runErr)
		}
		return runErr
	}

	if opts.script != "" {
		return script.RunFile(vm, opts.script)
	}
	return nil
}
