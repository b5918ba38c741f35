package main

import (
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"blask/pkg/ast"
	"blask/pkg/lexer"
	"blask/pkg/lst"
)

var dumpCmd = &cobra.Command{
	Use:   "dump sourceFile",
	Short: "Pretty-print one pipeline stage of a .blasm file",
	Long: `Dump shows how the assembler sees a source file. --stage selects the
token stream (tokens), the line syntax nodes (lst) or the resolved
instructions (ast).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, _ := cmd.Flags().GetString("stage")
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		color := cmd.OutOrStdout() == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
		return dumpStage(cmd.OutOrStdout(), string(src), stage, color)
	},
}

func init() {
	dumpCmd.Flags().String("stage", "ast", "pipeline stage: tokens, lst or ast")
}

func dumpStage(w io.Writer, src, stage string, color bool) error {
	printer := pp.New()
	printer.SetColoringEnabled(color)

	switch stage {
	case "tokens":
		for tok := range lexer.New(src).All() {
			fmt.Fprintf(w, "%-10s %-8s %q\n", tok.Kind, tok.Span, tok.Span.Text(src))
		}
	case "lst":
		for node, err := range lst.New(src).All() {
			if err != nil {
				fmt.Fprintln(w, err)
				continue
			}
			printer.Fprintln(w, node)
		}
	case "ast":
		b := ast.New(src)
		for inst, err := range b.All() {
			if err != nil {
				fmt.Fprintln(w, err)
				continue
			}
			printer.Fprintln(w, inst)
		}
		printer.Fprintln(w, b.Labels())
	default:
		return fmt.Errorf("unknown stage %q (want tokens, lst or ast)", stage)
	}
	return nil
}
