package ast

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"blask/pkg/isa"
	"blask/pkg/lst"
	"blask/pkg/span"
)

func collect(src string) ([]Instruction, []error) {
	var insts []Instruction
	var errs []error
	for inst, err := range New(src).All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		insts = append(insts, inst)
	}
	return insts, errs
}

func TestBuild(t *testing.T) {
	src := "@label\naddi 0, 1, 2\n# loop back\n\nbgeu 0, 1, @label\n"
	insts, errs := collect(src)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	want := []Instruction{
		{Span: span.New(7, 20), Address: 0, Op: isa.ADDI, Operands: []Operand{
			{0, span.New(12, 13)}, {1, span.New(15, 16)}, {2, span.New(18, 19)},
		}},
		{Span: span.New(33, 51), Address: 1, Op: isa.BGEU, Operands: []Operand{
			{0, span.New(38, 39)}, {1, span.New(41, 42)}, {0, span.New(44, 50)},
		}},
	}
	if !reflect.DeepEqual(insts, want) {
		t.Errorf("build(%q) =\n%v\nwant\n%v", src, insts, want)
	}
}

func TestLabelAddresses(t *testing.T) {
	b := New("@a\n# c\n@b\nadd 0, 0, 0\n\nadd 0, 0, 0\n@c\nadd 0, 0, 0\n@end\n")
	for _, err := range b.All() {
		if err != nil {
			t.Fatal(err)
		}
	}
	want := map[string]uint16{"@a": 0, "@b": 0, "@c": 2, "@end": 3}
	if !reflect.DeepEqual(b.Labels(), want) {
		t.Errorf("Labels() = %v; want %v", b.Labels(), want)
	}
}

func TestImmediateRange(t *testing.T) {
	tests := []struct {
		text string
		want uint16
		ok   bool
	}{
		{"0", 0, true},
		{"65534", 65534, true},
		{"65535", 0, false},
		{"-32768", 0x8000, true},
		{"-32769", 0, false},
		{"-1", 0xFFFF, true},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range tests {
		got, err := parseImmediate(tc.text, span.Span{})
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("parseImmediate(%q) = %v, %v; want %v, ok=%v", tc.text, got, err, tc.want, tc.ok)
		}
	}
}

func TestDuplicateLabel(t *testing.T) {
	_, errs := collect("@x\n@x\n")
	if len(errs) != 1 {
		t.Fatalf("errors = %v; want one", errs)
	}
	var aerr *Error
	if !errors.As(errs[0], &aerr) || aerr.Kind != DuplicateLabel {
		t.Fatalf("error = %v; want DuplicateLabel", errs[0])
	}
	if aerr.Span != span.New(3, 5) {
		t.Errorf("DuplicateLabel span = %v; want 3..5", aerr.Span)
	}
}

func TestForwardReferenceFails(t *testing.T) {
	_, errs := collect("bne 0, 1, @fwd\naddi 0,0,1\n@fwd\n")
	if len(errs) != 1 {
		t.Fatalf("errors = %v; want one", errs)
	}
	var aerr *Error
	if !errors.As(errs[0], &aerr) {
		t.Fatalf("error %T is not *Error", errs[0])
	}
	leaves := aerr.Flatten()
	if len(leaves) != 1 || leaves[0].Kind != UnknownLabel || leaves[0].Span != span.New(10, 14) {
		t.Errorf("leaves = %v; want UnknownLabel at 10..14", leaves)
	}
}

func TestAggregatesLineErrors(t *testing.T) {
	_, errs := collect("mul 0, 70000, @nope\n")
	if len(errs) != 1 {
		t.Fatalf("errors = %v; want one", errs)
	}
	aerr := errs[0].(*Error)
	if aerr.Kind != Multiple || aerr.Span != span.New(0, 20) {
		t.Fatalf("error = %v (%v); want Multiple at 0..20", aerr, aerr.Span)
	}
	var kinds []ErrorKind
	for _, e := range aerr.Flatten() {
		kinds = append(kinds, e.Kind)
	}
	want := []ErrorKind{UnknownInstruction, BadImmediate, UnknownLabel}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds = %v; want %v", kinds, want)
	}
}

func TestAddressAdvancesPastBadLine(t *testing.T) {
	b := New("nop\n@after\nadd 0, 0, 0\n")
	for range b.All() {
	}
	if got := b.Labels()["@after"]; got != 1 {
		t.Errorf("@after = %d; want 1", got)
	}
}

func TestSyntaxErrorWrapped(t *testing.T) {
	b := New("add 0,\nadd 1, 2, 3\n")
	_, err := b.Next()
	var perr *lst.Error
	if !errors.As(err, &perr) || perr.Kind != lst.PossibleTokens {
		t.Fatalf("Next() error = %v; want wrapped PossibleTokens", err)
	}
	if err.(*Error).Kind != Syntax {
		t.Errorf("kind = %v; want Syntax", err.(*Error).Kind)
	}
	inst, err := b.Next()
	if err != nil || inst.Op != isa.ADD {
		t.Errorf("second Next() = %v, %v; want add", inst, err)
	}
	if _, err := b.Next(); err != io.EOF {
		t.Errorf("Next() at end = %v; want io.EOF", err)
	}
}
