package main

import (
	"strings"
	"testing"

	"blask/pkg/asm"
	"blask/pkg/cpu"
)

func newGame(t *testing.T, src string, budget int) *Game {
	t.Helper()
	prog, _, err := asm.Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return &Game{vm: cpu.NewCPU(prog), scale: 10, budget: budget}
}

func TestTickReplaysProgram(t *testing.T) {
	// Each pass increments r0 once and writes it to the first word.
	g := newGame(t, "addi 0, 0, 1\nstr 0, 1, 0\n", 100)
	for range 3 {
		g.tick()
	}
	if g.lastErr != nil {
		t.Fatalf("tick: %v", g.lastErr)
	}
	if g.vm.Buffer()[0] != 3 {
		t.Errorf("buffer[0] = %d; want 3 after three frames", g.vm.Buffer()[0])
	}
}

func TestTickToleratesEndlessPrograms(t *testing.T) {
	g := newGame(t, "@spin\nbe 0, 0, @spin\n", 50)
	g.tick()
	if g.lastErr != nil {
		t.Errorf("tick on endless loop = %v; want nil", g.lastErr)
	}
	if g.vm.Steps() != 50 {
		t.Errorf("Steps() = %d; want 50", g.vm.Steps())
	}
}

func TestTickReportsFaults(t *testing.T) {
	g := newGame(t, "blt 0, 1, 0\n", 50)
	g.tick()
	var uerr *cpu.UnsupportedError
	if g.lastErr == nil || !strings.Contains(g.lastErr.Error(), "unsupported") {
		t.Errorf("lastErr = %v; want %T", g.lastErr, uerr)
	}
}

func TestRegisterOverlay(t *testing.T) {
	g := newGame(t, "addi 7, 0, 300\n", 10)
	g.tick()
	text := registerOverlay(g.vm)
	if !strings.Contains(text, "r7  012c   300") {
		t.Errorf("overlay missing r7:\n%s", text)
	}
	if !strings.Contains(text, "pc 1/1") {
		t.Errorf("overlay missing pc:\n%s", text)
	}
}

func TestLoadSource(t *testing.T) {
	g := newGame(t, "addi 0, 0, 1\n", 10)
	g.loadSource([]byte("addi 1, 0, 2\naddi 1, 1, 2\n"))
	if g.vm.Len() != 2 || !strings.HasPrefix(g.status, "pasted 2") {
		t.Errorf("after paste len=%d status=%q", g.vm.Len(), g.status)
	}
	g.loadSource([]byte("nope\n"))
	if g.vm.Len() != 2 || !strings.Contains(g.status, "failed") {
		t.Errorf("bad paste replaced program: len=%d status=%q", g.vm.Len(), g.status)
	}
}

func TestLayout(t *testing.T) {
	g := &Game{scale: 10}
	if w, h := g.Layout(0, 0); w != 320+panelWidth || h != 320 {
		t.Errorf("Layout = %d, %d", w, h)
	}
}
