package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"blask/pkg/asm"
	"blask/pkg/cpu"
	"blask/pkg/files"
)

const (
	panelWidth     = 168
	screenshotPath = "blask_screenshot.png"
)

type Game struct {
	vm        *cpu.CPU
	scale     int
	budget    int
	bufferImg *ebiten.Image // reused 32×32 canvas

	status  string
	lastErr error

	clipboardOnce sync.Once
	clipboardOK   bool
}

// tick replays the whole program from the first instruction, as the display
// shows the buffer state at the end of each pass.
func (g *Game) tick() {
	g.vm.Reset()
	err := g.vm.RunSteps(g.budget)
	if errors.Is(err, cpu.ErrStepLimit) {
		err = nil
	}
	g.lastErr = err
}

func (g *Game) initClipboard() bool {
	g.clipboardOnce.Do(func() {
		g.clipboardOK = clipboard.Init() == nil
	})
	return g.clipboardOK
}

// loadSource assembles src and replaces the running program.
func (g *Game) loadSource(src []byte) {
	prog, _, err := asm.Assemble(string(src))
	if err != nil {
		var diag bytes.Buffer
		asm.WriteDiagnostics(&diag, "clipboard", string(src), err)
		log.Print(diag.String())
		g.status = "paste: assembly failed"
		return
	}
	g.vm = cpu.NewCPUWithConfig(prog, g.vm.Config())
	g.status = fmt.Sprintf("pasted %d instructions", len(prog))
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) && g.initClipboard() {
		clipboard.Write(clipboard.FmtText, []byte(registerOverlay(g.vm)))
		g.status = "registers copied"
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) && g.initClipboard() {
		if data := clipboard.Read(clipboard.FmtText); len(data) > 0 {
			g.loadSource(data)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if err := g.vm.SaveScreenshot(screenshotPath); err != nil {
			g.status = "screenshot: " + err.Error()
		} else {
			g.status = "saved " + screenshotPath
		}
	}

	g.tick()
	return nil
}

// registerOverlay renders the register file and run state as the text panel.
func registerOverlay(vm *cpu.CPU) string {
	var b bytes.Buffer
	for i, v := range vm.Registers() {
		fmt.Fprintf(&b, "r%-2d %04x %5d\n", i, v, v)
	}
	fmt.Fprintf(&b, "\npc %d/%d\nsteps %d\n", vm.PC, vm.Len(), vm.Steps())
	return b.String()
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.bufferImg == nil {
		g.bufferImg = ebiten.NewImage(cpu.BufferWidth, cpu.BufferHeight)
	}
	g.bufferImg.WritePixels(g.vm.GetFramebufferRGBA())

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.bufferImg, op)

	face := basicfont.Face7x13
	x := cpu.BufferWidth*g.scale + 8
	text.Draw(screen, registerOverlay(g.vm), face, x, 16, color.White)

	footer := g.status
	if g.lastErr != nil {
		footer = g.lastErr.Error()
	}
	if footer != "" {
		text.Draw(screen, footer, face, 4, cpu.BufferHeight*g.scale-6, color.RGBA{0xff, 0x60, 0x60, 0xff})
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.BufferWidth*g.scale + panelWidth, cpu.BufferHeight * g.scale
}

func main() {
	scale := flag.Int("scale", 12, "pixels per buffer word")
	budget := flag.Int("steps", 100_000, "instructions per frame")
	tps := flag.Int("tps", 30, "frames per second")
	branches := flag.Bool("branches", false, "enable blt, bge, bltu and bgeu")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: desktop [flags] program.{blasm,bin,bits}")
	}

	p, err := files.LoadProgram(flag.Arg(0))
	if err != nil {
		var serr *files.SourceError
		if errors.As(err, &serr) {
			var diag bytes.Buffer
			asm.WriteDiagnostics(&diag, serr.Path, serr.Source, serr.Err)
			log.Fatalf("Assembly failed:\n%s", diag.String())
		}
		log.Fatalf("Failed to load program: %v", err)
	}

	game := &Game{
		vm:     cpu.NewCPUWithConfig(p.Instructions, cpu.Config{Branches: *branches}),
		scale:  *scale,
		budget: *budget,
	}

	w, h := game.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("blask - " + flag.Arg(0))
	ebiten.SetTPS(*tps)
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
