package cpu

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFramebufferRGBA(t *testing.T) {
	c := NewCPU(nil)
	c.Buf[0] = 0x0F00
	c.Buf[33] = 0x00A5

	pix := c.GetFramebufferRGBA()
	if len(pix) != 32*32*4 {
		t.Fatalf("len = %d; want %d", len(pix), 32*32*4)
	}
	if got := pix[0:4]; got[0] != 0xF0 || got[1] != 0 || got[2] != 0 || got[3] != 0xFF {
		t.Errorf("pixel 0 = %v; want red", got)
	}
	// Word 33 is row 1, column 1.
	p := (1*32 + 1) * 4
	if got := pix[p : p+4]; got[0] != 0 || got[1] != 0xA0 || got[2] != 0x50 {
		t.Errorf("pixel (1,1) = %v; want 00 a0 50", got)
	}
}

func TestFramebufferImage(t *testing.T) {
	c := NewCPU(nil)
	c.Buf[32*31+31] = 0x0FFF
	img := c.GetFramebufferImage()
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Fatalf("bounds = %v; want 32x32", b)
	}
	if got := img.RGBAAt(31, 31); got.R != 0xF0 || got.G != 0xF0 || got.B != 0xF0 {
		t.Errorf("RGBAAt(31,31) = %v; want white", got)
	}
}

func TestSaveScreenshot(t *testing.T) {
	c := NewCPU(nil)
	c.Buf[5] = 0x0123
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := c.SaveScreenshot(path); err != nil {
		t.Fatalf("SaveScreenshot: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	r, g, b, _ := img.At(5, 0).RGBA()
	if r>>8 != 0x10 || g>>8 != 0x20 || b>>8 != 0x30 {
		t.Errorf("pixel (5,0) = %x %x %x; want 10 20 30", r>>8, g>>8, b>>8)
	}
}
