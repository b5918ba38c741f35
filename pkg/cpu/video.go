package cpu

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"blask/pkg/grid"
)

// rgb444ToRGBA expands a 12-bit 0x0RGB buffer word into RGBA bytes.
func rgb444ToRGBA(val uint16) (r, g, b, a byte) {
	r = byte((val>>8)&0xF) << 4
	g = byte((val>>4)&0xF) << 4
	b = byte(val&0xF) << 4
	a = 0xFF
	return
}

// GetFramebufferImage renders the data buffer as a 32×32 image, one pixel
// per word in row-major order.
func (c *CPU) GetFramebufferImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, BufferWidth, BufferHeight))
	for i, word := range c.Buf {
		x, y := grid.GetGridCoords(i, BufferWidth)
		r, g, b, a := rgb444ToRGBA(word)
		img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: a})
	}
	return img
}

// GetFramebufferRGBA returns the framebuffer as RGBA8888 bytes
// (length 32*32*4).
func (c *CPU) GetFramebufferRGBA() []byte {
	return c.GetFramebufferImage().Pix
}

// SaveScreenshot encodes the framebuffer as a PNG and writes it to filename.
func (c *CPU) SaveScreenshot(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, c.GetFramebufferImage()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
