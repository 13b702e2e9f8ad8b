// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termpanel implements an RGB565 panel that outputs to the terminal
// (stdout) using ANSI 256 colors codes.
//
// Useful to preview what the LCD shows before it is wired.
package termpanel

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this panel.
type Opts struct {
	W, H int
	// Scale is the number of panel pixels, in both directions, shown by one
	// terminal cell. Zero selects a scale fitting 80 columns.
	Scale   int
	Palette *ansi256.Palette
	// Out defaults to stdout.
	Out io.Writer

	_ struct{}
}

// Dev is a panel emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	scale   int
	palette ansi256.Palette

	mu     sync.Mutex
	pixels *image.RGBA
	buf    bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Out
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	scale := opts.Scale
	if scale <= 0 {
		// Each cell is two columns wide.
		scale = (opts.W + 39) / 40
		if scale < 1 {
			scale = 1
		}
	}
	pixels := image.NewRGBA(image.Rect(0, 0, opts.W, opts.H))
	draw.Draw(pixels, pixels.Rect, image.Black, image.Point{}, draw.Src)
	return &Dev{
		w:       w,
		scale:   scale,
		palette: *p,
		pixels:  pixels,
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("TermPanel{%s, 1:%d}", d.pixels.Rect.Max, d.scale)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the console is not corrupted.
func (d *Dev) Halt() error {
	_, err := io.WriteString(d.w, "\033[0m\n")
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.pixels.Rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	draw.Draw(d.pixels, r, src, sp, draw.Src)
	return d.refresh(r.Intersect(d.pixels.Rect))
}

// DrawBitmap writes pix, the big endian RGB565 rows of r, and repaints the
// terminal rows it covers.
func (d *Dev) DrawBitmap(r image.Rectangle, pix []byte) error {
	if !r.In(d.pixels.Rect) {
		return fmt.Errorf("termpanel: area %s is outside of %s", r, d.pixels.Rect)
	}
	if want := 2 * r.Dx() * r.Dy(); len(pix) != want {
		return fmt.Errorf("termpanel: invalid pixel stream length; expected %d bytes, got %d bytes", want, len(pix))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v := uint16(pix[i])<<8 | uint16(pix[i+1])
			i += 2
			r5 := byte(v>>11) & 0x1F
			g6 := byte(v>>5) & 0x3F
			b5 := byte(v) & 0x1F
			d.pixels.SetRGBA(x, y, color.RGBA{r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2, 0xFF})
		}
	}
	return d.refresh(r)
}

// refresh repaints the cell rows covering r.
func (d *Dev) refresh(r image.Rectangle) error {
	if r.Empty() {
		return nil
	}
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	first := r.Min.Y / d.scale
	last := (r.Max.Y + d.scale - 1) / d.scale
	cols := (d.pixels.Rect.Dx() + d.scale - 1) / d.scale
	for row := first; row < last; row++ {
		// Cursor to the start of the row, 1 based.
		fmt.Fprintf(&d.buf, "\033[%d;1H", row+1)
		for col := 0; col < cols; col++ {
			_, _ = io.WriteString(&d.buf, d.palette.Block(d.cell(col, row)))
		}
		_, _ = d.buf.WriteString("\033[0m")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

// cell returns the average color of the pixels shown by one terminal cell.
func (d *Dev) cell(col, row int) color.NRGBA {
	cr := image.Rect(col*d.scale, row*d.scale, (col+1)*d.scale, (row+1)*d.scale).Intersect(d.pixels.Rect)
	var r, g, b, n int
	for y := cr.Min.Y; y < cr.Max.Y; y++ {
		for x := cr.Min.X; x < cr.Max.X; x++ {
			c := d.pixels.RGBAAt(x, y)
			r += int(c.R)
			g += int(c.G)
			b += int(c.B)
			n++
		}
	}
	if n == 0 {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{byte(r / n), byte(g / n), byte(b / n), 255}
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
