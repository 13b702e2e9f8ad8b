// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rgb565 implements an image in 16 bits per pixel, 5 bits red, 6 bits
// green and 5 bits blue.
//
// Pixels are stored big endian, which is the order in which most SPI LCD
// controllers (ST7789, AXS15231B, ILI9341, GC9A01) expect them on the wire. This
// means Image.Pix can be sent verbatim to the controller memory.
package rgb565

import (
	"image"
	"image/color"
	"image/draw"
)

// Color is a 16 bits color in 5-6-5 format.
type Color uint16

// RGBA implements color.Color.
//
// The low bits are replicated from the high bits so that full intensity maps
// to 0xFFFF.
func (c Color) RGBA() (uint32, uint32, uint32, uint32) {
	r := uint32(c>>11) & 0x1F
	g := uint32(c>>5) & 0x3F
	b := uint32(c) & 0x1F
	r = (r << 3) | (r >> 2)
	g = (g << 2) | (g >> 4)
	b = (b << 3) | (b >> 2)
	return r | r<<8, g | g<<8, b | b<<8, 0xFFFF
}

func (c Color) String() string {
	if c == 0 {
		return "Black"
	}
	return "Color(0x" + hex4(uint16(c)) + ")"
}

// Well known colors.
const (
	Black Color = 0x0000
	White Color = 0xFFFF
	Red   Color = 0xF800
	Green Color = 0x07E0
	Blue  Color = 0x001F
)

// Model is the color Model for 16 bits 5-6-5 color.
var Model = color.ModelFunc(convert)

// FromRGB returns the Color closest to the 8 bits per channel value.
func FromRGB(r, g, b uint8) Color {
	return Color(uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3)
}

// Image is an in-memory image whose At method returns Color values.
type Image struct {
	// Pix holds the image's pixels, as big endian 16 bits words. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*2].
	Pix []byte
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

// NewImage returns a new Image with the given bounds.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	return &Image{Pix: make([]uint8, 2*w*h), Stride: 2 * w, Rect: r}
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return Model
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	return i.RGB565At(x, y)
}

// RGB565At returns the Color at the given coordinates.
func (i *Image) RGB565At(x, y int) Color {
	if !(image.Point{x, y}.In(i.Rect)) {
		return Black
	}
	o := i.PixOffset(x, y)
	return Color(uint16(i.Pix[o])<<8 | uint16(i.Pix[o+1]))
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (i *Image) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x-i.Rect.Min.X)*2
}

// Set implements draw.Image.
func (i *Image) Set(x, y int, c color.Color) {
	i.SetRGB565(x, y, convertColor(c))
}

// SetRGB565 sets the pixel at the given coordinates.
func (i *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{x, y}.In(i.Rect)) {
		return
	}
	o := i.PixOffset(x, y)
	i.Pix[o] = byte(c >> 8)
	i.Pix[o+1] = byte(c)
}

// Fill sets every pixel of r that is inside the image to c.
func (i *Image) Fill(r image.Rectangle, c Color) {
	r = r.Intersect(i.Rect)
	if r.Empty() {
		return
	}
	hi, lo := byte(c>>8), byte(c)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o := i.PixOffset(r.Min.X, y)
		row := i.Pix[o : o+2*r.Dx()]
		for x := 0; x < len(row); x += 2 {
			row[x] = hi
			row[x+1] = lo
		}
	}
}

// SubImage returns an image representing the portion of the image visible
// through r. The returned value shares pixels with the original image.
func (i *Image) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(i.Rect)
	if r.Empty() {
		return &Image{}
	}
	o := i.PixOffset(r.Min.X, r.Min.Y)
	return &Image{
		Pix:    i.Pix[o:],
		Stride: i.Stride,
		Rect:   r,
	}
}

// Opaque scans the entire image and reports whether it is fully opaque.
func (i *Image) Opaque() bool {
	return true
}

// Bytes returns the pixels of r as a contiguous slice of rows.
//
// When the image rows are already contiguous for r, the returned slice
// aliases Pix. Otherwise the rows are copied into a new slice.
func (i *Image) Bytes(r image.Rectangle) []byte {
	r = r.Intersect(i.Rect)
	if r.Empty() {
		return nil
	}
	n := 2 * r.Dx()
	o := i.PixOffset(r.Min.X, r.Min.Y)
	if n == i.Stride || r.Dy() == 1 {
		return i.Pix[o : o+n*r.Dy()]
	}
	out := make([]byte, 0, n*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o = i.PixOffset(r.Min.X, y)
		out = append(out, i.Pix[o:o+n]...)
	}
	return out
}

// Convert draws src into a new Image with the bounds of r.
func Convert(r image.Rectangle, src image.Image, sp image.Point) *Image {
	img := NewImage(r)
	draw.Src.Draw(img, r, src, sp)
	return img
}

func convert(c color.Color) color.Color {
	return convertColor(c)
}

func convertColor(c color.Color) Color {
	switch t := c.(type) {
	case Color:
		return t
	default:
		r, g, b, _ := c.RGBA()
		return FromRGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
	}
}

func hex4(v uint16) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[v>>12], digits[(v>>8)&0xF], digits[(v>>4)&0xF], digits[v&0xF]})
}

var _ draw.Image = &Image{}
