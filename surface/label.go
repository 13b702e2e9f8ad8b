// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package surface

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/GermanBionicSystems/lcdlabel/rgb565"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// Align positions an object relative to the screen.
type Align int

// Possible alignments.
const (
	Center Align = iota
	TopLeft
	TopMid
	BottomMid
)

// Label is a single line of static text.
type Label struct {
	s     *Surface
	text  string
	face  font.Face
	color color.Color
	align Align
	dx    int
	dy    int

	// img caches the rendered text, transparent outside the glyphs.
	img  image.Image
	area image.Rectangle
}

// NewLabel creates a label centered on the screen and adds it to s.
//
// A nil face selects the built-in bitmap font. The caller must hold the
// render lock.
func (s *Surface) NewLabel(text string, face font.Face) *Label {
	if face == nil {
		face = DefaultFace()
	}
	l := &Label{
		s:     s,
		text:  text,
		face:  face,
		color: color.White,
		align: Center,
	}
	l.layout()
	s.Add(l)
	return l
}

// Text returns the label text.
func (l *Label) Text() string {
	return l.text
}

// SetText changes the text. The caller must hold the render lock.
func (l *Label) SetText(text string) {
	if text == l.text {
		return
	}
	l.update(func() { l.text = text })
}

// SetColor changes the text color. The caller must hold the render lock.
func (l *Label) SetColor(c color.Color) {
	l.update(func() { l.color = c })
}

// SetFont changes the font face. A nil face selects the built-in bitmap
// font. The caller must hold the render lock.
func (l *Label) SetFont(face font.Face) {
	if face == nil {
		face = DefaultFace()
	}
	l.update(func() { l.face = face })
}

// Align moves the label to a position relative to the screen, shifted by
// dx, dy pixels. The caller must hold the render lock.
func (l *Label) Align(a Align, dx, dy int) {
	l.update(func() {
		l.align = a
		l.dx = dx
		l.dy = dy
	})
}

// Area implements Object.
func (l *Label) Area() image.Rectangle {
	return l.area
}

// Draw implements Object.
func (l *Label) Draw(dst *rgb565.Image, clip image.Rectangle) {
	draw.Draw(dst, clip, l.img, clip.Min.Sub(l.area.Min), draw.Over)
}

func (l *Label) update(f func()) {
	l.s.Invalidate(l.area)
	f()
	l.layout()
	l.s.Invalidate(l.area)
}

// layout rasterizes the text and computes its screen area.
func (l *Label) layout() {
	m := l.face.Metrics()
	ascent := m.Ascent.Ceil()
	h := ascent + m.Descent.Ceil()

	dc := gg.NewContext(1, 1)
	dc.SetFontFace(l.face)
	tw, _ := dc.MeasureString(l.text)
	w := int(math.Ceil(tw))
	if w < 1 {
		w = 1
	}

	dc = gg.NewContext(w, h)
	dc.SetFontFace(l.face)
	dc.SetColor(l.color)
	dc.DrawString(l.text, 0, float64(ascent))
	l.img = dc.Image()

	screen := l.s.Bounds()
	var p image.Point
	switch l.align {
	case TopLeft:
	case TopMid:
		p.X = (screen.Dx() - w) / 2
	case BottomMid:
		p.X = (screen.Dx() - w) / 2
		p.Y = screen.Dy() - h
	default:
		p.X = (screen.Dx() - w) / 2
		p.Y = (screen.Dy() - h) / 2
	}
	p = p.Add(image.Pt(l.dx, l.dy))
	l.area = image.Rectangle{Min: p, Max: p.Add(image.Pt(w, h))}
}

var _ Object = &Label{}
