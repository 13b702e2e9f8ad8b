// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package panelsink emulates an RGB565 LCD panel and mirrors it over HTTP.
//
// A Sink accepts the same bitmap writes as a real panel controller and keeps
// an RGBA copy of the panel memory. HTTP clients get a snapshot on connect
// and a new one after every write, as a "multipart/x-mixed-replace" stream
// (MJPEG, https://en.wikipedia.org/wiki/Motion_JPEG) which browsers display
// natively. PNG is used by default; JPEG can be selected with Options.Format
// or with the "format" URL parameter.
//
// It permits running the complete render path on a development host, and
// timing it, without the panel attached.
package panelsink

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
)

// Options for a Sink.
type Options struct {
	// Width and height of the emulated panel.
	Width, Height int
	// Format is the default image format sent to clients.
	Format Format
	// JPEGQuality is between 1 and 100. Zero selects 90.
	JPEGQuality int
	// PNGCompression is the PNG encoder compression level.
	PNGCompression png.CompressionLevel
}

// Sink is an emulated panel.
type Sink struct {
	defaultFormat Format
	enc           encoder

	mu       sync.Mutex
	buffer   *image.RGBA
	frames   uint64
	last     time.Time
	clients  map[*client]struct{}
	snapshot map[Format][]byte
}

// New returns a Sink of the given size, painted black.
func New(opt *Options) *Sink {
	buffer := image.NewRGBA(image.Rect(0, 0, opt.Width, opt.Height))
	// The alpha channel starts transparent; paint it opaque.
	draw.Draw(buffer, buffer.Bounds(), image.Black, image.Point{}, draw.Src)

	q := opt.JPEGQuality
	if q == 0 {
		q = 90
	}
	return &Sink{
		defaultFormat: opt.Format,
		enc:           encoder{jpegQuality: q, pngLevel: opt.PNGCompression},
		buffer:        buffer,
		clients:       map[*client]struct{}{},
		snapshot:      map[Format][]byte{},
	}
}

func (s *Sink) String() string {
	return fmt.Sprintf("panelsink.Sink{%s}", s.buffer.Rect.Max)
}

// Halt implements conn.Resource. It terminates the running client streams.
func (s *Sink) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	return nil
}

// ColorModel implements display.Drawer.
func (s *Sink) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements display.Drawer.
func (s *Sink) Bounds() image.Rectangle {
	return s.buffer.Bounds()
}

// Draw implements display.Drawer.
func (s *Sink) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.buffer, r, src, sp, draw.Src)
	s.changedLocked()
	return nil
}

// DrawBitmap writes pix, the big endian RGB565 rows of r, to the panel.
func (s *Sink) DrawBitmap(r image.Rectangle, pix []byte) error {
	if r.Empty() {
		return nil
	}
	if !r.In(s.buffer.Rect) {
		return fmt.Errorf("panelsink: area %s is outside of %s", r, s.buffer.Rect)
	}
	if want := 2 * r.Dx() * r.Dy(); len(pix) != want {
		return fmt.Errorf("panelsink: invalid pixel stream length; expected %d bytes, got %d bytes", want, len(pix))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst := s.buffer.Pix[s.buffer.PixOffset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			v := uint16(pix[0])<<8 | uint16(pix[1])
			pix = pix[2:]
			red := byte(v>>11) & 0x1F
			green := byte(v>>5) & 0x3F
			blue := byte(v) & 0x1F
			dst[4*x] = red<<3 | red>>2
			dst[4*x+1] = green<<2 | green>>4
			dst[4*x+2] = blue<<3 | blue>>2
			dst[4*x+3] = 0xFF
		}
	}
	s.changedLocked()
	return nil
}

// Frames returns the number of writes received and the time of the last one.
func (s *Sink) Frames() (uint64, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames, s.last
}

// changedLocked drops the cached snapshots and wakes up the clients.
func (s *Sink) changedLocked() {
	s.frames++
	s.last = time.Now()
	for f, b := range s.snapshot {
		putBuffer(b)
		delete(s.snapshot, f)
	}
	for c := range s.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}

var _ display.Drawer = &Sink{}
