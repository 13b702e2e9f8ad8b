// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package surface implements a minimal retained mode display surface.
//
// A Surface owns the draw buffers and the objects shown on screen. Objects
// invalidate the areas they cover when they change; Handle renders the
// invalidated areas into the draw buffers in RGB565 and hands each rendered
// block to a flush callback, which transfers it to the panel and signals
// completion with FlushReady so the buffer can be reused.
//
// Handle is expected to be called periodically from a single goroutine.
// Object mutations from other goroutines must happen between Lock and Unlock.
package surface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/GermanBionicSystems/lcdlabel/rgb565"
	"github.com/jonboulle/clockwork"
)

// RenderMode selects how the draw buffers map to the screen.
type RenderMode int

const (
	// Partial renders into buffers smaller than the screen, a band of rows
	// at a time. Only invalidated areas are rendered.
	Partial RenderMode = iota
	// Direct renders into a screen sized buffer at the screen position of
	// each invalidated area. Only invalidated areas are flushed.
	Direct
	// Full renders and flushes the whole screen on any change.
	Full
)

func (m RenderMode) String() string {
	switch m {
	case Partial:
		return "Partial"
	case Direct:
		return "Direct"
	case Full:
		return "Full"
	default:
		return fmt.Sprintf("RenderMode(%d)", int(m))
	}
}

// FlushFunc transfers px, the big endian RGB565 rows of area, to the panel.
//
// It must call s.FlushReady exactly once when px is not needed anymore,
// either before returning or later from another goroutine. The surface does
// not render into the buffer backing px until then.
type FlushFunc func(s *Surface, area image.Rectangle, px []byte)

// Opts defines the options of a Surface.
type Opts struct {
	// Width and Height of the screen in pixels.
	Width, Height int
	// Mode selects the render mode.
	Mode RenderMode
	// Buffers is the number of draw buffers, 1 or 2. With 2 buffers, the
	// next block is rendered while the previous one is being flushed.
	Buffers int
	// BufLines is the number of full width rows of a Partial mode buffer.
	// Zero selects a tenth of the screen.
	BufLines int
	// RefreshPeriod is the minimum time between two renders.
	RefreshPeriod time.Duration
	// Background fills the screen behind the objects.
	Background rgb565.Color
	// Clock is used to pace renders. Nil selects the real clock.
	Clock clockwork.Clock
}

// DefaultOpts is a 30 frames per second, double buffered partial surface.
// Width and Height must be set.
var DefaultOpts = Opts{
	Mode:          Partial,
	Buffers:       2,
	RefreshPeriod: 33 * time.Millisecond,
	Background:    rgb565.Black,
}

// Object is anything drawn on a Surface.
type Object interface {
	// Area returns the screen area covered by the object.
	Area() image.Rectangle
	// Draw draws the part of the object inside clip onto dst.
	Draw(dst *rgb565.Image, clip image.Rectangle)
}

// Surface is a display surface: its resolution, draw buffers, render mode
// and flush callback.
type Surface struct {
	// mu is the render lock.
	mu sync.Mutex

	opts  Opts
	rect  image.Rectangle
	flush FlushFunc
	clock clockwork.Clock

	bufs [][]byte
	// free holds a token for each buffer that is not being flushed.
	free []chan struct{}
	// inflight holds the buffers handed to the flush callback, in order.
	inflight chan int
	next     int

	objects []Object
	dirty   []image.Rectangle
	last    time.Time
}

// New returns a Surface calling flush for every rendered block.
//
// The whole screen starts invalidated so the first Handle paints the
// background.
func New(opts *Opts, flush FlushFunc) (*Surface, error) {
	if flush == nil {
		return nil, errors.New("surface: a flush callback is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("surface: invalid size %dx%d", opts.Width, opts.Height)
	}
	o := *opts
	switch o.Buffers {
	case 0:
		o.Buffers = 1
	case 1, 2:
	default:
		return nil, fmt.Errorf("surface: invalid buffer count %d", o.Buffers)
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	size := o.Width * o.Height
	switch o.Mode {
	case Partial:
		if o.BufLines == 0 {
			o.BufLines = (o.Height + 9) / 10
		}
		if o.BufLines < 1 || o.BufLines > o.Height {
			return nil, fmt.Errorf("surface: invalid buffer lines %d", o.BufLines)
		}
		size = o.Width * o.BufLines
	case Direct, Full:
	default:
		return nil, fmt.Errorf("surface: unknown render mode %s", o.Mode)
	}

	s := &Surface{
		opts:     o,
		rect:     image.Rect(0, 0, o.Width, o.Height),
		flush:    flush,
		clock:    o.Clock,
		inflight: make(chan int, o.Buffers),
	}
	for i := 0; i < o.Buffers; i++ {
		s.bufs = append(s.bufs, make([]byte, 2*size))
		c := make(chan struct{}, 1)
		c <- struct{}{}
		s.free = append(s.free, c)
	}
	s.dirty = append(s.dirty, s.rect)
	return s, nil
}

func (s *Surface) String() string {
	return fmt.Sprintf("surface.Surface{%s, %s, %d buffers}", s.rect.Max, s.opts.Mode, len(s.bufs))
}

// Bounds returns the screen rectangle. Min is {0, 0}.
func (s *Surface) Bounds() image.Rectangle {
	return s.rect
}

// Lock acquires the render lock. Hold it while creating or modifying objects
// from a goroutine other than the one calling Handle.
func (s *Surface) Lock() {
	s.mu.Lock()
}

// Unlock releases the render lock.
func (s *Surface) Unlock() {
	s.mu.Unlock()
}

// Add puts o on the screen, above the objects already added.
//
// The caller must hold the render lock.
func (s *Surface) Add(o Object) {
	s.objects = append(s.objects, o)
	s.Invalidate(o.Area())
}

// Invalidate marks r to be redrawn on the next render.
//
// The caller must hold the render lock.
func (s *Surface) Invalidate(r image.Rectangle) {
	r = r.Intersect(s.rect)
	if r.Empty() {
		return
	}
	s.dirty = append(s.dirty, r)
}

// InvalidateAll marks the whole screen to be redrawn.
//
// The caller must hold the render lock.
func (s *Surface) InvalidateAll() {
	s.dirty = append(s.dirty[:0], s.rect)
}

// FlushReady signals that the buffer handed to the oldest pending flush
// callback can be reused. Calling it when no flush is pending does nothing.
//
// It is safe to call from any goroutine.
func (s *Surface) FlushReady() {
	select {
	case i := <-s.inflight:
		s.free[i] <- struct{}{}
	default:
	}
}

// Handle renders and flushes the invalidated areas, when the refresh period
// elapsed since the previous render. It may call the flush callback zero or
// more times.
//
// It blocks while every draw buffer is still being flushed; ctx bounds that
// wait.
func (s *Surface) Handle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !s.last.IsZero() && now.Sub(s.last) < s.opts.RefreshPeriod {
		return nil
	}
	if len(s.dirty) == 0 {
		return nil
	}
	s.last = now

	// joinAreas reuses the slice; start a new one for later invalidations.
	areas := joinAreas(s.dirty)
	s.dirty = nil

	switch s.opts.Mode {
	case Full:
		if err := s.renderFull(ctx); err != nil {
			s.dirty = append(s.dirty, s.rect)
			return err
		}
	case Direct:
		for i, a := range areas {
			if err := s.renderDirect(ctx, a); err != nil {
				s.dirty = append(s.dirty, areas[i:]...)
				return err
			}
		}
	default:
		for i, a := range areas {
			if rest, err := s.renderPartial(ctx, a); err != nil {
				// Bands already flushed are not redrawn.
				s.dirty = append(s.dirty, rest)
				s.dirty = append(s.dirty, areas[i+1:]...)
				return err
			}
		}
	}
	return nil
}

// Refresh renders immediately, ignoring the refresh period.
func (s *Surface) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.last = time.Time{}
	s.mu.Unlock()
	return s.Handle(ctx)
}

// acquire waits for the next draw buffer in rotation to be free.
func (s *Surface) acquire(ctx context.Context) (int, error) {
	i := s.next
	select {
	case <-s.free[i]:
	case <-ctx.Done():
		return 0, fmt.Errorf("surface: waiting for flush: %w", ctx.Err())
	}
	s.next = (i + 1) % len(s.bufs)
	return i, nil
}

// renderPartial flushes a in bands. On failure it returns the part of a
// that was not flushed.
func (s *Surface) renderPartial(ctx context.Context, a image.Rectangle) (image.Rectangle, error) {
	// Narrow areas fit more rows in a buffer than the screen width does.
	lines := len(s.bufs[0]) / (2 * a.Dx())
	for y := a.Min.Y; y < a.Max.Y; y += lines {
		band := image.Rect(a.Min.X, y, a.Max.X, y+lines).Intersect(a)
		i, err := s.acquire(ctx)
		if err != nil {
			return image.Rect(a.Min.X, y, a.Max.X, a.Max.Y), err
		}
		img := &rgb565.Image{
			Pix:    s.bufs[i][:2*areaSize(band)],
			Stride: 2 * band.Dx(),
			Rect:   band,
		}
		s.draw(img, band)
		s.dispatch(i, band, img.Pix)
	}
	return image.Rectangle{}, nil
}

func (s *Surface) renderDirect(ctx context.Context, a image.Rectangle) error {
	i, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	img := &rgb565.Image{Pix: s.bufs[i], Stride: 2 * s.rect.Dx(), Rect: s.rect}
	s.draw(img, a)
	s.dispatch(i, a, img.Bytes(a))
	return nil
}

func (s *Surface) renderFull(ctx context.Context) error {
	i, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	img := &rgb565.Image{Pix: s.bufs[i], Stride: 2 * s.rect.Dx(), Rect: s.rect}
	s.draw(img, s.rect)
	s.dispatch(i, s.rect, img.Pix)
	return nil
}

// draw paints the background and every object intersecting clip.
func (s *Surface) draw(dst *rgb565.Image, clip image.Rectangle) {
	dst.Fill(clip, s.opts.Background)
	for _, o := range s.objects {
		if r := o.Area().Intersect(clip); !r.Empty() {
			o.Draw(dst, r)
		}
	}
}

func (s *Surface) dispatch(i int, area image.Rectangle, px []byte) {
	s.inflight <- i
	s.flush(s, area, px)
}
