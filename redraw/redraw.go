// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package redraw runs the periodic dispatch of a display surface and
// connects the surface to a panel.
package redraw

import (
	"context"
	"image"
	"log"
	"time"

	"github.com/GermanBionicSystems/lcdlabel/surface"
	"github.com/jonboulle/clockwork"
)

// Panel is the bitmap entry point of a display: it writes pix, the big
// endian RGB565 rows of r, to the display memory.
type Panel interface {
	DrawBitmap(r image.Rectangle, pix []byte) error
}

// Handler dispatches pending rendering work. *surface.Surface implements it.
type Handler interface {
	Handle(ctx context.Context) error
}

// FlushTo returns a flush callback forwarding every rendered block verbatim
// to p.
//
// Completion is always signaled exactly once, even when the transfer fails:
// the surface cannot recover a buffer otherwise. Failures are logged.
func FlushTo(p Panel) surface.FlushFunc {
	return func(s *surface.Surface, area image.Rectangle, px []byte) {
		defer s.FlushReady()
		if err := p.DrawBitmap(area, px); err != nil {
			log.Printf("redraw: flushing %s: %v", area, err)
		}
	}
}

// Opts defines the options of a Loop.
type Opts struct {
	// Period is the sleep between two dispatches.
	Period time.Duration
	// Clock is used to sleep. Nil selects the real clock.
	Clock clockwork.Clock
}

// DefaultOpts dispatches every 10ms.
var DefaultOpts = Opts{
	Period: 10 * time.Millisecond,
}

// Loop calls a Handler on a fixed cadence.
type Loop struct {
	h      Handler
	period time.Duration
	clock  clockwork.Clock
}

// New returns a Loop dispatching h.
func New(h Handler, opts *Opts) *Loop {
	l := &Loop{h: h, period: opts.Period, clock: opts.Clock}
	if l.period <= 0 {
		l.period = DefaultOpts.Period
	}
	if l.clock == nil {
		l.clock = clockwork.NewRealClock()
	}
	return l
}

func (l *Loop) String() string {
	return "redraw.Loop{" + l.period.String() + "}"
}

// Run dispatches, then sleeps for the period, forever.
//
// It returns only once ctx is done. A failed dispatch is logged and the
// loop goes on.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := l.h.Handle(ctx); err != nil && ctx.Err() == nil {
			log.Printf("redraw: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(l.period):
		}
	}
}

var _ Handler = &surface.Surface{}
