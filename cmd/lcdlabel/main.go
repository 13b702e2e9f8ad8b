// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lcdlabel brings up a quad SPI LCD, turns its backlight on and shows a
// centered text label, redrawn by a background loop.
//
// With -sink=http or -sink=term, the panel is emulated and no hardware is
// touched.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/GermanBionicSystems/lcdlabel/axs15231b"
	"github.com/GermanBionicSystems/lcdlabel/backlight"
	"github.com/GermanBionicSystems/lcdlabel/boardcfg"
	"github.com/GermanBionicSystems/lcdlabel/panelsink"
	"github.com/GermanBionicSystems/lcdlabel/redraw"
	"github.com/GermanBionicSystems/lcdlabel/surface"
	"github.com/GermanBionicSystems/lcdlabel/termpanel"
	"gopkg.in/natefinch/lumberjack.v2"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// fontSize is the label font size in pixels.
const fontSize = 32

// hardware is the bring-up result of the real panel.
type hardware struct {
	port  io.Closer
	panel *axs15231b.Dev
	bl    *backlight.Dev
}

func (h *hardware) String() string {
	return h.panel.String()
}

func (h *hardware) Halt() error {
	err := h.panel.Halt()
	if err2 := h.bl.Halt(); err == nil {
		err = err2
	}
	if err2 := h.port.Close(); err == nil {
		err = err2
	}
	return err
}

// pinByName returns nil for an unwired line.
func pinByName(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return p, nil
}

// openHardware initializes the panel, then turns the backlight fully on.
func openHardware(b *boardcfg.Board) (*hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(b.Port)
	if err != nil {
		return nil, err
	}
	h := &hardware{port: port}
	if err := h.init(port, b); err != nil {
		port.Close()
		return nil, err
	}
	return h, nil
}

func (h *hardware) init(port spi.Port, b *boardcfg.Board) error {
	cs, err := pinByName(b.CS)
	if err != nil {
		return err
	}
	rst, err := pinByName(b.Reset)
	if err != nil {
		return err
	}
	blPin, err := pinByName(b.Backlight)
	if err != nil {
		return err
	}

	opts := axs15231b.DefaultOpts
	opts.W = b.Width
	opts.H = b.Height
	opts.Speed = b.Speed
	if h.panel, err = axs15231b.NewSPI(port, cs, rst, &opts); err != nil {
		return err
	}
	if err := h.panel.Init(); err != nil {
		return err
	}
	log.Printf("%s ready", h.panel)

	blOpts := backlight.DefaultOpts
	blOpts.Frequency = b.BacklightFreq
	if h.bl, err = backlight.New(blPin, &blOpts); err != nil {
		return err
	}
	return h.bl.Max()
}

// newSurface creates the surface flushed to p, with the label in the middle.
func newSurface(b *boardcfg.Board, mode surface.RenderMode, p redraw.Panel) (*surface.Surface, *surface.Label, error) {
	opts := surface.DefaultOpts
	opts.Width = b.Width
	opts.Height = b.Height
	opts.Mode = mode
	opts.Buffers = b.Buffers
	opts.BufLines = b.BufLines
	opts.Background = b.Background
	s, err := surface.New(&opts, redraw.FlushTo(p))
	if err != nil {
		return nil, nil, err
	}
	face, err := surface.GoRegular(fontSize)
	if err != nil {
		// The bitmap font is always available.
		log.Printf("lcdlabel: %v; using the built-in font", err)
		face = nil
	}
	s.Lock()
	l := s.NewLabel(b.Text, face)
	l.SetColor(b.Foreground)
	s.Unlock()
	return s, l, nil
}

func parseMode(s string) (surface.RenderMode, error) {
	for _, m := range []surface.RenderMode{surface.Partial, surface.Direct, surface.Full} {
		if s == m.String() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

func loadBoard(path string) (*boardcfg.Board, error) {
	b := boardcfg.Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		log.Printf("Reading configuration from %q", path)
		if err := b.FromJSON(data); err != nil {
			return nil, err
		}
	}
	return b, b.Validate()
}

func main() {
	config := flag.String("config", "", "board configuration JSON file; empty uses the built-in board")
	sink := flag.String("sink", "panel", "output: panel, http or term")
	addr := flag.String("http", ":8010", "listening address for -sink=http")
	text := flag.String("text", "", "label text; overrides the board configuration")
	mode := flag.String("mode", surface.Partial.String(), "render mode: Partial, Direct or Full")
	logFile := flag.String("logfile", "", "also log to this file, rotated")
	flag.Parse()

	if *logFile != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     28,
		}))
	}

	b, err := loadBoard(*config)
	if err != nil {
		log.Fatal(err)
	}
	if *text != "" {
		b.Text = *text
	}
	m, err := parseMode(*mode)
	if err != nil {
		log.Fatal(err)
	}

	log.Println("initializing LCD panel")
	var panel redraw.Panel
	var dev conn.Resource
	switch *sink {
	case "panel":
		h, err := openHardware(b)
		if err != nil {
			log.Fatal(err)
		}
		panel, dev = h.panel, h
	case "http":
		s := panelsink.New(&panelsink.Options{Width: b.Width, Height: b.Height})
		go func() {
			if err := http.ListenAndServe(*addr, s); !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err)
			}
		}()
		log.Printf("serving %s on %s", s, *addr)
		panel, dev = s, s
	case "term":
		t := termpanel.New(&termpanel.Opts{W: b.Width, H: b.Height})
		panel, dev = t, t
	default:
		log.Fatalf("unknown sink %q", *sink)
	}

	s, _, err := newSurface(b, m, panel)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%s on %s", s, b)

	ctx, cancel := context.WithCancel(context.Background())
	loop := redraw.New(s, &redraw.Opts{Period: b.Period})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()

	// Runs until killed.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	cancel()
	<-done
	if err := dev.Halt(); err != nil {
		log.Fatal(err)
	}
}
