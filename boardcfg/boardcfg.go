// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package boardcfg describes how the LCD is wired to the board.
//
// The built-in board is a 320x480 AXS15231B module on a quad SPI bus. A JSON
// file may override any of its keys:
//
//	{
//	  "spi_port": "/dev/spidev0.0",
//	  "spi_speed": "40MHz",
//	  "data": ["GPIO21", "GPIO48", "GPIO40", "GPIO39"],
//	  "reset": "",
//	  "period": "5ms",
//	  "background": "#00FFBC",
//	  "foreground": "#212121"
//	}
package boardcfg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GermanBionicSystems/lcdlabel/rgb565"
	"github.com/buger/jsonparser"
	"periph.io/x/conn/v3/physic"
)

// Board is the wiring and the display settings of a board.
//
// Pins are gpioreg names. An empty name is a line that is not wired.
type Board struct {
	// Port is the spireg name of the SPI port. Empty selects the first one.
	Port  string
	Speed physic.Frequency

	// Clock and Data are owned by the SPI port; they are only checked for
	// conflicts.
	Clock     string
	Data      [4]string
	CS        string
	Reset     string
	Backlight string

	Width, Height int
	BacklightFreq physic.Frequency

	// Period is the redraw loop period.
	Period     time.Duration
	Buffers    int
	BufLines   int
	Background rgb565.Color
	// Foreground is the label color.
	Foreground rgb565.Color
	Text       string
}

// Default returns the built-in board.
func Default() *Board {
	return &Board{
		Speed:         40 * physic.MegaHertz,
		Clock:         "GPIO47",
		Data:          [4]string{"GPIO21", "GPIO48", "GPIO40", "GPIO39"},
		CS:            "GPIO45",
		Backlight:     "GPIO1",
		Width:         320,
		Height:        480,
		BacklightFreq: 5 * physic.KiloHertz,
		Period:        5 * time.Millisecond,
		Buffers:       2,
		BufLines:      40,
		Background:    rgb565.FromRGB(0x00, 0xFF, 0xBC),
		Foreground:    rgb565.FromRGB(0x21, 0x21, 0x21),
		Text:          "Hello World!",
	}
}

func (b *Board) String() string {
	return fmt.Sprintf("Board{%s@%s, %dx%d}", b.portName(), b.Speed, b.Width, b.Height)
}

func (b *Board) portName() string {
	if b.Port == "" {
		return "SPI"
	}
	return b.Port
}

// FromJSON overrides the fields present in data.
//
// Missing keys keep their current value.
func (b *Board) FromJSON(data []byte) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"spi_port", &b.Port},
		{"clock", &b.Clock},
		{"cs", &b.CS},
		{"reset", &b.Reset},
		{"backlight", &b.Backlight},
		{"text", &b.Text},
	}
	for _, s := range strs {
		v, err := jsonparser.GetString(data, s.key)
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			continue
		}
		if err != nil {
			return fmt.Errorf("boardcfg: %q: %w", s.key, err)
		}
		*s.dst = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"width", &b.Width},
		{"height", &b.Height},
		{"buffers", &b.Buffers},
		{"buf_lines", &b.BufLines},
	}
	for _, i := range ints {
		v, err := jsonparser.GetInt(data, i.key)
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			continue
		}
		if err != nil {
			return fmt.Errorf("boardcfg: %q: %w", i.key, err)
		}
		*i.dst = int(v)
	}

	freqs := []struct {
		key string
		dst *physic.Frequency
	}{
		{"spi_speed", &b.Speed},
		{"backlight_freq", &b.BacklightFreq},
	}
	for _, f := range freqs {
		v, err := jsonparser.GetString(data, f.key)
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			continue
		}
		if err != nil {
			return fmt.Errorf("boardcfg: %q: %w", f.key, err)
		}
		if err := f.dst.Set(v); err != nil {
			return fmt.Errorf("boardcfg: %q: %w", f.key, err)
		}
	}

	if v, err := jsonparser.GetString(data, "period"); err == nil {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("boardcfg: \"period\": %w", err)
		}
		b.Period = d
	} else if !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return fmt.Errorf("boardcfg: \"period\": %w", err)
	}

	colors := []struct {
		key string
		dst *rgb565.Color
	}{
		{"background", &b.Background},
		{"foreground", &b.Foreground},
	}
	for _, c := range colors {
		v, err := jsonparser.GetString(data, c.key)
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			continue
		}
		if err != nil {
			return fmt.Errorf("boardcfg: %q: %w", c.key, err)
		}
		if *c.dst, err = parseColor(v); err != nil {
			return fmt.Errorf("boardcfg: %q: %w", c.key, err)
		}
	}

	if _, _, _, err := jsonparser.Get(data, "data"); err == nil {
		var lines []string
		var inner error
		_, err := jsonparser.ArrayEach(data, func(value []byte, t jsonparser.ValueType, _ int, _ error) {
			if t != jsonparser.String {
				inner = fmt.Errorf("expected a pin name, got %s", t)
				return
			}
			lines = append(lines, string(value))
		}, "data")
		if err == nil {
			err = inner
		}
		if err == nil && len(lines) != len(b.Data) {
			err = fmt.Errorf("expected %d data lines, got %d", len(b.Data), len(lines))
		}
		if err != nil {
			return fmt.Errorf("boardcfg: \"data\": %w", err)
		}
		copy(b.Data[:], lines)
	} else if !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return fmt.Errorf("boardcfg: \"data\": %w", err)
	}
	return nil
}

// Validate returns an error if the board cannot drive a display.
func (b *Board) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("boardcfg: invalid size %dx%d", b.Width, b.Height)
	}
	if b.Speed <= 0 {
		return errors.New("boardcfg: spi_speed must be set")
	}
	if b.Backlight == "" {
		return errors.New("boardcfg: backlight pin must be set")
	}
	if b.BacklightFreq <= 0 {
		return errors.New("boardcfg: backlight_freq must be set")
	}
	if b.Buffers != 1 && b.Buffers != 2 {
		return fmt.Errorf("boardcfg: buffers must be 1 or 2, got %d", b.Buffers)
	}
	if b.BufLines < 0 || b.BufLines > b.Height {
		return fmt.Errorf("boardcfg: buf_lines must be within [0, %d], got %d", b.Height, b.BufLines)
	}
	used := map[string]string{}
	for _, p := range b.pins() {
		if p.name == "" {
			continue
		}
		if other, ok := used[p.name]; ok {
			return fmt.Errorf("boardcfg: pin %s is used for both %s and %s", p.name, other, p.role)
		}
		used[p.name] = p.role
	}
	return nil
}

type pin struct {
	role string
	name string
}

func (b *Board) pins() []pin {
	return []pin{
		{"clock", b.Clock},
		{"data[0]", b.Data[0]},
		{"data[1]", b.Data[1]},
		{"data[2]", b.Data[2]},
		{"data[3]", b.Data[3]},
		{"cs", b.CS},
		{"reset", b.Reset},
		{"backlight", b.Backlight},
	}
}

// parseColor parses a "#RRGGBB" or "0xRRGGBB" color.
func parseColor(s string) (rgb565.Color, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")
	if len(h) != 6 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	return rgb565.FromRGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
