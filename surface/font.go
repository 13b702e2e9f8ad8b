// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package surface

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// GoRegular returns the Go Regular font at size points, 72 DPI so a point
// is a pixel.
func GoRegular(size float64) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("surface: invalid font size %g", size)
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("surface: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// DefaultFace returns the 7x13 bitmap font.
func DefaultFace() font.Face {
	return basicfont.Face7x13
}
