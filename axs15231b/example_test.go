// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package axs15231b_test

import (
	"image"
	"image/color"
	"log"

	"github.com/GermanBionicSystems/lcdlabel/axs15231b"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Use spireg SPI port registry to find the first available SPI bus.
	p, err := spireg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	// The reset line is not wired on this module.
	dev, err := axs15231b.NewSPI(p, gpioreg.ByName("GPIO8"), nil, &axs15231b.DefaultOpts)
	if err != nil {
		log.Fatalf("failed to initialize axs15231b: %v", err)
	}
	if err := dev.Init(); err != nil {
		log.Fatal(err)
	}

	// Paint the whole panel red.
	red := &image.Uniform{color.RGBA{255, 0, 0, 255}}
	if err := dev.Draw(dev.Bounds(), red, image.Point{}); err != nil {
		log.Fatal(err)
	}
}
