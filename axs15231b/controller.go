// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package axs15231b

import "time"

type controller interface {
	reset()
	sendCommand(cmd byte, params ...byte)
	delay(time.Duration)
}

// madctlValue returns the memory data access control register for opts.
func madctlValue(opts *Opts) byte {
	var v byte
	if opts.MirrorY {
		v |= madctlMY
	}
	if opts.MirrorX {
		v |= madctlMX
	}
	if opts.SwapXY {
		v |= madctlMV
	}
	if opts.BGR {
		v |= madctlBGR
	}
	return v
}

func initPanel(ctrl controller, opts *Opts) {
	ctrl.reset()

	for _, c := range opts.InitCmds {
		ctrl.sendCommand(c.Cmd, c.Data...)
		if c.Delay != 0 {
			ctrl.delay(c.Delay)
		}
	}

	// The controller needs 120ms after sleep out before accepting commands
	// that touch the display RAM.
	ctrl.sendCommand(slpOut)
	ctrl.delay(120 * time.Millisecond)

	ctrl.sendCommand(madctl, madctlValue(opts))
	ctrl.sendCommand(colmod, colmod16bpp)

	if opts.Invert {
		ctrl.sendCommand(invOn)
	} else {
		ctrl.sendCommand(invOff)
	}

	ctrl.sendCommand(dispOn)
	ctrl.delay(20 * time.Millisecond)
}
