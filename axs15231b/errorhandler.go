// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package axs15231b

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler is a wrapper for error management.
//
// Once a step failed, every following step is a no-op and err holds the
// first failure.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil || eh.d.rst == nil {
		return
	}
	eh.err = eh.d.rst.Out(l)
}

func (eh *errorHandler) csOut(l gpio.Level) {
	if eh.err != nil || eh.d.cs == nil {
		return
	}
	eh.err = eh.d.cs.Out(l)
}

func (eh *errorHandler) cTx(w []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.c.Tx(w, nil)
}

func (eh *errorHandler) delay(t time.Duration) {
	if eh.err != nil {
		return
	}
	eh.d.sleep(t)
}

func (eh *errorHandler) reset() {
	if eh.d.rst == nil {
		eh.sendCommand(swReset)
		eh.delay(120 * time.Millisecond)
		return
	}
	eh.rstOut(gpio.High)
	eh.delay(10 * time.Millisecond)
	eh.rstOut(gpio.Low)
	eh.delay(10 * time.Millisecond)
	eh.rstOut(gpio.High)
	eh.delay(120 * time.Millisecond)
}

// sendCommand writes a register on a single data line.
func (eh *errorHandler) sendCommand(cmd byte, params ...byte) {
	if eh.err != nil {
		return
	}
	frame := append(eh.d.tx[:0], opWriteReg, 0x00, cmd, 0x00)
	frame = append(frame, params...)
	eh.csOut(gpio.Low)
	eh.cTx(frame)
	eh.csOut(gpio.High)
}

// writePixels streams pix to the display RAM, on four data lines when
// Opts.Quad is set and on one otherwise.
//
// The payload is split into transfers no larger than the port allows, the
// first one starting a memory write and the following ones continuing it.
func (eh *errorHandler) writePixels(pix []byte) {
	op := opWriteReg
	if eh.d.opts.Quad {
		op = opWritePixels
	}
	cmd := ramWr
	chunk := (eh.d.maxTx - 4) &^ 1
	for len(pix) != 0 && eh.err == nil {
		n := len(pix)
		if n > chunk {
			n = chunk
		}
		frame := append(eh.d.tx[:0], op, 0x00, cmd, 0x00)
		frame = append(frame, pix[:n]...)
		eh.csOut(gpio.Low)
		eh.cTx(frame)
		eh.csOut(gpio.High)
		pix = pix[n:]
		cmd = ramWrC
	}
}

var _ controller = &errorHandler{}
