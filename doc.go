// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdlabel shows a text label on a quad SPI RGB565 LCD.
//
// The pieces are independent packages:
//
//   - axs15231b drives the panel controller over QSPI.
//   - backlight drives the backlight with a PWM pin.
//   - surface renders objects, such as a Label, into draw buffers and hands
//     dirty areas to a flush callback.
//   - redraw dispatches the surface periodically and flushes it to a panel.
//   - panelsink and termpanel emulate a panel over HTTP or in a terminal.
//   - boardcfg describes the wiring.
//
// cmd/lcdlabel wires them together.
package lcdlabel
