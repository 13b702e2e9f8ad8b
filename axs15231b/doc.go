// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package axs15231b controls a 16 bits color TFT LCD panel via an AXS15231B
// controller connected over QSPI.
//
// Every transfer is framed with a four bytes header: an opcode followed by a
// 24 bits address carrying the DCS command in its middle byte. Register
// writes use opcode 0x02 on a single data line. Pixel writes use the same
// opcode by default, which is what a plain SPI port can send; set Opts.Quad
// to switch them to opcode 0x32 when the port drives D0-D3.
//
// Pixels are sent as big endian RGB565, the format of rgb565.Image.Pix, so
// buffers rendered in that format are forwarded without conversion by
// DrawBitmap.
//
// # Wiring
//
// Connect SCK to SPI_CLK, D0 to MOSI (and D1-D3 to the other data lines in
// quad mode), CS to SPI_CS or to a GPIO. The RST pin is optional; when it is
// not wired the driver issues a software reset instead.
package axs15231b
