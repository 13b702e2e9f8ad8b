// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package axs15231b

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/GermanBionicSystems/lcdlabel/rgb565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// QSPI opcodes. opWriteReg also carries pixels when only one data line is
// wired.
const (
	opWriteReg    byte = 0x02
	opWritePixels byte = 0x32
)

// Commands
const (
	swReset byte = 0x01
	slpIn   byte = 0x10
	slpOut  byte = 0x11
	norOn   byte = 0x13
	invOff  byte = 0x20
	invOn   byte = 0x21
	dispOff byte = 0x28
	dispOn  byte = 0x29
	caSet   byte = 0x2A
	raSet   byte = 0x2B
	ramWr   byte = 0x2C
	madctl  byte = 0x36
	colmod  byte = 0x3A
	ramWrC  byte = 0x3C
)

const (
	madctlMY  byte = 0x80
	madctlMX  byte = 0x40
	madctlMV  byte = 0x20
	madctlBGR byte = 0x08

	colmod16bpp byte = 0x55
)

// defaultMaxTx is used when the port does not report its transfer limit. It
// matches the default spidev buffer size.
const defaultMaxTx = 4096

// Cmd is one register write of the vendor initialization sequence.
type Cmd struct {
	Cmd   byte
	Data  []byte
	Delay time.Duration
}

// Opts defines the options for the device.
type Opts struct {
	W int
	H int
	// XOffset and YOffset are added to the column and row addresses, for
	// glass smaller than the controller RAM.
	XOffset int
	YOffset int
	// MirrorX, MirrorY and SwapXY map to the MX, MY and MV bits of MADCTL.
	MirrorX bool
	MirrorY bool
	SwapXY  bool
	// BGR swaps red and blue on panels wired in BGR order.
	BGR bool
	// Invert turns on color inversion; most IPS glass needs it.
	Invert bool
	// Speed is the SPI clock. Zero selects 40MHz.
	Speed physic.Frequency
	// Quad sends pixels with the four lines write opcode. Only set it when the
	// port really drives D0-D3; a single line port must leave it off.
	Quad bool
	// InitCmds is the vendor specific sequence sent after reset.
	InitCmds []Cmd
}

// DefaultOpts is the configuration of the common 3.5" 320x480 IPS module.
var DefaultOpts = Opts{
	W:        320,
	H:        480,
	Speed:    40 * physic.MegaHertz,
	InitCmds: vendorInit,
}

// vendorInit is the part of the bring up that does not depend on the glass.
// Modules shipping with tuned gamma and power registers need their vendor
// table passed in Opts.InitCmds.
var vendorInit = []Cmd{
	{Cmd: norOn},
}

// NewSPI returns a Dev object that communicates over QSPI to an AXS15231B
// display controller.
//
// cs may be nil when the port drives the chip select line itself. rst may be
// nil when the reset line is not wired; a software reset is used then.
//
// The display is not initialized; call Init.
func NewSPI(p spi.Port, cs, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if cs == gpio.INVALID || rst == gpio.INVALID {
		return nil, fmt.Errorf("axs15231b: use nil for unwired pins, do not use gpio.INVALID")
	}
	if opts.W <= 0 || opts.H <= 0 {
		return nil, fmt.Errorf("axs15231b: invalid size %dx%d", opts.W, opts.H)
	}
	speed := opts.Speed
	if speed == 0 {
		speed = 40 * physic.MegaHertz
	}
	if cs != nil {
		if err := cs.Out(gpio.High); err != nil {
			return nil, err
		}
	}
	if rst != nil {
		if err := rst.Out(gpio.High); err != nil {
			return nil, err
		}
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	return newDev(c, cs, rst, opts), nil
}

func newDev(c conn.Conn, cs, rst gpio.PinOut, opts *Opts) *Dev {
	maxTx := defaultMaxTx
	if l, ok := c.(conn.Limits); ok {
		if n := l.MaxTxSize(); n > 4 {
			maxTx = n
		}
	}
	return &Dev{
		c:     c,
		cs:    cs,
		rst:   rst,
		opts:  *opts,
		rect:  image.Rect(0, 0, opts.W, opts.H),
		maxTx: maxTx,
		tx:    make([]byte, 0, maxTx),
		sleep: time.Sleep,
	}
}

// Dev is an open handle to the display controller.
type Dev struct {
	// Communication
	c   conn.Conn
	cs  gpio.PinOut
	rst gpio.PinOut

	opts Opts
	rect image.Rectangle

	// maxTx is the largest single transfer, header included.
	maxTx int
	// tx is reused for every transfer to not allocate per frame.
	tx []byte

	halted bool
	sleep  func(time.Duration)
}

func (d *Dev) String() string {
	if d.cs == nil {
		return fmt.Sprintf("axs15231b.Dev{%s, %s}", d.c, d.rect.Max)
	}
	return fmt.Sprintf("axs15231b.Dev{%s, %s, %s}", d.c, d.cs, d.rect.Max)
}

// Init resets the controller, sends the initialization sequence and turns
// the display on.
func (d *Dev) Init() error {
	eh := errorHandler{d: d}
	initPanel(&eh, &d.opts)
	if eh.err != nil {
		return fmt.Errorf("axs15231b: init failed: %w", eh.err)
	}
	d.halted = false
	return nil
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// DrawBitmap writes pix to the area r of the display RAM.
//
// r.Max is exclusive. pix must hold exactly r.Dx()*r.Dy() big endian RGB565
// pixels, row after row, which is the layout of rgb565.Image.Pix for an image
// of the size of r.
func (d *Dev) DrawBitmap(r image.Rectangle, pix []byte) error {
	if r.Empty() {
		return nil
	}
	if !r.In(d.rect) {
		return fmt.Errorf("axs15231b: area %s is outside of %s", r, d.rect)
	}
	if want := 2 * r.Dx() * r.Dy(); len(pix) != want {
		return fmt.Errorf("axs15231b: invalid pixel stream length; expected %d bytes, got %d bytes", want, len(pix))
	}
	eh := errorHandler{d: d}
	if d.halted {
		// Transparently enable the display.
		eh.sendCommand(slpOut)
		eh.delay(120 * time.Millisecond)
		eh.sendCommand(dispOn)
		d.halted = eh.err != nil
	}
	x0, x1 := r.Min.X+d.opts.XOffset, r.Max.X-1+d.opts.XOffset
	y0, y1 := r.Min.Y+d.opts.YOffset, r.Max.Y-1+d.opts.YOffset
	eh.sendCommand(caSet, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1))
	eh.sendCommand(raSet, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1))
	eh.writePixels(pix)
	return eh.err
}

// Draw implements display.Drawer.
//
// It draws synchronously, once this function returns, the display RAM is
// updated.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	dst := r.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}
	sp = sp.Add(dst.Min.Sub(r.Min))
	srcR := image.Rectangle{Min: sp, Max: sp.Add(dst.Size())}
	if img, ok := src.(*rgb565.Image); ok && srcR.In(img.Rect) {
		// Native encoding: no conversion.
		return d.DrawBitmap(dst, img.Bytes(srcR))
	}
	next := rgb565.NewImage(dst)
	draw.Src.Draw(next, dst, src, sp)
	return d.DrawBitmap(dst, next.Pix)
}

// DisplayOn turns the display output on or off. The display RAM is kept.
func (d *Dev) DisplayOn(on bool) error {
	eh := errorHandler{d: d}
	if on {
		eh.sendCommand(dispOn)
	} else {
		eh.sendCommand(dispOff)
	}
	return eh.err
}

// Invert the display colors.
func (d *Dev) Invert(invert bool) error {
	eh := errorHandler{d: d}
	if invert {
		eh.sendCommand(invOn)
	} else {
		eh.sendCommand(invOff)
	}
	return eh.err
}

// Halt turns off the display and puts the controller to sleep.
//
// Drawing afterward turns the display back on.
func (d *Dev) Halt() error {
	eh := errorHandler{d: d}
	eh.sendCommand(dispOff)
	eh.sendCommand(slpIn)
	eh.delay(5 * time.Millisecond)
	if eh.err == nil {
		d.halted = true
	}
	return eh.err
}

var _ display.Drawer = &Dev{}
