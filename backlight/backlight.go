// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package backlight drives an LCD backlight with a PWM capable GPIO pin.
package backlight

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// MaxIntensity is the display.Intensity mapped to a full duty cycle.
const MaxIntensity display.Intensity = 255

// Opts defines the options for the backlight.
type Opts struct {
	// Frequency of the PWM signal. It must be high enough to not flicker and
	// low enough for the LED driver of the panel; a few kHz is typical.
	Frequency physic.Frequency
	// ActiveLow is set for panels where driving the pin low lights the LEDs.
	ActiveLow bool
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Frequency: 5 * physic.KiloHertz,
}

// Dev is a PWM driven backlight.
type Dev struct {
	pin  gpio.PinOut
	opts Opts
	duty gpio.Duty
}

// New configures the PWM channel of pin and leaves the backlight off.
func New(pin gpio.PinOut, opts *Opts) (*Dev, error) {
	if pin == nil || pin == gpio.INVALID {
		return nil, errors.New("backlight: a pin is required")
	}
	if opts.Frequency <= 0 {
		return nil, fmt.Errorf("backlight: invalid frequency %s", opts.Frequency)
	}
	d := &Dev{pin: pin, opts: *opts}
	if err := d.SetDuty(0); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("backlight.Dev{%s, %s, %s}", d.pin, d.opts.Frequency, d.duty)
}

// Duty returns the duty cycle last set.
func (d *Dev) Duty() gpio.Duty {
	return d.duty
}

// SetDuty sets the fraction of the PWM period during which the LEDs are lit.
func (d *Dev) SetDuty(duty gpio.Duty) error {
	if duty < 0 || duty > gpio.DutyMax {
		return fmt.Errorf("backlight: invalid duty %s", duty)
	}
	out := duty
	if d.opts.ActiveLow {
		out = gpio.DutyMax - duty
	}
	if err := d.pin.PWM(out, d.opts.Frequency); err != nil {
		return fmt.Errorf("backlight: %s: %w", d.pin, err)
	}
	d.duty = duty
	return nil
}

// Max sets the backlight to full brightness.
func (d *Dev) Max() error {
	return d.SetDuty(gpio.DutyMax)
}

// Backlight implements display.DisplayBacklight.
//
// Intensity is scaled linearly from [0, MaxIntensity] to the duty cycle.
func (d *Dev) Backlight(intensity display.Intensity) error {
	if intensity > MaxIntensity {
		intensity = MaxIntensity
	}
	return d.SetDuty(gpio.Duty(int64(intensity) * int64(gpio.DutyMax) / int64(MaxIntensity)))
}

// Halt implements conn.Resource. It turns the backlight off.
func (d *Dev) Halt() error {
	return d.SetDuty(0)
}

var _ display.DisplayBacklight = &Dev{}
