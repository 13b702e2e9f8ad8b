// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsink

import "fmt"

// Format is the image format of the stream.
type Format int

const (
	PNG Format = iota
	JPEG

	// DefaultFormat is used when neither the options nor the request select
	// one.
	DefaultFormat = PNG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	default:
		return fmt.Sprint(int(f))
	}
}

func (f Format) mimeType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// ParseFormat returns the Format for a short name: "png", "jpg" or "jpeg".
func ParseFormat(value string) (Format, error) {
	switch value {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return DefaultFormat, fmt.Errorf("panelsink: unrecognized image format %q", value)
}
