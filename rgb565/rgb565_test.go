// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rgb565

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromRGB(t *testing.T) {
	for _, tc := range []struct {
		r, g, b uint8
		want    Color
	}{
		{0, 0, 0, Black},
		{255, 255, 255, White},
		{255, 0, 0, Red},
		{0, 255, 0, Green},
		{0, 0, 255, Blue},
		{0x84, 0x82, 0x84, 0x8410},
	} {
		if got := FromRGB(tc.r, tc.g, tc.b); got != tc.want {
			t.Errorf("FromRGB(%d, %d, %d) = %#04x, want %#04x", tc.r, tc.g, tc.b, uint16(got), uint16(tc.want))
		}
	}
}

func TestColorRGBA(t *testing.T) {
	r, g, b, a := White.RGBA()
	if r != 0xFFFF || g != 0xFFFF || b != 0xFFFF || a != 0xFFFF {
		t.Fatalf("White.RGBA() = %x %x %x %x", r, g, b, a)
	}
	r, g, b, _ = Red.RGBA()
	if r != 0xFFFF || g != 0 || b != 0 {
		t.Fatalf("Red.RGBA() = %x %x %x", r, g, b)
	}
	if got := Model.Convert(color.RGBA{0, 0, 255, 255}); got != Blue {
		t.Fatalf("Model.Convert(blue) = %v", got)
	}
}

func TestImageBigEndian(t *testing.T) {
	img := NewImage(image.Rect(0, 0, 2, 2))
	img.SetRGB565(1, 0, 0x1234)
	img.Set(0, 1, color.RGBA{255, 0, 0, 255})
	want := []byte{
		0x00, 0x00, 0x12, 0x34,
		0xF8, 0x00, 0x00, 0x00,
	}
	if diff := cmp.Diff(img.Pix, want); diff != "" {
		t.Fatalf("Pix difference (-got +want):\n%s", diff)
	}
	if got := img.RGB565At(1, 0); got != 0x1234 {
		t.Fatalf("RGB565At(1, 0) = %#04x", uint16(got))
	}
	if got := img.RGB565At(5, 5); got != Black {
		t.Fatalf("RGB565At() out of bounds = %v", got)
	}
}

func TestSubImageAndBytes(t *testing.T) {
	img := NewImage(image.Rect(0, 0, 4, 3))
	img.Fill(image.Rect(1, 1, 3, 3), 0xABCD)

	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*Image)
	if got := sub.RGB565At(2, 2); got != 0xABCD {
		t.Fatalf("sub.RGB565At(2, 2) = %#04x", uint16(got))
	}
	sub.SetRGB565(1, 1, White)
	if got := img.RGB565At(1, 1); got != White {
		t.Fatalf("sub-image does not share pixels with parent")
	}

	got := img.Bytes(image.Rect(2, 1, 4, 3))
	want := []byte{0xAB, 0xCD, 0x00, 0x00, 0xAB, 0xCD, 0x00, 0x00}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Fatalf("Bytes() difference (-got +want):\n%s", diff)
	}
	if n := len(img.Bytes(img.Rect)); n != 4*3*2 {
		t.Fatalf("len(Bytes(full)) = %d", n)
	}
	if b := img.Bytes(image.Rect(10, 10, 12, 12)); b != nil {
		t.Fatalf("Bytes() outside of image = %v", b)
	}
}

func TestConvert(t *testing.T) {
	src := image.NewUniform(color.RGBA{0, 255, 0, 255})
	img := Convert(image.Rect(0, 0, 3, 1), src, image.Point{})
	for x := 0; x < 3; x++ {
		if got := img.RGB565At(x, 0); got != Green {
			t.Errorf("RGB565At(%d, 0) = %v, want Green", x, got)
		}
	}
}
