// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package surface

import "image"

func areaSize(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// touches reports whether a and b overlap or share an edge.
func touches(a, b image.Rectangle) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X && a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}

// joinAreas merges areas that overlap or touch when their bounding box is not
// larger than the two areas together, so that nothing is redrawn needlessly.
// Empty areas are dropped. The input slice is reused.
func joinAreas(areas []image.Rectangle) []image.Rectangle {
	out := areas[:0]
	for _, a := range areas {
		if !a.Empty() {
			out = append(out, a)
		}
	}
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if !touches(out[i], out[j]) {
					continue
				}
				u := out[i].Union(out[j])
				if areaSize(u) > areaSize(out[i])+areaSize(out[j]) {
					continue
				}
				out[i] = u
				out = append(out[:j], out[j+1:]...)
				merged = true
				j--
			}
		}
	}
	return out
}
