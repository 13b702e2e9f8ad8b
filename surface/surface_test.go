// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package surface

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/GermanBionicSystems/lcdlabel/rgb565"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

// flushRecorder records every flush and signals completion synchronously.
type flushRecorder struct {
	areas  []image.Rectangle
	frames [][]byte
}

func (f *flushRecorder) flush(s *Surface, area image.Rectangle, px []byte) {
	f.areas = append(f.areas, area)
	f.frames = append(f.frames, append([]byte(nil), px...))
	s.FlushReady()
}

func TestNew_errors(t *testing.T) {
	var f flushRecorder
	for _, tc := range []struct {
		name  string
		opts  Opts
		flush FlushFunc
	}{
		{"no flush", Opts{Width: 8, Height: 8}, nil},
		{"no size", Opts{}, f.flush},
		{"buffers", Opts{Width: 8, Height: 8, Buffers: 3}, f.flush},
		{"lines", Opts{Width: 8, Height: 8, BufLines: 9}, f.flush},
		{"mode", Opts{Width: 8, Height: 8, Mode: RenderMode(7)}, f.flush},
	} {
		if _, err := New(&tc.opts, tc.flush); err == nil {
			t.Errorf("%s: New() succeeded", tc.name)
		}
	}
}

func TestHandle_partialBands(t *testing.T) {
	var f flushRecorder
	s, err := New(&Opts{Width: 10, Height: 10, BufLines: 3, Background: 0x1234}, f.flush)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Handle(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []image.Rectangle{
		image.Rect(0, 0, 10, 3),
		image.Rect(0, 3, 10, 6),
		image.Rect(0, 6, 10, 9),
		image.Rect(0, 9, 10, 10),
	}
	if diff := cmp.Diff(f.areas, want); diff != "" {
		t.Fatalf("flushed areas difference (-got +want):\n%s", diff)
	}
	for i, px := range f.frames {
		if len(px) != 2*areaSize(want[i]) {
			t.Fatalf("frame %d is %d bytes, want %d", i, len(px), 2*areaSize(want[i]))
		}
		for j := 0; j < len(px); j += 2 {
			if px[j] != 0x12 || px[j+1] != 0x34 {
				t.Fatalf("frame %d pixel %d = %x%x, want background", i, j/2, px[j], px[j+1])
			}
		}
	}

	// Nothing is dirty anymore.
	f.areas = nil
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.areas) != 0 {
		t.Fatalf("unexpected flushes: %v", f.areas)
	}
}

func TestHandle_narrowAreaUsesMoreLines(t *testing.T) {
	var f flushRecorder
	s, err := New(&Opts{Width: 10, Height: 10, BufLines: 2}, f.flush)
	if err != nil {
		t.Fatal(err)
	}
	s.dirty = nil
	s.Invalidate(image.Rect(0, 0, 5, 4))
	if err := s.Handle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f.areas, []image.Rectangle{image.Rect(0, 0, 5, 4)}); diff != "" {
		t.Fatalf("flushed areas difference (-got +want):\n%s", diff)
	}
}

func TestHandle_direct(t *testing.T) {
	var f flushRecorder
	s, err := New(&Opts{Width: 8, Height: 8, Mode: Direct}, f.flush)
	if err != nil {
		t.Fatal(err)
	}
	s.dirty = nil
	s.Invalidate(image.Rect(2, 2, 4, 5))
	s.Invalidate(image.Rect(-5, -5, 1, 1))
	if err := s.Handle(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []image.Rectangle{image.Rect(2, 2, 4, 5), image.Rect(0, 0, 1, 1)}
	if diff := cmp.Diff(f.areas, want); diff != "" {
		t.Fatalf("flushed areas difference (-got +want):\n%s", diff)
	}
	if len(f.frames[0]) != 2*2*3 {
		t.Fatalf("frame is %d bytes", len(f.frames[0]))
	}
}

func TestHandle_full(t *testing.T) {
	var f flushRecorder
	s, err := New(&Opts{Width: 8, Height: 4, Mode: Full}, f.flush)
	if err != nil {
		t.Fatal(err)
	}
	s.dirty = nil
	s.Invalidate(image.Rect(1, 1, 2, 2))
	if err := s.Handle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f.areas, []image.Rectangle{image.Rect(0, 0, 8, 4)}); diff != "" {
		t.Fatalf("flushed areas difference (-got +want):\n%s", diff)
	}
	if len(f.frames[0]) != 2*8*4 {
		t.Fatalf("frame is %d bytes", len(f.frames[0]))
	}
}

func TestHandle_refreshPeriod(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var f flushRecorder
	s, err := New(&Opts{Width: 4, Height: 4, Mode: Full, RefreshPeriod: 30 * time.Millisecond, Clock: clock}, f.flush)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Handle(ctx); err != nil {
		t.Fatal(err)
	}
	s.Lock()
	s.InvalidateAll()
	s.Unlock()
	if err := s.Handle(ctx); err != nil {
		t.Fatal(err)
	}
	if len(f.areas) != 1 {
		t.Fatalf("rendered %d times within the refresh period", len(f.areas))
	}
	clock.Advance(30 * time.Millisecond)
	if err := s.Handle(ctx); err != nil {
		t.Fatal(err)
	}
	if len(f.areas) != 2 {
		t.Fatalf("rendered %d times after the refresh period, want 2", len(f.areas))
	}
}

func TestFlushReady_pendingBlocksReuse(t *testing.T) {
	var areas []image.Rectangle
	flush := func(s *Surface, area image.Rectangle, px []byte) {
		// Completion is signaled later.
		areas = append(areas, area)
	}
	s, err := New(&Opts{Width: 4, Height: 4, BufLines: 2, Buffers: 1}, flush)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Handle(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Handle() = %v, want deadline exceeded", err)
	}
	if len(areas) != 1 {
		t.Fatalf("buffer was reused before FlushReady: %d flushes", len(areas))
	}

	// The band that could not be flushed stays invalidated.
	if diff := cmp.Diff(s.dirty, []image.Rectangle{image.Rect(0, 2, 4, 4)}); diff != "" {
		t.Fatalf("dirty areas difference (-got +want):\n%s", diff)
	}

	s.FlushReady()
	// A spurious call does not free anything.
	s.FlushReady()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if err := s.Refresh(ctx2); err != nil {
		t.Fatal(err)
	}
	want := []image.Rectangle{image.Rect(0, 0, 4, 2), image.Rect(0, 2, 4, 4)}
	if diff := cmp.Diff(areas, want); diff != "" {
		t.Fatalf("flushed areas difference (-got +want):\n%s", diff)
	}
	if len(s.dirty) != 0 {
		t.Fatalf("unexpected dirty areas %v", s.dirty)
	}

	// The only buffer is still pending.
	s.InvalidateAll()
	ctx3, cancel3 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel3()
	if err := s.Refresh(ctx3); err == nil {
		t.Fatal("Refresh() must wait for the pending flush")
	} else if len(areas) != 2 {
		t.Fatalf("%d flushes, want 2", len(areas))
	}
}

func TestHandle_failureKeepsDirty(t *testing.T) {
	for _, mode := range []RenderMode{Direct, Full} {
		t.Run(mode.String(), func(t *testing.T) {
			flushes := 0
			flush := func(s *Surface, area image.Rectangle, px []byte) {
				// Never released.
				flushes++
			}
			s, err := New(&Opts{Width: 8, Height: 8, Mode: mode, Buffers: 1}, flush)
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Refresh(context.Background()); err != nil {
				t.Fatal(err)
			}
			s.Lock()
			s.Invalidate(image.Rect(1, 1, 3, 3))
			s.Invalidate(image.Rect(5, 5, 7, 7))
			s.Unlock()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			if err := s.Refresh(ctx); !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("Refresh() = %v, want deadline exceeded", err)
			}
			if flushes != 1 {
				t.Fatalf("%d flushes, want 1", flushes)
			}
			want := []image.Rectangle{image.Rect(1, 1, 3, 3), image.Rect(5, 5, 7, 7)}
			if mode == Full {
				want = []image.Rectangle{s.Bounds()}
			}
			if diff := cmp.Diff(s.dirty, want); diff != "" {
				t.Fatalf("dirty areas difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestFlushReady_async(t *testing.T) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	calls := 0
	flush := func(s *Surface, area image.Rectangle, px []byte) {
		mu.Lock()
		calls++
		mu.Unlock()
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(time.Millisecond)
			s.FlushReady()
		}()
	}
	s, err := New(&Opts{Width: 8, Height: 8, BufLines: 1, Buffers: 2}, flush)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Handle(ctx); err != nil {
		t.Fatal(err)
	}
	wg.Wait()
	if calls != 8 {
		t.Fatalf("%d flushes, want 8", calls)
	}
	// Both buffers are free again.
	for i, c := range s.free {
		if len(c) != 1 {
			t.Fatalf("buffer %d not released", i)
		}
	}
}

func TestLabel(t *testing.T) {
	var f flushRecorder
	s, err := New(&Opts{Width: 64, Height: 32, Mode: Full}, f.flush)
	if err != nil {
		t.Fatal(err)
	}
	s.Lock()
	l := s.NewLabel("Hi", nil)
	s.Unlock()

	area := l.Area()
	if area.Dy() != 13 || area.Dx() != 14 {
		t.Fatalf("label area %v, want 14x13", area)
	}
	if want := image.Pt((64-14)/2, (32-13)/2); area.Min != want {
		t.Fatalf("label at %v, want centered at %v", area.Min, want)
	}
	if err := s.Handle(context.Background()); err != nil {
		t.Fatal(err)
	}
	img := &rgb565.Image{Pix: f.frames[0], Stride: 2 * 64, Rect: s.Bounds()}
	lit := 0
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			if img.RGB565At(x, y) == rgb565.Black {
				continue
			}
			if !(image.Point{x, y}.In(area)) {
				t.Fatalf("pixel (%d, %d) lit outside of the label", x, y)
			}
			lit++
		}
	}
	if lit == 0 {
		t.Fatal("label was not drawn")
	}
}

func TestLabel_updatesInvalidate(t *testing.T) {
	var f flushRecorder
	s, err := New(&Opts{Width: 100, Height: 40}, f.flush)
	if err != nil {
		t.Fatal(err)
	}
	s.Lock()
	l := s.NewLabel("a", nil)
	s.dirty = nil
	old := l.Area()
	l.SetText("abc")
	s.Unlock()

	if diff := cmp.Diff(s.dirty, []image.Rectangle{old, l.Area()}); diff != "" {
		t.Fatalf("invalidated areas difference (-got +want):\n%s", diff)
	}
	if l.Text() != "abc" {
		t.Fatalf("Text() = %q", l.Text())
	}

	s.Lock()
	s.dirty = nil
	l.SetText("abc")
	s.Unlock()
	if len(s.dirty) != 0 {
		t.Fatal("unchanged text must not invalidate")
	}

	s.Lock()
	l.Align(TopLeft, 3, 4)
	l.SetColor(color.RGBA{255, 0, 0, 255})
	s.Unlock()
	if got := l.Area().Min; got != image.Pt(3, 4) {
		t.Fatalf("aligned at %v", got)
	}
}

func TestLabel_setFontNil(t *testing.T) {
	var f flushRecorder
	s, err := New(&Opts{Width: 64, Height: 32}, f.flush)
	if err != nil {
		t.Fatal(err)
	}
	face, err := GoRegular(20)
	if err != nil {
		t.Fatal(err)
	}
	s.Lock()
	l := s.NewLabel("Hi", face)
	big := l.Area()
	l.SetFont(nil)
	s.Unlock()

	if l.face != DefaultFace() {
		t.Fatal("nil face must select the built-in font")
	}
	if got := l.Area(); got.Empty() || got == big {
		t.Fatalf("label area %v after SetFont(nil), was %v", got, big)
	}
}

func TestGoRegular(t *testing.T) {
	face, err := GoRegular(24)
	if err != nil {
		t.Fatal(err)
	}
	if h := face.Metrics().Height.Ceil(); h < 24 || h > 32 {
		t.Fatalf("unexpected line height %d", h)
	}
	if _, err := GoRegular(0); err == nil {
		t.Fatal("zero size must be rejected")
	}
}
