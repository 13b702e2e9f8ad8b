// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsink

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"sync"
)

// bufferPool stores reusable encoded frames.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return []byte(nil)
	},
}

func getBuffer() []byte {
	return bufferPool.Get().([]byte)[:0]
}

func putBuffer(b []byte) {
	if b != nil {
		//lint:ignore SA6002 b is a slice and thus pointer-like
		bufferPool.Put(b)
	}
}

type pngBufferPool sync.Pool

func (p *pngBufferPool) Get() *png.EncoderBuffer {
	buf, _ := (*sync.Pool)(p).Get().(*png.EncoderBuffer)
	return buf
}

func (p *pngBufferPool) Put(buf *png.EncoderBuffer) {
	(*sync.Pool)(p).Put(buf)
}

// pngBuffers is shared by every Sink.
var pngBuffers pngBufferPool

type encoder struct {
	jpegQuality int
	pngLevel    png.CompressionLevel
}

// encode appends img in format f to a pooled buffer.
func (e *encoder) encode(f Format, img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(getBuffer())
	switch f {
	case PNG:
		enc := png.Encoder{CompressionLevel: e.pngLevel, BufferPool: &pngBuffers}
		if err := enc.Encode(buf, img); err != nil {
			return nil, err
		}
	case JPEG:
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: e.jpegQuality}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("panelsink: unhandled image format %s", f)
	}
	return buf.Bytes(), nil
}

// snapshotCopy returns a copy of the panel encoded in f. The encoding is cached
// until the next write.
func (s *Sink) snapshotCopy(f Format) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.snapshot[f]
	if !ok {
		var err error
		if b, err = s.enc.encode(f, s.buffer); err != nil {
			return nil, err
		}
		s.snapshot[f] = b
	}
	return append(getBuffer(), b...), nil
}
