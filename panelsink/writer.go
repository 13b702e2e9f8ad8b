// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsink

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
)

// randomBoundary generates a MIME multipart boundary compatible with RFC 2046
// (section 5.1.1).
func randomBoundary() string {
	var buf [30]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", buf[:])
}

// partWriter writes an endless multipart entity. mime/multipart.Writer
// cannot be used as every part must be terminated by its boundary line as
// soon as it is written, for the client to display it.
type partWriter struct {
	w        io.Writer
	boundary string
	started  bool
	hdr      bytes.Buffer
}

func newPartWriter(w io.Writer) *partWriter {
	return &partWriter{w: w, boundary: randomBoundary()}
}

// writePart writes one complete part. header is modified to carry the body
// length.
func (p *partWriter) writePart(header textproto.MIMEHeader, body []byte) error {
	header.Set("Content-Length", strconv.Itoa(len(body)))

	p.hdr.Reset()
	if !p.started {
		fmt.Fprintf(&p.hdr, "--%s\r\n", p.boundary)
		p.started = true
	}
	for name, values := range header {
		for _, v := range values {
			fmt.Fprintf(&p.hdr, "%s: %s\r\n", name, v)
		}
	}
	p.hdr.WriteString("\r\n")

	if _, err := p.hdr.WriteTo(p.w); err != nil {
		return err
	}
	if _, err := p.w.Write(body); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "\r\n--%s\r\n", p.boundary)
	return err
}
