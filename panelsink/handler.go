// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsink

import (
	"log"
	"mime"
	"net/http"
	"net/textproto"
)

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

// ServeHTTP implements http.Handler.
//
// GET requests receive a stream of images of the panel, one per write. The
// "format" parameter ("?format=png", "?format=jpeg") overrides the default
// format.
func (s *Sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.Body.Close(); err != nil {
		log.Printf("panelsink: closing request body: %v", err)
	}
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	format := s.defaultFormat
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := ParseFormat(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	pw := newPartWriter(w)
	w.Header().Set("Content-Type", mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
		"boundary": pw.boundary,
	}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", format.mimeType())
	header.Set("Content-Transfer-Encoding", "binary")

	for {
		payload, err := s.snapshotCopy(format)
		if err != nil {
			log.Printf("panelsink: encoding %s: %v", format, err)
			return
		}
		err = pw.writePart(header, payload)
		putBuffer(payload)
		if err != nil {
			// There is no way to report an error inside an image stream.
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}

var _ http.Handler = &Sink{}
