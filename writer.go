// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sloghilog

import (
	"bufio"
	"bytes"
	"io"
)

// MaxMessageLen is the largest message written in a single HiLog call.
// Longer output is split across several lines instead of being truncated by
// the platform.
const MaxMessageLen = 4000

// Writer is an io.Writer that prints everything written to it through a Sink.
// Bytes are buffered up to MaxMessageLen and each full buffer, or whatever is
// pending at Flush, becomes one line. A Writer is not safe for concurrent use;
// create one per record.
//
// The buffering follows bufio.Writer: once a line fails to encode, the error
// is returned by every later Write and Flush until Reset is called.
type Writer struct {
	inner *bufio.Writer
	raw   *lineWriter
}

// NewWriter returns a Writer that prints at level under domain and tag.
func NewWriter(level Level, domain uint16, tag *CappedTag, sink Sink) *Writer {
	raw := &lineWriter{
		level:  level.LogLevel(),
		domain: domain,
		tag:    tag,
		sink:   sink,
	}
	return &Writer{
		inner: bufio.NewWriterSize(raw, MaxMessageLen),
		raw:   raw,
	}
}

// Write buffers p, printing a line each time the buffer fills.
func (w *Writer) Write(p []byte) (int, error) {
	return w.inner.Write(p)
}

// WriteString is Write for strings.
func (w *Writer) WriteString(s string) (int, error) {
	return w.inner.WriteString(s)
}

// Flush prints any buffered bytes. Flushing an empty Writer prints nothing.
func (w *Writer) Flush() error {
	return w.inner.Flush()
}

// Buffered returns the number of bytes waiting for the next line.
func (w *Writer) Buffered() int {
	return w.inner.Buffered()
}

// Reset discards buffered bytes and any sticky error.
func (w *Writer) Reset() {
	w.inner.Reset(w.raw)
}

// Domain returns the domain every line is printed under.
func (w *Writer) Domain() uint16 {
	return w.raw.domain
}

// lineWriter turns each Write into at most one Sink call.
type lineWriter struct {
	level  LogLevel
	domain uint16
	tag    *CappedTag
	sink   Sink
}

// Write prints the first MaxMessageLen bytes of p and reports how many it
// consumed. The caller is expected to write the remainder again.
func (lw *lineWriter) Write(p []byte) (int, error) {
	n := min(len(p), MaxMessageLen)
	line := p[:n]
	if i := bytes.IndexByte(line, 0); i >= 0 {
		return 0, &EncodingError{Subject: "message", Offset: i}
	}
	lw.sink.Print(LogTypeApp, lw.level, lw.domain, lw.tag, PublicFormat, line)
	return n, nil
}

// WriterFactory creates Writers that share one domain, tag and sink.
type WriterFactory struct {
	domain uint16
	tag    *CappedTag
	sink   Sink
}

// NewWriterFactory caps tag and returns a factory for it.
func NewWriterFactory(domain uint16, tag string, sink Sink) (*WriterFactory, error) {
	capped, err := CapTag(tag)
	if err != nil {
		return nil, err
	}
	return &WriterFactory{domain: domain, tag: capped, sink: sink}, nil
}

// MakeWriter returns a fresh Writer for level.
func (f *WriterFactory) MakeWriter(level Level) *Writer {
	return NewWriter(level, f.domain, f.tag, f.sink)
}

// Tag returns the shared capped tag.
func (f *WriterFactory) Tag() *CappedTag {
	return f.tag
}

var (
	_ io.Writer       = (*Writer)(nil)
	_ io.StringWriter = (*Writer)(nil)
)
