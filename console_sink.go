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
	"fmt"
	"io"
	"strconv"
	"sync"
)

// ConsoleSink renders lines the way hilog prints them on a device console,
// for example:
//
//	I A03D00/homogrape: application started
//
// It is used when the native sink is unavailable and for the stdout, stderr
// and file targets. The destination can be swapped at runtime with SetWriter,
// which is how Handler.ReopenLogFile rotates files.
type ConsoleSink struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
	err error
}

// NewConsoleSink returns a ConsoleSink writing to w, or to io.Discard when w
// is nil.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = io.Discard
	}
	return &ConsoleSink{w: w}
}

// Print writes one line. Write failures are recorded and reported by Err; the
// Sink contract has no error path.
func (s *ConsoleSink) Print(logType LogType, level LogLevel, domain uint16, tag *CappedTag, _ string, msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buf[:0]
	b = append(b, level.String()...)
	b = append(b, ' ')
	b = append(b, logTypePrefix(logType))
	b = appendDomain(b, domain)
	b = append(b, '/')
	b = append(b, tag.String()...)
	b = append(b, ": "...)
	b = append(b, msg...)
	b = append(b, '\n')
	s.buf = b

	if _, err := s.w.Write(b); err != nil && s.err == nil {
		s.err = fmt.Errorf("sloghilog: console write: %w", err)
	}
}

// SetWriter swaps the destination. The previous writer is not closed. A nil
// writer routes subsequent lines to io.Discard.
func (s *ConsoleSink) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	s.w = w
}

// Writer returns the current destination.
func (s *ConsoleSink) Writer() io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w
}

// Err returns the first write error seen since construction.
func (s *ConsoleSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close closes the current destination if it is an io.Closer and routes
// further lines to io.Discard. It is idempotent.
func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	toClose := s.w
	s.w = io.Discard
	s.mu.Unlock()

	if c, ok := toClose.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("sloghilog: close console writer: %w", err)
		}
	}
	return nil
}

func logTypePrefix(t LogType) byte {
	if t == LogTypeApp {
		return 'A'
	}
	return 'C'
}

// appendDomain appends domain as five upper-case hex digits.
func appendDomain(b []byte, domain uint16) []byte {
	var tmp [8]byte
	hex := strconv.AppendUint(tmp[:0], uint64(domain), 16)
	for i := len(hex); i < 5; i++ {
		b = append(b, '0')
	}
	for _, c := range hex {
		if c >= 'a' && c <= 'f' {
			c -= 'a' - 'A'
		}
		b = append(b, c)
	}
	return b
}

var _ Sink = (*ConsoleSink)(nil)
