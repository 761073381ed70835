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
	"strings"
	"sync"
)

// printCall captures the arguments of one Sink.Print invocation.
type printCall struct {
	LogType LogType
	Level   LogLevel
	Domain  uint16
	Tag     string
	Format  string
	Msg     string
}

// recordingSink records every Print call for later inspection.
type recordingSink struct {
	mu    sync.Mutex
	calls []printCall
}

// Print stores a copy of the call arguments.
func (s *recordingSink) Print(logType LogType, level LogLevel, domain uint16, tag *CappedTag, format string, msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, printCall{
		LogType: logType,
		Level:   level,
		Domain:  domain,
		Tag:     tag.String(),
		Format:  format,
		Msg:     string(msg),
	})
}

// Calls returns a snapshot of the recorded calls.
func (s *recordingSink) Calls() []printCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]printCall(nil), s.calls...)
}

// Messages returns only the message of each recorded call.
func (s *recordingSink) Messages() []string {
	calls := s.Calls()
	msgs := make([]string, len(calls))
	for i, c := range calls {
		msgs[i] = c.Msg
	}
	return msgs
}

// gatedSink is a recordingSink that also implements LoggableSink.
type gatedSink struct {
	recordingSink
	allow func(domain uint16, tag *CappedTag, level LogLevel) bool
}

// IsLoggable defers to allow.
func (s *gatedSink) IsLoggable(domain uint16, tag *CappedTag, level LogLevel) bool {
	return s.allow(domain, tag, level)
}

// payload returns a deterministic printable payload of length n.
func payload(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[i%len(alphabet)])
	}
	return b.String()
}
