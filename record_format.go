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
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"
)

// renderText writes "[time ][file:line ]msg key=value ..." with group names
// joined to keys by dots.
func (h *recordHandler) renderText(buf *bytes.Buffer, r slog.Record, src *slog.Source, extra []slog.Attr) {
	if h.cfg.EmitTime && !r.Time.IsZero() {
		buf.WriteString(r.Time.Format(time.RFC3339Nano))
		buf.WriteByte(' ')
	}
	if src != nil {
		buf.WriteString(filepath.Base(src.File))
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(src.Line))
		buf.WriteByte(' ')
	}
	buf.WriteString(r.Message)

	h.forEachAttr(r, extra, func(groups []string, a slog.Attr) {
		buf.WriteByte(' ')
		for _, g := range groups {
			buf.WriteString(g)
			buf.WriteByte('.')
		}
		writeMaybeQuoted(buf, a.Key)
		buf.WriteByte('=')
		writeTextValue(buf, a.Value)
	})
}

func writeTextValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString:
		writeMaybeQuoted(buf, v.String())
	case slog.KindTime:
		buf.WriteString(v.Time().Format(time.RFC3339Nano))
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			writeMaybeQuoted(buf, x.Error())
		case encoding.TextMarshaler:
			data, err := x.MarshalText()
			if err != nil {
				writeMaybeQuoted(buf, "!ERROR:"+err.Error())
				return
			}
			writeMaybeQuoted(buf, string(data))
		case []byte:
			writeMaybeQuoted(buf, string(x))
		default:
			writeMaybeQuoted(buf, fmt.Sprint(x))
		}
	default:
		buf.WriteString(v.String())
	}
}

func writeMaybeQuoted(buf *bytes.Buffer, s string) {
	if needsQuoting(s) {
		buf.WriteString(strconv.Quote(s))
		return
	}
	buf.WriteString(s)
}

// needsQuoting reports whether s would be ambiguous or unprintable unquoted.
// Quoting also escapes NUL bytes, which HiLog cannot carry.
func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r == utf8.RuneError || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}

// renderJSON writes the record as a single JSON object without a trailing
// newline.
func (h *recordHandler) renderJSON(buf *bytes.Buffer, r slog.Record, src *slog.Source, extra []slog.Attr) error {
	payload := make(map[string]any, 4+r.NumAttrs())
	if h.cfg.EmitTime && !r.Time.IsZero() {
		payload[slog.TimeKey] = r.Time.Format(time.RFC3339Nano)
	}
	payload[slog.LevelKey] = Level(r.Level).String()
	payload[slog.MessageKey] = r.Message
	if src != nil {
		payload[slog.SourceKey] = src
	}

	h.forEachAttr(r, extra, func(groups []string, a slog.Attr) {
		m := payload
		for _, g := range groups {
			child, ok := m[g].(map[string]any)
			if !ok {
				child = make(map[string]any, 4)
				m[g] = child
			}
			m = child
		}
		m[a.Key] = jsonValue(a.Value)
	})

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("sloghilog: encode record: %w", err)
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

func jsonValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindFloat64:
		if f := v.Float64(); math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return v.Float64()
	case slog.KindAny:
		x := v.Any()
		if err, ok := x.(error); ok {
			if _, marshals := x.(json.Marshaler); !marshals {
				return err.Error()
			}
		}
		return x
	default:
		return v.Any()
	}
}
