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
	"context"
	"log/slog"
	"runtime"
	"sync"
)

type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

var recordBufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// recordHandler renders each record and prints it through a fresh Writer.
// Its state is never mutated after construction, so derived handlers share
// slices without locking.
type recordHandler struct {
	cfg            *handlerConfig
	leveler        slog.Leveler
	factory        *WriterFactory
	internalLogger *slog.Logger

	groupedAttrs []groupedAttr
	groups       []string
}

func newRecordHandler(cfg *handlerConfig, leveler slog.Leveler, factory *WriterFactory, internalLogger *slog.Logger) *recordHandler {
	if leveler == nil {
		leveler = slog.LevelInfo
	}
	h := &recordHandler{
		cfg:            cfg,
		leveler:        leveler,
		factory:        factory,
		internalLogger: internalLogger,
		groups:         append([]string(nil), cfg.InitialGroups...),
	}
	for _, ga := range cfg.InitialAttrs {
		if ga.attr.Equal(slog.Attr{}) {
			continue
		}
		h.groupedAttrs = append(h.groupedAttrs, ga)
	}
	return h
}

// Enabled reports whether level passes the minimum level and, when the sink
// can tell, whether HiLog would keep the line.
func (h *recordHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level < h.leveler.Level() {
		return false
	}
	if ls, ok := h.factory.sink.(LoggableSink); ok {
		return ls.IsLoggable(h.factory.domain, h.factory.tag, Level(level).LogLevel())
	}
	return true
}

// Handle renders r and writes it through a Writer created for this record
// alone. Records longer than MaxMessageLen span several lines.
func (h *recordHandler) Handle(ctx context.Context, r slog.Record) error {
	buf := recordBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer recordBufferPool.Put(buf)

	if err := h.render(ctx, buf, r); err != nil {
		h.internalLogger.Error("failed to render record", slog.Any("error", err))
		return err
	}

	w := h.factory.MakeWriter(Level(r.Level))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.internalLogger.Error("failed to write record", slog.Any("error", err))
		return err
	}
	if err := w.Flush(); err != nil {
		h.internalLogger.Error("failed to flush record", slog.Any("error", err))
		return err
	}
	return nil
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *recordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	child := h.clone()
	groups := append([]string(nil), h.groups...)
	for _, a := range attrs {
		child.groupedAttrs = append(child.groupedAttrs, groupedAttr{groups: groups, attr: a})
	}
	return child
}

// WithGroup nests subsequent attributes under name.
func (h *recordHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	child := h.clone()
	child.groups = append(child.groups, name)
	return child
}

func (h *recordHandler) clone() *recordHandler {
	return &recordHandler{
		cfg:            h.cfg,
		leveler:        h.leveler,
		factory:        h.factory,
		internalLogger: h.internalLogger,
		groupedAttrs:   append([]groupedAttr(nil), h.groupedAttrs...),
		groups:         append([]string(nil), h.groups...),
	}
}

func (h *recordHandler) render(ctx context.Context, buf *bytes.Buffer, r slog.Record) error {
	var src *slog.Source
	if h.cfg.AddSource {
		src = recordSource(r)
	}
	traceAttrs := TraceAttributes(ctx)

	if h.cfg.Format == FormatJSON {
		return h.renderJSON(buf, r, src, traceAttrs)
	}
	h.renderText(buf, r, src, traceAttrs)
	return nil
}

// forEachAttr walks handler attributes, record attributes and trace
// attributes in that order, flattening groups and applying ReplaceAttr. fn
// receives the group path of each leaf attribute.
func (h *recordHandler) forEachAttr(r slog.Record, extra []slog.Attr, fn func(groups []string, a slog.Attr)) {
	var walk func(groups []string, a slog.Attr)
	walk = func(groups []string, a slog.Attr) {
		a.Value = a.Value.Resolve()
		if a.Value.Kind() == slog.KindGroup {
			children := a.Value.Group()
			if len(children) == 0 {
				return
			}
			next := groups
			if a.Key != "" {
				next = append(groups[:len(groups):len(groups)], a.Key)
			}
			for _, c := range children {
				walk(next, c)
			}
			return
		}
		if h.cfg.ReplaceAttr != nil {
			a = h.cfg.ReplaceAttr(groups, a)
			a.Value = a.Value.Resolve()
			if a.Value.Kind() == slog.KindGroup {
				walk(groups, a)
				return
			}
		}
		if a.Key == "" {
			return
		}
		fn(groups, a)
	}

	for _, ga := range h.groupedAttrs {
		walk(ga.groups, ga.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		walk(h.groups, a)
		return true
	})
	for _, a := range extra {
		walk(nil, a)
	}
}

// recordSource resolves the caller recorded in r.PC.
func recordSource(r slog.Record) *slog.Source {
	if r.PC == 0 {
		return nil
	}
	frames := runtime.CallersFrames([]uintptr{r.PC})
	frame, _ := frames.Next()
	if frame.File == "" {
		return nil
	}
	return &slog.Source{Function: frame.Function, File: frame.File, Line: frame.Line}
}
