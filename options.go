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
	"io"
	"log/slog"
	"os"
	"strings"
)

// Option mutates Handler construction when supplied to [NewHandler]. Options
// are applied in order after environment overrides.
type Option func(*options)

// Middleware adapts a [slog.Handler] before it is exposed by [Handler].
// Middlewares wrap the core handler from last to first.
type Middleware func(slog.Handler) slog.Handler

type options struct {
	level          *slog.Level
	levelVar       *slog.LevelVar
	format         *Format
	addSource      *bool
	emitTime       *bool
	sink           Sink
	target         *target
	writer         io.Writer
	filePath       string
	replaceAttr    func([]string, slog.Attr) slog.Attr
	middlewares    []Middleware
	attrs          []groupedAttr
	groups         []string
	groupsSet      bool
	internalLogger *slog.Logger
}

// WithLevel sets the minimum level accepted by the handler. Both slog levels
// and [Level] values are accepted through [slog.Leveler].
func WithLevel(level slog.Leveler) Option {
	return func(o *options) {
		if level == nil {
			return
		}
		lv := level.Level()
		o.level = &lv
	}
}

// WithLevelVar shares levelVar with the handler so the minimum level can be
// changed at runtime. The handler adopts levelVar's current value.
func WithLevelVar(levelVar *slog.LevelVar) Option {
	return func(o *options) {
		if levelVar != nil {
			o.levelVar = levelVar
		}
	}
}

// WithFormat selects text or JSON rendering.
func WithFormat(format Format) Option {
	return func(o *options) {
		o.format = &format
	}
}

// WithSourceLocationEnabled prefixes each record with its file and line.
func WithSourceLocationEnabled(enabled bool) Option {
	return func(o *options) {
		o.addSource = &enabled
	}
}

// WithTime toggles a leading timestamp. It is off by default because HiLog
// stamps every line itself.
func WithTime(enabled bool) Option {
	return func(o *options) {
		o.emitTime = &enabled
	}
}

// WithSink prints through sink, ignoring any target configuration.
func WithSink(sink Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithRedirectToHiLog requires the native HiLog sink. NewHandler fails with
// ErrNativeUnavailable when it cannot be used.
func WithRedirectToHiLog() Option {
	return func(o *options) {
		o.setTarget(targetHiLog, nil, "")
	}
}

// WithRedirectToStdout prints hilog-formatted lines to stdout.
func WithRedirectToStdout() Option {
	return func(o *options) {
		o.setTarget(targetStdout, os.Stdout, "")
	}
}

// WithRedirectToStderr prints hilog-formatted lines to stderr.
func WithRedirectToStderr() Option {
	return func(o *options) {
		o.setTarget(targetStderr, os.Stderr, "")
	}
}

// WithRedirectToFile appends hilog-formatted lines to the file at path,
// creating it if necessary. The handler owns the file; see
// [Handler.ReopenLogFile] and [Handler.Close].
func WithRedirectToFile(path string) Option {
	trimmed := strings.TrimSpace(path)
	return func(o *options) {
		o.setTarget(targetFile, nil, trimmed)
	}
}

// WithRedirectWriter prints hilog-formatted lines to w without taking
// ownership of it.
func WithRedirectWriter(w io.Writer) Option {
	return func(o *options) {
		o.setTarget(targetWriter, w, "")
	}
}

// WithReplaceAttr installs an attribute replacer mirroring
// [slog.HandlerOptions.ReplaceAttr].
func WithReplaceAttr(fn func([]string, slog.Attr) slog.Attr) Option {
	return func(o *options) {
		o.replaceAttr = fn
	}
}

// WithMiddleware appends a middleware around the core handler.
func WithMiddleware(mw Middleware) Option {
	return func(o *options) {
		if mw != nil {
			o.middlewares = append(o.middlewares, mw)
		}
	}
}

// WithAttrs preloads attributes attached to every record.
func WithAttrs(attrs []slog.Attr) Option {
	return func(o *options) {
		groups := append([]string(nil), o.groups...)
		for _, a := range attrs {
			o.attrs = append(o.attrs, groupedAttr{groups: groups, attr: a})
		}
	}
}

// WithGroup nests subsequent attributes under name. An empty name resets
// the group stack.
func WithGroup(name string) Option {
	trimmed := strings.TrimSpace(name)
	return func(o *options) {
		o.groupsSet = true
		if trimmed == "" {
			o.groups = nil
			return
		}
		o.groups = append(o.groups, trimmed)
	}
}

// WithInternalLogger injects the logger used for the handler's own
// diagnostics. The default discards them.
func WithInternalLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.internalLogger = logger
	}
}

func (o *options) setTarget(t target, w io.Writer, path string) {
	o.target = &t
	o.writer = w
	o.filePath = path
}

// applyOptions merges caller options into cfg.
func applyOptions(cfg *handlerConfig, o *options) {
	if o.level != nil {
		cfg.Level = *o.level
	}
	if o.levelVar != nil {
		cfg.Level = o.levelVar.Level()
	}
	if o.format != nil {
		cfg.Format = *o.format
	}
	if o.addSource != nil {
		cfg.AddSource = *o.addSource
	}
	if o.emitTime != nil {
		cfg.EmitTime = *o.emitTime
	}
	if o.target != nil {
		cfg.setTarget(*o.target, o.writer, o.filePath)
	}
	if o.sink != nil {
		cfg.sink = o.sink
	}
	if o.replaceAttr != nil {
		cfg.ReplaceAttr = o.replaceAttr
	}
	if len(o.middlewares) > 0 {
		cfg.Middlewares = append([]Middleware(nil), o.middlewares...)
	}
	if len(o.attrs) > 0 {
		cfg.InitialAttrs = append(cfg.InitialAttrs, o.attrs...)
	}
	if o.groupsSet {
		cfg.InitialGroups = append([]string(nil), o.groups...)
	}
}
