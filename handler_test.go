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
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/trace"
)

// newTestHandler builds a Handler printing into a recordingSink.
func newTestHandler(t *testing.T, opts ...Option) (*Handler, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	h, err := NewHandler(testDomain, "homogrape", append([]Option{WithSink(sink)}, opts...)...)
	if err != nil {
		t.Fatalf("NewHandler() returned %v, want nil", err)
	}
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Errorf("Handler.Close() returned %v, want nil", err)
		}
	})
	return h, sink
}

// TestHandlerPrintsRecord checks the basic record path end to end.
func TestHandlerPrintsRecord(t *testing.T) {
	t.Parallel()

	h, sink := newTestHandler(t)
	slog.New(h).Info("application started", "version", "1.2.0", "port", 8080)

	want := []printCall{{
		LogType: LogTypeApp,
		Level:   LogInfo,
		Domain:  testDomain,
		Tag:     "homogrape",
		Format:  PublicFormat,
		Msg:     "application started version=1.2.0 port=8080",
	}}
	if diff := cmp.Diff(want, sink.Calls()); diff != "" {
		t.Fatalf("Print calls mismatch (-want +got):\n%s", diff)
	}
	if h.Domain() != testDomain || h.Tag().String() != "homogrape" || h.Sink() != Sink(sink) {
		t.Fatalf("accessors = (%#x, %q, %v), want (%#x, homogrape, sink)", h.Domain(), h.Tag(), h.Sink(), testDomain)
	}
}

// TestHandlerLevels verifies gating and the HiLog level of every slog level.
func TestHandlerLevels(t *testing.T) {
	t.Parallel()

	h, sink := newTestHandler(t)
	logger := slog.New(h)
	logger.Debug("hidden")
	Trace(logger, "hidden")
	if got := len(sink.Calls()); got != 0 {
		t.Fatalf("Print calls below Info = %d, want 0", got)
	}

	h.SetLevel(LevelTrace)
	if h.Level() != LevelTrace.Level() {
		t.Fatalf("Level() = %v, want %v", h.Level(), LevelTrace.Level())
	}
	Trace(logger, "t")
	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	var got []LogLevel
	for _, c := range sink.Calls() {
		got = append(got, c.Level)
	}
	want := []LogLevel{LogDebug, LogDebug, LogInfo, LogWarn, LogError}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("levels mismatch (-want +got):\n%s", diff)
	}
}

// TestHandlerCapsTag ensures the tag is capped once at construction.
func TestHandlerCapsTag(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	h, err := NewHandler(1, "abcdefghijklmnopqrstuvwxyz0123", WithSink(sink))
	if err != nil {
		t.Fatalf("NewHandler() returned %v, want nil", err)
	}
	slog.New(h).Info("x")
	if got := sink.Calls()[0].Tag; got != "abcdefghijklmnopqrstu.." {
		t.Fatalf("printed tag = %q, want %q", got, "abcdefghijklmnopqrstu..")
	}

	if _, err := NewHandler(1, "bad\x00tag", WithSink(sink)); !errors.Is(err, ErrEmbeddedNUL) {
		t.Fatalf("NewHandler(NUL tag) error = %v, want ErrEmbeddedNUL", err)
	}
}

// TestHandlerChunksLongRecords prints a 9000-byte message as three lines.
func TestHandlerChunksLongRecords(t *testing.T) {
	t.Parallel()

	h, sink := newTestHandler(t)
	msg := payload(9000)
	slog.New(h).Warn(msg)

	msgs := sink.Messages()
	want := []string{msg[:4000], msg[4000:8000], msg[8000:]}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	for _, c := range sink.Calls() {
		if c.Level != LogWarn || c.Domain != testDomain {
			t.Fatalf("chunk printed with (%v, %#x), want (%v, %#x)", c.Level, c.Domain, LogWarn, testDomain)
		}
	}
}

// TestHandlerRejectsNULMessage returns the encoding error to the caller.
func TestHandlerRejectsNULMessage(t *testing.T) {
	t.Parallel()

	h, sink := newTestHandler(t)
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "bad\x00msg", 0)
	err := h.Handle(context.Background(), r)
	if !errors.Is(err, ErrEmbeddedNUL) {
		t.Fatalf("Handle() error = %v, want ErrEmbeddedNUL", err)
	}
	if got := len(sink.Calls()); got != 0 {
		t.Fatalf("Print calls = %d, want 0", got)
	}

	slog.New(h).Info("ok", "value", "a\x00b")
	if diff := cmp.Diff([]string{`ok value="a\x00b"`}, sink.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

// TestHandlerTextAttributes covers quoting, groups and WithAttrs.
func TestHandlerTextAttributes(t *testing.T) {
	t.Parallel()

	h, sink := newTestHandler(t)
	logger := slog.New(h).With("svc", "cart").WithGroup("req")
	logger.Info("done",
		"path", "/checkout",
		"note", "two words",
		"err", errors.New("boom"),
		"empty", "",
		slog.Group("user", "id", 7),
		slog.Duration("took", 1500*time.Millisecond),
	)

	want := `done svc=cart req.path=/checkout req.note="two words" req.err=boom req.empty="" req.user.id=7 req.took=1.5s`
	if diff := cmp.Diff([]string{want}, sink.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

// TestHandlerReplaceAttr drops and rewrites attributes.
func TestHandlerReplaceAttr(t *testing.T) {
	t.Parallel()

	h, sink := newTestHandler(t, WithReplaceAttr(func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case "password":
			return slog.Attr{}
		case "user":
			return slog.String("user", strings.ToUpper(a.Value.String()))
		}
		return a
	}))
	slog.New(h).Info("login", "user", "ada", "password", "hunter2")

	if diff := cmp.Diff([]string{"login user=ADA"}, sink.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

// TestHandlerJSONFormat decodes the JSON rendering.
func TestHandlerJSONFormat(t *testing.T) {
	t.Parallel()

	h, sink := newTestHandler(t, WithFormat(FormatJSON))
	if h.Format() != FormatJSON {
		t.Fatalf("Format() = %v, want json", h.Format())
	}
	slog.New(h).WithGroup("req").Error("failed", "status", 502, "err", errors.New("upstream"))

	var got map[string]any
	if err := json.Unmarshal([]byte(sink.Messages()[0]), &got); err != nil {
		t.Fatalf("json.Unmarshal() returned %v", err)
	}
	want := map[string]any{
		"level": "ERROR",
		"msg":   "failed",
		"req": map[string]any{
			"status": float64(502),
			"err":    "upstream",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

// TestHandlerAppendsTraceAttributes correlates records with the active span.
func TestHandlerAppendsTraceAttributes(t *testing.T) {
	t.Parallel()

	h, sink := newTestHandler(t)
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger := slog.New(h)
	logger.InfoContext(ctx, "traced")
	logger.InfoContext(context.Background(), "untraced")

	want := []string{
		"traced trace_id=4bf92f3577b34da6a3ce929d0e0e4736 span_id=00f067aa0ba902b7 trace_sampled=true",
		"untraced",
	}
	if diff := cmp.Diff(want, sink.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

// TestHandlerConsultsLoggableSink gates records on IsLoggable.
func TestHandlerConsultsLoggableSink(t *testing.T) {
	t.Parallel()

	var seenDomain atomic.Uint32
	sink := &gatedSink{allow: func(domain uint16, tag *CappedTag, level LogLevel) bool {
		seenDomain.Store(uint32(domain))
		return level >= LogWarn
	}}
	h, err := NewHandler(0x0042, "gated", WithSink(sink), WithLevel(LevelTrace))
	if err != nil {
		t.Fatalf("NewHandler() returned %v, want nil", err)
	}

	ctx := context.Background()
	if h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("Enabled(Info) = true, want false")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Fatalf("Enabled(Error) = false, want true")
	}
	if seenDomain.Load() != 0x0042 {
		t.Fatalf("IsLoggable domain = %#x, want 0x42", seenDomain.Load())
	}

	logger := slog.New(h)
	logger.Info("dropped")
	logger.Warn("kept")
	if diff := cmp.Diff([]string{"kept"}, sink.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

// TestHandlerSourceAndTime checks the optional prefixes.
func TestHandlerSourceAndTime(t *testing.T) {
	t.Parallel()

	h, sink := newTestHandler(t, WithSourceLocationEnabled(true))
	slog.New(h).Info("where")
	if got := sink.Messages()[0]; !strings.HasPrefix(got, "handler_test.go:") || !strings.HasSuffix(got, " where") {
		t.Fatalf("message = %q, want handler_test.go:<line> prefix", got)
	}

	h2, sink2 := newTestHandler(t, WithTime(true))
	r := slog.NewRecord(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), slog.LevelInfo, "when", 0)
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() returned %v, want nil", err)
	}
	if diff := cmp.Diff([]string{"2025-01-02T03:04:05Z when"}, sink2.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

// TestHandlerInitialAttrsAndMiddleware covers construction-time attributes
// and middleware ordering.
func TestHandlerInitialAttrsAndMiddleware(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next slog.Handler) slog.Handler {
			return middlewareFunc{Handler: next, before: func() { order = append(order, name) }}
		}
	}

	h, sink := newTestHandler(t,
		WithAttrs([]slog.Attr{slog.String("app", "shop")}),
		WithGroup("ctx"),
		WithAttrs([]slog.Attr{slog.Int("shard", 3)}),
		WithMiddleware(mw("outer")),
		WithMiddleware(mw("inner")),
	)
	slog.New(h).Info("hi", "k", "v")

	if diff := cmp.Diff([]string{"hi app=shop ctx.shard=3 ctx.k=v"}, sink.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"outer", "inner"}, order); diff != "" {
		t.Fatalf("middleware order mismatch (-want +got):\n%s", diff)
	}
}

type middlewareFunc struct {
	slog.Handler
	before func()
}

// Handle runs before and delegates.
func (m middlewareFunc) Handle(ctx context.Context, r slog.Record) error {
	m.before()
	return m.Handler.Handle(ctx, r)
}

// TestHandlerRedirectWriter prints hilog-formatted lines to a caller writer.
func TestHandlerRedirectWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h, err := NewHandler(testDomain, "homogrape", WithRedirectWriter(&buf))
	if err != nil {
		t.Fatalf("NewHandler() returned %v, want nil", err)
	}
	slog.New(h).Info("application started")
	if err := h.Close(); err != nil {
		t.Fatalf("Close() returned %v, want nil", err)
	}

	if got, want := buf.String(), "I A03D00/homogrape: application started\n"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
	if _, ok := h.Sink().(*ConsoleSink); !ok {
		t.Fatalf("Sink() type = %T, want *ConsoleSink", h.Sink())
	}
}

// TestHandlerFileTargetReopen rotates the owned log file.
func TestHandlerFileTargetReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	h, err := NewHandler(testDomain, "rotate", WithRedirectToFile(path))
	if err != nil {
		t.Fatalf("NewHandler() returned %v, want nil", err)
	}
	logger := slog.New(h)
	logger.Info("first")

	rotated := filepath.Join(dir, "app.log.1")
	if err := os.Rename(path, rotated); err != nil {
		t.Fatalf("os.Rename() returned %v", err)
	}
	if err := h.ReopenLogFile(); err != nil {
		t.Fatalf("ReopenLogFile() returned %v, want nil", err)
	}
	logger.Info("second")
	if err := h.Close(); err != nil {
		t.Fatalf("Close() returned %v, want nil", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close() returned %v, want nil", err)
	}

	for file, want := range map[string]string{
		rotated: "I A03D00/rotate: first\n",
		path:    "I A03D00/rotate: second\n",
	} {
		data, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("os.ReadFile(%q) returned %v", file, err)
		}
		if string(data) != want {
			t.Fatalf("%s = %q, want %q", filepath.Base(file), data, want)
		}
	}
}

// TestHandlerReopenIsNoopForOtherTargets leaves non-file handlers alone.
func TestHandlerReopenIsNoopForOtherTargets(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)
	if err := h.ReopenLogFile(); err != nil {
		t.Fatalf("ReopenLogFile() returned %v, want nil", err)
	}
}

// TestHandlerFileTargetOpenFailure reports unopenable paths.
func TestHandlerFileTargetOpenFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "app.log")
	if _, err := NewHandler(1, "t", WithRedirectToFile(path)); err == nil {
		t.Fatalf("NewHandler() with missing directory returned nil error")
	}
}

// TestHandlerWithoutNativeSink falls back to stderr, or fails when HiLog is
// required explicitly.
func TestHandlerWithoutNativeSink(t *testing.T) {
	t.Parallel()

	if _, err := NativeSink(); !errors.Is(err, ErrNativeUnavailable) {
		t.Skip("native hilog sink available in this build")
	}

	var diag bytes.Buffer
	h, err := NewHandler(1, "fallback", WithInternalLogger(slog.New(slog.NewTextHandler(&diag, nil))))
	if err != nil {
		t.Fatalf("NewHandler() returned %v, want nil", err)
	}
	console, ok := h.Sink().(*ConsoleSink)
	if !ok || console.Writer() != os.Stderr {
		t.Fatalf("fallback sink = %T, want *ConsoleSink on stderr", h.Sink())
	}
	if !strings.Contains(diag.String(), "native hilog sink unavailable") {
		t.Fatalf("internal logger output = %q, want fallback warning", diag.String())
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close() returned %v, want nil", err)
	}

	if _, err := NewHandler(1, "strict", WithRedirectToHiLog()); !errors.Is(err, ErrNativeUnavailable) {
		t.Fatalf("NewHandler(WithRedirectToHiLog) error = %v, want ErrNativeUnavailable", err)
	}
}

// TestHandlerLevelVar shares a LevelVar with the caller.
func TestHandlerLevelVar(t *testing.T) {
	t.Parallel()

	lv := new(slog.LevelVar)
	lv.Set(slog.LevelWarn)
	h, sink := newTestHandler(t, WithLevelVar(lv))
	if h.LevelVar() != lv {
		t.Fatalf("LevelVar() did not return the shared LevelVar")
	}

	logger := slog.New(h)
	logger.Info("hidden")
	lv.Set(slog.LevelInfo)
	logger.Info("shown")
	if diff := cmp.Diff([]string{"shown"}, sink.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}
