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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Handler routes slog records to HiLog. Each record is rendered once and
// printed through a fresh [Writer], so records longer than [MaxMessageLen]
// become several consecutive lines under the same tag.
type Handler struct {
	slog.Handler

	cfg            *handlerConfig
	factory        *WriterFactory
	internalLogger *slog.Logger
	console        *ConsoleSink
	ownedFile      *os.File
	levelVar       *slog.LevelVar

	mu        sync.Mutex
	closeOnce sync.Once
}

// NewHandler builds a [Handler] printing under domain and tag. The tag is
// capped to [MaxTagLen] bytes once, here; a tag with a NUL byte in its
// retained prefix fails with an [*EncodingError].
//
// Environment variables (SLOGHILOG_LEVEL, SLOGHILOG_DOMAIN, SLOGHILOG_TAG,
// SLOGHILOG_FORMAT, SLOGHILOG_SOURCE_LOCATION, SLOGHILOG_TIME and
// SLOGHILOG_TARGET) override the arguments; opts override both.
//
// Example:
//
//	h, err := sloghilog.NewHandler(0x3D00, "homogrape")
//	if err != nil {
//		return err
//	}
//	defer h.Close()
//	slog.SetDefault(slog.New(h))
func NewHandler(domain uint16, tag string, opts ...Option) (*Handler, error) {
	builder := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(builder)
		}
	}

	internalLogger := builder.internalLogger
	if internalLogger == nil {
		internalLogger = slog.New(slog.DiscardHandler)
	}

	cfg, err := loadConfigFromEnv(handlerConfig{
		Level:  slog.LevelInfo,
		Domain: domain,
		Tag:    tag,
	}, internalLogger)
	if err != nil {
		return nil, err
	}
	applyOptions(&cfg, builder)

	h := &Handler{
		cfg:            &cfg,
		internalLogger: internalLogger,
	}

	sink, err := h.resolveSink()
	if err != nil {
		return nil, err
	}

	factory, err := NewWriterFactory(cfg.Domain, cfg.Tag, sink)
	if err != nil {
		h.closeOwned()
		return nil, fmt.Errorf("sloghilog: cap tag %q: %w", cfg.Tag, err)
	}
	h.factory = factory

	levelVar := builder.levelVar
	if levelVar == nil {
		levelVar = new(slog.LevelVar)
	}
	levelVar.Set(cfg.Level)
	h.levelVar = levelVar

	handler := slog.Handler(newRecordHandler(h.cfg, levelVar, factory, internalLogger))
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		handler = cfg.Middlewares[i](handler)
	}
	h.Handler = handler

	return h, nil
}

// resolveSink picks the sink in priority order: WithSink, an explicit
// target, the native HiLog sink, then stderr.
func (h *Handler) resolveSink() (Sink, error) {
	cfg := h.cfg
	if cfg.sink != nil {
		return cfg.sink, nil
	}

	switch cfg.target {
	case targetFile:
		file, err := openLogFile(cfg.filePath)
		if err != nil {
			return nil, err
		}
		h.ownedFile = file
		h.console = NewConsoleSink(file)
		return h.console, nil
	case targetStdout, targetStderr, targetWriter:
		h.console = NewConsoleSink(cfg.writer)
		return h.console, nil
	case targetHiLog:
		sink, err := NativeSink()
		if err != nil {
			return nil, err
		}
		return sink, nil
	}

	sink, err := NativeSink()
	if err == nil {
		return sink, nil
	}
	if !errors.Is(err, ErrNativeUnavailable) {
		return nil, err
	}
	h.internalLogger.Warn("native hilog sink unavailable, printing to stderr")
	h.console = NewConsoleSink(os.Stderr)
	return h.console, nil
}

func openLogFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("sloghilog: open log file %q: %w", path, err)
	}
	return file, nil
}

// Close releases the log file opened for a file target. Writers supplied by
// the caller and the standard streams are left open. Only the first call does
// any work.
func (h *Handler) Close() error {
	var err error
	h.closeOnce.Do(func() {
		err = h.closeOwned()
		if err != nil {
			h.internalLogger.Error("failed to close log file", slog.Any("error", err))
		}
	})
	return err
}

func (h *Handler) closeOwned() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ownedFile == nil {
		return nil
	}
	h.ownedFile = nil
	return h.console.Close()
}

// ReopenLogFile reopens the file target so external rotation tools can move
// the old file away. It is a no-op for other targets.
func (h *Handler) ReopenLogFile() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cfg.target != targetFile || h.ownedFile == nil || h.console == nil {
		return nil
	}

	file, err := openLogFile(h.cfg.filePath)
	if err != nil {
		return fmt.Errorf("sloghilog: reopen: %w", err)
	}
	old := h.ownedFile
	h.console.SetWriter(file)
	h.ownedFile = file
	if err := old.Close(); err != nil {
		h.internalLogger.Warn("error closing log file after reopen", slog.Any("error", err))
	}
	return nil
}

// SetLevel updates the minimum level at runtime.
func (h *Handler) SetLevel(level slog.Leveler) {
	if h == nil || h.levelVar == nil || level == nil {
		return
	}
	h.levelVar.Set(level.Level())
}

// Level reports the current minimum level.
func (h *Handler) Level() slog.Level {
	if h == nil || h.levelVar == nil {
		return slog.LevelInfo
	}
	return h.levelVar.Level()
}

// LevelVar returns the slog.LevelVar gating records.
func (h *Handler) LevelVar() *slog.LevelVar {
	if h == nil {
		return nil
	}
	return h.levelVar
}

// Domain returns the domain every line is printed under.
func (h *Handler) Domain() uint16 { return h.factory.domain }

// Tag returns the capped tag every line is printed under.
func (h *Handler) Tag() *CappedTag { return h.factory.tag }

// Sink returns the sink lines are printed through.
func (h *Handler) Sink() Sink { return h.factory.sink }

// Format returns the record rendering in use.
func (h *Handler) Format() Format { return h.cfg.Format }

// Trace logs msg at [LevelTrace], which slog.Logger has no method for.
func Trace(logger *slog.Logger, msg string, args ...any) {
	TraceContext(context.Background(), logger, msg, args...)
}

// TraceContext logs msg at [LevelTrace] with ctx.
func TraceContext(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Log(ctx, LevelTrace.Level(), msg, args...)
}
