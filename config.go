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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	envLevel  = "SLOGHILOG_LEVEL"
	envDomain = "SLOGHILOG_DOMAIN"
	envTag    = "SLOGHILOG_TAG"
	envFormat = "SLOGHILOG_FORMAT"
	envSource = "SLOGHILOG_SOURCE_LOCATION"
	envTime   = "SLOGHILOG_TIME"
	envTarget = "SLOGHILOG_TARGET"
)

// Format selects how a record is rendered before it is chunked into lines.
type Format int

const (
	// FormatText renders "msg key=value ...".
	FormatText Format = iota
	// FormatJSON renders one JSON object per record.
	FormatJSON
)

// String returns "text" or "json".
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

type target int

const (
	targetDefault target = iota
	targetHiLog
	targetStdout
	targetStderr
	targetFile
	targetWriter
)

type handlerConfig struct {
	Level       slog.Level
	Domain      uint16
	Tag         string
	Format      Format
	AddSource   bool
	EmitTime    bool
	ReplaceAttr func([]string, slog.Attr) slog.Attr
	Middlewares []Middleware

	InitialAttrs  []groupedAttr
	InitialGroups []string

	target   target
	filePath string
	writer   io.Writer
	sink     Sink
}

// loadConfigFromEnv layers environment overrides on top of cfg, reporting
// malformed values to logger.
func loadConfigFromEnv(cfg handlerConfig, logger *slog.Logger) (handlerConfig, error) {
	cfg.Level = parseLevelEnv(os.Getenv(envLevel), cfg.Level, logger)
	cfg.Domain = parseDomainEnv(os.Getenv(envDomain), cfg.Domain, logger)
	if tag := os.Getenv(envTag); strings.TrimSpace(tag) != "" {
		cfg.Tag = tag
	}
	cfg.Format = parseFormatEnv(os.Getenv(envFormat), cfg.Format, logger)
	cfg.AddSource = parseBoolEnv(os.Getenv(envSource), cfg.AddSource, logger)
	cfg.EmitTime = parseBoolEnv(os.Getenv(envTime), cfg.EmitTime, logger)

	if err := applyTargetFromEnv(&cfg, logger); err != nil {
		return handlerConfig{}, err
	}
	return cfg, nil
}

// applyTargetFromEnv adjusts the output destination based on SLOGHILOG_TARGET.
func applyTargetFromEnv(cfg *handlerConfig, logger *slog.Logger) error {
	value := strings.TrimSpace(os.Getenv(envTarget))
	if value == "" {
		return nil
	}

	lower := strings.ToLower(value)
	switch {
	case lower == "hilog":
		cfg.setTarget(targetHiLog, nil, "")
	case lower == "stdout":
		cfg.setTarget(targetStdout, os.Stdout, "")
	case lower == "stderr":
		cfg.setTarget(targetStderr, os.Stderr, "")
	case strings.HasPrefix(lower, "file:"):
		path := strings.TrimSpace(value[len("file:"):])
		if path == "" {
			logDiagnostic(logger, slog.LevelWarn, "empty file target", slog.String("variable", envTarget))
			return fmt.Errorf("%w: %q", ErrInvalidTarget, value)
		}
		cfg.setTarget(targetFile, nil, path)
	default:
		logDiagnostic(logger, slog.LevelWarn, "unknown target", slog.String("variable", envTarget), slog.String("value", value))
		return fmt.Errorf("%w: %q", ErrInvalidTarget, value)
	}
	return nil
}

func (cfg *handlerConfig) setTarget(t target, w io.Writer, path string) {
	cfg.target = t
	cfg.writer = w
	cfg.filePath = path
}

// parseBoolEnv interprets boolean environment values, keeping current when
// the value is empty or malformed.
func parseBoolEnv(value string, current bool, logger *slog.Logger) bool {
	if strings.TrimSpace(value) == "" {
		return current
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		logDiagnostic(logger, slog.LevelWarn, "invalid boolean environment variable", slog.String("value", value), slog.Any("error", err))
		return current
	}
	return b
}

func parseLevelEnv(value string, current slog.Level, logger *slog.Logger) slog.Level {
	if strings.TrimSpace(value) == "" {
		return current
	}
	lv, err := ParseLevel(value)
	if err != nil {
		logDiagnostic(logger, slog.LevelWarn, "invalid log level environment variable", slog.String("value", value))
		return current
	}
	return lv.Level()
}

// parseDomainEnv accepts decimal or 0x-prefixed hex domains that fit in 16 bits.
func parseDomainEnv(value string, current uint16, logger *slog.Logger) uint16 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return current
	}
	d, err := strconv.ParseUint(trimmed, 0, 16)
	if err != nil {
		logDiagnostic(logger, slog.LevelWarn, "invalid domain environment variable", slog.String("value", value), slog.Any("error", err))
		return current
	}
	return uint16(d)
}

func parseFormatEnv(value string, current Format, logger *slog.Logger) Format {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return current
	case "text":
		return FormatText
	case "json":
		return FormatJSON
	default:
		logDiagnostic(logger, slog.LevelWarn, "invalid format environment variable", slog.String("value", value))
		return current
	}
}

// logDiagnostic emits internal diagnostics, tolerating a nil logger.
func logDiagnostic(logger *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}
