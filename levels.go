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
	"log/slog"
	"strconv"
	"strings"
)

// Level is the application-side severity of a record. It keeps slog's
// integer representation and adds TRACE below DEBUG.
type Level slog.Level

const (
	// LevelTrace is the least severe level. HiLog has nothing finer than
	// DEBUG, so it is written as LogDebug.
	LevelTrace Level = -8

	// LevelDebug maps to HiLog LOG_DEBUG.
	LevelDebug Level = Level(slog.LevelDebug)

	// LevelInfo maps to HiLog LOG_INFO.
	LevelInfo Level = Level(slog.LevelInfo)

	// LevelWarn maps to HiLog LOG_WARN.
	LevelWarn Level = Level(slog.LevelWarn)

	// LevelError maps to HiLog LOG_ERROR.
	LevelError Level = Level(slog.LevelError)
)

// LogLevel mirrors the HiLog LogLevel enumeration from <hilog/log.h>.
type LogLevel int32

const (
	LogDebug LogLevel = 3
	LogInfo  LogLevel = 4
	LogWarn  LogLevel = 5
	LogError LogLevel = 6
	LogFatal LogLevel = 7
)

// LogType mirrors the HiLog LogType enumeration. Applications may only use
// LogTypeApp.
type LogType int32

// LogTypeApp is HiLog's LOG_APP.
const LogTypeApp LogType = 0

// String returns the HiLog single-letter prefix used on console output.
func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "D"
	case LogInfo:
		return "I"
	case LogWarn:
		return "W"
	case LogError:
		return "E"
	case LogFatal:
		return "F"
	default:
		return strconv.Itoa(int(l))
	}
}

// LevelFromSlog buckets an arbitrary slog level onto the five application
// levels. Values between two named levels round down.
func LevelFromSlog(level slog.Level) Level {
	switch {
	case level < slog.LevelDebug:
		return LevelTrace
	case level < slog.LevelInfo:
		return LevelDebug
	case level < slog.LevelWarn:
		return LevelInfo
	case level < slog.LevelError:
		return LevelWarn
	default:
		return LevelError
	}
}

// LogLevel returns the HiLog level l is written at. TRACE and DEBUG both map
// to LogDebug.
func (l Level) LogLevel() LogLevel {
	switch LevelFromSlog(slog.Level(l)) {
	case LevelError:
		return LogError
	case LevelWarn:
		return LogWarn
	case LevelInfo:
		return LogInfo
	default:
		return LogDebug
	}
}

// String returns the level name. Levels between named constants are rendered
// as the nearest lower name plus the offset, e.g. "INFO+1".
func (l Level) String() string {
	base := LevelFromSlog(slog.Level(l))
	var name string
	switch base {
	case LevelTrace:
		if l < LevelTrace {
			return slog.Level(l).String()
		}
		name = "TRACE"
	case LevelDebug:
		name = "DEBUG"
	case LevelInfo:
		name = "INFO"
	case LevelWarn:
		name = "WARN"
	default:
		name = "ERROR"
	}
	if offset := int(l - base); offset != 0 {
		return fmt.Sprintf("%s%+d", name, offset)
	}
	return name
}

// Level returns the underlying slog.Level so Level satisfies slog.Leveler.
func (l Level) Level() slog.Level {
	return slog.Level(l)
}

// ParseLevel parses a level name ("trace", "debug", "info", "warn",
// "warning", "error") or an integer slog level.
func ParseLevel(s string) (Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	switch trimmed {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	if lv, err := strconv.Atoi(trimmed); err == nil {
		return Level(lv), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}
