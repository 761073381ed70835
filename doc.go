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

// Package sloghilog routes [log/slog] records to OpenHarmony's HiLog facility
// (OH_LOG_Print) while keeping every line within HiLog's limits:
//   - Tags are capped at [MaxTagLen] (23) bytes. Longer tags keep their first
//     21 bytes followed by "..".
//   - Messages longer than [MaxMessageLen] (4000) bytes are split across
//     several lines instead of being truncated by the platform.
//
// The primary entry point is [NewHandler]:
//
//	h, err := sloghilog.NewHandler(0x3D00, "homogrape")
//	if err != nil {
//	    log.Fatalf("create sloghilog handler: %v", err)
//	}
//	defer h.Close()
//
//	logger := slog.New(h)
//	logger.Info("application started")
//
// Lower-level building blocks are exported for other formatting layers:
// [CappedTag], [Writer] (an [io.Writer] that chunks its input into lines) and
// the [Sink] interface modelling OH_LOG_Print. The native sink is compiled
// only with cgo and the "hilog" build tag; elsewhere output falls back to a
// [ConsoleSink] on stderr that prints lines in hilog's console layout.
//
// # Levels
//
// slog levels are bucketed onto TRACE, DEBUG, INFO, WARN and ERROR and then
// onto HiLog levels. HiLog has nothing below DEBUG, so TRACE and DEBUG
// both print as LOG_DEBUG.
//
// # Configuration
//
// Functional options such as [WithLevel], [WithFormat], [WithSink],
// [WithRedirectToFile] and [WithTime] adjust the handler programmatically.
// The same settings can be supplied through SLOGHILOG_* environment
// variables; see [NewHandler].
package sloghilog
