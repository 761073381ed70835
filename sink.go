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

// PublicFormat is the format string every line is printed with. HiLog
// redacts %s arguments unless they are marked public.
const PublicFormat = "%{public}s"

// Sink is the platform print primitive, shaped after OH_LOG_Print. msg is at
// most MaxMessageLen bytes and contains no NUL byte. Implementations are
// treated as synchronous and infallible and must not retain msg.
type Sink interface {
	Print(logType LogType, level LogLevel, domain uint16, tag *CappedTag, format string, msg []byte)
}

// LoggableSink is implemented by sinks that can report whether a line would
// be kept, mirroring OH_LOG_IsLoggable. Handlers consult it from Enabled.
type LoggableSink interface {
	Sink
	IsLoggable(domain uint16, tag *CappedTag, level LogLevel) bool
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(logType LogType, level LogLevel, domain uint16, tag *CappedTag, format string, msg []byte)

// Print calls f.
func (f SinkFunc) Print(logType LogType, level LogLevel, domain uint16, tag *CappedTag, format string, msg []byte) {
	f(logType, level, domain, tag, format, msg)
}

// NativeSink returns the HiLog-backed sink. It is only available when built
// for OpenHarmony with cgo and the hilog build tag; otherwise it returns
// ErrNativeUnavailable.
func NativeSink() (Sink, error) {
	return nativeSink()
}
