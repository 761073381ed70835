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
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Keys of the attributes appended to records logged with a context that
// carries an OpenTelemetry span.
const (
	TraceIDKey      = "trace_id"
	SpanIDKey       = "span_id"
	TraceSampledKey = "trace_sampled"
)

// TraceAttributes returns the trace correlation attributes for the span in
// ctx, or nil when ctx carries no valid span context. The handler appends
// them to every record automatically; the helper is exported for loggers
// built with logger.With.
func TraceAttributes(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []slog.Attr{
		slog.String(TraceIDKey, sc.TraceID().String()),
		slog.String(SpanIDKey, sc.SpanID().String()),
		slog.Bool(TraceSampledKey, sc.IsSampled()),
	}
}
