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
	"errors"
	"fmt"
)

var (
	// ErrEmbeddedNUL indicates that a tag or message contains a NUL byte and
	// therefore cannot be handed to HiLog as a C string. Every *EncodingError
	// matches it through errors.Is.
	ErrEmbeddedNUL = errors.New("sloghilog: embedded NUL byte")

	// ErrInvalidTarget indicates an unsupported value for SLOGHILOG_TARGET.
	ErrInvalidTarget = errors.New("sloghilog: invalid target")

	// ErrNativeUnavailable is returned by NativeSink on builds without the
	// hilog build tag or without cgo.
	ErrNativeUnavailable = errors.New("sloghilog: native hilog sink unavailable")

	// ErrInvalidLevel is returned by ParseLevel for unknown level names.
	ErrInvalidLevel = errors.New("sloghilog: invalid level")
)

// EncodingError reports bytes that cannot be represented as a NUL-terminated
// string. Subject is "tag" or "message"; Offset is the position of the first
// NUL byte within the rejected bytes.
type EncodingError struct {
	Subject string
	Offset  int
}

// Error implements error.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("sloghilog: %s contains NUL byte at offset %d", e.Subject, e.Offset)
}

// Is reports whether target is ErrEmbeddedNUL.
func (e *EncodingError) Is(target error) bool {
	return target == ErrEmbeddedNUL
}
