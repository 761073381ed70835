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

import "bytes"

const (
	// MaxTagLen is the largest tag HiLog accepts without truncating it itself.
	MaxTagLen = 23

	tagEllipsis = ".."
)

// CappedTag is a HiLog tag that is guaranteed to be at most MaxTagLen bytes
// long and free of NUL bytes. It is immutable once constructed and may be
// shared by any number of writers and handlers.
type CappedTag struct {
	s         string
	truncated bool
}

// NewCappedTag caps tag to MaxTagLen bytes. Tags that are too long keep their
// first MaxTagLen-2 bytes followed by "..". An *EncodingError is returned when
// the retained bytes contain a NUL.
func NewCappedTag(tag []byte) (*CappedTag, error) {
	var capped []byte
	if len(tag) > MaxTagLen {
		capped = make([]byte, 0, MaxTagLen)
		capped = append(capped, tag[:MaxTagLen-len(tagEllipsis)]...)
		capped = append(capped, tagEllipsis...)
	} else {
		capped = tag
	}
	if i := bytes.IndexByte(capped, 0); i >= 0 {
		return nil, &EncodingError{Subject: "tag", Offset: i}
	}
	return &CappedTag{s: string(capped), truncated: len(tag) > MaxTagLen}, nil
}

// CapTag is NewCappedTag for string input.
func CapTag(tag string) (*CappedTag, error) {
	return NewCappedTag([]byte(tag))
}

// String returns the capped tag.
func (t *CappedTag) String() string {
	if t == nil {
		return ""
	}
	return t.s
}

// Bytes returns a copy of the capped tag.
func (t *CappedTag) Bytes() []byte {
	return []byte(t.String())
}

// Len returns the tag length in bytes.
func (t *CappedTag) Len() int {
	return len(t.String())
}

// Truncated reports whether the source tag was longer than MaxTagLen.
func (t *CappedTag) Truncated() bool {
	return t != nil && t.truncated
}
