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

//go:build hilog && cgo

package sloghilog

/*
#cgo LDFLAGS: -lhilog_ndk.z
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include <hilog/log.h>

static int sloghilog_print(int type, int level, unsigned int domain, const char *tag, const char *msg) {
	return OH_LOG_Print((LogType)type, (LogLevel)level, domain, tag, "%{public}s", msg);
}

static bool sloghilog_loggable(unsigned int domain, const char *tag, int level) {
	return OH_LOG_IsLoggable(domain, tag, (LogLevel)level);
}
*/
import "C"

import "unsafe"

type hilogSink struct{}

func nativeSink() (Sink, error) {
	return hilogSink{}, nil
}

// Print forwards one line to OH_LOG_Print. format is fixed by the C shim.
func (hilogSink) Print(logType LogType, level LogLevel, domain uint16, tag *CappedTag, _ string, msg []byte) {
	ctag := C.CString(tag.String())
	defer C.free(unsafe.Pointer(ctag))
	cmsg := C.CString(string(msg))
	defer C.free(unsafe.Pointer(cmsg))
	C.sloghilog_print(C.int(logType), C.int(level), C.uint(domain), ctag, cmsg)
}

func (hilogSink) IsLoggable(domain uint16, tag *CappedTag, level LogLevel) bool {
	ctag := C.CString(tag.String())
	defer C.free(unsafe.Pointer(ctag))
	return bool(C.sloghilog_loggable(C.uint(domain), ctag, C.int(level)))
}
