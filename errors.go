// Copyright 2024 The lelcache Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lelcache

import (
	"errors"
	"strconv"
)

// Sentinel errors for the taxonomy in the design's error-handling section.
// The orchestrator branches on these with errors.Is/errors.As instead of
// matching against error text.
var (
	// ErrUnsupportedInvocation means the command line cannot be cached and
	// must be forwarded to the compiler verbatim.
	ErrUnsupportedInvocation = errors.New("lelcache: unsupported invocation")

	// ErrPreprocessFailed means the compiler exited nonzero while producing
	// the preprocessed text.
	ErrPreprocessFailed = errors.New("lelcache: preprocess failed")

	// ErrCompileFailed means the compiler exited nonzero during the real
	// (code-generating) compile.
	ErrCompileFailed = errors.New("lelcache: compile failed")

	// ErrLaunchFailed means the compiler subprocess could not be started at
	// all (missing executable, exec permission, etc).
	ErrLaunchFailed = errors.New("lelcache: failed to launch compiler")
)

// CacheReadMissingPdbError is reported, not propagated: a cache hit whose
// entry lacks a pdb even though the invocation expects one. The obj copy
// still happens and the invocation still reports success.
type CacheReadMissingPdbError struct {
	SourceFile string
}

func (e *CacheReadMissingPdbError) Error() string {
	return "cached pdb file not found for '" + e.SourceFile + "'"
}

// ExitError pairs a process exit code with the error behind it. Run returns
// one, wrapping ErrLaunchFailed, when the compiler cannot be started.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "lelcache: exit " + strconv.Itoa(e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }
