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

import "github.com/golang/glog"

// logPhase traces an orchestrator state transition. Only visible at -v=1,
// since the cache is meant to be silent when it is working correctly.
func logPhase(invocationID, phase string) {
	glog.V(1).Infof("invocation %s: %s", invocationID, phase)
}

// logUnsupported records why an invocation fell through to pass-through.
// Diagnostic only (opt-in via glog verbosity), not the always-on logging
// the error-handling design forbids for recoverable, cache-internal
// conditions.
func logUnsupported(invocationID, reason string) {
	glog.V(1).Infof("invocation %s: unsupported, falling through: %s", invocationID, reason)
}

// logRecovered records a recoverable, cache-internal problem that does not
// change what the user sees (CacheReadMissingPdbError, a deposit race, ...).
func logRecovered(invocationID string, err error) {
	glog.Warningf("invocation %s: %v", invocationID, err)
}
