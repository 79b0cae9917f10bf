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
	"os"

	"github.com/golang/glog"
)

// Orchestrator drives the state machine of spec §4.F for one process
// invocation, over a Store and CounterStore rooted at the same cache_root.
type Orchestrator struct {
	Store    *Store
	Counters *CounterStore
}

// NewOrchestrator builds an Orchestrator over cacheRoot.
func NewOrchestrator(cacheRoot string) *Orchestrator {
	return &Orchestrator{
		Store:    NewStore(cacheRoot),
		Counters: NewCounterStore(cacheRoot),
	}
}

// Wrap runs the whole launcher control flow for one process: argv is the
// full os.Args-shaped vector (argv[0] launcher, argv[1] compiler path,
// argv[2:] compiler arguments). It returns the exit code the process
// should report.
func (o *Orchestrator) Wrap(argv []string) int {
	inv, err := ParseInvocation(argv)
	if err != nil {
		if errors.Is(err, ErrUnsupportedInvocation) {
			logUnsupported("-", err.Error())
			return o.passThrough(argv)
		}
		logRecovered("-", err)
		return 1
	}
	return o.runSupported(inv)
}

// passThrough implements spec §4.F's PASS-THROUGH state: forward
// argv[2:] verbatim to the compiler and propagate its exit code. No cache
// I/O occurs.
func (o *Orchestrator) passThrough(argv []string) int {
	if len(argv) < 2 {
		return 1
	}
	code, err := Run(Verbose, argv[1:])
	if err != nil && code == 0 {
		code = 1
	}
	return code
}

// runSupported drives PREPROCESS → HASH → PROBE → (COPY_OUT | COMPILE) →
// CLEANUP_TEMP for a parsed, cacheable Invocation, per spec §4.F.
func (o *Orchestrator) runSupported(inv *Invocation) int {
	logPhase(inv.SourceFile, "preprocess")
	defer o.cleanupTemp(inv)

	ppCode, err := Run(Silent, inv.PreprocessorFlags)
	if err != nil || ppCode != 0 {
		logRecovered(inv.SourceFile, errors.Join(ErrPreprocessFailed, err))
		if ppCode == 0 {
			ppCode = 1
		}
		return ppCode
	}

	key, err := BuildCacheKey(inv)
	if err != nil {
		logRecovered(inv.SourceFile, err)
		return 1
	}

	if o.Store.Probe(key) {
		return o.copyOut(inv, key)
	}
	return o.compileAndDeposit(inv, key)
}

// copyOut implements the hit path: COPY_OUT then counters.hits++.
func (o *Orchestrator) copyOut(inv *Invocation, key CacheKey) int {
	logPhase(inv.SourceFile, "cache hit")
	if err := o.Store.ReadOut(key, inv); err != nil {
		var missingPdb *CacheReadMissingPdbError
		if errors.As(err, &missingPdb) {
			logRecovered(inv.SourceFile, err)
		} else {
			logRecovered(inv.SourceFile, err)
			return 1
		}
	}
	if err := o.Counters.RecordHit(); err != nil {
		logRecovered(inv.SourceFile, err)
	}
	return 0
}

// compileAndDeposit implements the miss path: COMPILE (verbose) then, on
// success, DEPOSIT and counters.misses++ / size+=deposited.
func (o *Orchestrator) compileAndDeposit(inv *Invocation, key CacheKey) int {
	logPhase(inv.SourceFile, "cache miss, compiling")
	code, runErr := Run(Verbose, inv.CompilerFlags)
	if runErr != nil || code != 0 {
		logRecovered(inv.SourceFile, errors.Join(ErrCompileFailed, runErr))
		if code == 0 {
			code = 1
		}
		return code
	}

	bytesWritten, err := o.Store.Deposit(key, inv)
	if err != nil {
		// Deposit failure is advisory: the user's own object file is
		// already in place from the compile that just ran.
		logRecovered(inv.SourceFile, err)
		return 0
	}
	if err := o.Counters.RecordMiss(bytesWritten); err != nil {
		logRecovered(inv.SourceFile, err)
	}
	return 0
}

// cleanupTemp implements spec §9's "Temp-file lifetime": the preprocessed
// temp file is deleted on every exit path out of runSupported, success or
// failure alike.
func (o *Orchestrator) cleanupTemp(inv *Invocation) {
	if inv.PreprocessedTemp == "" {
		return
	}
	if err := os.Remove(inv.PreprocessedTemp); err != nil && !os.IsNotExist(err) {
		glog.Warningf("invocation %s: removing temp file %s: %v", inv.SourceFile, inv.PreprocessedTemp, err)
	}
}
