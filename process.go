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
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/golang/glog"
)

// RunMode selects how the compiler subprocess's standard output is wired
// up, per spec §4.E.
type RunMode int

const (
	// Silent redirects stdout to the platform null sink. Used for the
	// preprocess phase, whose stdout is noise.
	Silent RunMode = iota
	// Verbose inherits the launcher's standard handles, so the user sees
	// the compiler's own diagnostics.
	Verbose
)

// Run launches the compiler with argv (argv[0] is the executable),
// waits synchronously, and returns its exit code. Failure to launch is
// reported via ErrLaunchFailed and returned as a nonzero code — it never
// panics, matching spec §4.E.
func Run(mode RunMode, argv []string) (exitCode int, err error) {
	if len(argv) == 0 {
		return 1, ErrLaunchFailed
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	switch mode {
	case Silent:
		cmd.Stdout = io.Discard
		cmd.Stderr = os.Stderr
	case Verbose:
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Stdin = os.Stdin
	}

	glog.V(1).Infof("process: launching %v", argv)
	runErr := cmd.Run()
	if runErr == nil {
		return 0, nil
	}

	// No Process means Start failed: the compiler never ran.
	if cmd.Process == nil {
		glog.Errorf("process: failed to launch %s: %v", argv[0], runErr)
		return 1, &ExitError{Code: 1, Err: ErrLaunchFailed}
	}

	return exitStatus(runErr), runErr
}

// exitStatus extracts a concrete exit code from an *exec.ExitError, the
// same way kati's worker.go derives a child's exit status from
// syscall.WaitStatus.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if ws, ok := exitErr.ProcessState.Sys().(syscall.WaitStatus); ok {
			return ws.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}
