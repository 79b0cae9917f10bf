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

import "testing"

func TestRunExitCode(t *testing.T) {
	code, err := Run(Silent, []string{"/bin/sh", "-c", "exit 7"})
	if err == nil {
		t.Fatalf("Run: expected a non-nil error for exit 7")
	}
	if code != 7 {
		t.Errorf("Run exit code = %d, want 7", code)
	}
}

func TestRunSuccess(t *testing.T) {
	code, err := Run(Silent, []string{"/bin/sh", "-c", "exit 0"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Errorf("Run exit code = %d, want 0", code)
	}
}

func TestRunLaunchFailed(t *testing.T) {
	code, err := Run(Silent, []string{"/no/such/binary-lelcache-test"})
	if err == nil {
		t.Fatalf("Run: expected an error for a missing executable")
	}
	if code == 0 {
		t.Errorf("Run exit code = 0, want nonzero")
	}
}

func TestRunEmptyArgv(t *testing.T) {
	if _, err := Run(Silent, nil); err != ErrLaunchFailed {
		t.Errorf("Run(nil) error = %v, want ErrLaunchFailed", err)
	}
}
