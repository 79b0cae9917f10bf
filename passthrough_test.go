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
	"bytes"
	"io"
	"os"
	"os/exec"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// captureStdout redirects os.Stdout to a pipe for the duration of fn and
// returns everything written to it, the same technique run_test.go uses
// to compare kati's output against GNU make's.
func captureStdout(t *testing.T, fn func()) []byte {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// TestPassThroughMatchesDirectRun verifies spec §8's pass-through
// transparency property: for an unsupported invocation, the launcher's
// stdout is identical to invoking the compiler directly on argv[2:].
func TestPassThroughMatchesDirectRun(t *testing.T) {
	compiler := fakeEchoCompiler(t)
	source := writeSource(t, "int main(void) { return 0; }\n")

	direct := captureStdout(t, func() {
		cmd := exec.Command(compiler, "/E", source)
		cmd.Stdout = os.Stdout
		cmd.Run()
	})

	orch := NewOrchestrator(t.TempDir())
	wrapped := captureStdout(t, func() {
		orch.Wrap([]string{"lelcache", compiler, "/E", source})
	})

	if !bytes.Equal(direct, wrapped) {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(string(direct), string(wrapped), false)
		t.Errorf("pass-through output diverged from direct run:\n%s", dmp.DiffPrettyText(diffs))
	}
}

// fakeEchoCompiler just echoes its arguments, enough to exercise the
// pass-through path without a real cl.exe.
func fakeEchoCompiler(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/echo.sh"
	script := "#!/bin/sh\necho \"compiler saw: $@\"\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}
