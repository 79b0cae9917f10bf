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
	"testing"
)

func TestParseInvocationUnsupported(t *testing.T) {
	for _, tc := range []struct {
		name string
		argv []string
	}{
		{"no compiler path", []string{"lelcache"}},
		{"linker flag", []string{"lelcache", "cl.exe", "/c", "/LD", "hello.c"}},
		{"bare E", []string{"lelcache", "cl.exe", "/E", "hello.c"}},
		{"bare P", []string{"lelcache", "cl.exe", "/P", "hello.c"}},
		{"no /c", []string{"lelcache", "cl.exe", "hello.c"}},
		{"no source file", []string{"lelcache", "cl.exe", "/c"}},
		{"two source files", []string{"lelcache", "cl.exe", "/c", "hello.c", "world.c"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseInvocation(tc.argv); !errors.Is(err, ErrUnsupportedInvocation) {
				t.Errorf("ParseInvocation(%v) error = %v, want ErrUnsupportedInvocation", tc.argv, err)
			}
		})
	}
}

func TestParseInvocationDefaults(t *testing.T) {
	inv, err := ParseInvocation([]string{"lelcache", "cl.exe", "/c", "hello.c"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	defer os.Remove(inv.PreprocessedTemp)

	if inv.ObjectOut != "hello.obj" {
		t.Errorf("ObjectOut = %q, want hello.obj", inv.ObjectOut)
	}
	if inv.EmitPdb {
		t.Errorf("EmitPdb = true, want false")
	}
	if inv.PdbOut != "" {
		t.Errorf("PdbOut = %q, want empty", inv.PdbOut)
	}
}

func TestParseInvocationPdbDefaultName(t *testing.T) {
	inv, err := ParseInvocation([]string{"lelcache", "cl.exe", "/c", "/Zi", "hello.c"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	defer os.Remove(inv.PreprocessedTemp)

	if !inv.EmitPdb {
		t.Fatalf("EmitPdb = false, want true")
	}
	if inv.PdbOut != defaultPdbName {
		t.Errorf("PdbOut = %q, want %q", inv.PdbOut, defaultPdbName)
	}
}

func TestKeyHashIgnoresFlagOrder(t *testing.T) {
	a, err := ParseInvocation([]string{"lelcache", "cl.exe", "/c", "/O2", "hello.c"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	defer os.Remove(a.PreprocessedTemp)

	b, err := ParseInvocation([]string{"lelcache", "cl.exe", "/O2", "/c", "hello.c"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	defer os.Remove(b.PreprocessedTemp)

	if a.CompilerKeyHash != b.CompilerKeyHash {
		t.Errorf("flag order changed CompilerKeyHash: %016x vs %016x", a.CompilerKeyHash, b.CompilerKeyHash)
	}
}

func TestKeyHashIgnoresNologo(t *testing.T) {
	withNologo, err := ParseInvocation([]string{"lelcache", "cl.exe", "/c", "/O2", "/nologo", "hello.c"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	defer os.Remove(withNologo.PreprocessedTemp)

	without, err := ParseInvocation([]string{"lelcache", "cl.exe", "/c", "/O2", "hello.c"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	defer os.Remove(without.PreprocessedTemp)

	if withNologo.CompilerKeyHash != without.CompilerKeyHash {
		t.Errorf("/nologo changed CompilerKeyHash: %016x vs %016x", withNologo.CompilerKeyHash, without.CompilerKeyHash)
	}
}

func TestKeyHashIgnoresOutputPaths(t *testing.T) {
	a, err := ParseInvocation([]string{"lelcache", "cl.exe", "/c", "/O2", "/Fo:a.obj", "hello.c"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	defer os.Remove(a.PreprocessedTemp)

	b, err := ParseInvocation([]string{"lelcache", "cl.exe", "/c", "/O2", "/Fo:b.obj", "hello.c"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	defer os.Remove(b.PreprocessedTemp)

	if a.CompilerKeyHash != b.CompilerKeyHash {
		t.Errorf("/Fo value changed CompilerKeyHash: %016x vs %016x", a.CompilerKeyHash, b.CompilerKeyHash)
	}
	if a.ObjectOut == b.ObjectOut {
		t.Errorf("ObjectOut should differ between the two invocations")
	}
}

func TestKeyHashChangesWithSemanticFlag(t *testing.T) {
	a, err := ParseInvocation([]string{"lelcache", "cl.exe", "/c", "/O1", "hello.c"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	defer os.Remove(a.PreprocessedTemp)

	b, err := ParseInvocation([]string{"lelcache", "cl.exe", "/c", "/O2", "hello.c"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	defer os.Remove(b.PreprocessedTemp)

	if a.CompilerKeyHash == b.CompilerKeyHash {
		t.Errorf("different optimization flags produced the same CompilerKeyHash")
	}
}
