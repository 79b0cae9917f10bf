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

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want flagKind
	}{
		{"l", flagLinker},
		{"LD", flagLinker},
		{"F1", flagLinker},
		{"F9", flagLinker},
		{"Fo", flagOutputObj},
		{"Fopath.obj", flagOutputObj},
		{"Fd", flagOutputPdb},
		{"Fdpath.pdb", flagOutputPdb},
		{"E", flagPreprocessOnly},
		{"P", flagPreprocessOnly},
		{"c", flagCompileOnly},
		{"Zi", flagDebugEmit},
		{"ZI", flagDebugEmit},
		{"nologo", flagNologo},
		{"D_DEBUG", flagPreprocessor},
		{"IC:\\include", flagPreprocessor},
		{"EHsc", flagCompiler},
		{"O2", flagCompiler},
		{"MD", flagCompiler},
	} {
		if got := classify(tc.in); got != tc.want {
			t.Errorf("classify(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsLinkerFlag(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want bool
	}{
		{"l", true},
		{"LIBPATH", true},
		{"F1", true},
		{"Fo", false},
		{"Fd", false},
		{"EHsc", false},
	} {
		if got := isLinkerFlag(tc.in); got != tc.want {
			t.Errorf("isLinkerFlag(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestOutputFlagValue(t *testing.T) {
	for _, tc := range []struct {
		flag string
		key  string
		want string
	}{
		{"Fo:out.obj", "Fo", "out.obj"},
		{"Foout.obj", "Fo", "out.obj"},
		{"Fo:  out.obj", "Fo", "out.obj"},
		{"Fd:out.pdb", "Fd", "out.pdb"},
	} {
		if got := outputFlagValue(tc.flag, tc.key); got != tc.want {
			t.Errorf("outputFlagValue(%q, %q) = %q, want %q", tc.flag, tc.key, got, tc.want)
		}
	}
}
