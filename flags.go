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

import "strings"

// flagKind classifies one compiler flag token (the argv element with its
// leading '/' or '-' already stripped).
type flagKind int

const (
	flagUnknown flagKind = iota
	flagLinker           // forces unsupported: /l, /L, /Fn (n digit)
	flagPreprocessOnly   // bare /E or /P: forces unsupported
	flagPreprocessor     // affects preprocessing: forwarded to both phases
	flagOutputObj        // /Fo: consumed, not forwarded
	flagOutputPdb        // /Fd: consumed, not forwarded
	flagDebugEmit        // /Zi or /ZI: sets emitPdb
	flagCompileOnly      // bare /c: sets compilesToObj
	flagNologo           // /nologo: tracked, not hashed
	flagCompiler         // anything else: forwarded to the compile phase only
)

// classify implements spec §4.A as data, not a chain of conditionals: a
// handful of prefix/predicate rules, checked in order, are all that's
// needed to add a new classifier.
func classify(flag string) flagKind {
	if flag == "" {
		return flagUnknown
	}

	switch {
	case isLinkerFlag(flag):
		return flagLinker
	case flag == "E" || flag == "P":
		return flagPreprocessOnly
	case flag == "c":
		return flagCompileOnly
	case flag == "Zi" || flag == "ZI":
		return flagDebugEmit
	case flag == "nologo":
		return flagNologo
	case hasPrefixOutput(flag, "Fo"):
		return flagOutputObj
	case hasPrefixOutput(flag, "Fd"):
		return flagOutputPdb
	case isPreprocessorFlag(flag):
		return flagPreprocessor
	default:
		return flagCompiler
	}
}

// isLinkerFlag matches spec §4.A: first character l, L, or F followed by a
// decimal digit (/F1, /F2, ...).
func isLinkerFlag(flag string) bool {
	switch flag[0] {
	case 'l', 'L':
		return true
	case 'F':
		return len(flag) > 1 && flag[1] >= '0' && flag[1] <= '9'
	}
	return false
}

// preprocessorPrefixes are the bare-prefix classifier rules from spec §4.A:
// AI, C, D*, E* (except EH*), FI*, FU*, Fx*, I*, P, U*, u, X.
var preprocessorPrefixes = []string{"AI", "D", "FI", "FU", "Fx", "I", "U"}

func isPreprocessorFlag(flag string) bool {
	if flag == "C" || flag == "P" || flag == "u" || flag == "X" {
		return true
	}
	if strings.HasPrefix(flag, "E") && !strings.HasPrefix(flag, "EH") {
		return true
	}
	for _, p := range preprocessorPrefixes {
		if strings.HasPrefix(flag, p) {
			return true
		}
	}
	return false
}

// hasPrefixOutput reports whether flag is the key ("Fo"/"Fd") or has it as a
// prefix (/Fo:path, /Fopath).
func hasPrefixOutput(flag, key string) bool {
	return flag == key || strings.HasPrefix(flag, key)
}

// outputFlagValue strips the "Fo"/"Fd" key, an optional ':', and leading
// whitespace, per spec §4.A.
func outputFlagValue(flag, key string) string {
	v := strings.TrimPrefix(flag, key)
	v = strings.TrimPrefix(v, ":")
	return strings.TrimLeft(v, " \t")
}
