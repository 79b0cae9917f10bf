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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
)

// defaultPdbName is VC140's strange default pdb name, used whenever /Zi or
// /ZI is given without an explicit /Fd.
const defaultPdbName = "vc140.pdb"

// Invocation is the parsed, ephemeral state of a single launcher process.
// It is populated by ParseInvocation and owned by the orchestrator for the
// life of that process.
type Invocation struct {
	CompilerPath string // argv[1]: location of the wrapped cl.exe
	SourceFile   string // the single recognized input file
	ObjectOut    string // user-requested (or defaulted) .obj path
	PdbOut       string // user-requested (or defaulted) pdb path, "" if none

	PreprocessorFlags []string // argv for the preprocess phase (incl. compiler path)
	CompilerFlags     []string // argv for the compile phase (incl. compiler path)

	CompilerKeyHash uint64 // hash of the canonicalized compile command line
	EmitPdb         bool   // true iff /Zi or /ZI was observed

	PreprocessedTemp string // unique temp path for the preprocessed text
	sawNologo        bool
	compilesToObj    bool
}

// ParseInvocation implements spec §4.B. argv is the full process argument
// vector: argv[0] is the launcher itself, argv[1] the compiler path,
// argv[2:] the arguments to classify. It returns ErrUnsupportedInvocation
// (wrapped with a reason) when the command line cannot be cached.
func ParseInvocation(argv []string) (*Invocation, error) {
	if len(argv) < 2 {
		return nil, fmt.Errorf("%w: no compiler path given", ErrUnsupportedInvocation)
	}

	inv := &Invocation{
		CompilerPath: argv[1],
	}
	inv.PreprocessorFlags = append(inv.PreprocessorFlags, inv.CompilerPath, "/EP", "/P", "/nologo")
	inv.CompilerFlags = append(inv.CompilerFlags, inv.CompilerPath)

	for _, arg := range argv[2:] {
		if arg == "" {
			continue
		}
		if arg[0] == '/' || arg[0] == '-' {
			if err := inv.classifyToken(arg); err != nil {
				return nil, err
			}
			continue
		}
		if inv.SourceFile != "" {
			return nil, fmt.Errorf("%w: multiple source files (%q and %q)",
				ErrUnsupportedInvocation, inv.SourceFile, arg)
		}
		inv.SourceFile = arg
	}

	if !inv.compilesToObj {
		return nil, fmt.Errorf("%w: no /c (compile-only) flag", ErrUnsupportedInvocation)
	}
	if inv.SourceFile == "" {
		return nil, fmt.Errorf("%w: no source file", ErrUnsupportedInvocation)
	}

	if err := inv.finalize(); err != nil {
		return nil, err
	}
	return inv, nil
}

// classifyToken routes one already-flagged ('/'- or '-'-prefixed) argv
// token to the two flag sequences per spec §4.A/§4.B.
func (inv *Invocation) classifyToken(arg string) error {
	flag := arg[1:]
	switch classify(flag) {
	case flagLinker:
		return fmt.Errorf("%w: linker flag %q", ErrUnsupportedInvocation, arg)
	case flagPreprocessOnly:
		return fmt.Errorf("%w: preprocess-only flag %q", ErrUnsupportedInvocation, arg)
	case flagPreprocessor:
		// Routed to preprocessor_flags only: finalize() re-adds the ones
		// that survive (the slice between position 4 and the trailing
		// /Fi:/source pair) to compiler_flags AFTER the key hash, per
		// spec §4.B. Appending here too would both double it up in the
		// final compile argv and leak it into flags_hash.
		inv.PreprocessorFlags = append(inv.PreprocessorFlags, arg)
	case flagOutputObj:
		inv.ObjectOut = outputFlagValue(flag, "Fo")
	case flagOutputPdb:
		inv.PdbOut = outputFlagValue(flag, "Fd")
	case flagDebugEmit:
		inv.EmitPdb = true
		inv.CompilerFlags = append(inv.CompilerFlags, arg)
	case flagCompileOnly:
		inv.compilesToObj = true
		inv.CompilerFlags = append(inv.CompilerFlags, arg)
	case flagNologo:
		inv.sawNologo = true
	default:
		inv.CompilerFlags = append(inv.CompilerFlags, arg)
	}
	return nil
}

// finalize implements the rest of spec §4.B: generating the temp file,
// defaulting object_out, hashing the canonicalized compiler flags, and then
// appending nologo/preprocessor-visible/output/source tokens in the exact
// order the cache key must not depend on.
func (inv *Invocation) finalize() error {
	tempBase, err := uniqueTempBasename(inv.SourceFile)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedInvocation, err)
	}
	inv.PreprocessedTemp = tempBase + filepath.Ext(inv.SourceFile)
	inv.PreprocessorFlags = append(inv.PreprocessorFlags,
		"/Fi:"+inv.PreprocessedTemp, inv.SourceFile)

	if inv.ObjectOut == "" {
		base := filepath.Base(inv.SourceFile)
		inv.ObjectOut = strings.TrimSuffix(base, filepath.Ext(base)) + ".obj"
	}

	// Canonicalize and hash BEFORE adding nologo, preprocessor-visible
	// flags, output flags, or the source file: none of those may leak into
	// the key (spec §4.B "Finalization").
	inv.CompilerKeyHash = hashCanonicalFlags(inv.CompilerFlags)
	glog.V(2).Infof("invocation: canonical flags %v hash %016x", inv.CompilerFlags, inv.CompilerKeyHash)

	if inv.sawNologo {
		inv.CompilerFlags = append(inv.CompilerFlags, "/nologo")
	}
	// Append every preprocessor flag that actually affects parsing: the
	// slice between position 4 (past compiler_path, /EP, /P, /nologo) and
	// the end, excluding the final two that name preprocessor I/O
	// (/Fi:<temp> and the source file).
	inv.CompilerFlags = append(inv.CompilerFlags, inv.PreprocessorFlags[4:len(inv.PreprocessorFlags)-2]...)

	inv.CompilerFlags = append(inv.CompilerFlags, "/Fo:"+inv.ObjectOut)
	if inv.EmitPdb {
		if inv.PdbOut == "" {
			inv.PdbOut = defaultPdbName
		}
		inv.CompilerFlags = append(inv.CompilerFlags, "/Fd:"+inv.PdbOut)
	}
	inv.CompilerFlags = append(inv.CompilerFlags, inv.SourceFile)

	return nil
}

// hashCanonicalFlags implements spec §4.C's flags_hash: sort the compiler
// flags (including compiler_path, matching the original's qsort over the
// whole array) lexically, render each quoted and space-separated, hash the
// result.
func hashCanonicalFlags(flags []string) uint64 {
	sorted := make([]string, len(flags))
	copy(sorted, flags)
	sort.Strings(sorted)
	return hashString(renderQuoted(sorted))
}

// uniqueTempBasename derives a temp file basename from the source file that
// cannot collide across concurrent invocations sharing a working directory.
func uniqueTempBasename(sourceFile string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	f, err := os.CreateTemp("", "lelcache-"+base+"-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return name, nil
}
