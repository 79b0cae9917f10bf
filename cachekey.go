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

	"github.com/cespare/xxhash/v2"
)

// CacheKey is the two-level key from spec §4.C: a hash of the preprocessed
// source text, and a hash of the canonicalized compiler flags.
type CacheKey struct {
	PreprocHash uint64
	FlagsHash   uint64
}

// hashString hashes the UTF-8 bytes of a string. The original hashes XXH64 over UTF-16 code units; this port hashes UTF-8
// bytes instead and documents the deviation (spec §9, Open Questions):
// cross-version cache reuse with the Windows original is not attempted or
// guaranteed.
func hashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// hashFileContent computes preproc_hash: the content hash of the full
// preprocessed temp file, per spec §4.C.
func hashFileContent(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("lelcache: reading preprocessed file: %w", err)
	}
	return xxhash.Sum64(data), nil
}

// hexSegments renders a hash as 8 lowercase two-character hex segments, in
// the natural (non-byte-swapped) order — the simpler of the two equally
// valid choices spec §4.C and §9 leave open, since this implementation
// never needs to interoperate with a cache root populated by the original
// Windows binary.
func hexSegments(h uint64) [8]string {
	var out [8]string
	for i := 0; i < 8; i++ {
		shift := uint((7 - i) * 8)
		out[i] = fmt.Sprintf("%02x", byte(h>>shift))
	}
	return out
}

// EntryPath renders a CacheKey as the relative directory spec §4.C
// describes: the preproc_hash split into 8 path segments, followed by a
// directory named after the flat hex rendering of flags_hash.
func (k CacheKey) EntryPath(cacheRoot string) string {
	segs := hexSegments(k.PreprocHash)
	parts := make([]string, 0, len(segs)+2)
	parts = append(parts, cacheRoot, ".lelcache")
	parts = append(parts, segs[:]...)
	parts = append(parts, fmt.Sprintf("%016x", k.FlagsHash))
	return filepath.Join(parts...)
}

// BuildCacheKey implements spec §4.C: the pair of hashes, using the already
// computed flags_hash from Invocation.CompilerKeyHash and a fresh hash of
// the preprocessed temp file's content.
func BuildCacheKey(inv *Invocation) (CacheKey, error) {
	preproc, err := hashFileContent(inv.PreprocessedTemp)
	if err != nil {
		return CacheKey{}, err
	}
	return CacheKey{PreprocHash: preproc, FlagsHash: inv.CompilerKeyHash}, nil
}
