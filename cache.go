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
	"io"
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

const (
	objEntryName = "obj"
	pdbEntryName = "pdb"
)

// Store is the cache-entry filesystem facade from spec §4.D: probe,
// read-out (copy to the user's requested paths) and deposit (copy in the
// artifacts a successful compile just produced).
type Store struct {
	Root string // cache_root
}

// NewStore returns a Store rooted at root. root is expected to already be
// the absolute, trailing-separator-stripped path spec §6's -p option
// produces.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// Probe reports whether key has a complete cache entry: the directory
// exists and contains a readable obj file. A missing obj is a miss even if
// the directory (or a stray pdb) exists — this is what lets an interrupted
// deposit (spec §5, Cancellation) be tolerated by later probes.
func (s *Store) Probe(key CacheKey) bool {
	f, err := os.Open(filepath.Join(key.EntryPath(s.Root), objEntryName))
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ReadOut copies obj (and pdb, if the invocation expects one) from the
// cache entry to the invocation's requested output paths. A cache hit
// missing its pdb is reported via a *CacheReadMissingPdbError but is not
// fatal: the obj copy still happens and the invocation still succeeds
// (spec §4.D, §7).
func (s *Store) ReadOut(key CacheKey, inv *Invocation) error {
	entry := key.EntryPath(s.Root)

	if err := copyFile(filepath.Join(entry, objEntryName), inv.ObjectOut); err != nil {
		return fmt.Errorf("lelcache: copying cached obj: %w", err)
	}

	if !inv.EmitPdb {
		return nil
	}
	pdbSrc := filepath.Join(entry, pdbEntryName)
	if _, err := os.Stat(pdbSrc); err != nil {
		return &CacheReadMissingPdbError{SourceFile: inv.SourceFile}
	}
	if err := copyFile(pdbSrc, inv.PdbOut); err != nil {
		return fmt.Errorf("lelcache: copying cached pdb: %w", err)
	}
	return nil
}

// Deposit writes the just-compiled artifacts into the cache under key. Two
// concurrent deposits to the same key race benignly (spec §4.D): each
// writes through a sibling temp file and renames into place, so a
// subsequent Probe never observes a half-written obj/pdb, even though the
// two deposits may write different (equivalent) bytes.
func (s *Store) Deposit(key CacheKey, inv *Invocation) (bytesWritten int64, err error) {
	entry := key.EntryPath(s.Root)
	if err := os.MkdirAll(entry, 0o777); err != nil {
		return 0, fmt.Errorf("lelcache: creating cache entry dir: %w", err)
	}

	n, err := atomicCopy(inv.ObjectOut, filepath.Join(entry, objEntryName))
	if err != nil {
		return 0, fmt.Errorf("lelcache: depositing obj: %w", err)
	}
	bytesWritten += n

	if inv.EmitPdb {
		n, err := atomicCopy(inv.PdbOut, filepath.Join(entry, pdbEntryName))
		if err != nil {
			return bytesWritten, fmt.Errorf("lelcache: depositing pdb: %w", err)
		}
		bytesWritten += n
	}
	return bytesWritten, nil
}

// copyFile copies src to dst, overwriting dst if it exists.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// atomicCopy copies src to a sibling temp file next to dst, then renames it
// into place, so a concurrent reader of dst never observes a partial write
// (spec §4.D's deposit discipline).
func atomicCopy(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".lelcache-deposit-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	n, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpName)
		return 0, copyErr
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return 0, closeErr
	}

	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return 0, err
	}
	glog.V(2).Infof("cache: deposited %s (%d bytes)", dst, n)
	return n, nil
}
