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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// minSizeBudgetMB is the -m floor spec §6 requires.
const minSizeBudgetMB = 32

// defaultCacheDirName is the subdirectory of the user's config directory
// that holds lelcache's config record, and the default cache root when -p
// has never been run, mirroring the original's %LocalAppData%\lelcache
// layout.
const defaultCacheDirName = "lelcache"

// Config is the small opaque-to-the-core record from spec §3/§6:
// (cache_root, max_size_bytes). Only CacheRoot is ever read by the core;
// MaxSizeBytes is recorded for -i to report and is never enforced.
type Config struct {
	CacheRoot    string
	MaxSizeBytes uint64
}

// configPath is where the config record lives: a plain "key=value" text
// file next to the user's other per-user application state, distinct from
// the binary counter record in cache_root/.lelcache/cache.info.
func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("lelcache: locating config directory: %w", err)
	}
	return filepath.Join(dir, defaultCacheDirName, "config"), nil
}

// LoadConfig reads the persisted Config, defaulting CacheRoot to
// <user config dir>/lelcache/cache and MaxSizeBytes to 0 (unset, meaning
// "no budget configured yet") when the file does not exist.
func LoadConfig() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Config{}, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		dir := filepath.Dir(path)
		return Config{CacheRoot: filepath.Join(dir, "cache")}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("lelcache: reading config: %w", err)
	}
	defer f.Close()

	cfg := Config{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		switch key {
		case "cache_root":
			cfg.CacheRoot = value
		case "max_size_bytes":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("lelcache: parsing max_size_bytes: %w", err)
			}
			cfg.MaxSizeBytes = n
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("lelcache: reading config: %w", err)
	}
	return cfg, nil
}

// Save persists cfg, creating its directory if needed.
func (cfg Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return fmt.Errorf("lelcache: creating config directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "cache_root=%s\n", cfg.CacheRoot)
	fmt.Fprintf(&b, "max_size_bytes=%d\n", cfg.MaxSizeBytes)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o666); err != nil {
		return fmt.Errorf("lelcache: writing config: %w", err)
	}
	return os.Rename(tmp, path)
}

// SetCacheRoot implements `-p <path>`: the absolute, trailing-separator-
// stripped form of path (spec §6).
func (cfg *Config) SetCacheRoot(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lelcache: resolving cache root: %w", err)
	}
	cfg.CacheRoot = filepath.Clean(abs)
	return nil
}

// SetSizeBudgetMB implements `-m <N>`: N megabytes, rejected below the
// floor spec §6 mandates.
func (cfg *Config) SetSizeBudgetMB(n uint64) error {
	if n < minSizeBudgetMB {
		return fmt.Errorf("lelcache: size budget must be >= %d MB, got %d", minSizeBudgetMB, n)
	}
	cfg.MaxSizeBytes = n * 1024 * 1024
	return nil
}
