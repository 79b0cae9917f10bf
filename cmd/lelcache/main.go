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

// Command lelcache wraps a cl.exe invocation with a content-addressed
// object-file cache. See usage() for the command-line grammar.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/golang/glog"

	"github.com/lelcache/lelcache"
)

func usage() {
	fmt.Println(`Usage:
    lelcache <path_to_cl.exe> <cl_args>
  or
    lelcache <options>

Available options:
 -h        show this help
 -i        show cache info
 -m <n>    set maximum cache size to n megabytes
 -p <dir>  set cache directory to dir`)
}

func main() {
	code := run(os.Args[1:])
	glog.Flush()
	os.Exit(code)
}

// run implements spec §6's two command-line shapes: administrative
// options (args[0] starts with '-') or a compiler wrap. It is split out
// from main so tests can drive it without an os.Exit.
func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 1
	}

	if len(args[0]) > 0 && args[0][0] == '-' {
		return runAdmin(args)
	}
	return runWrap(args)
}

// runWrap implements the wrap form: args is <compiler_path> <compiler_args...>.
func runWrap(args []string) int {
	cfg, err := lelcache.LoadConfig()
	if err != nil {
		glog.Errorf("lelcache: %v", err)
		return 1
	}

	argv := append([]string{"lelcache"}, args...)
	orch := lelcache.NewOrchestrator(cfg.CacheRoot)
	return orch.Wrap(argv)
}

// runAdmin implements the `-h` / `-i` / `-m <N>` / `-p <path>` forms from
// spec §6. Each option is processed in argv order, matching the original's
// single left-to-right scan.
func runAdmin(args []string) int {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) == 0 || arg[0] != '-' {
			fmt.Printf("Unknown option %q\n", arg)
			return 1
		}

		switch arg[1:] {
		case "h":
			usage()
		case "i":
			if err := printInfo(); err != nil {
				fmt.Println(err)
				return 1
			}
		case "m":
			i++
			if i >= len(args) {
				fmt.Println("The -m option expects a number in megabytes")
				return 1
			}
			if err := setSizeBudget(args[i]); err != nil {
				fmt.Println(err)
				return 1
			}
		case "p":
			i++
			if i >= len(args) {
				fmt.Println("The -p option expects a path as an argument")
				return 1
			}
			if err := setCacheRoot(args[i]); err != nil {
				fmt.Println(err)
				return 1
			}
		default:
			fmt.Printf("Unknown option %q\n", arg)
			return 1
		}
	}
	return 0
}

// printInfo implements `-i`: hits, misses, hit rate, configured and
// current cache size in MB, and the cache root.
func printInfo() error {
	cfg, err := lelcache.LoadConfig()
	if err != nil {
		return err
	}
	counters, err := lelcache.NewCounterStore(cfg.CacheRoot).Load()
	if err != nil {
		return err
	}

	var hitRate float64
	if total := counters.Hits + counters.Misses; total > 0 {
		hitRate = float64(counters.Hits) / float64(total) * 100.0
	}

	fmt.Printf("cache hits:         %d\n", counters.Hits)
	fmt.Printf("cache misses:       %d\n", counters.Misses)
	fmt.Printf("cache hit rate:     %.2f%%\n", hitRate)
	fmt.Printf("maximum cache size: %d MB\n", cfg.MaxSizeBytes/(1024*1024))
	fmt.Printf("current cache size: %d MB\n", counters.SizeBytes/(1024*1024))
	fmt.Printf("cache location:     %s\n", cfg.CacheRoot)
	return nil
}

// setSizeBudget implements `-m <N>`.
func setSizeBudget(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("the -m option expects a number in megabytes")
	}
	cfg, err := lelcache.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.SetSizeBudgetMB(n); err != nil {
		return err
	}
	return cfg.Save()
}

// setCacheRoot implements `-p <path>`.
func setCacheRoot(path string) error {
	cfg, err := lelcache.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.SetCacheRoot(path); err != nil {
		return err
	}
	return cfg.Save()
}
