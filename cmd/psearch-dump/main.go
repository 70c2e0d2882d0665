// Command psearch-dump is a minimal, dependency-light diagnostic tool
// that reconstructs and prints the queries stored in an index, built
// with the standard library's flag package rather than the main psearch
// binary's kong-based CLI.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	coresqlite "github.com/brackenfield/psearch/core/sqlite"
	"github.com/brackenfield/psearch/recreate"
	"github.com/brackenfield/psearch/store"
	"github.com/brackenfield/psearch/store/hashfile"
	"github.com/brackenfield/psearch/store/memory"
	"github.com/brackenfield/psearch/store/sqlitestore"
)

func main() {
	backend := flag.String("backend", "hashfile", "storage backend the index was built with: memory, hashfile, or sqlite")
	showDriver := flag.Bool("sqlite-driver-info", false, "print the registered SQLite driver configuration and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-backend memory|hashfile|sqlite] <index-path>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showDriver {
		enc := json.NewEncoder(os.Stdout)
		if err := enc.Encode(coresqlite.GetInfo()); err != nil {
			fmt.Fprintln(os.Stderr, "psearch-dump:", err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	st, err := openStore(*backend, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "psearch-dump:", err)
		os.Exit(1)
	}
	defer st.Close()

	queries, err := recreate.Recreate(st)
	if err != nil {
		fmt.Fprintln(os.Stderr, "psearch-dump:", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, q := range queries {
		if err := enc.Encode(q); err != nil {
			fmt.Fprintln(os.Stderr, "psearch-dump:", err)
			os.Exit(1)
		}
	}
}

func openStore(backend, path string) (store.Store, error) {
	switch backend {
	case "memory":
		return memory.Open(path, true)
	case "sqlite":
		return sqlitestore.OpenReadOnly(path)
	case "hashfile":
		return hashfile.Open(path, true)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
