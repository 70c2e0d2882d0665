// Command psearch builds, matches against, and dumps the contents of a
// prospective search index from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/brackenfield/psearch/index"
	"github.com/brackenfield/psearch/internal/logging"
	"github.com/brackenfield/psearch/internal/metapb"
	"github.com/brackenfield/psearch/internal/qtext"
	"github.com/brackenfield/psearch/match"
	"github.com/brackenfield/psearch/recreate"
	"github.com/brackenfield/psearch/store"
	"github.com/brackenfield/psearch/store/hashfile"
	"github.com/brackenfield/psearch/store/memory"
	"github.com/brackenfield/psearch/store/sqlitestore"
)

var cli struct {
	Build BuildCmd `cmd:"" help:"Build an index from a plain-text query corpus."`
	Match MatchCmd `cmd:"" help:"Match a JSON document against a built index."`
	Dump  DumpCmd  `cmd:"" help:"Reconstruct and print the queries stored in an index."`
}

// BuildCmd reads a plain-text query corpus (see internal/qtext) and
// writes a built index to path, using backend as the storage format.
type BuildCmd struct {
	Corpus  string `arg:"" type:"existingfile" help:"Path to a plain-text query corpus."`
	Path    string `arg:"" help:"Index output path (a directory for hashfile, a file otherwise)."`
	Backend string `default:"hashfile" enum:"memory,hashfile,sqlite" help:"Storage backend to build with."`
}

func (c *BuildCmd) Run() error {
	f, err := os.Open(c.Corpus)
	if err != nil {
		return err
	}
	defer f.Close()

	queries, err := qtext.Parse(f)
	if err != nil {
		return err
	}

	idxQueries := make([]index.Query, len(queries))
	for i, q := range queries {
		idxQueries[i] = index.Query{QID: q.QID, Clauses: q.Clauses, Meta: encodeFilters(q.Filters)}
	}

	st, err := openStoreForWrite(c.Backend, c.Path)
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	start := time.Now()
	numTerms, err := index.Build(idxQueries, st)
	if err != nil {
		st.Close()
		os.RemoveAll(c.Path)
		return fmt.Errorf("psearch build: %w", err)
	}
	if err := st.Close(); err != nil {
		logging.StoreError("close", c.Path, err)
		return err
	}
	logging.BuildComplete(sessionID, len(idxQueries), numTerms, time.Since(start), "backend", c.Backend)
	return nil
}

// docInput is the JSON shape accepted by MatchCmd.
type docInput struct {
	Terms        []string             `json:"terms"`
	RangeFilters map[string][]float64 `json:"range_filters"`
}

// MatchCmd matches a single JSON-encoded document against a built index
// and prints the matching query ids, one per line.
type MatchCmd struct {
	Path     string `arg:"" help:"Path to a built index (a directory for hashfile, a file otherwise)."`
	Document string `arg:"" type:"existingfile" help:"Path to a JSON document."`
	Backend  string `default:"hashfile" enum:"memory,hashfile,sqlite" help:"Storage backend the index was built with."`
}

func (c *MatchCmd) Run() error {
	f, err := os.Open(c.Document)
	if err != nil {
		return err
	}
	defer f.Close()

	var in docInput
	if err := json.NewDecoder(f).Decode(&in); err != nil {
		return fmt.Errorf("psearch match: decode document: %w", err)
	}

	st, err := openStoreForRead(c.Backend, c.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	m := match.New(st)
	start := time.Now()
	matched, err := m.Matches(match.Document{Terms: in.Terms, RangeFilters: in.RangeFilters})
	if err != nil {
		return err
	}
	logging.MatchComplete(len(in.Terms), len(matched), time.Since(start))

	for _, qid := range matched {
		fmt.Println(qid)
	}
	return nil
}

// DumpCmd reconstructs the queries stored in an index and prints them.
type DumpCmd struct {
	Path    string `arg:"" help:"Path to a built index (a directory for hashfile, a file otherwise)."`
	Backend string `default:"hashfile" enum:"memory,hashfile,sqlite" help:"Storage backend the index was built with."`
}

func (c *DumpCmd) Run() error {
	st, err := openStoreForRead(c.Backend, c.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	queries, err := recreate.Recreate(st)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for _, q := range queries {
		if err := enc.Encode(q); err != nil {
			return err
		}
	}
	return nil
}

func openStoreForWrite(backend, path string) (store.Store, error) {
	switch backend {
	case "memory":
		return memory.Open(path, false)
	case "sqlite":
		return sqlitestore.Open(path)
	default:
		return hashfile.Open(path, false)
	}
}

func openStoreForRead(backend, path string) (store.Store, error) {
	switch backend {
	case "memory":
		return memory.Open(path, true)
	case "sqlite":
		return sqlitestore.OpenReadOnly(path)
	default:
		return hashfile.Open(path, true)
	}
}

func encodeFilters(filters []qtext.RangeFilter) []byte {
	if len(filters) == 0 {
		return nil
	}
	meta := metapb.Meta{Filters: make([]metapb.RangeFilter, len(filters))}
	for i, f := range filters {
		meta.Filters[i] = metapb.RangeFilter{Field: f.Field, Lower: f.Lower, Upper: f.Upper, HasUpper: f.HasUpper}
	}
	data, err := metapb.Encode(meta)
	if err != nil {
		return nil
	}
	return data
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("psearch"),
		kong.Description("Build and query a prospective (reverse) Boolean search index."),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
