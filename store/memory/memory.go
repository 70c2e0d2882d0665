// Package memory implements store.Store entirely in process memory,
// optionally round-tripping through a single gob-encoded snapshot file
// on Close and Open.
package memory

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/brackenfield/psearch/perr"
	"github.com/brackenfield/psearch/store"
)

type postKey struct {
	Prefix store.Prefix
	Term   string
}

// snapshot is the gob-serializable form of a Store's contents.
type snapshot struct {
	Posts map[postKey][]store.Posting
	Data  map[int32][]byte
}

// Store is an in-memory store.Store implementation.
type Store struct {
	fname    string
	readonly bool
	posts    map[postKey][]store.Posting
	data     map[int32][]byte
}

// New creates an empty, unbacked in-memory store.
func New() *Store {
	return &Store{
		posts: make(map[postKey][]store.Posting),
		data:  make(map[int32][]byte),
	}
}

// Open creates a store backed by fname: if readonly is true the store is
// populated from fname immediately (fname must exist); otherwise it
// starts empty and is written to fname on Close.
func Open(fname string, readonly bool) (*Store, error) {
	s := &Store{fname: fname, readonly: readonly, posts: make(map[postKey][]store.Posting), data: make(map[int32][]byte)}
	if readonly {
		f, err := os.Open(fname)
		if err != nil {
			return nil, perr.NewStoreError("open", fname, err)
		}
		defer f.Close()

		var snap snapshot
		if err := gob.NewDecoder(f).Decode(&snap); err != nil {
			return nil, perr.NewStoreError("decode", fname, err)
		}
		s.posts = snap.Posts
		s.data = snap.Data
	}
	return s, nil
}

// WritePosts replaces the posting list for (prefix, term).
func (s *Store) WritePosts(prefix store.Prefix, term string, posts []store.Posting) error {
	if err := store.ValidateTerm(term); err != nil {
		return err
	}
	cp := make([]store.Posting, len(posts))
	copy(cp, posts)
	s.posts[postKey{prefix, term}] = cp
	return nil
}

// ReadPosts returns the posting list for (prefix, term).
func (s *Store) ReadPosts(prefix store.Prefix, term string) ([]store.Posting, error) {
	return s.posts[postKey{prefix, term}], nil
}

// SetData stores the metadata blob for qid.
func (s *Store) SetData(qid int32, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[qid] = cp
	return nil
}

// GetData retrieves the metadata blob for qid.
func (s *Store) GetData(qid int32) ([]byte, bool, error) {
	d, ok := s.data[qid]
	return d, ok, nil
}

// IterPostings visits every posting row.
func (s *Store) IterPostings(fn func(prefix store.Prefix, term string, posts []store.Posting) error) error {
	for k, v := range s.posts {
		if err := fn(k.Prefix, k.Term, v); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the store to its backing file, if any, and readonly is
// false. Writing to "-" sends the snapshot to stdout so a built index
// can be piped elsewhere.
func (s *Store) Close() error {
	if s.fname == "" || s.readonly {
		return nil
	}

	var f *os.File
	if s.fname == "-" {
		f = os.Stdout
	} else {
		var err error
		f, err = os.Create(s.fname)
		if err != nil {
			return perr.NewStoreError("create", s.fname, err)
		}
		defer f.Close()
	}

	snap := snapshot{Posts: s.posts, Data: s.data}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return perr.NewStoreError("encode", s.fname, fmt.Errorf("%w", err))
	}
	return nil
}
