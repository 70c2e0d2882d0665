// Package store defines the persistent key/value abstraction the index
// builder writes to and the matcher reads from. Concrete backends live in
// the memory, hashfile, and sqlitestore subpackages; all three satisfy the
// same Store interface and the same keyspace convention.
package store

import (
	"strings"

	"github.com/brackenfield/psearch/perr"
)

// Posting is one (query id, clause-completion mask) row.
type Posting struct {
	QID  int32
	Mask int32
}

// Prefix distinguishes the two posting tables sharing a term keyspace.
type Prefix byte

const (
	// Rare identifies postings for a query's single rarest clause.
	Rare Prefix = 'R'
	// Remainder identifies postings for a query's non-rare clauses.
	Remainder Prefix = 'T'
)

// metaPrefix marks per-query metadata keys, disjoint from term keys by
// construction: no legal term may begin with it.
const metaPrefix = "_"

// Store is the persistent map the builder writes postings and per-query
// metadata into, and the matcher reads both back from. Implementations
// need not support concurrent writers; a Store being read by a Matcher is
// assumed already fully built and Closed by its writer, exactly as the
// index builder leaves it.
type Store interface {
	// WritePosts replaces the posting list for (prefix, term).
	WritePosts(prefix Prefix, term string, posts []Posting) error

	// ReadPosts returns the posting list for (prefix, term), or a nil
	// slice if the term was never indexed. An unknown term is not an
	// error: it simply contributes no candidates.
	ReadPosts(prefix Prefix, term string) ([]Posting, error)

	// SetData stores the opaque per-query metadata blob for qid.
	SetData(qid int32, data []byte) error

	// GetData retrieves the metadata blob for qid. The second return
	// value is false if no metadata was ever set for qid (MissingMetadata,
	// treated as "no filters", never an error).
	GetData(qid int32) ([]byte, bool, error)

	// IterPostings visits every (prefix, term, postings) row in the
	// store, skipping metadata rows entirely.
	IterPostings(func(prefix Prefix, term string, posts []Posting) error) error

	// Close flushes and releases any resources held by the store.
	Close() error
}

// ValidateTerm rejects terms that would collide with the metadata
// keyspace. Every Store implementation calls this before writing a
// posting key.
func ValidateTerm(term string) error {
	if strings.HasPrefix(term, metaPrefix) {
		return perr.ErrReservedPrefix
	}
	return nil
}
