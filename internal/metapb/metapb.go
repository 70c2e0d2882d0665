// Package metapb defines the wire encoding for the opaque per-query
// metadata blob a Store keeps alongside postings. The matcher only ever
// needs the range filters out of it; everything else a caller attaches
// is carried through to storage and back unexamined.
package metapb

import (
	"bytes"
	"encoding/gob"

	"github.com/brackenfield/psearch/perr"
)

// RangeFilter is one field's lower/upper bound pair. Upper is only
// meaningful when HasUpper is true; an absent upper bound means
// unbounded above.
type RangeFilter struct {
	Field    string
	Lower    float64
	Upper    float64
	HasUpper bool
}

// Meta is the decoded form of a query's metadata blob.
type Meta struct {
	Filters []RangeFilter
	// Extra carries whatever else a caller attached to the query at
	// build time. The matcher never looks inside it.
	Extra []byte
}

// Encode gob-encodes m for storage.
func Encode(m Meta) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, perr.NewMalformedQuery(0, "encode metadata: "+err.Error())
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode. An empty blob decodes to a zero-value Meta
// (no filters, no extra), matching MissingMetadata's "no filters"
// treatment at the call site rather than here.
func Decode(data []byte) (Meta, error) {
	var m Meta
	if len(data) == 0 {
		return m, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return Meta{}, perr.NewMalformedQuery(0, "decode metadata: "+err.Error())
	}
	return m, nil
}
