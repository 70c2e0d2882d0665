// Package term interns query terms into compact int32 identifiers during
// index construction. A single Interner instance is scoped to one build
// call and never shared across builds.
package term

// ID is a dense, zero-based term identifier assigned in first-seen order.
type ID int32

// Interner assigns a stable ID to each distinct term string seen during a
// build and keeps a running occurrence count per ID, used later to rank
// clauses by rarity. There is no eviction: every term observed during a
// single build stays resident for that build's lifetime.
type Interner struct {
	ids   map[string]ID
	terms []string
	freqs []int32
}

// New creates an empty Interner.
func New() *Interner {
	return &Interner{ids: make(map[string]ID)}
}

// Intern returns the ID for term, assigning a new one if this is the first
// occurrence, and increments its frequency count.
func (in *Interner) Intern(term string) ID {
	id, ok := in.ids[term]
	if !ok {
		id = ID(len(in.terms))
		in.ids[term] = id
		in.terms = append(in.terms, term)
		in.freqs = append(in.freqs, 0)
	}
	in.freqs[id]++
	return id
}

// Len returns the number of distinct terms interned so far.
func (in *Interner) Len() int {
	return len(in.terms)
}

// Freq returns the occurrence count recorded for id.
func (in *Interner) Freq(id ID) int32 {
	return in.freqs[id]
}

// Term returns the original string for id. Valid only after the ID has
// been assigned; panics on out-of-range ids, which would indicate a bug
// in the caller rather than recoverable input error.
func (in *Interner) Term(id ID) string {
	return in.terms[id]
}

// Terms returns the full term table, indexed by ID. The caller must not
// mutate the returned slice.
func (in *Interner) Terms() []string {
	return in.terms
}
