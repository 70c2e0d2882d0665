// Package match implements the streaming-document side of prospective
// search: seed candidate queries from a document's terms' rare-clause
// postings, refine each candidate by AND-ing in its remainder-clause
// masks, and emit the queries whose mask reaches exactly zero and whose
// range filters the document satisfies.
package match

import (
	"github.com/brackenfield/psearch/internal/metapb"
	"github.com/brackenfield/psearch/store"
)

// Document is the streaming input a Matcher tests queries against. Terms
// are matched by exact string equality with the terms interned at build
// time; by convention a field-scoped term is prefixed "field:value" the
// way field-scoped query terms are written (see IterTerms).
type Document struct {
	// Terms is a flat set of document terms to seed/refine candidates
	// with, already prefixed with their field name where applicable.
	Terms []string
	// TextFields holds, per text-search field, the field's term
	// sequences in input order, one inner slice per field entry. Terms
	// here participate in matching unprefixed.
	TextFields map[string][][]string
	// TermFilters holds, per filter field, the field's values. Each
	// value enters the term stream prefixed as "field:value", matching
	// the convention for field-scoped query terms.
	TermFilters map[string][]string
	// RangeFilters holds, per field name, every numeric value observed
	// for that field in the document. A query's range filter on a field
	// passes if any one of these values satisfies the filter's bounds.
	RangeFilters map[string][]float64

	statsCache map[string]fieldStats
}

// IterTerms returns the document's deduplicated term set: the flat
// Terms, every TextFields term, and every TermFilters value prefixed
// with its field name.
func (d Document) IterTerms() []string {
	seen := make(map[string]bool, len(d.Terms))
	var out []string
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range d.Terms {
		add(t)
	}
	for _, entries := range d.TextFields {
		for _, entry := range entries {
			for _, t := range entry {
				add(t)
			}
		}
	}
	for field, values := range d.TermFilters {
		for _, v := range values {
			add(field + ":" + v)
		}
	}
	return out
}

// fieldStats is one text field's term frequency table and term count.
type fieldStats struct {
	freqs  map[string]int
	length int
}

func (d *Document) fieldStat(field string) fieldStats {
	if s, ok := d.statsCache[field]; ok {
		return s
	}
	s := fieldStats{freqs: make(map[string]int)}
	for _, entry := range d.TextFields[field] {
		s.length += len(entry)
		for _, t := range entry {
			s.freqs[t]++
		}
	}
	if d.statsCache == nil {
		d.statsCache = make(map[string]fieldStats)
	}
	d.statsCache[field] = s
	return s
}

// Stats returns the combined term frequencies and total term count
// across the named TextFields. Per-field results are cached on the
// document, so repeated calls over overlapping field sets stay cheap.
// The engine itself never ranks; this is an accessor for callers that
// want scoring signals alongside a match.
func (d *Document) Stats(fields ...string) (map[string]int, int) {
	freqs := make(map[string]int)
	length := 0
	for _, f := range fields {
		s := d.fieldStat(f)
		length += s.length
		for t, n := range s.freqs {
			freqs[t] += n
		}
	}
	return freqs, length
}

// Matcher evaluates documents against the query corpus indexed into a
// Store. A Matcher never mutates its Store; the same Store may back
// multiple concurrent Matchers once it has been fully built and closed
// by its writer.
type Matcher struct {
	store store.Store
}

// New wraps an already-built Store for matching.
func New(st store.Store) *Matcher {
	return &Matcher{store: st}
}

// Matches returns the ids of every indexed query that is satisfied by
// doc. Order is unspecified; callers that need a stable order should
// sort the result themselves.
func (m *Matcher) Matches(doc Document) ([]int32, error) {
	terms := doc.IterTerms()

	candidates := make(map[int32]int32)
	for _, t := range terms {
		posts, err := m.store.ReadPosts(store.Rare, t)
		if err != nil {
			return nil, err
		}
		for _, p := range posts {
			candidates[p.QID] = p.Mask
		}
	}

	for _, t := range terms {
		posts, err := m.store.ReadPosts(store.Remainder, t)
		if err != nil {
			return nil, err
		}
		for _, p := range posts {
			if mask, ok := candidates[p.QID]; ok {
				candidates[p.QID] = mask & p.Mask
			}
		}
	}

	var matched []int32
	for qid, mask := range candidates {
		if mask != 0 {
			continue
		}
		ok, err := m.passesFilters(qid, doc)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, qid)
		}
	}
	return matched, nil
}

// passesFilters reports whether doc satisfies every range filter
// attached to qid's metadata. A query with no stored metadata
// (MissingMetadata) is treated as having no filters and always passes.
// A filter field with no values recorded on the document fails the
// filter outright rather than vacuously passing, matching the strict
// lower-bound/optional-upper-bound semantics used throughout.
func (m *Matcher) passesFilters(qid int32, doc Document) (bool, error) {
	data, ok, err := m.store.GetData(qid)
	if err != nil {
		return false, err
	}
	if !ok || len(data) == 0 {
		return true, nil
	}
	meta, err := metapb.Decode(data)
	if err != nil {
		return false, err
	}

	for _, f := range meta.Filters {
		values := doc.RangeFilters[f.Field]
		satisfied := false
		for _, v := range values {
			if f.Lower < v && (!f.HasUpper || f.Upper > v) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false, nil
		}
	}
	return true, nil
}
