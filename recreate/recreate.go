// Package recreate reconstructs the original query corpus from a built
// Store, for diagnostics and for the property test that checks a build
// round-trips losslessly. It works from the postings alone: every stored
// row, whether under the rare or remainder prefix, carries a mask that
// uniquely identifies the clause position it came from.
package recreate

import (
	"math/bits"
	"sort"

	"github.com/brackenfield/psearch/store"
)

// Query is one reconstructed corpus entry: its id and its DNF clauses,
// each clause's terms sorted for a canonical, order-independent
// comparison against the original input.
type Query struct {
	QID     int32
	Clauses [][]string
}

// firstZero returns the index of the least-significant zero bit in
// mask. A rare row's mask never has the rare clause's own bit set (it
// is the OR of every other position's bit), and a remainder row's mask
// is the bitwise complement of a single bit, so in both cases exactly
// one bit identifies the row's original clause position.
func firstZero(mask int32) int {
	return bits.TrailingZeros32(uint32(^mask))
}

// Recreate walks every posting row in st and rebuilds the query corpus,
// returning queries sorted by id with each clause's terms sorted
// lexicographically.
func Recreate(st store.Store) ([]Query, error) {
	type key struct {
		qid int32
		pos int
	}
	clauseTerms := make(map[key][]string)

	err := st.IterPostings(func(prefix store.Prefix, term string, posts []store.Posting) error {
		for _, p := range posts {
			pos := firstZero(p.Mask)
			k := key{qid: p.QID, pos: pos}
			clauseTerms[k] = append(clauseTerms[k], term)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byQID := make(map[int32]map[int]([]string))
	for k, terms := range clauseTerms {
		if byQID[k.qid] == nil {
			byQID[k.qid] = make(map[int][]string)
		}
		byQID[k.qid][k.pos] = terms
	}

	queries := make([]Query, 0, len(byQID))
	for qid, positions := range byQID {
		maxPos := 0
		for pos := range positions {
			if pos > maxPos {
				maxPos = pos
			}
		}
		clauses := make([][]string, maxPos+1)
		for pos, terms := range positions {
			sorted := append([]string(nil), terms...)
			sort.Strings(sorted)
			clauses[pos] = sorted
		}
		queries = append(queries, Query{QID: qid, Clauses: clauses})
	}

	sort.Slice(queries, func(i, j int) bool { return queries[i].QID < queries[j].QID })
	return queries, nil
}
