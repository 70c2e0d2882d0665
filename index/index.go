// Package index builds the two-tier rare/remainder posting structure a
// Matcher reads from. Building proceeds in three passes over the query
// corpus: spill every (qid, term, clause position) triple to a buffer
// while interning terms, partition the spilled triples per query to pick
// each query's rarest clause, then write the resulting R/T posting rows
// to a Store sorted by (term id, query id).
package index

import (
	"fmt"
	"sort"

	"github.com/brackenfield/psearch/buffer"
	"github.com/brackenfield/psearch/perr"
	"github.com/brackenfield/psearch/store"
	"github.com/brackenfield/psearch/term"
)

// MaxClauses bounds a query's clause count: clause-completion state is
// packed into a single int32 mask.
const MaxClauses = 31

// Query is one corpus entry to index: an id, its DNF clauses (outer
// slice AND-ed, inner slice OR-ed terms), and an opaque metadata blob
// the matcher's caller can later retrieve unexamined.
type Query struct {
	QID     int32
	Clauses [][]string
	Meta    []byte
}

// row is one (term id, query id, completion mask) posting about to be
// written under either the rare or remainder prefix.
type row struct {
	tid, qid, mask int32
}

// Build indexes queries into st and returns the number of distinct terms
// observed across the whole corpus.
func Build(queries []Query, st store.Store) (int, error) {
	interner := term.New()
	buf, err := buffer.New()
	if err != nil {
		return 0, err
	}
	defer buf.Close()

	for _, q := range queries {
		if len(q.Clauses) == 0 {
			return 0, perr.NewMalformedQuery(q.QID, "query has no clauses")
		}
		if len(q.Clauses) > MaxClauses {
			return 0, perr.NewMalformedQuery(q.QID, fmt.Sprintf("query has %d clauses, exceeds max %d", len(q.Clauses), MaxClauses))
		}
		for pos, terms := range q.Clauses {
			if len(terms) == 0 {
				return 0, perr.NewMalformedQuery(q.QID, fmt.Sprintf("clause %d is empty", pos))
			}
			seen := make(map[string]bool, len(terms))
			for _, t := range terms {
				if seen[t] {
					continue
				}
				seen[t] = true
				tid := interner.Intern(t)
				if err := buf.Add(q.QID, int32(tid), int32(pos)); err != nil {
					return 0, err
				}
			}
		}
		if err := st.SetData(q.QID, q.Meta); err != nil {
			return 0, err
		}
	}

	triples, err := buf.Finalize()
	if err != nil {
		return 0, err
	}

	sort.Slice(triples, func(i, j int) bool {
		if triples[i].QID != triples[j].QID {
			return triples[i].QID < triples[j].QID
		}
		return triples[i].Pos < triples[j].Pos
	})

	var rareRows, remainderRows []row
	i := 0
	for i < len(triples) {
		j := i
		qid := triples[i].QID
		for j < len(triples) && triples[j].QID == qid {
			j++
		}
		rr, tr := partitionQuery(qid, triples[i:j], interner)
		rareRows = append(rareRows, rr...)
		remainderRows = append(remainderRows, tr...)
		i = j
	}

	if err := writeRows(st, store.Rare, rareRows, interner); err != nil {
		return 0, err
	}
	if err := writeRows(st, store.Remainder, remainderRows, interner); err != nil {
		return 0, err
	}

	return interner.Len(), nil
}

// partitionQuery groups one query's triples (already sorted by clause
// position) by position, picks the position with the lowest summed term
// frequency as the rare clause (ties won by the earliest position), and
// emits rare/remainder rows for the rest.
func partitionQuery(qid int32, triples []buffer.Triple, interner *term.Interner) (rare, remainder []row) {
	var positions [][]int32
	k := 0
	for k < len(triples) {
		l := k
		pos := triples[k].Pos
		for l < len(triples) && triples[l].Pos == pos {
			l++
		}
		tids := make([]int32, 0, l-k)
		for m := k; m < l; m++ {
			tids = append(tids, triples[m].TID)
		}
		positions = append(positions, tids)
		k = l
	}

	posFreq := make([]int64, len(positions))
	for p, tids := range positions {
		var sum int64
		for _, tid := range tids {
			sum += int64(interner.Freq(term.ID(tid)))
		}
		posFreq[p] = sum
	}
	minFreq := posFreq[0]
	for _, f := range posFreq[1:] {
		if f < minFreq {
			minFreq = f
		}
	}

	var minTerms []int32
	var minMask int32
	haveMin := false
	for pos, tids := range positions {
		if posFreq[pos] == minFreq && !haveMin {
			minTerms = tids
			haveMin = true
			continue
		}
		posBit := int32(1) << uint(pos)
		minMask |= posBit
		mask := ^posBit
		for _, tid := range tids {
			remainder = append(remainder, row{tid: tid, qid: qid, mask: mask})
		}
	}
	for _, tid := range minTerms {
		rare = append(rare, row{tid: tid, qid: qid, mask: minMask})
	}
	return rare, remainder
}

// writeRows sorts rows by (tid, qid) and writes one posting list per
// distinct term.
func writeRows(st store.Store, prefix store.Prefix, rows []row, interner *term.Interner) error {
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].tid != rows[b].tid {
			return rows[a].tid < rows[b].tid
		}
		return rows[a].qid < rows[b].qid
	})

	k := 0
	for k < len(rows) {
		l := k
		tid := rows[k].tid
		for l < len(rows) && rows[l].tid == tid {
			l++
		}
		posts := make([]store.Posting, 0, l-k)
		for m := k; m < l; m++ {
			posts = append(posts, store.Posting{QID: rows[m].qid, Mask: rows[m].mask})
		}
		termStr := interner.Term(term.ID(tid))
		if err := st.WritePosts(prefix, termStr, posts); err != nil {
			return err
		}
		k = l
	}
	return nil
}
