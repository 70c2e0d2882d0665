// Package psearch implements prospective (reverse) search: a corpus of
// Boolean queries in disjunctive normal form is indexed once, then
// streaming documents are tested against every indexed query in roughly
// the cost of evaluating each document's own rarest matching term,
// rather than the cost of evaluating the whole corpus per document.
//
// The index package builds the posting structure into any store.Store
// backend (memory, hashfile, or sqlitestore), the match package
// evaluates documents against a built store, and the recreate package
// reverses a built store back into its query corpus for diagnostics.
package psearch
