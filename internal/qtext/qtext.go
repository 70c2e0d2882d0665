// Package qtext parses a plain-text query corpus into Query values. This
// text format is a convenience for tests and the build CLI command; it is
// not the engine's actual contract, which stays an opaque clause/term
// list plus an opaque metadata blob. The grammar is a small lexer
// feeding a participle grammar struct, one line at a time.
//
//	0: (A1|A2)&(B1|B2)
//	1 filters=F3:10:20: (B2)
//	# a comment line, ignored
package qtext

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/brackenfield/psearch/perr"
)

// RangeFilter is one field's lower/upper bound, parsed from a
// "field:lower:upper" or unbounded "field:lower:" triple.
type RangeFilter struct {
	Field    string
	Lower    float64
	Upper    float64
	HasUpper bool
}

// Query is one parsed corpus line: a query id, its DNF clauses (outer
// slice AND-ed, inner slice OR-ed), and any range filters.
type Query struct {
	QID     int32
	Clauses [][]string
	Filters []RangeFilter
}

type filterSpec struct {
	Field string   `@Ident ":"`
	Lower float64  `@Number ":"`
	Upper *float64 `@Number?`
}

type clauseSpec struct {
	Terms []string `"(" @Ident ("|" @Ident)* ")"`
}

type lineSpec struct {
	QID     int32         `@Number`
	Filters []*filterSpec `("filters" "=" @@ ("," @@)*)?`
	Clauses []*clauseSpec `":" @@ ("&" @@)*`
}

var qtextLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[():|&=,]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

var lineParser = participle.MustBuild[lineSpec](
	participle.Lexer(qtextLexer),
	participle.Elide("Whitespace"),
)

// ParseLine parses a single non-comment, non-blank corpus line.
func ParseLine(s string) (Query, error) {
	parsed, err := lineParser.ParseString("", s)
	if err != nil {
		return Query{}, perr.NewMalformedQuery(0, fmt.Sprintf("parse line %q: %v", s, err))
	}

	q := Query{QID: parsed.QID}
	for _, f := range parsed.Filters {
		rf := RangeFilter{Field: f.Field, Lower: f.Lower}
		if f.Upper != nil {
			rf.Upper = *f.Upper
			rf.HasUpper = true
		}
		q.Filters = append(q.Filters, rf)
	}
	for _, c := range parsed.Clauses {
		q.Clauses = append(q.Clauses, c.Terms)
	}
	return q, nil
}

// Parse reads an entire corpus, one query per non-blank, non-"#"-comment
// line.
func Parse(r io.Reader) ([]Query, error) {
	var queries []Query
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("qtext: line %d: %w", lineNo, err)
		}
		queries = append(queries, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return queries, nil
}
