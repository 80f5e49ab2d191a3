package search

import (
	"strings"
)

type QueryKind string

const (
	KindLiteral  QueryKind = "literal"
	KindNatural  QueryKind = "natural"
	KindFiltered QueryKind = "filtered"
)

// ClassifyQuery decides what kind of query the index is about to see.
// Filtered queries carry their own search operators and must not have
// the repository's extension prefix stacked on top.
func ClassifyQuery(query string) QueryKind {
	query = strings.TrimSpace(query)

	if strings.Contains(query, "ext:") || strings.Contains(query, "path:") {
		return KindFiltered
	}

	// Structured separators (paths, generics) signal a literal code lookup.
	if strings.ContainsAny(query, "/<>()") {
		return KindLiteral
	}

	// Single identifiers like AccountStore or prc_GetAccount are literal.
	if !strings.Contains(query, " ") {
		return KindLiteral
	}

	return KindNatural
}
