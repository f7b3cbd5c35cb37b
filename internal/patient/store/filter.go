package store

import (
	"sort"
	"strconv"
	"strings"
)

// placeholderStyle abstracts the one syntactic difference between the
// sqlite and postgres filter predicates.
type placeholderStyle int

const (
	questionPlaceholders placeholderStyle = iota // ?
	dollarPlaceholders                           // $1, $2, ...
)

func (s placeholderStyle) placeholder(n int) string {
	if s == dollarPlaceholders {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// buildFilter turns a caller-supplied filter map into a WHERE clause and
// its positional arguments. Only keys present in the column registry
// contribute a predicate; everything else is silently dropped. Values
// never enter the query text, only the args slice. Keys are walked in
// sorted order so the generated SQL is deterministic.
func buildFilter(filters map[string]string, style placeholderStyle) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(filters))
	for key := range filters {
		if Filterable(key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", nil
	}
	sort.Strings(keys)

	var clause strings.Builder
	args := make([]any, 0, len(keys))
	for i, key := range keys {
		column := filterColumns[key]
		if i == 0 {
			clause.WriteString(" WHERE ")
		} else {
			clause.WriteString(" AND ")
		}
		ph := style.placeholder(i + 1)
		expr := column.name
		// SQLite stores dates as TEXT already; only the typed postgres
		// column needs the cast.
		if column.asText && style == dollarPlaceholders {
			expr += "::text"
		}
		if column.foldCase {
			clause.WriteString("LOWER(" + expr + ") = LOWER(" + ph + ")")
		} else {
			clause.WriteString(expr + " = " + ph)
		}
		args = append(args, filters[key])
	}
	return clause.String(), args
}
