package store

// filterColumn describes one indexed attribute callers may filter on.
type filterColumn struct {
	name     string
	foldCase bool // compare case-insensitively (gender values)
	// asText compares through a text cast on drivers with a typed
	// column, so a non-date filter value yields no rows rather than a
	// query error.
	asText bool
}

// filterColumns is the column registry: the single source of truth for
// which filter keys may ever shape a query. Keys absent here are dropped
// before query construction, so caller input can never reach the SQL text.
// Adding a column means adding exactly one entry.
var filterColumns = map[string]filterColumn{
	"id":          {name: "id"},
	"given_name":  {name: "given_name"},
	"family_name": {name: "family_name"},
	"gender":      {name: "gender", foldCase: true},
	"birth_date":  {name: "birth_date", asText: true},
}

// Filterable reports whether key names a registered, filterable column.
func Filterable(key string) bool {
	_, ok := filterColumns[key]
	return ok
}
