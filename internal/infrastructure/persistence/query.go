package persistence

import (
	"slices"
	"strings"
)

// sortColumns whitelists the columns a listing may be ordered by; the first
// entry is the default
type sortColumns []string

var (
	userSort       = sortColumns{"created_at", "updated_at", "name", "email", "role", "last_login_at"}
	restaurantSort = sortColumns{"created_at", "name", "cuisine", "average_rating", "review_count"}
	orderSort      = sortColumns{"created_at", "updated_at", "total_amount", "status", "order_number"}
	batchSort      = sortColumns{"created_at", "updated_at", "status"}
	reviewSort     = sortColumns{"created_at", "restaurant_rating"}
)

// clause builds the ORDER BY for a request. Unknown columns fall back to the
// default and anything but asc sorts descending. id breaks ties so pages do
// not overlap when many rows share a timestamp.
func (s sortColumns) clause(field, dir string) string {
	col := s[0]
	if f := strings.TrimSpace(field); slices.Contains(s, f) {
		col = f
	}
	d := "DESC"
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		d = "ASC"
	}
	return col + " " + d + ", id " + d
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern wraps s for a LIKE ... ESCAPE '\' match so user input
// cannot inject wildcards
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
