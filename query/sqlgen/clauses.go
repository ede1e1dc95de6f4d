package sqlgen

import (
	"fmt"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	// Asc sorts ascending
	Asc Direction = "ASC"
	// Desc sorts descending
	Desc Direction = "DESC"
)

// Order is one ORDER BY entry. An empty Direction means ASC.
type Order struct {
	Column    string
	Direction Direction
}

// BuildOrderBy renders "ORDER BY col DIR, ..." or "" for no entries.
func BuildOrderBy(orders []Order) string {
	if len(orders) == 0 {
		return ""
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		dir := Asc
		if strings.EqualFold(string(o.Direction), string(Desc)) {
			dir = Desc
		}
		parts[i] = o.Column + " " + string(dir)
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// BuildLimit renders "LIMIT n" or "" when limit is nil.
// The value is not validated.
func BuildLimit(limit *int) string {
	if limit == nil {
		return ""
	}
	return fmt.Sprintf("LIMIT %d", *limit)
}

// BuildOffset renders "OFFSET n" or "" when offset is nil.
// The value is not validated.
func BuildOffset(offset *int) string {
	if offset == nil {
		return ""
	}
	return fmt.Sprintf("OFFSET %d", *offset)
}
