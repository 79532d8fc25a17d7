package file

import (
	"fmt"
	"strings"
)

// defaultSortColumn orders newest first when no usable sort key is supplied.
const (
	defaultSortColumn = "created_at"
	defaultSortDesc   = true
)

// sortColumns whitelists the fields a caller may sort by.
var sortColumns = map[string]string{
	"name":       "name",
	"size":       "size_bytes",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// ListQuery carries the optional filters composed into a files listing.
type ListQuery struct {
	Types  []Type
	Search string
	Sort   string
	Limit  int
}

// ParseSortKey splits a "field-asc"/"field-desc" key on its last separator
// and maps the field onto a whitelisted column. Anything unrecognized falls
// back to the default of newest-created first.
func ParseSortKey(key string) (column string, desc bool) {
	idx := strings.LastIndex(key, "-")
	if idx <= 0 {
		return defaultSortColumn, defaultSortDesc
	}

	field, direction := key[:idx], key[idx+1:]
	column, ok := sortColumns[field]
	if !ok {
		return defaultSortColumn, defaultSortDesc
	}

	switch direction {
	case "asc":
		return column, false
	case "desc":
		return column, true
	default:
		return defaultSortColumn, defaultSortDesc
	}
}

// Build renders the WHERE/ORDER BY/LIMIT tail of a files listing for the
// given caller. The access predicate always comes first and is the sole
// read-authorization boundary: owner or listed in the share emails.
func (q ListQuery) Build(accessor Accessor) (string, []any) {
	args := []any{accessor.UserID, accessor.Email}
	predicates := []string{"(owner_id = $1 OR $2 = ANY(users))"}

	if len(q.Types) > 0 {
		types := make([]string, 0, len(q.Types))
		for _, t := range q.Types {
			types = append(types, string(t))
		}
		args = append(args, types)
		predicates = append(predicates, fmt.Sprintf("type = ANY($%d)", len(args)))
	}

	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		predicates = append(predicates, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	column, desc := ParseSortKey(q.Sort)
	direction := "ASC"
	if desc {
		direction = "DESC"
	}

	var sb strings.Builder
	sb.WriteString("WHERE ")
	sb.WriteString(strings.Join(predicates, " AND "))
	sb.WriteString(fmt.Sprintf(" ORDER BY %s %s", column, direction))

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	return sb.String(), args
}

// escapeLike neutralizes the ILIKE metacharacters so search text matches
// names literally, not as a pattern.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
