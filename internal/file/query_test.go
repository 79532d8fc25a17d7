package file

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortKey(t *testing.T) {
	cases := []struct {
		key    string
		column string
		desc   bool
	}{
		{"name-desc", "name", true},
		{"name-asc", "name", false},
		{"size-asc", "size_bytes", false},
		{"updated_at-desc", "updated_at", true},
		{"created_at-asc", "created_at", false},
		// anything without a recognized separator or field falls back
		{"", "created_at", true},
		{"name", "created_at", true},
		{"owner_id-asc", "created_at", true},
		{"name-sideways", "created_at", true},
		{"-desc", "created_at", true},
	}

	for _, tc := range cases {
		column, desc := ParseSortKey(tc.key)
		assert.Equal(t, tc.column, column, "column for %q", tc.key)
		assert.Equal(t, tc.desc, desc, "direction for %q", tc.key)
	}
}

func TestBuildAccessPredicateComesFirst(t *testing.T) {
	accessor := Accessor{UserID: uuid.New(), Email: "jane@example.com"}

	tail, args := ListQuery{}.Build(accessor)

	require.True(t, strings.HasPrefix(tail, "WHERE (owner_id = $1 OR $2 = ANY(users))"), tail)
	require.Len(t, args, 2)
	assert.Equal(t, accessor.UserID, args[0])
	assert.Equal(t, accessor.Email, args[1])
	assert.Contains(t, tail, "ORDER BY created_at DESC")
	assert.NotContains(t, tail, "LIMIT")
}

func TestBuildComposesOptionalFilters(t *testing.T) {
	accessor := Accessor{UserID: uuid.New(), Email: "jane@example.com"}
	query := ListQuery{
		Types:  []Type{TypeImage, TypeVideo},
		Search: "holiday",
		Sort:   "name-asc",
		Limit:  25,
	}

	tail, args := query.Build(accessor)

	assert.Equal(t,
		"WHERE (owner_id = $1 OR $2 = ANY(users)) AND type = ANY($3) AND name ILIKE $4 ORDER BY name ASC LIMIT $5",
		tail)
	require.Len(t, args, 5)
	assert.Equal(t, []string{"image", "video"}, args[2])
	assert.Equal(t, "%holiday%", args[3])
	assert.Equal(t, 25, args[4])
}

func TestBuildSearchMatchesLiterally(t *testing.T) {
	accessor := Accessor{UserID: uuid.New(), Email: "jane@example.com"}

	cases := []struct {
		search  string
		pattern string
	}{
		{"50%", `%50\%%`},
		{"_", `%\_%`},
		{`back\slash`, `%back\\slash%`},
		{"plain", "%plain%"},
	}

	for _, tc := range cases {
		tail, args := ListQuery{Search: tc.search}.Build(accessor)
		require.Contains(t, tail, "name ILIKE $3", "search %q", tc.search)
		require.Len(t, args, 3)
		assert.Equal(t, tc.pattern, args[2], "pattern for %q", tc.search)
	}
}

func TestBuildSkipsEmptyFilters(t *testing.T) {
	accessor := Accessor{UserID: uuid.New(), Email: "jane@example.com"}

	tail, args := ListQuery{Sort: "size-desc"}.Build(accessor)

	assert.Equal(t, "WHERE (owner_id = $1 OR $2 = ANY(users)) ORDER BY size_bytes DESC", tail)
	assert.Len(t, args, 2)
}
