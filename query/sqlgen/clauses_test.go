package sqlgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satishbabariya/querykit/query/sqlgen"
)

func intPtr(n int) *int { return &n }

func TestBuildOrderBy(t *testing.T) {
	assert.Equal(t, "", sqlgen.BuildOrderBy(nil))
	assert.Equal(t, "ORDER BY a ASC, b DESC", sqlgen.BuildOrderBy([]sqlgen.Order{
		{Column: "a"},
		{Column: "b", Direction: "desc"},
	}))
	assert.Equal(t, "ORDER BY c ASC", sqlgen.BuildOrderBy([]sqlgen.Order{{Column: "c", Direction: "sideways"}}))
}

func TestBuildLimitOffset(t *testing.T) {
	assert.Equal(t, "", sqlgen.BuildLimit(nil))
	assert.Equal(t, "LIMIT 10", sqlgen.BuildLimit(intPtr(10)))
	assert.Equal(t, "LIMIT -1", sqlgen.BuildLimit(intPtr(-1)))

	assert.Equal(t, "", sqlgen.BuildOffset(nil))
	assert.Equal(t, "OFFSET 0", sqlgen.BuildOffset(intPtr(0)))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t LIMIT 1", sqlgen.Join("SELECT * FROM t", "", "LIMIT 1", ""))
	assert.Equal(t, "", sqlgen.Join())
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", sqlgen.Placeholder(1))
	assert.Equal(t, "$12", sqlgen.Placeholder(12))
}
