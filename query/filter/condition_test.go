package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperator(t *testing.T) {
	tests := []struct {
		op     Operator
		sql    string
		family Family
	}{
		{OpEq, "=", FamilyEquality},
		{OpNe, "!=", FamilyEquality},
		{OpGt, ">", FamilyEquality},
		{OpLt, "<", FamilyEquality},
		{OpGte, ">=", FamilyEquality},
		{OpLte, "<=", FamilyEquality},
		{OpLike, "LIKE", FamilyEquality},
		{OpIn, "IN", FamilyCollection},
		{OpNotIn, "NOT IN", FamilyCollection},
		{OpBetween, "BETWEEN", FamilyRange},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.sql, tt.op.String())
			assert.Equal(t, tt.family, tt.op.Family())
			assert.True(t, tt.op.Valid())

			parsed, err := ParseOperator(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.op, parsed)
		})
	}

	var zero Operator
	assert.False(t, zero.Valid())
	assert.Equal(t, FamilyInvalid, zero.Family())
}

func TestParseOperator(t *testing.T) {
	op, err := ParseOperator("<>")
	require.NoError(t, err)
	assert.Equal(t, OpNe, op)

	op, err = ParseOperator("not   in")
	require.NoError(t, err)
	assert.Equal(t, OpNotIn, op)

	op, err = ParseOperator("like")
	require.NoError(t, err)
	assert.Equal(t, OpLike, op)

	_, err = ParseOperator("~=")
	assert.ErrorIs(t, err, ErrInvalidCondition)
}

func TestConstructors(t *testing.T) {
	c := Eq("id", 5)
	assert.Equal(t, "id", c.Field())
	assert.Equal(t, OpEq, c.Operator())
	assert.Equal(t, 5, c.Value())
	assert.False(t, c.IsZero())

	in := In("tags", 1, 2)
	assert.Equal(t, []any{1, 2}, in.Values())

	// Values hands out a copy.
	in.Values()[0] = 99
	assert.Equal(t, []any{1, 2}, in.Values())

	b := Between("age", 18, 65)
	assert.Equal(t, Range{Low: 18, High: 65}, b.Bounds())

	assert.Empty(t, NotIn("x").Values())
	assert.True(t, Condition{}.IsZero())
}

func TestNewCondition(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		op      Operator
		value   any
		want    Condition
		wantErr bool
	}{
		{name: "scalar", field: "a", op: OpGt, value: 3, want: Gt("a", 3)},
		{name: "nil scalar", field: "a", op: OpEq, value: nil, want: Eq("a", nil)},
		{name: "bytes are scalar", field: "a", op: OpEq, value: []byte("x"), want: Eq("a", []byte("x"))},
		{name: "typed slice", field: "id", op: OpIn, value: []int{1, 2, 3}, want: In("id", 1, 2, 3)},
		{name: "array", field: "id", op: OpNotIn, value: [2]string{"a", "b"}, want: NotIn("id", "a", "b")},
		{name: "empty list", field: "id", op: OpIn, value: []string{}, want: In("id")},
		{name: "range value", field: "n", op: OpBetween, value: Range{Low: 1, High: 2}, want: Between("n", 1, 2)},
		{name: "two element slice", field: "n", op: OpBetween, value: []float64{1.5, 2.5}, want: Between("n", 1.5, 2.5)},
		{name: "between wrong arity", field: "n", op: OpBetween, value: []int{1, 2, 3}, wantErr: true},
		{name: "between scalar", field: "n", op: OpBetween, value: 1, wantErr: true},
		{name: "in scalar", field: "n", op: OpIn, value: 1, wantErr: true},
		{name: "eq list", field: "n", op: OpEq, value: []int{1}, wantErr: true},
		{name: "empty field", field: "", op: OpEq, value: 1, wantErr: true},
		{name: "invalid operator", field: "n", op: Operator(0), value: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCondition(tt.field, tt.op, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCondition)
				var ce *ConstructionError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewGroup(t *testing.T) {
	a, b := Eq("a", 1), Eq("b", 2)

	g := NewGroup(LogicNot, a, b)
	assert.Equal(t, []Node{a}, g.Children())

	g = NewGroup(LogicAnd, a, nil, b)
	assert.Equal(t, []Node{a, b}, g.Children())
	assert.Equal(t, LogicAnd, g.Logic())
	assert.False(t, g.Bare())

	_, err := NewGroupStrict(LogicNot, a, b)
	assert.ErrorIs(t, err, ErrInvalidCondition)

	_, err = NewGroupStrict(LogicNot)
	assert.ErrorIs(t, err, ErrInvalidCondition)

	_, err = NewGroupStrict(Logic(9), a)
	assert.ErrorIs(t, err, ErrInvalidCondition)

	g, err = NewGroupStrict(LogicOr, a, b)
	require.NoError(t, err)
	assert.Equal(t, Or(a, b), g)
}

func TestLogicString(t *testing.T) {
	assert.Equal(t, "AND", LogicAnd.String())
	assert.Equal(t, "OR", LogicOr.String())
	assert.Equal(t, "NOT", LogicNot.String())
	assert.Equal(t, "Logic(0)", Logic(0).String())
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))
	assert.Nil(t, Normalize(Map{}))
	assert.Nil(t, Normalize(Map{"a": Undefined}))

	assert.Equal(t, Eq("a", 1), Normalize(Map{"a": 1, "b": Undefined}))
	assert.Equal(t, In("tags", "x", "y"), Normalize(Fields{{Key: "tags", Value: []string{"x", "y"}}}))

	g, ok := Normalize(Map{"b": 2, "a": nil}).(Group)
	require.True(t, ok)
	assert.True(t, g.Bare())
	assert.Equal(t, []Node{Eq("a", nil), Eq("b", 2)}, g.Children())

	// A key literally named "field" is just a column.
	assert.Equal(t, Eq("field", "x"), Normalize(Map{"field": "x"}))

	node := Or(Eq("a", 1))
	assert.Equal(t, node, Normalize(node))
}

func TestFieldsKeepOrder(t *testing.T) {
	g, ok := Normalize(Fields{{Key: "z", Value: 1}, {Key: "a", Value: 2}}).(Group)
	require.True(t, ok)
	assert.Equal(t, []Node{Eq("z", 1), Eq("a", 2)}, g.Children())
}
