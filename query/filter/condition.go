package filter

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidCondition is returned when a condition has the wrong shape for its operator.
var ErrInvalidCondition = errors.New("filter: invalid condition")

// ConstructionError describes a malformed condition or group.
type ConstructionError struct {
	Field    string
	Operator string
	Reason   string
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("filter: invalid condition on %q (%s): %s", e.Field, e.Operator, e.Reason)
	}
	return fmt.Sprintf("filter: invalid %s: %s", e.Operator, e.Reason)
}

// Is reports whether target is ErrInvalidCondition.
func (e *ConstructionError) Is(target error) bool {
	return target == ErrInvalidCondition
}

// Node is an element of a condition tree: a Condition or a Group.
type Node interface {
	Where
	node()
}

// Range holds the two bounds of a BETWEEN condition.
type Range struct {
	Low  any
	High any
}

// Condition is a leaf of the condition tree comparing one field.
//
// The zero value is an empty condition and compiles to nothing.
type Condition struct {
	field  string
	op     Operator
	value  any
	values []any
	bounds Range
}

func (Condition) node()  {}
func (Condition) where() {}

// Field returns the column the condition applies to.
func (c Condition) Field() string { return c.field }

// Operator returns the condition operator.
func (c Condition) Operator() Operator { return c.op }

// Value returns the scalar operand of an equality-family condition.
func (c Condition) Value() any { return c.value }

// Values returns a copy of the list operand of an IN / NOT IN condition.
func (c Condition) Values() []any {
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

// Bounds returns the operands of a BETWEEN condition.
func (c Condition) Bounds() Range { return c.bounds }

// IsZero reports whether c is the empty condition.
func (c Condition) IsZero() bool { return c.op == opInvalid }

func scalar(field string, op Operator, v any) Condition {
	return Condition{field: field, op: op, value: v}
}

// Eq builds field = value. A nil value compiles to IS NULL.
func Eq(field string, value any) Condition { return scalar(field, OpEq, value) }

// Ne builds field != value.
func Ne(field string, value any) Condition { return scalar(field, OpNe, value) }

// Gt builds field > value.
func Gt(field string, value any) Condition { return scalar(field, OpGt, value) }

// Lt builds field < value.
func Lt(field string, value any) Condition { return scalar(field, OpLt, value) }

// Gte builds field >= value.
func Gte(field string, value any) Condition { return scalar(field, OpGte, value) }

// Lte builds field <= value.
func Lte(field string, value any) Condition { return scalar(field, OpLte, value) }

// Like builds field LIKE pattern.
func Like(field string, pattern any) Condition { return scalar(field, OpLike, pattern) }

// In builds field IN (values...). An empty list is allowed.
func In(field string, values ...any) Condition {
	return Condition{field: field, op: OpIn, values: copyList(values)}
}

// NotIn builds field NOT IN (values...). An empty list is allowed.
func NotIn(field string, values ...any) Condition {
	return Condition{field: field, op: OpNotIn, values: copyList(values)}
}

// Between builds field BETWEEN low AND high.
func Between(field string, low, high any) Condition {
	return Condition{field: field, op: OpBetween, bounds: Range{Low: low, High: high}}
}

// NewCondition builds a condition from an operator chosen at runtime,
// checking that value has the shape the operator requires.
//
// Collection operators take any slice; BETWEEN takes a Range or a
// two-element slice; the equality family takes a scalar (nil included).
func NewCondition(field string, op Operator, value any) (Condition, error) {
	fail := func(reason string) (Condition, error) {
		return Condition{}, &ConstructionError{Field: field, Operator: op.String(), Reason: reason}
	}
	if field == "" {
		return fail("empty field name")
	}

	switch op.Family() {
	case FamilyEquality:
		if _, ok := listOf(value); ok {
			return fail("operator takes a single value, got a list")
		}
		return scalar(field, op, value), nil

	case FamilyCollection:
		values, ok := listOf(value)
		if !ok {
			return fail("operator takes a list of values")
		}
		return Condition{field: field, op: op, values: values}, nil

	case FamilyRange:
		if r, ok := value.(Range); ok {
			return Between(field, r.Low, r.High), nil
		}
		values, ok := listOf(value)
		if !ok || len(values) != 2 {
			return fail("BETWEEN takes exactly two bounds")
		}
		return Between(field, values[0], values[1]), nil

	default:
		return fail("unknown operator")
	}
}

// listOf expands any Go slice or array, except []byte, into []any.
func listOf(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil, []byte:
		return nil, false
	case []any:
		return copyList(t), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func copyList(values []any) []any {
	out := make([]any, len(values))
	copy(out, values)
	return out
}

// Logic is the combinator of a Group.
type Logic int

const (
	// LogicAnd joins children with AND.
	LogicAnd Logic = iota + 1
	// LogicOr joins children with OR.
	LogicOr
	// LogicNot negates its single child.
	LogicNot
)

// String returns the SQL keyword for the logic.
func (l Logic) String() string {
	switch l {
	case LogicAnd:
		return "AND"
	case LogicOr:
		return "OR"
	case LogicNot:
		return "NOT"
	default:
		return fmt.Sprintf("Logic(%d)", int(l))
	}
}

// Group combines child nodes under AND, OR or NOT.
type Group struct {
	logic    Logic
	children []Node
	// bare joins children without wrapping each in parentheses; used for
	// the implicit AND of a flat field map.
	bare bool
}

func (Group) node()  {}
func (Group) where() {}

// Logic returns the group combinator.
func (g Group) Logic() Logic { return g.logic }

// Children returns a copy of the child nodes.
func (g Group) Children() []Node {
	out := make([]Node, len(g.children))
	copy(out, g.children)
	return out
}

// Bare reports whether children are joined without per-child parentheses.
func (g Group) Bare() bool { return g.bare }

// And joins nodes with AND. With no nodes it compiles to nothing.
func And(nodes ...Node) Group { return NewGroup(LogicAnd, nodes...) }

// Or joins nodes with OR. With no nodes it compiles to nothing.
func Or(nodes ...Node) Group { return NewGroup(LogicOr, nodes...) }

// Not negates node.
func Not(node Node) Group { return NewGroup(LogicNot, node) }

// NewGroup builds a group for a logic chosen at runtime.
//
// NOT is unary: only the first child is kept and any others are dropped
// without error. Use NewGroupStrict to reject them instead.
func NewGroup(logic Logic, children ...Node) Group {
	kept := make([]Node, 0, len(children))
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	if logic == LogicNot && len(kept) > 1 {
		kept = kept[:1]
	}
	return Group{logic: logic, children: kept}
}

// NewGroupStrict is NewGroup that fails on an unknown logic or on a NOT
// without exactly one child.
func NewGroupStrict(logic Logic, children ...Node) (Group, error) {
	switch logic {
	case LogicAnd, LogicOr:
	case LogicNot:
		if len(children) != 1 {
			return Group{}, &ConstructionError{
				Operator: "NOT",
				Reason:   fmt.Sprintf("takes exactly one child, got %d", len(children)),
			}
		}
	default:
		return Group{}, &ConstructionError{Operator: logic.String(), Reason: "unknown logic"}
	}
	return NewGroup(logic, children...), nil
}
