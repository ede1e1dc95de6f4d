package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/querykit/query/filter"
)

// buildNode compiles one node, consuming placeholders from *argIndex.
func buildNode(node filter.Node, argIndex *int) (string, []any) {
	switch n := node.(type) {
	case nil:
		return "", nil
	case filter.Condition:
		return buildCondition(n, argIndex)
	case filter.Group:
		return buildGroup(n, argIndex)
	default:
		return "", nil
	}
}

// buildGroup builds AND / OR / NOT groups with support for nested conditions
func buildGroup(group filter.Group, argIndex *int) (string, []any) {
	children := group.Children()

	if group.Logic() == filter.LogicNot {
		if len(children) == 0 {
			return "", nil
		}
		sql, args := buildNode(children[0], argIndex)
		if sql == "" {
			return "", nil
		}
		return "NOT (" + sql + ")", args
	}

	var parts []string
	var args []any
	for _, child := range children {
		sql, childArgs := buildNode(child, argIndex)
		if sql == "" {
			continue
		}
		if !group.Bare() {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		args = append(args, childArgs...)
	}
	if len(parts) == 0 {
		return "", nil
	}

	op := " AND "
	if group.Logic() == filter.LogicOr {
		op = " OR "
	}
	return strings.Join(parts, op), args
}

// buildCondition builds a single condition
func buildCondition(cond filter.Condition, argIndex *int) (string, []any) {
	op := cond.Operator()

	switch op.Family() {
	case filter.FamilyEquality:
		if cond.Value() == nil {
			return fmt.Sprintf("%s IS NULL", cond.Field()), nil
		}
		sql := fmt.Sprintf("%s %s %s", cond.Field(), op, Placeholder(*argIndex))
		(*argIndex)++
		return sql, []any{cond.Value()}

	case filter.FamilyCollection:
		values := cond.Values()
		if len(values) == 0 {
			// IN () matches nothing, NOT IN () matches everything.
			if op == filter.OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		ph := placeholders(argIndex, len(values))
		return fmt.Sprintf("%s %s (%s)", cond.Field(), op, strings.Join(ph, ", ")), values

	case filter.FamilyRange:
		b := cond.Bounds()
		ph := placeholders(argIndex, 2)
		return fmt.Sprintf("%s BETWEEN %s AND %s", cond.Field(), ph[0], ph[1]), []any{b.Low, b.High}

	default:
		return "", nil
	}
}
