// Package filter provides the condition tree used to describe WHERE filters.
package filter

import (
	"fmt"
	"strings"
)

// Operator is a comparison or collection operator used by a Condition.
type Operator int

const (
	opInvalid Operator = iota
	// OpEq is field = value
	OpEq
	// OpNe is field != value
	OpNe
	// OpGt is field > value
	OpGt
	// OpLt is field < value
	OpLt
	// OpGte is field >= value
	OpGte
	// OpLte is field <= value
	OpLte
	// OpLike is field LIKE pattern
	OpLike
	// OpIn is field IN (values...)
	OpIn
	// OpNotIn is field NOT IN (values...)
	OpNotIn
	// OpBetween is field BETWEEN low AND high
	OpBetween
)

// Family groups operators by the shape of the value they take.
type Family int

const (
	// FamilyInvalid is returned for unknown operators.
	FamilyInvalid Family = iota
	// FamilyEquality operators take exactly one scalar.
	FamilyEquality
	// FamilyCollection operators take an ordered list of scalars.
	FamilyCollection
	// FamilyRange operators take a lower and an upper bound.
	FamilyRange
)

var operatorSQL = map[Operator]string{
	OpEq:      "=",
	OpNe:      "!=",
	OpGt:      ">",
	OpLt:      "<",
	OpGte:     ">=",
	OpLte:     "<=",
	OpLike:    "LIKE",
	OpIn:      "IN",
	OpNotIn:   "NOT IN",
	OpBetween: "BETWEEN",
}

// String returns the SQL spelling of the operator.
func (o Operator) String() string {
	if s, ok := operatorSQL[o]; ok {
		return s
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// Valid reports whether o is one of the known operators.
func (o Operator) Valid() bool {
	_, ok := operatorSQL[o]
	return ok
}

// Family returns the value shape the operator expects.
func (o Operator) Family() Family {
	switch o {
	case OpEq, OpNe, OpGt, OpLt, OpGte, OpLte, OpLike:
		return FamilyEquality
	case OpIn, OpNotIn:
		return FamilyCollection
	case OpBetween:
		return FamilyRange
	default:
		return FamilyInvalid
	}
}

// ParseOperator maps an SQL operator spelling to an Operator.
// Matching is case-insensitive and "<>" is accepted for "!=".
func ParseOperator(s string) (Operator, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if norm == "<>" {
		return OpNe, nil
	}
	for op, sql := range operatorSQL {
		if sql == norm {
			return op, nil
		}
	}
	return opInvalid, fmt.Errorf("%w: unknown operator %q", ErrInvalidCondition, s)
}
