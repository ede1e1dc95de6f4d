package filter

import "sort"

// Where is anything accepted as a WHERE filter: a Map, a Fields list, a
// Condition or a Group. A nil Where means no filter.
type Where interface {
	where()
}

type undefined struct{}

// Undefined marks a flat-map entry that should be left out of the filter.
var Undefined any = undefined{}

// Map is a flat field -> value filter. Keys are compiled in sorted order.
//
// A nil value means IS NULL, a slice value means IN, an Undefined value is
// skipped and anything else is an equality test.
type Map map[string]any

func (Map) where() {}

// Pair is one field/value entry of a Fields list.
type Pair struct {
	Key   string
	Value any
}

// Fields is a flat filter like Map that keeps the caller's order.
type Fields []Pair

func (Fields) where() {}

// Pairs returns f itself, so Fields and Map can be used interchangeably as
// column/value lists.
func (f Fields) Pairs() Fields { return f }

// Pairs returns the entries of m sorted by key.
func (m Map) Pairs() Fields {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Fields, 0, len(keys))
	for _, k := range keys {
		out = append(out, Pair{Key: k, Value: m[k]})
	}
	return out
}

// Normalize turns a Where into a Node. It returns nil when the input holds
// no filter at all.
func Normalize(w Where) Node {
	switch t := w.(type) {
	case nil:
		return nil
	case Map:
		return normalizeFields(t.Pairs())
	case Fields:
		return normalizeFields(t)
	case Node:
		return t
	default:
		return nil
	}
}

func normalizeFields(fields Fields) Node {
	conds := make([]Node, 0, len(fields))
	for _, p := range fields {
		if p.Value == Undefined {
			continue
		}
		if values, ok := listOf(p.Value); ok {
			conds = append(conds, Condition{field: p.Key, op: OpIn, values: values})
			continue
		}
		conds = append(conds, Eq(p.Key, p.Value))
	}

	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return Group{logic: LogicAnd, children: conds, bare: true}
	}
}
