package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/satishbabariya/querykit/query/executor"
	"github.com/satishbabariya/querykit/query/filter"
	"github.com/satishbabariya/querykit/query/sqlgen"
)

var errFilterFlags = errors.New("use either --json or --expr, not both")

// readFilter builds a filter from --json or --expr. Neither set means no
// filter.
func readFilter(jsonText, expr string) (filter.Where, error) {
	switch {
	case jsonText != "" && expr != "":
		return nil, errFilterFlags
	case jsonText != "":
		return decodeFilter(jsonText)
	case expr != "":
		node, err := filter.Parse(expr)
		if err != nil {
			return nil, err
		}
		return node, nil
	default:
		return nil, nil
	}
}

// decodeFilter reads a flat JSON object into a filter.Map. Arrays become IN
// lists and null becomes IS NULL.
func decodeFilter(text string) (filter.Map, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON filter: %w", err)
	}

	m := make(filter.Map, len(raw))
	for k, v := range raw {
		value, err := jsonValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		m[k] = value
	}
	return m, nil
}

func jsonValue(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) {
			return nil, fmt.Errorf("invalid number %s", t)
		}
		return f, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			value, err := jsonValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil
	case map[string]any:
		return nil, errors.New("nested objects are not supported, use --expr")
	default:
		return t, nil
	}
}

// parseOrder reads "name, created_at desc" into ORDER BY entries.
func parseOrder(text string) ([]sqlgen.Order, error) {
	var orders []sqlgen.Order
	for _, part := range strings.Split(text, ",") {
		fields := strings.Fields(part)
		switch len(fields) {
		case 0:
			continue
		case 1:
			orders = append(orders, sqlgen.Order{Column: fields[0], Direction: sqlgen.Asc})
		case 2:
			dir := sqlgen.Direction(strings.ToUpper(fields[1]))
			if dir != sqlgen.Asc && dir != sqlgen.Desc {
				return nil, fmt.Errorf("invalid sort direction %q", fields[1])
			}
			orders = append(orders, sqlgen.Order{Column: fields[0], Direction: dir})
		default:
			return nil, fmt.Errorf("invalid order %q", strings.TrimSpace(part))
		}
	}
	return orders, nil
}

// rowTable turns result rows into table cells. Without explicit columns the
// keys of the first row are used in sorted order.
func rowTable(rows []executor.Row, columns []string) ([]string, [][]string) {
	if (len(columns) == 0 || columns[0] == "*") && len(rows) > 0 {
		columns = make([]string, 0, len(rows[0]))
		for k := range rows[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(columns))
		for j, col := range columns {
			if v := row[col]; v != nil {
				line[j] = fmt.Sprint(v)
			} else {
				line[j] = "NULL"
			}
		}
		cells[i] = line
	}
	return columns, cells
}
