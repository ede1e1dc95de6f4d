package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrInvalidExpression is returned by Parse for malformed filter text.
var ErrInvalidExpression = errors.New("filter: invalid expression")

// exprLexer tokenizes the filter expression language.
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(AND|OR|NOT|IN|BETWEEN|LIKE|IS|NULL|TRUE|FALSE)\b`},
	{Name: "String", Pattern: `'(?:''|[^'])*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Operator", Pattern: `!=|<>|>=|<=|=|>|<`},
	{Name: "Punct", Pattern: `[(),.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type exprOr struct {
	Pos   lexer.Position
	Left  *exprAnd   `@@`
	Right []*exprAnd `( "OR" @@ )*`
}

type exprAnd struct {
	Left  *exprUnary   `@@`
	Right []*exprUnary `( "AND" @@ )*`
}

type exprUnary struct {
	Not     *exprUnary   `  "NOT" @@`
	Primary *exprPrimary `| @@`
}

type exprPrimary struct {
	Group      *exprOr         `  "(" @@ ")"`
	Comparison *exprComparison `| @@`
}

type exprComparison struct {
	Pos     lexer.Position
	Field   string       `@(Ident ( "." Ident )*)`
	Between *exprBetween `( "BETWEEN" @@`
	NotIn   *exprList    `| "NOT" "IN" @@`
	In      *exprList    `| "IN" @@`
	IsNull  bool         `| @("IS" "NULL")`
	Op      string       `| @(Operator | "LIKE")`
	Value   *exprLiteral `  @@ )`
}

type exprBetween struct {
	Low  *exprLiteral `@@`
	High *exprLiteral `"AND" @@`
}

type exprList struct {
	Values []*exprLiteral `"(" ( @@ ( "," @@ )* )? ")"`
}

type exprLiteral struct {
	Null   bool    `  @"NULL"`
	True   bool    `| @"TRUE"`
	False  bool    `| @"FALSE"`
	Number *string `| @Number`
	String *string `| @String`
}

var exprParser = participle.MustBuild[exprOr](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(2),
)

// Parse reads a filter expression such as
//
//	age >= 18 AND (name LIKE 'a%' OR id IN (1, 2)) AND NOT deleted_at IS NULL
//
// into a condition tree. Strings use single quotes with '' as the escape.
// Integers become int64 and decimals float64.
func Parse(expr string) (Node, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	ast, err := exprParser.ParseString("", expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	return ast.toNode()
}

func (e *exprOr) toNode() (Node, error) {
	left, err := e.Left.toNode()
	if err != nil {
		return nil, err
	}
	if len(e.Right) == 0 {
		return left, nil
	}
	nodes := []Node{left}
	for _, r := range e.Right {
		n, err := r.toNode()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return Or(nodes...), nil
}

func (e *exprAnd) toNode() (Node, error) {
	left, err := e.Left.toNode()
	if err != nil {
		return nil, err
	}
	if len(e.Right) == 0 {
		return left, nil
	}
	nodes := []Node{left}
	for _, r := range e.Right {
		n, err := r.toNode()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return And(nodes...), nil
}

func (e *exprUnary) toNode() (Node, error) {
	if e.Not != nil {
		inner, err := e.Not.toNode()
		if err != nil {
			return nil, err
		}
		return Not(inner), nil
	}
	if e.Primary.Group != nil {
		return e.Primary.Group.toNode()
	}
	return e.Primary.Comparison.toNode()
}

func (c *exprComparison) toNode() (Node, error) {
	switch {
	case c.Between != nil:
		low, err := c.Between.Low.value()
		if err != nil {
			return nil, err
		}
		high, err := c.Between.High.value()
		if err != nil {
			return nil, err
		}
		return Between(c.Field, low, high), nil

	case c.In != nil, c.NotIn != nil:
		list := c.In
		if list == nil {
			list = c.NotIn
		}
		values := make([]any, 0, len(list.Values))
		for _, lit := range list.Values {
			v, err := lit.value()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		if c.NotIn != nil {
			return NotIn(c.Field, values...), nil
		}
		return In(c.Field, values...), nil

	case c.IsNull:
		return Eq(c.Field, nil), nil
	}

	op, err := ParseOperator(c.Op)
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %v", ErrInvalidExpression, c.Pos, err)
	}
	v, err := c.Value.value()
	if err != nil {
		return nil, err
	}
	return scalar(c.Field, op, v), nil
}

func (l *exprLiteral) value() (any, error) {
	switch {
	case l.Null:
		return nil, nil
	case l.True:
		return true, nil
	case l.False:
		return false, nil
	case l.Number != nil:
		if !strings.Contains(*l.Number, ".") {
			n, err := strconv.ParseInt(*l.Number, 10, 64)
			if err == nil {
				return n, nil
			}
		}
		f, err := strconv.ParseFloat(*l.Number, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrInvalidExpression, *l.Number)
		}
		return f, nil
	case l.String != nil:
		s := *l.String
		s = s[1 : len(s)-1]
		return strings.ReplaceAll(s, "''", "'"), nil
	default:
		return nil, fmt.Errorf("%w: empty literal", ErrInvalidExpression)
	}
}
