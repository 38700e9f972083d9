package cleaning

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"SalesCast/internal/domain/models"
	"SalesCast/pkg/util"
)

type Operator string

const (
	OpEq Operator = "=="
	OpNe Operator = "!="
	OpGt Operator = ">"
	OpGe Operator = ">="
	OpLt Operator = "<"
	OpLe Operator = "<="
)

var operatorAliases = map[string]Operator{
	"==": OpEq, "=": OpEq, "eq": OpEq,
	"!=": OpNe, "<>": OpNe, "ne": OpNe,
	">": OpGt, "gt": OpGt,
	">=": OpGe, "ge": OpGe, "gte": OpGe,
	"<": OpLt, "lt": OpLt,
	"<=": OpLe, "le": OpLe, "lte": OpLe,
}

// ParseOperator accepts symbolic and short word forms.
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown operator %q", s)
	}
	return op, nil
}

// holds reports whether a three-way comparison result satisfies op.
func (op Operator) holds(cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	}
	return false
}

// Predicate is a single comparison of a column against a literal.
type Predicate struct {
	Column  string
	Op      Operator
	Literal string
}

func (p Predicate) String() string {
	return fmt.Sprintf("`%s` %s %s", p.Column, p.Op, p.Literal)
}

var errEmptyCondition = errors.New("empty condition")

// ParseCondition turns a configured rule into a predicate. Structured rules win over Expr.
func ParseCondition(c models.Condition) (Predicate, error) {
	if c.Column != "" {
		op, err := ParseOperator(c.Op)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Column: c.Column, Op: op, Literal: strings.TrimSpace(c.Value)}, nil
	}
	return ParseExpr(c.Expr)
}

// ParseExpr parses "column op literal". The column may be wrapped in backticks and
// the literal in single or double quotes. Boolean connectives are not supported.
func ParseExpr(expr string) (Predicate, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Predicate{}, errEmptyCondition
	}

	var column string
	if strings.HasPrefix(s, "`") {
		end := strings.Index(s[1:], "`")
		if end < 0 {
			return Predicate{}, fmt.Errorf("unterminated column quote in %q", expr)
		}
		column = s[1 : end+1]
		s = s[end+2:]
	} else {
		end := strings.IndexAny(s, " \t<>=!")
		if end <= 0 {
			return Predicate{}, fmt.Errorf("no operator in %q", expr)
		}
		column = s[:end]
		s = s[end:]
	}
	if strings.TrimSpace(column) == "" {
		return Predicate{}, fmt.Errorf("empty column in %q", expr)
	}

	s = strings.TrimSpace(s)
	var op Operator
	for _, sym := range []string{"==", "!=", ">=", "<=", "<>", ">", "<", "="} {
		if strings.HasPrefix(s, sym) {
			op = operatorAliases[sym]
			s = s[len(sym):]
			break
		}
	}
	if op == "" {
		return Predicate{}, fmt.Errorf("no operator in %q", expr)
	}

	lit, err := parseLiteral(strings.TrimSpace(s))
	if err != nil {
		return Predicate{}, fmt.Errorf("%w in %q", err, expr)
	}
	return Predicate{Column: column, Op: op, Literal: lit}, nil
}

func parseLiteral(s string) (string, error) {
	if s == "" {
		return "", errors.New("missing literal")
	}
	if q := s[0]; q == '\'' || q == '"' {
		if len(s) < 2 || s[len(s)-1] != q {
			return "", errors.New("unterminated literal")
		}
		return s[1 : len(s)-1], nil
	}
	if strings.ContainsAny(s, " \t") {
		return "", errors.New("unsupported compound literal")
	}
	return s, nil
}

// matcher is a predicate bound to a column position and type.
type matcher struct {
	idx  int
	kind columnKind
	op   Operator
	num  decimal.Decimal
	date civil.Date
	text string
}

func (p Predicate) compile(idx int, kind columnKind) (matcher, error) {
	m := matcher{idx: idx, kind: kind, op: p.Op, text: p.Literal}
	switch kind {
	case kindDate:
		d, ok := util.ParseDate(p.Literal)
		if !ok {
			return matcher{}, fmt.Errorf("literal %q is not a date", p.Literal)
		}
		m.date = d
	case kindInteger, kindDecimal:
		n, ok := parseNumber(p.Literal)
		if !ok {
			return matcher{}, fmt.Errorf("literal %q is not a number", p.Literal)
		}
		m.num = n
	}
	return m, nil
}

// match reports whether the row satisfies the predicate. Nulls never match.
func (m matcher) match(r *row) bool {
	switch m.kind {
	case kindDate:
		if !r.date.Valid {
			return false
		}
		return m.op.holds(compareDates(r.date.Date, m.date))
	case kindInteger:
		if !r.qtyOK {
			return false
		}
		return m.op.holds(decimal.NewFromInt(r.qty).Cmp(m.num))
	case kindDecimal:
		if !r.amountOK {
			return false
		}
		return m.op.holds(r.amount.Cmp(m.num))
	}
	cell := strings.TrimSpace(r.cells[m.idx])
	if cell == "" {
		return false
	}
	return m.op.holds(compareText(cell, m.text))
}

// compareText orders numerically when both sides are numbers.
func compareText(a, b string) int {
	if x, ok := parseNumber(a); ok {
		if y, ok := parseNumber(b); ok {
			return x.Cmp(y)
		}
	}
	return strings.Compare(a, b)
}

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
