package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownField возвращается, если поле предиката не сопоставлено колонке.
var ErrUnknownField = errors.New("unknown field")

// ErrUnsupportedOp возвращается для неизвестного вида предиката.
var ErrUnsupportedOp = errors.New("unsupported predicate")

// Columns сопоставляет имена полей SQL-выражениям.
type Columns map[string]string

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Compile собирает условия в SQL-фрагмент, соединённый через AND.
// Плейсхолдеры нумеруются начиная с firstArg. Пустой список даёт пустую строку.
func Compile(preds []Predicate, cols Columns, firstArg int) (string, []any, error) {
	c := &compiler{cols: cols, first: firstArg}

	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		s, err := c.predicate(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
	}

	return strings.Join(parts, " AND "), c.args, nil
}

// OrderClause собирает выражение ORDER BY без самого ключевого слова.
func OrderClause(orders []Order, cols Columns) (string, error) {
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		col, ok := cols[o.Field]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownField, o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

// EscapeLike экранирует шаблонные символы LIKE, чтобы подстрока совпадала буквально.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

type compiler struct {
	cols  Columns
	first int
	args  []any
}

func (c *compiler) placeholder(v any) string {
	c.args = append(c.args, v)
	return "$" + strconv.Itoa(c.first+len(c.args)-1)
}

func (c *compiler) predicate(p Predicate) (string, error) {
	if p.Op == OpOr {
		if len(p.Any) == 0 {
			return "FALSE", nil
		}
		parts := make([]string, 0, len(p.Any))
		for _, sub := range p.Any {
			s, err := c.predicate(sub)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	}

	col, ok := c.cols[p.Field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, p.Field)
	}

	if p.Op == OpILike {
		s, _ := p.Value.(string)
		return col + " ILIKE " + c.placeholder("%"+EscapeLike(s)+"%"), nil
	}

	op, ok := sqlOps[p.Op]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedOp, p.Op)
	}
	return col + " " + op + " " + c.placeholder(p.Value), nil
}
