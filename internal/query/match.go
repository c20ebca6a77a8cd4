package query

import (
	"strings"
	"time"
)

// Record отдаёт значения полей для проверки предикатов в памяти.
// Отсутствующее значение ведёт себя как NULL: ни одно сравнение с ним не выполняется.
type Record interface {
	Value(field string) (any, bool)
}

// MatchAll проверяет, что запись удовлетворяет всем условиям.
func MatchAll(preds []Predicate, r Record) bool {
	for _, p := range preds {
		if !Match(p, r) {
			return false
		}
	}
	return true
}

// Match проверяет одно условие.
func Match(p Predicate, r Record) bool {
	if p.Op == OpOr {
		for _, sub := range p.Any {
			if Match(sub, r) {
				return true
			}
		}
		return false
	}

	v, ok := r.Value(p.Field)
	if !ok || v == nil {
		return false
	}

	if p.Op == OpILike {
		s, ok := v.(string)
		if !ok {
			return false
		}
		sub, _ := p.Value.(string)
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}

	cmp, ok := compare(v, p.Value)
	if !ok {
		return false
	}

	switch p.Op {
	case OpEq:
		return cmp == 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

// Compare сравнивает две записи по списку полей сортировки.
func Compare(a, b Record, orders []Order) int {
	for _, o := range orders {
		av, aok := a.Value(o.Field)
		bv, bok := b.Value(o.Field)

		var c int
		switch {
		case !aok && !bok:
			c = 0
		case !aok:
			c = 1
		case !bok:
			c = -1
		default:
			c, _ = compare(av, bv)
		}

		if o.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}

	x, ok := toFloat(a)
	if !ok {
		return 0, false
	}
	y, ok := toFloat(b)
	if !ok {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
