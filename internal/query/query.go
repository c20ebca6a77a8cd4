// Package query описывает предикаты выборки независимо от конкретного хранилища.
// Один и тот же набор предикатов компилируется в SQL для PostgreSQL
// и проверяется в памяти для встроенного хранилища.
package query

// Op — вид предиката.
type Op string

const (
	OpEq    Op = "eq"
	OpGt    Op = "gt"
	OpGte   Op = "gte"
	OpLt    Op = "lt"
	OpLte   Op = "lte"
	OpILike Op = "ilike"
	OpOr    Op = "or"
)

// Predicate — условие над одним полем либо OR-группа условий.
type Predicate struct {
	Op    Op
	Field string
	Value any
	Any   []Predicate
}

// Eq — точное совпадение.
func Eq(field string, value any) Predicate {
	return Predicate{Op: OpEq, Field: field, Value: value}
}

// Gt — строго больше.
func Gt(field string, value any) Predicate {
	return Predicate{Op: OpGt, Field: field, Value: value}
}

// Gte — больше или равно.
func Gte(field string, value any) Predicate {
	return Predicate{Op: OpGte, Field: field, Value: value}
}

// Lt — строго меньше.
func Lt(field string, value any) Predicate {
	return Predicate{Op: OpLt, Field: field, Value: value}
}

// Lte — меньше или равно.
func Lte(field string, value any) Predicate {
	return Predicate{Op: OpLte, Field: field, Value: value}
}

// ILike — регистронезависимое вхождение подстроки. Подстрока задаётся без шаблонных символов.
func ILike(field, substr string) Predicate {
	return Predicate{Op: OpILike, Field: field, Value: substr}
}

// Or объединяет условия через ИЛИ.
func Or(preds ...Predicate) Predicate {
	return Predicate{Op: OpOr, Any: preds}
}

// Between возвращает пару включительных границ для поля.
func Between(field string, from, to any) []Predicate {
	return []Predicate{Gte(field, from), Lte(field, to)}
}

// Order задаёт поле сортировки.
type Order struct {
	Field string
	Desc  bool
}

// Query — выборка: условия (через И), сортировка и окно.
// Limit 0 означает отсутствие ограничения.
type Query struct {
	Where   []Predicate
	OrderBy []Order
	Offset  int
	Limit   int
}
