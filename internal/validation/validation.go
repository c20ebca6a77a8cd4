// Package validation содержит проверки входных данных форм.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/premium-shop/internal/model"
)

var zaloPattern = regexp.MustCompile(`^\d{9,11}$`)

// MaxMoney — верхняя граница сумм заказа (колонки NUMERIC(14, 2)), не включительно.
var MaxMoney = decimal.New(1, 12)

// ValidMoney сообщает, что сумма помещается в NUMERIC(14, 2) без округления.
func ValidMoney(d decimal.Decimal) bool {
	return d.Abs().LessThan(MaxMoney) && d.Equal(d.Truncate(2))
}

// Errors — ошибки валидации по полям: имя поля в JSON → причина.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsErrors извлекает ошибки валидации из цепочки ошибок.
func AsErrors(err error) (Errors, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Validator проверяет формы заказа и оформления корзины.
type Validator struct {
	v *validator.Validate
}

// New создаёт валидатор с зарегистрированными правилами магазина.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("account_type", func(fl validator.FieldLevel) bool {
		return model.AccountType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		// fl.Field() уже приведён к float64, точное значение берём из структуры.
		if f := reflect.Indirect(fl.Parent()).FieldByName(fl.StructFieldName()); f.IsValid() {
			if d, ok := f.Interface().(decimal.Decimal); ok {
				return ValidMoney(d)
			}
		}
		return ValidMoney(decimal.NewFromFloat(fl.Field().Float()))
	})
	_ = v.RegisterValidation("zalo", func(fl validator.FieldLevel) bool {
		return zaloPattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Order нормализует и проверяет форму заказа. Пробелы по краям строк обрезаются.
func (v *Validator) Order(form *model.OrderForm) error {
	form.Customer = strings.TrimSpace(form.Customer)
	form.CustomerContact = strings.TrimSpace(form.CustomerContact)
	form.StoreAccount = strings.TrimSpace(form.StoreAccount)
	form.StartDate = strings.TrimSpace(form.StartDate)
	form.EndDate = ""

	return v.check(form)
}

// Checkout нормализует и проверяет контакты покупателя.
// Из номера Zalo удаляются все нецифровые символы.
func (v *Validator) Checkout(c *model.CheckoutContact) error {
	c.Customer = strings.TrimSpace(c.Customer)
	c.Zalo = DigitsOnly(c.Zalo)

	return v.check(c)
}

// DigitsOnly оставляет в строке только цифры.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (v *Validator) check(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fieldName(fe)] = message(fe)
	}
	return out
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "account_type":
		names := make([]string, 0, len(model.AccountTypes))
		for _, t := range model.AccountTypes {
			names = append(names, string(t))
		}
		return "must be one of " + strings.Join(names, ", ")
	case "zalo":
		return "must contain 9 to 11 digits"
	case "money":
		return "must be less than " + MaxMoney.String() + " with at most 2 decimal places"
	}
	return "is invalid"
}
