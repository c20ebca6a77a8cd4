package service

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mmeshcher/premium-shop/internal/model"
	"github.com/mmeshcher/premium-shop/internal/query"
	"github.com/mmeshcher/premium-shop/internal/validation"
)

// BuildPredicates переводит фильтры списка в условия выборки на дату today.
// Некорректные значения фильтров возвращаются как validation.Errors.
func BuildPredicates(f model.Filters, today time.Time) ([]query.Predicate, error) {
	var (
		preds []query.Predicate
		errs  = validation.Errors{}
	)

	if t := strings.TrimSpace(f.AccountType); t != "" && t != model.StatusAll {
		if !model.AccountType(t).Valid() {
			errs["account_type"] = "unknown account type"
		} else {
			preds = append(preds, query.Eq(model.FieldAccountType, t))
		}
	}

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		preds = append(preds, query.Or(
			query.ILike(model.FieldCustomer, kw),
			query.ILike(model.FieldStoreAccount, kw),
			query.ILike(model.FieldCustomerAccountAccount, kw),
		))
	}

	from, to := model.ExpiringWindow(today)
	switch strings.TrimSpace(f.Status) {
	case "", model.StatusAll:
	case string(model.OrderStatusExpired):
		preds = append(preds, query.Lt(model.FieldEndDate, from))
	case string(model.OrderStatusExpiring):
		preds = append(preds, query.Between(model.FieldEndDate, from, to)...)
	case string(model.OrderStatusActive):
		preds = append(preds, query.Gt(model.FieldEndDate, to))
	default:
		errs["status"] = "must be one of all, active, expiring, expired"
	}

	if s := strings.TrimSpace(f.FromDate); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			errs["from"] = "must be a date in YYYY-MM-DD format"
		} else {
			preds = append(preds, query.Gte(model.FieldStartDate, d))
		}
	}
	if s := strings.TrimSpace(f.ToDate); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			errs["to"] = "must be a date in YYYY-MM-DD format"
		} else {
			preds = append(preds, query.Lte(model.FieldStartDate, d))
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return preds, nil
}

// NormalizePageSize возвращает размер страницы по умолчанию для 0 и ошибку для недопустимых значений.
func NormalizePageSize(size int) (int, error) {
	if size == 0 {
		return DefaultPageSize, nil
	}
	if !slices.Contains(PageSizes, size) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	return size, nil
}

// TotalPages возвращает число страниц; пустой результат занимает одну страницу.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ClampPage приводит номер страницы к диапазону [1, pages].
func ClampPage(page, pages int) int {
	if pages < 1 {
		pages = 1
	}
	return min(max(page, 1), pages)
}
