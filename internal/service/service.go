// Package service реализует бизнес-логику админки заказов.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/premium-shop/internal/model"
	"github.com/mmeshcher/premium-shop/internal/query"
	"github.com/mmeshcher/premium-shop/internal/validation"
)

const (
	// DefaultPageSize используется, если размер страницы не указан.
	DefaultPageSize = 20
	// ExpiringLimit ограничивает сводку истекающих подписок.
	ExpiringLimit = 50
)

// PageSizes перечисляет допустимые размеры страницы.
var PageSizes = []int{10, 20, 50, 100}

// ErrInvalidPageSize возвращается для размера страницы вне PageSizes.
var ErrInvalidPageSize = errors.New("invalid page size")

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CountOrders(ctx context.Context, where []query.Predicate) (int, error)
	ListOrders(ctx context.Context, q query.Query) ([]model.Order, error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	CreateOrder(ctx context.Context, o model.Order) error
	UpdateOrder(ctx context.Context, o model.Order) error
	DeleteOrder(ctx context.Context, id string) error
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation задаёт часовой пояс магазина, в котором определяется «сегодня».
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Service содержит бизнес-логику админки заказов.
type Service struct {
	repo      Repository
	validator *validation.Validator
	now       func() time.Time
	loc       *time.Location
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		validator: validation.New(),
		now:       time.Now,
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Today возвращает текущую календарную дату в часовом поясе магазина.
func (s *Service) Today() time.Time {
	return model.DateOf(s.now().In(s.loc))
}

var listOrder = []query.Order{
	{Field: model.FieldStartDate, Desc: true},
	{Field: model.FieldID},
}

// ListOrders возвращает страницу заказов по фильтрам вместе с агрегатами по этой странице.
// Дата «сегодня» фиксируется один раз и используется и для отбора по статусу, и для статусов строк.
func (s *Service) ListOrders(ctx context.Context, f model.Filters, page, pageSize int) (*model.OrderPage, error) {
	size, err := NormalizePageSize(pageSize)
	if err != nil {
		return nil, err
	}

	today := s.Today()

	where, err := BuildPredicates(f, today)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.CountOrders(ctx, where)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	pages := TotalPages(total, size)
	page = ClampPage(page, pages)

	orders, err := s.repo.ListOrders(ctx, query.Query{
		Where:   where,
		OrderBy: listOrder,
		Offset:  (page - 1) * size,
		Limit:   size,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	for i := range orders {
		orders[i].Normalize()
	}

	return &model.OrderPage{
		Orders:     orders,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		Stats:      model.Aggregate(orders, today),
		Today:      today,
	}, nil
}

// ExpiringOrders возвращает подписки, истекающие в ближайшие дни, без учёта фильтров списка.
func (s *Service) ExpiringOrders(ctx context.Context) ([]model.Order, time.Time, error) {
	today := s.Today()
	from, to := model.ExpiringWindow(today)

	orders, err := s.repo.ListOrders(ctx, query.Query{
		Where: query.Between(model.FieldEndDate, from, to),
		OrderBy: []query.Order{
			{Field: model.FieldEndDate},
			{Field: model.FieldID},
		},
		Limit: ExpiringLimit,
	})
	if err != nil {
		return nil, today, fmt.Errorf("list expiring orders: %w", err)
	}

	for i := range orders {
		orders[i].Normalize()
	}
	return orders, today, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id string) (model.Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, err
	}
	o.Normalize()
	return o, nil
}

// CreateOrder проверяет форму и сохраняет новый заказ. Дата окончания вычисляется на сервере.
func (s *Service) CreateOrder(ctx context.Context, form model.OrderForm) (model.Order, error) {
	if err := s.validator.Order(&form); err != nil {
		return model.Order{}, err
	}

	now := s.now().UTC()
	o, err := orderFromForm(form)
	if err != nil {
		return model.Order{}, err
	}
	o.ID = uuid.NewString()
	o.CreatedAt = now
	o.UpdatedAt = now

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// UpdateOrder проверяет форму и перезаписывает заказ. Последняя запись выигрывает.
func (s *Service) UpdateOrder(ctx context.Context, id string, form model.OrderForm) (model.Order, error) {
	if err := s.validator.Order(&form); err != nil {
		return model.Order{}, err
	}

	o, err := orderFromForm(form)
	if err != nil {
		return model.Order{}, err
	}
	o.ID = id
	o.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateOrder(ctx, o); err != nil {
		return model.Order{}, err
	}
	// CreatedAt хранилище не перезаписывает, поэтому возвращаем сохранённую запись.
	return s.GetOrder(ctx, id)
}

// DeleteOrder удаляет заказ.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return s.repo.DeleteOrder(ctx, id)
}

func orderFromForm(form model.OrderForm) (model.Order, error) {
	start, err := model.ParseDate(form.StartDate)
	if err != nil {
		return model.Order{}, validation.Errors{"start_date": "must be a date in YYYY-MM-DD format"}
	}

	o := model.Order{
		Customer:        form.Customer,
		CustomerContact: form.CustomerContact,
		AccountType:     form.AccountType,
		StoreAccount:    form.StoreAccount,
		CustomerAccount: form.CustomerAccount,
		StartDate:       start,
		DurationMonths:  form.DurationMonths,
		EndDate:         model.CalcEndDate(start, form.DurationMonths),
		Cost:            form.Cost,
		Revenue:         form.Revenue,
		Note:            strings.TrimSpace(form.Note),
	}
	o.Normalize()
	return o, nil
}
