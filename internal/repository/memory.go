package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/mmeshcher/premium-shop/internal/model"
	"github.com/mmeshcher/premium-shop/internal/query"
)

// MemoryRepository хранит заказы в памяти процесса.
// Используется, когда адрес БД не задан, и в тестах.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]model.Order
}

// NewMemoryRepository создаёт пустое хранилище.
func NewMemoryRepository(orders ...model.Order) *MemoryRepository {
	r := &MemoryRepository{orders: make(map[string]model.Order, len(orders))}
	for _, o := range orders {
		o.Normalize()
		r.orders[o.ID] = o
	}
	return r
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) CountOrders(ctx context.Context, where []query.Predicate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, o := range r.orders {
		if query.MatchAll(where, o) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) ListOrders(ctx context.Context, q query.Query) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matched := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if query.MatchAll(q.Where, o) {
			matched = append(matched, o)
		}
	}
	r.mu.RUnlock()

	// Порядок по id замыкает сортировку, чтобы страницы не пересекались.
	orderBy := append(slices.Clone(q.OrderBy), query.Order{Field: model.FieldID})
	slices.SortStableFunc(matched, func(a, b model.Order) int {
		return query.Compare(a, b, orderBy)
	})

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []model.Order{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]model.Order, len(matched))
	for i, o := range matched {
		out[i] = clone(o)
	}
	return out, nil
}

func (r *MemoryRepository) GetOrder(ctx context.Context, id string) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return model.Order{}, ErrOrderNotFound
	}
	return clone(o), nil
}

func (r *MemoryRepository) CreateOrder(ctx context.Context, o model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[o.ID]; ok {
		return ErrOrderExists
	}
	o.Normalize()
	r.orders[o.ID] = clone(o)
	return nil
}

func (r *MemoryRepository) UpdateOrder(ctx context.Context, o model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.orders[o.ID]
	if !ok {
		return ErrOrderNotFound
	}
	o.CreatedAt = prev.CreatedAt
	o.Normalize()
	r.orders[o.ID] = clone(o)
	return nil
}

func (r *MemoryRepository) DeleteOrder(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

func clone(o model.Order) model.Order {
	if o.CustomerAccount != nil {
		ca := *o.CustomerAccount
		o.CustomerAccount = &ca
	}
	return o
}
