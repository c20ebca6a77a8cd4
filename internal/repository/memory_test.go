package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/premium-shop/internal/model"
	"github.com/mmeshcher/premium-shop/internal/query"
)

func seedOrders() []model.Order {
	return []model.Order{
		{ID: "1", Customer: "An Nguyen", AccountType: model.AccountNetflix, StartDate: day("2024-01-10"), DurationMonths: 1},
		{ID: "2", Customer: "Binh", AccountType: model.AccountSpotify, StoreAccount: "mango@shop", StartDate: day("2024-02-10"), DurationMonths: 1},
		{ID: "3", Customer: "Chi", AccountType: model.AccountNetflix, StartDate: day("2024-03-10"), DurationMonths: 1,
			CustomerAccount: &model.CustomerAccount{Account: "chi.an@mail"}},
		{ID: "4", Customer: "Dung", AccountType: model.AccountClaude, StartDate: day("2024-03-10"), DurationMonths: 12},
	}
}

func ids(orders []model.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestMemory_KeywordMatchesAnyTextField(t *testing.T) {
	repo := NewMemoryRepository(seedOrders()...)
	ctx := context.Background()

	where := []query.Predicate{query.Or(
		query.ILike(model.FieldCustomer, "AN"),
		query.ILike(model.FieldStoreAccount, "AN"),
		query.ILike(model.FieldCustomerAccountAccount, "AN"),
	)}

	n, err := repo.CountOrders(ctx, where)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := repo.ListOrders(ctx, query.Query{Where: where, OrderBy: []query.Order{{Field: model.FieldID}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}

func TestMemory_OrderAndWindow(t *testing.T) {
	repo := NewMemoryRepository(seedOrders()...)
	ctx := context.Background()

	q := query.Query{OrderBy: []query.Order{{Field: model.FieldStartDate, Desc: true}}}

	all, err := repo.ListOrders(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4", "2", "1"}, ids(all), "ties broken by id")

	q.Offset, q.Limit = 1, 2
	page, err := repo.ListOrders(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "2"}, ids(page))

	q.Offset = 10
	page, err = repo.ListOrders(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemory_EndDateIsDerived(t *testing.T) {
	repo := NewMemoryRepository(seedOrders()...)

	got, err := repo.ListOrders(context.Background(), query.Query{
		Where: []query.Predicate{query.Gt(model.FieldEndDate, day("2024-12-31"))},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, ids(got))
	assert.Equal(t, day("2025-03-10"), got[0].EndDate)
}

func TestMemory_CRUD(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	o := model.Order{ID: "x", Customer: "An", AccountType: model.AccountGrok, StartDate: day("2024-01-01"), DurationMonths: 1,
		CustomerAccount: &model.CustomerAccount{Account: "a"}}
	require.NoError(t, repo.CreateOrder(ctx, o))
	assert.ErrorIs(t, repo.CreateOrder(ctx, o), ErrOrderExists)

	got, err := repo.GetOrder(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, day("2024-02-01"), got.EndDate)

	got.CustomerAccount.Account = "mutated"
	again, _ := repo.GetOrder(ctx, "x")
	assert.Equal(t, "a", again.CustomerAccount.Account, "stored order is not shared with callers")

	o.Customer = "An Nguyen"
	require.NoError(t, repo.UpdateOrder(ctx, o))
	got, _ = repo.GetOrder(ctx, "x")
	assert.Equal(t, "An Nguyen", got.Customer)

	assert.ErrorIs(t, repo.UpdateOrder(ctx, model.Order{ID: "missing"}), ErrOrderNotFound)

	require.NoError(t, repo.DeleteOrder(ctx, "x"))
	assert.ErrorIs(t, repo.DeleteOrder(ctx, "x"), ErrOrderNotFound)
	_, err = repo.GetOrder(ctx, "x")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemory_CanceledContext(t *testing.T) {
	repo := NewMemoryRepository(seedOrders()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.CountOrders(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
