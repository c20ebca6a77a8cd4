package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/premium-shop/internal/model"
	"github.com/mmeshcher/premium-shop/internal/query"
)

var orderRowColumns = []string{
	"id", "customer", "customer_contact", "account_type", "store_account",
	"customer_account", "start_date", "end_date", "duration_months",
	"cost", "revenue", "note", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresRepositoryFromDB(db), mock
}

func day(s string) time.Time {
	d, _ := time.Parse(model.DateLayout, s)
	return d
}

func TestCountOrders_CompilesPredicates(t *testing.T) {
	repo, mock := newMockRepo(t)

	where := []query.Predicate{
		query.Or(
			query.ILike(model.FieldCustomer, "an"),
			query.ILike(model.FieldCustomerAccountAccount, "an"),
		),
		query.Eq(model.FieldAccountType, "netflix"),
	}

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM orders WHERE (customer ILIKE $1 OR customer_account->>'account' ILIKE $2) AND account_type = $3`)).
		WithArgs("%an%", "%an%", "netflix").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountOrders(context.Background(), where)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountOrders_UnknownField(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.CountOrders(context.Background(), []query.Predicate{query.Eq("password", "x")})
	assert.ErrorIs(t, err, query.ErrUnknownField)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrders_ScansAndNormalizes(t *testing.T) {
	repo, mock := newMockRepo(t)

	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(orderRowColumns).
		AddRow("a1", "An", "0987", "netflix", "store@x", `{"account":"an@mail","password":"p"}`,
			day("2024-01-31"), nil, 1, "100.50", "150", nil, created, created).
		AddRow("b2", "Binh", nil, "spotify", nil, `"{\"account\":\"b@mail\"}"`,
			day("2024-02-10"), day("2024-03-10"), 1, "0", "0", "note", created, created)

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE ` + endDateExpr + ` >= $1 ORDER BY start_date DESC, id ASC LIMIT $2 OFFSET $3`)).
		WithArgs(day("2024-02-01"), 20, 40).
		WillReturnRows(rows)

	orders, err := repo.ListOrders(context.Background(), query.Query{
		Where:   []query.Predicate{query.Gte(model.FieldEndDate, day("2024-02-01"))},
		OrderBy: []query.Order{{Field: model.FieldStartDate, Desc: true}, {Field: model.FieldID}},
		Offset:  40,
		Limit:   20,
	})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	a := orders[0]
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, model.AccountNetflix, a.AccountType)
	assert.Equal(t, day("2024-02-29"), a.EndDate, "missing end date is derived")
	assert.True(t, decimal.RequireFromString("100.5").Equal(a.Cost))
	require.NotNil(t, a.CustomerAccount)
	assert.Equal(t, "an@mail", a.CustomerAccount.Account)
	assert.Equal(t, "", a.Note)

	b := orders[1]
	assert.Equal(t, day("2024-03-10"), b.EndDate)
	require.NotNil(t, b.CustomerAccount)
	assert.Equal(t, "b@mail", b.CustomerAccount.Account)
	assert.Equal(t, "", b.StoreAccount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrders_MalformedCustomerAccount(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT id::text`).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).
			AddRow("a1", "An", nil, "netflix", nil, `[1,2]`, day("2024-01-01"), nil, 1, "0", "0", nil, now, now))

	_, err := repo.ListOrders(context.Background(), query.Query{})
	assert.ErrorIs(t, err, model.ErrMalformedCustomerAccount)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).
		WithArgs("not-a-uuid").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation})

	_, err = repo.GetOrder(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	o := model.Order{
		ID:              "0b8f1b4e-8c55-4a0b-9d1a-3d3f8f0f9a11",
		Customer:        "An",
		AccountType:     model.AccountChatGPT,
		CustomerAccount: &model.CustomerAccount{Account: "an@mail"},
		StartDate:       day("2024-05-01"),
		DurationMonths:  3,
		EndDate:         day("2024-08-01"),
		Cost:            decimal.NewFromInt(100),
		Revenue:         decimal.NewFromInt(150),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(o.ID, "An", sql.NullString{}, "chatgpt", sql.NullString{},
			`{"account":"an@mail"}`, o.StartDate, 3, o.EndDate, o.Cost, o.Revenue, sql.NullString{},
			now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateOrder(context.Background(), o))

	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	assert.ErrorIs(t, repo.CreateOrder(context.Background(), o), ErrOrderExists)

	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "orders_duration_months_check"})
	assert.ErrorIs(t, repo.CreateOrder(context.Background(), o), ErrConstraint)

	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.NumericValueOutOfRange, Message: "numeric field overflow"})
	err := repo.CreateOrder(context.Background(), o)
	assert.ErrorIs(t, err, ErrConstraint)
	assert.Contains(t, err.Error(), "numeric field overflow")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrder_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE orders SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateOrder(context.Background(), model.Order{ID: "x", AccountType: model.AccountOther})
	assert.ErrorIs(t, err, ErrOrderNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrder(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM orders WHERE id = $1`)).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteOrder(context.Background(), "a1"))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM orders WHERE id = $1`)).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteOrder(context.Background(), "a1"), ErrOrderNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
