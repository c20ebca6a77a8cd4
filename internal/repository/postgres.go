// Package repository содержит реализации хранилища заказов: PostgreSQL и память процесса.
package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/premium-shop/internal/model"
	"github.com/mmeshcher/premium-shop/internal/query"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists возвращается при повторной вставке заказа с тем же идентификатором.
	ErrOrderExists = errors.New("order already exists")
	// ErrConstraint возвращается, если запись нарушает ограничения схемы.
	ErrConstraint = errors.New("order violates constraint")
)

// endDateExpr подставляет вычисленную дату окончания для строк, где она не сохранена.
const endDateExpr = `COALESCE(end_date, (start_date + make_interval(months => duration_months))::date)`

var orderColumns = query.Columns{
	model.FieldID:                     "id",
	model.FieldCustomer:               "customer",
	model.FieldAccountType:            "account_type",
	model.FieldStoreAccount:           "store_account",
	model.FieldCustomerAccountAccount: "customer_account->>'account'",
	model.FieldStartDate:              "start_date",
	model.FieldEndDate:                endDateExpr,
}

const selectOrder = `SELECT id::text, customer, customer_contact, account_type, store_account,
	customer_account::text, start_date, end_date, duration_months,
	cost, revenue, note, created_at, updated_at
	FROM orders`

// PostgresRepository предоставляет доступ к заказам в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
	db   *sql.DB
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool, db: stdlib.OpenDBFromPool(pool)}

	if err := r.runMigrations(ctx); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// NewPostgresRepositoryFromDB оборачивает уже открытое соединение без запуска миграций.
func NewPostgresRepositoryFromDB(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, r.db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает соединения с БД.
func (r *PostgresRepository) Close() error {
	err := r.db.Close()
	if r.pool != nil {
		r.pool.Close()
	}
	return err
}

// CountOrders возвращает число заказов, удовлетворяющих условиям.
func (r *PostgresRepository) CountOrders(ctx context.Context, where []query.Predicate) (int, error) {
	clause, args, err := query.Compile(where, orderColumns, 1)
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	stmt := `SELECT COUNT(*) FROM orders`
	if clause != "" {
		stmt += " WHERE " + clause
	}

	var total int
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return total, nil
}

// ListOrders возвращает окно заказов, удовлетворяющих условиям, в заданном порядке.
func (r *PostgresRepository) ListOrders(ctx context.Context, q query.Query) ([]model.Order, error) {
	clause, args, err := query.Compile(q.Where, orderColumns, 1)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	stmt := selectOrder
	if clause != "" {
		stmt += " WHERE " + clause
	}

	if len(q.OrderBy) > 0 {
		orderBy, err := query.OrderClause(q.OrderBy, orderColumns)
		if err != nil {
			return nil, fmt.Errorf("build list query: %w", err)
		}
		stmt += " ORDER BY " + orderBy
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		stmt += " LIMIT $" + strconv.Itoa(len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		stmt += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (model.Order, error) {
	row := r.db.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, err
	}
	return o, nil
}

// CreateOrder сохраняет новый заказ.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o model.Order) error {
	creds, err := encodeCustomerAccount(o.CustomerAccount)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (id, customer, customer_contact, account_type, store_account,
			customer_account, start_date, duration_months, end_date, cost, revenue, note,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, o.Customer, nullString(o.CustomerContact), string(o.AccountType), nullString(o.StoreAccount),
		creds, o.StartDate, o.DurationMonths, o.EndDate, o.Cost, o.Revenue, nullString(o.Note),
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrOrderExists, o.ID)
		}
		return classify(err, "insert order")
	}
	return nil
}

// UpdateOrder перезаписывает изменяемые поля заказа.
func (r *PostgresRepository) UpdateOrder(ctx context.Context, o model.Order) error {
	creds, err := encodeCustomerAccount(o.CustomerAccount)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET customer = $2, customer_contact = $3, account_type = $4, store_account = $5,
			customer_account = $6::jsonb, start_date = $7, duration_months = $8, end_date = $9,
			cost = $10, revenue = $11, note = $12, updated_at = $13
		 WHERE id = $1`,
		o.ID, o.Customer, nullString(o.CustomerContact), string(o.AccountType), nullString(o.StoreAccount),
		creds, o.StartDate, o.DurationMonths, o.EndDate, o.Cost, o.Revenue, nullString(o.Note),
		o.UpdatedAt,
	)
	if err != nil {
		return classify(err, "update order")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// DeleteOrder удаляет заказ.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete order")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (model.Order, error) {
	var (
		o         model.Order
		contact   sql.NullString
		accType   string
		store     sql.NullString
		creds     sql.NullString
		endDate   sql.NullTime
		note      sql.NullString
		createdAt sql.NullTime
		updatedAt sql.NullTime
	)

	err := s.Scan(
		&o.ID, &o.Customer, &contact, &accType, &store,
		&creds, &o.StartDate, &endDate, &o.DurationMonths,
		&o.Cost, &o.Revenue, &note, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, err
		}
		return model.Order{}, fmt.Errorf("scan order: %w", err)
	}

	o.AccountType = model.AccountType(accType)
	o.CustomerContact = contact.String
	o.StoreAccount = store.String
	o.Note = note.String
	o.CreatedAt = createdAt.Time
	o.UpdatedAt = updatedAt.Time
	if endDate.Valid {
		o.EndDate = endDate.Time
	}

	if creds.Valid {
		ca, err := model.DecodeCustomerAccount([]byte(creds.String))
		if err != nil {
			return model.Order{}, fmt.Errorf("order %s: %w", o.ID, err)
		}
		o.CustomerAccount = ca
	}

	o.Normalize()
	return o, nil
}

func encodeCustomerAccount(ca *model.CustomerAccount) (any, error) {
	if ca.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(ca)
	if err != nil {
		return nil, fmt.Errorf("encode customer account: %w", err)
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}

func classify(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidTextRepresentation:
			return ErrOrderNotFound
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
			return fmt.Errorf("%w: %s", ErrConstraint, pgErr.ConstraintName)
		case pgerrcode.NumericValueOutOfRange:
			return fmt.Errorf("%w: %s", ErrConstraint, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
