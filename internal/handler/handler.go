// Package handler содержит HTTP-обработчики API магазина и админки.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/premium-shop/internal/cart"
	"github.com/mmeshcher/premium-shop/internal/middleware"
	"github.com/mmeshcher/premium-shop/internal/model"
	"github.com/mmeshcher/premium-shop/internal/validation"
)

const sessionCookieName = "cart_session"

// OrderService определяет контракт бизнес-логики заказов, используемой HTTP-обработчиками.
type OrderService interface {
	Today() time.Time
	ListOrders(ctx context.Context, f model.Filters, page, pageSize int) (*model.OrderPage, error)
	ExpiringOrders(ctx context.Context) ([]model.Order, time.Time, error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	CreateOrder(ctx context.Context, form model.OrderForm) (model.Order, error)
	UpdateOrder(ctx context.Context, id string, form model.OrderForm) (model.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// Catalog — каталог товаров витрины.
type Catalog interface {
	cart.Catalog
	List() []model.Product
	BySlug(slug string) (model.Product, bool)
	Search(q, category string) []model.Product
	Categories() []string
}

// Handler реализует HTTP-обработчики API магазина.
type Handler struct {
	service        OrderService
	catalog        Catalog
	carts          *cart.Store
	validator      *validation.Validator
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *middleware.Metrics
	loginLimiter   *middleware.RateLimiter
	supportZalo    string
}

// Option настраивает Handler.
type Option func(*Handler)

// WithMetrics включает сбор метрик и маршрут /metrics.
func WithMetrics(m *middleware.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLoginLimiter ограничивает частоту попыток входа в админку.
func WithLoginLimiter(l *middleware.RateLimiter) Option {
	return func(h *Handler) { h.loginLimiter = l }
}

// WithSupportContact задаёт номер Zalo поддержки для страницы благодарности.
func WithSupportContact(zalo string) Option {
	return func(h *Handler) { h.supportZalo = zalo }
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s OrderService, cat Catalog, carts *cart.Store, logger *zap.Logger, auth *middleware.AuthMiddleware, opts ...Option) *Handler {
	h := &Handler{
		service:        s,
		catalog:        cat,
		carts:          carts,
		validator:      validation.New(),
		logger:         logger,
		authMiddleware: auth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields validation.Errors `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeValidation(w http.ResponseWriter, fields validation.Errors) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields})
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	h.logger.Error(msg, append(fields, zap.Error(err))...)
	writeError(w, http.StatusInternalServerError, msg)
}

// sessionID возвращает идентификатор сессии корзины, выдавая новый при отсутствии или порче cookie.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
