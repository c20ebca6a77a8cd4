package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/premium-shop/internal/model"
	"github.com/mmeshcher/premium-shop/internal/repository"
	"github.com/mmeshcher/premium-shop/internal/service"
	"github.com/mmeshcher/premium-shop/internal/validation"
)

type loginRequest struct {
	Password string `json:"password"`
}

// Login проверяет пароль администратора и устанавливает cookie сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	if err := h.authMiddleware.CheckPassword(req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := h.authMiddleware.SetAuthCookie(w); err != nil {
		h.internalError(w, "issue admin token failed", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Logout завершает сессию администратора.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusOK)
}

type orderResponse struct {
	ID              string                 `json:"id"`
	Customer        string                 `json:"customer"`
	CustomerContact string                 `json:"customer_contact,omitempty"`
	AccountType     model.AccountType      `json:"account_type"`
	StoreAccount    string                 `json:"store_account,omitempty"`
	CustomerAccount *model.CustomerAccount `json:"customer_account"`
	StartDate       string                 `json:"start_date"`
	DurationMonths  int                    `json:"duration_months"`
	EndDate         string                 `json:"end_date"`
	Status          model.OrderStatus      `json:"status"`
	DaysLeft        int                    `json:"days_left"`
	Cost            decimal.Decimal        `json:"cost"`
	Revenue         decimal.Decimal        `json:"revenue"`
	Note            string                 `json:"note,omitempty"`
	CreatedAt       string                 `json:"created_at,omitempty"`
	UpdatedAt       string                 `json:"updated_at,omitempty"`
}

func newOrderResponse(o model.Order, today time.Time) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		Customer:        o.Customer,
		CustomerContact: o.CustomerContact,
		AccountType:     o.AccountType,
		StoreAccount:    o.StoreAccount,
		CustomerAccount: o.CustomerAccount,
		StartDate:       model.FormatDate(o.StartDate),
		DurationMonths:  o.DurationMonths,
		EndDate:         model.FormatDate(o.EndDate),
		Status:          o.Status(today),
		DaysLeft:        o.DaysLeft(today),
		Cost:            o.Cost,
		Revenue:         o.Revenue,
		Note:            o.Note,
	}
	if !o.CreatedAt.IsZero() {
		resp.CreatedAt = o.CreatedAt.Format(time.RFC3339)
	}
	if !o.UpdatedAt.IsZero() {
		resp.UpdatedAt = o.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

func newOrderResponses(orders []model.Order, today time.Time) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o, today))
	}
	return resp
}

type statsResponse struct {
	Cost     decimal.Decimal `json:"cost"`
	Revenue  decimal.Decimal `json:"revenue"`
	Profit   decimal.Decimal `json:"profit"`
	Active   int             `json:"active"`
	Expiring int             `json:"expiring"`
	Expired  int             `json:"expired"`
}

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	PageSizes  []int           `json:"page_sizes"`
	Today      string          `json:"today"`
	Stats      statsResponse   `json:"stats"`
	Generation string          `json:"generation,omitempty"`
}

func queryInt(r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ListOrders возвращает страницу заказов по фильтрам вместе с агрегатами по странице.
// Параметр generation возвращается без изменений, чтобы клиент мог отбросить устаревшие ответы.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.Filters{
		Keyword:     q.Get("q"),
		AccountType: q.Get("account_type"),
		Status:      q.Get("status"),
		FromDate:    q.Get("from"),
		ToDate:      q.Get("to"),
	}

	page, ok := queryInt(r, "page", 1)
	if !ok {
		writeValidation(w, validation.Errors{"page": "must be a number"})
		return
	}
	pageSize, ok := queryInt(r, "page_size", 0)
	if !ok {
		writeValidation(w, validation.Errors{"page_size": "must be a number"})
		return
	}

	res, err := h.service.ListOrders(r.Context(), f, page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPageSize) {
			writeValidation(w, validation.Errors{"page_size": "must be one of 10, 20, 50, 100"})
			return
		}
		if ve, ok := validation.AsErrors(err); ok {
			writeValidation(w, ve)
			return
		}
		h.internalError(w, "failed to load orders", err)
		return
	}

	writeJSON(w, http.StatusOK, orderPageResponse{
		Orders:     newOrderResponses(res.Orders, res.Today),
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
		PageSizes:  service.PageSizes,
		Today:      model.FormatDate(res.Today),
		Stats: statsResponse{
			Cost:     res.Stats.Cost,
			Revenue:  res.Stats.Revenue,
			Profit:   res.Stats.Profit(),
			Active:   res.Stats.Active,
			Expiring: res.Stats.Expiring,
			Expired:  res.Stats.Expired,
		},
		Generation: q.Get("generation"),
	})
}

type expiringResponse struct {
	Today  string          `json:"today"`
	Count  int             `json:"count"`
	Orders []orderResponse `json:"orders"`
}

// ExpiringOrders возвращает сводку подписок, истекающих в ближайшие дни.
func (h *Handler) ExpiringOrders(w http.ResponseWriter, r *http.Request) {
	orders, today, err := h.service.ExpiringOrders(r.Context())
	if err != nil {
		h.internalError(w, "failed to load expiring orders", err)
		return
	}

	writeJSON(w, http.StatusOK, expiringResponse{
		Today:  model.FormatDate(today),
		Count:  len(orders),
		Orders: newOrderResponses(orders, today),
	})
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.orderError(w, "failed to load order", err, id)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o, h.service.Today()))
}

// orderFormRequest принимает суммы как сырые значения, чтобы ошибку разбора можно было отнести к полю.
type orderFormRequest struct {
	model.OrderForm
	Cost    json.RawMessage `json:"cost"`
	Revenue json.RawMessage `json:"revenue"`
}

// decodeOrderForm разбирает форму заказа. Значения неверного типа возвращаются как ошибки полей (422),
// синтаксически неверный JSON как 400. При ошибке ответ уже записан.
func decodeOrderForm(w http.ResponseWriter, r *http.Request) (model.OrderForm, bool) {
	var req orderFormRequest
	fields := validation.Errors{}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || typeErr.Field == "" {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return model.OrderForm{}, false
		}
		fields[typeErr.Field] = typeMessage(typeErr)
	}

	form := req.OrderForm
	var ok bool
	if form.Cost, ok = decodeMoney(req.Cost); !ok {
		fields["cost"] = "must be a number"
	}
	if form.Revenue, ok = decodeMoney(req.Revenue); !ok {
		fields["revenue"] = "must be a number"
	}

	if len(fields) > 0 {
		writeValidation(w, fields)
		return form, false
	}
	return form, true
}

func decodeMoney(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, true
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func typeMessage(e *json.UnmarshalTypeError) string {
	switch e.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "must be a whole number"
	case reflect.String:
		return "must be a string"
	default:
		return "has an invalid type"
	}
}

// CreateOrder создаёт заказ.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeOrderForm(w, r)
	if !ok {
		return
	}

	o, err := h.service.CreateOrder(r.Context(), form)
	if err != nil {
		h.orderError(w, "failed to create order", err, "")
		return
	}
	writeJSON(w, http.StatusCreated, newOrderResponse(o, h.service.Today()))
}

// UpdateOrder перезаписывает заказ.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, ok := decodeOrderForm(w, r)
	if !ok {
		return
	}

	o, err := h.service.UpdateOrder(r.Context(), id, form)
	if err != nil {
		h.orderError(w, "failed to update order", err, id)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o, h.service.Today()))
}

// DeleteOrder удаляет заказ. Без confirm=true возвращает 428.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !confirm {
		writeError(w, http.StatusPreconditionRequired, "deletion must be confirmed")
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.orderError(w, "failed to delete order", err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) orderError(w http.ResponseWriter, msg string, err error, id string) {
	if ve, ok := validation.AsErrors(err); ok {
		writeValidation(w, ve)
		return
	}

	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, repository.ErrConstraint):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repository.ErrOrderExists):
		writeError(w, http.StatusConflict, "order already exists")
	default:
		h.internalError(w, msg, err, zap.String("order", id))
	}
}
