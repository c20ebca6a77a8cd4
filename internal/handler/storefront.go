package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/premium-shop/internal/cart"
	"github.com/mmeshcher/premium-shop/internal/catalog"
	"github.com/mmeshcher/premium-shop/internal/model"
	"github.com/mmeshcher/premium-shop/internal/validation"
)

type productResponse struct {
	model.Product
	DiscountPercent int    `json:"discount_percent"`
	PriceDisplay    string `json:"price_display"`
}

func newProductResponse(p model.Product) productResponse {
	return productResponse{
		Product:         p,
		DiscountPercent: p.DiscountPercent(),
		PriceDisplay:    catalog.FormatVND(p.Price),
	}
}

// ListProducts возвращает каталог с необязательным поиском и фильтром по категории.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")

	var products []model.Product
	if strings.TrimSpace(q) == "" && category == "" {
		products = h.catalog.List()
	} else {
		products = h.catalog.Search(q, category)
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, newProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct возвращает товар по slug.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.catalog.BySlug(chi.URLParam(r, "slug"))
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(p))
}

// ListCategories возвращает категории каталога.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Categories())
}

type cartLineResponse struct {
	Product   productResponse `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal int64           `json:"line_total"`
}

type cartResponse struct {
	Lines        []cartLineResponse `json:"lines"`
	Count        int                `json:"count"`
	Total        int64              `json:"total"`
	TotalDisplay string             `json:"total_display"`
}

func newCartResponse(s cart.Summary) cartResponse {
	resp := cartResponse{
		Lines:        make([]cartLineResponse, 0, len(s.Lines)),
		Count:        s.Count,
		Total:        s.Total,
		TotalDisplay: catalog.FormatVND(s.Total),
	}
	for _, l := range s.Lines {
		resp.Lines = append(resp.Lines, cartLineResponse{
			Product:   newProductResponse(l.Product),
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		})
	}
	return resp
}

func (h *Handler) cartSummary(sessionID string) cart.Summary {
	var s cart.Summary
	h.carts.View(sessionID, func(c *cart.Cart) {
		s = c.Detailed(h.catalog)
	})
	return s
}

// GetCart возвращает корзину текущей сессии.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	writeJSON(w, http.StatusOK, newCartResponse(h.cartSummary(sid)))
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddCartItem добавляет товар в корзину или увеличивает его количество.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	sid := h.sessionID(w, r)
	err := h.carts.Update(sid, func(c *cart.Cart) error {
		_, err := cart.AddProduct(c, h.catalog, req.ProductID, req.Quantity)
		return err
	})
	if err != nil {
		h.cartError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(h.cartSummary(sid)))
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetCartItemQuantity задаёт количество позиции; значения меньше 1 приводятся к 1.
func (h *Handler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID := chi.URLParam(r, "productID")
	sid := h.sessionID(w, r)
	err := h.carts.Update(sid, func(c *cart.Cart) error {
		return c.SetQuantity(productID, req.Quantity)
	})
	if err != nil {
		h.cartError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(h.cartSummary(sid)))
}

// RemoveCartItem удаляет позицию из корзины.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	sid := h.sessionID(w, r)

	err := h.carts.Update(sid, func(c *cart.Cart) error {
		if !c.Remove(productID) {
			return cart.ErrLineNotFound
		}
		return nil
	})
	if err != nil {
		h.cartError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(h.cartSummary(sid)))
}

func (h *Handler) cartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrUnknownProduct):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "cart line not found")
	case errors.Is(err, cart.ErrOutOfStock):
		writeError(w, http.StatusConflict, "product out of stock")
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "quantity must be positive")
	default:
		h.internalError(w, "cart update failed", err)
	}
}

type checkoutResponse struct {
	Customer string       `json:"customer"`
	Zalo     string       `json:"zalo"`
	Cart     cartResponse `json:"cart"`
}

type confirmResponse struct {
	checkoutResponse
	Reference   string `json:"reference"`
	SupportZalo string `json:"support_zalo"`
}

// decodeCheckout разбирает и проверяет контакты покупателя. При ошибке ответ уже записан.
func (h *Handler) decodeCheckout(w http.ResponseWriter, r *http.Request) (model.CheckoutContact, bool) {
	var c model.CheckoutContact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return c, false
	}

	if err := h.validator.Checkout(&c); err != nil {
		if ve, ok := validation.AsErrors(err); ok {
			writeValidation(w, ve)
			return c, false
		}
		h.internalError(w, "checkout validation failed", err)
		return c, false
	}
	return c, true
}

// Checkout проверяет контакты и возвращает итог заказа по корзине.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	c, ok := h.decodeCheckout(w, r)
	if !ok {
		return
	}

	s := h.cartSummary(h.sessionID(w, r))
	if len(s.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{Customer: c.Customer, Zalo: c.Zalo, Cart: newCartResponse(s)})
}

// ConfirmCheckout завершает оформление: возвращает данные для страницы благодарности и очищает корзину.
func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	c, ok := h.decodeCheckout(w, r)
	if !ok {
		return
	}

	sid := h.sessionID(w, r)

	var s cart.Summary
	_ = h.carts.Update(sid, func(ct *cart.Cart) error {
		s = ct.Detailed(h.catalog)
		if len(s.Lines) > 0 {
			ct.Clear()
		}
		return nil
	})
	if len(s.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	ref := uuid.NewString()
	h.logger.Info("checkout confirmed",
		zap.String("reference", ref),
		zap.Int("items", s.Count),
		zap.Int64("total", s.Total),
	)

	writeJSON(w, http.StatusOK, confirmResponse{
		checkoutResponse: checkoutResponse{Customer: c.Customer, Zalo: c.Zalo, Cart: newCartResponse(s)},
		Reference:        ref,
		SupportZalo:      h.supportZalo,
	})
}
