// Package cart содержит состояние корзины покупателя и хранилище корзин по сессиям.
package cart

import (
	"errors"

	"github.com/mmeshcher/premium-shop/internal/model"
)

var (
	// ErrUnknownProduct возвращается при попытке добавить товар, которого нет в каталоге.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrOutOfStock возвращается при попытке добавить отсутствующий товар.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrLineNotFound возвращается при изменении позиции, которой нет в корзине.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrInvalidQuantity возвращается при добавлении новой позиции с неположительным количеством.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Catalog — источник товаров для расчёта корзины.
type Catalog interface {
	ByID(id string) (model.Product, bool)
}

// Cart хранит позиции корзины в порядке добавления. Количество всегда не меньше 1.
// Cart не потокобезопасен: конкурентный доступ обеспечивает Store.
type Cart struct {
	quantities map[string]int
	order      []string
}

// New создаёт пустую корзину.
func New() *Cart {
	return &Cart{quantities: make(map[string]int)}
}

// Add увеличивает количество товара на delta. Итоговое количество не опускается ниже 1.
// Новая позиция создаётся только при положительном delta.
func (c *Cart) Add(productID string, delta int) int {
	qty, ok := c.quantities[productID]
	if !ok {
		if delta < 1 {
			return 0
		}
		c.order = append(c.order, productID)
	}

	qty += delta
	if qty < 1 {
		qty = 1
	}
	c.quantities[productID] = qty
	return qty
}

// SetQuantity задаёт количество существующей позиции; значения меньше 1 приводятся к 1.
func (c *Cart) SetQuantity(productID string, qty int) error {
	if _, ok := c.quantities[productID]; !ok {
		return ErrLineNotFound
	}
	if qty < 1 {
		qty = 1
	}
	c.quantities[productID] = qty
	return nil
}

// Remove удаляет позицию. Возвращает false, если позиции не было.
func (c *Cart) Remove(productID string) bool {
	if _, ok := c.quantities[productID]; !ok {
		return false
	}
	delete(c.quantities, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Quantity возвращает количество товара в корзине (0, если позиции нет).
func (c *Cart) Quantity(productID string) int {
	return c.quantities[productID]
}

// Lines возвращает позиции в порядке добавления.
func (c *Cart) Lines() []model.CartLine {
	out := make([]model.CartLine, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, model.CartLine{ProductID: id, Quantity: c.quantities[id]})
	}
	return out
}

// Count возвращает общее количество единиц товара.
func (c *Cart) Count() int {
	n := 0
	for _, q := range c.quantities {
		n += q
	}
	return n
}

// Len возвращает число позиций.
func (c *Cart) Len() int {
	return len(c.order)
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.quantities = make(map[string]int)
	c.order = nil
}

// Line — позиция корзины вместе с товаром и суммой.
type Line struct {
	Product   model.Product
	Quantity  int
	LineTotal int64
}

// Summary — детализированная корзина и итог.
type Summary struct {
	Lines []Line
	Count int
	Total int64
}

// Detailed соединяет позиции с товарами каталога и считает итог как сумму цена × количество.
// Позиции товаров, пропавших из каталога, пропускаются.
func (c *Cart) Detailed(cat Catalog) Summary {
	s := Summary{Lines: make([]Line, 0, len(c.order))}
	for _, line := range c.Lines() {
		p, ok := cat.ByID(line.ProductID)
		if !ok {
			continue
		}
		total := p.Price * int64(line.Quantity)
		s.Lines = append(s.Lines, Line{Product: p, Quantity: line.Quantity, LineTotal: total})
		s.Count += line.Quantity
		s.Total += total
	}
	return s
}

// AddProduct проверяет товар по каталогу и добавляет его в корзину.
func AddProduct(c *Cart, cat Catalog, productID string, qty int) (int, error) {
	p, ok := cat.ByID(productID)
	if !ok {
		return 0, ErrUnknownProduct
	}
	if !p.InStock() {
		return 0, ErrOutOfStock
	}
	if c.Quantity(productID) == 0 && qty < 1 {
		return 0, ErrInvalidQuantity
	}
	return c.Add(productID, qty), nil
}
