// Package catalog предоставляет статический каталог товаров, встроенный в бинарник.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/premium-shop/internal/model"
)

//go:embed products.yaml
var productsYAML []byte

// ErrInvalidCatalog возвращается при некорректном описании каталога.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog — неизменяемый список товаров с индексами по идентификатору и slug.
type Catalog struct {
	products []model.Product
	byID     map[string]int
	bySlug   map[string]int
}

// Load загружает встроенный каталог.
func Load() (*Catalog, error) {
	return Parse(productsYAML)
}

// Parse разбирает каталог из YAML. Идентификаторы и slug должны быть уникальными.
func Parse(data []byte) (*Catalog, error) {
	var products []model.Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		products: products,
		byID:     make(map[string]int, len(products)),
		bySlug:   make(map[string]int, len(products)),
	}

	for i, p := range products {
		if p.ID == "" || p.Slug == "" {
			return nil, fmt.Errorf("%w: product #%d has no id or slug", ErrInvalidCatalog, i)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("%w: product %s has negative price", ErrInvalidCatalog, p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidCatalog, p.ID)
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("%w: duplicate slug %s", ErrInvalidCatalog, p.Slug)
		}
		if p.Status == "" {
			products[i].Status = model.ProductInStock
		}
		c.byID[p.ID] = i
		c.bySlug[p.Slug] = i
	}

	return c, nil
}

// List возвращает все товары в порядке каталога.
func (c *Catalog) List() []model.Product {
	out := make([]model.Product, len(c.products))
	copy(out, c.products)
	return out
}

// BySlug ищет товар по slug.
func (c *Catalog) BySlug(slug string) (model.Product, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return model.Product{}, false
	}
	return c.products[i], true
}

// ByID ищет товар по идентификатору.
func (c *Catalog) ByID(id string) (model.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Product{}, false
	}
	return c.products[i], true
}

// Search возвращает товары, у которых название, категория или тег содержат q
// без учёта регистра. Непустой category дополнительно ограничивает категорию.
func (c *Catalog) Search(q, category string) []model.Product {
	q = strings.ToLower(strings.TrimSpace(q))
	category = strings.TrimSpace(category)

	out := make([]model.Product, 0)
	for _, p := range c.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if q != "" && !matches(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p model.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Categories возвращает различные категории в порядке первого появления.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range c.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

var vnd = message.NewPrinter(language.Vietnamese)

// FormatVND форматирует сумму в донгах с разделителями разрядов.
func FormatVND(amount int64) string {
	return vnd.Sprintf("%d ₫", amount)
}
