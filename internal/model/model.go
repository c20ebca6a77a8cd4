// Package model содержит доменные сущности магазина подписок.
package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus описывает наличие товара.
type ProductStatus string

const (
	ProductInStock    ProductStatus = "in_stock"
	ProductOutOfStock ProductStatus = "out_of_stock"
)

// Product описывает товар статического каталога.
type Product struct {
	ID            string        `yaml:"id" json:"id"`
	Slug          string        `yaml:"slug" json:"slug"`
	Name          string        `yaml:"name" json:"name"`
	Price         int64         `yaml:"price" json:"price"`
	OriginalPrice *int64        `yaml:"original_price,omitempty" json:"original_price,omitempty"`
	Category      string        `yaml:"category" json:"category"`
	Tags          []string      `yaml:"tags" json:"tags"`
	Image         string        `yaml:"image" json:"image"`
	Status        ProductStatus `yaml:"status" json:"status"`
	Description   string        `yaml:"description,omitempty" json:"description,omitempty"`
	AccountType   string        `yaml:"account_type,omitempty" json:"account_type,omitempty"`
}

// InStock сообщает, можно ли положить товар в корзину.
func (p Product) InStock() bool {
	return p.Status != ProductOutOfStock
}

// DiscountPercent возвращает округлённый процент скидки относительно исходной цены.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= 0 {
		return 0
	}
	orig := float64(*p.OriginalPrice)
	return int(math.Round((orig - float64(p.Price)) / orig * 100))
}

// CartLine — позиция корзины: товар и количество (не меньше 1).
type CartLine struct {
	ProductID string
	Quantity  int
}

// AccountType — сервис, к которому относится заказ.
type AccountType string

const (
	AccountNetflix   AccountType = "netflix"
	AccountYouTube   AccountType = "youtube"
	AccountSpotify   AccountType = "spotify"
	AccountCapCut    AccountType = "capcut"
	AccountChatGPT   AccountType = "chatgpt"
	AccountClaude    AccountType = "claude"
	AccountGrok      AccountType = "grok"
	AccountGemini    AccountType = "gemini"
	AccountGoogleOne AccountType = "google-one"
	AccountOther     AccountType = "other"
)

// AccountTypes перечисляет допустимые типы аккаунтов в порядке отображения.
var AccountTypes = []AccountType{
	AccountNetflix,
	AccountYouTube,
	AccountSpotify,
	AccountCapCut,
	AccountChatGPT,
	AccountClaude,
	AccountGrok,
	AccountGemini,
	AccountGoogleOne,
	AccountOther,
}

// Valid проверяет, что тип аккаунта входит в перечисление.
func (t AccountType) Valid() bool {
	for _, v := range AccountTypes {
		if v == t {
			return true
		}
	}
	return false
}

// OrderStatus — вычисляемый статус подписки. В хранилище не сохраняется.
type OrderStatus string

const (
	OrderStatusActive   OrderStatus = "active"
	OrderStatusExpiring OrderStatus = "expiring"
	OrderStatusExpired  OrderStatus = "expired"
)

// CustomerAccount — данные аккаунта клиента. Все поля необязательны.
type CustomerAccount struct {
	Account   string `json:"account,omitempty"`
	Password  string `json:"password,omitempty"`
	OTPSecret string `json:"otp_secret,omitempty"`
}

// IsZero сообщает, что ни одно поле не заполнено.
func (c *CustomerAccount) IsZero() bool {
	return c == nil || (c.Account == "" && c.Password == "" && c.OTPSecret == "")
}

// Order описывает заказ реселлера.
type Order struct {
	ID              string
	Customer        string
	CustomerContact string
	AccountType     AccountType
	StoreAccount    string
	CustomerAccount *CustomerAccount
	StartDate       time.Time
	DurationMonths  int
	EndDate         time.Time
	Cost            decimal.Decimal
	Revenue         decimal.Decimal
	Note            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatusAll отключает отбор по статусу и типу аккаунта.
const StatusAll = "all"

// Filters описывает фильтры списка заказов в админке.
type Filters struct {
	Keyword     string
	AccountType string
	Status      string
	FromDate    string
	ToDate      string
}

// OrderForm — входные данные формы создания и редактирования заказа.
// EndDate принимается только для совместимости и всегда пересчитывается.
type OrderForm struct {
	Customer        string           `json:"customer" validate:"required,max=255"`
	CustomerContact string           `json:"customer_contact" validate:"omitempty,max=64"`
	AccountType     AccountType      `json:"account_type" validate:"required,account_type"`
	StoreAccount    string           `json:"store_account" validate:"omitempty,max=255"`
	CustomerAccount *CustomerAccount `json:"customer_account"`
	StartDate       string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	DurationMonths  int              `json:"duration_months" validate:"min=1,max=24"`
	Cost            decimal.Decimal  `json:"cost" validate:"gte=0,money"`
	Revenue         decimal.Decimal  `json:"revenue" validate:"gte=0,money"`
	Note            string           `json:"note"`
	EndDate         string           `json:"end_date,omitempty" validate:"-"`
}

// CheckoutContact — контакты покупателя при оформлении корзины.
type CheckoutContact struct {
	Customer string `json:"customer" validate:"required,max=255"`
	Zalo     string `json:"zalo" validate:"required,zalo"`
}

// Stats — агрегаты по текущей странице списка заказов.
type Stats struct {
	Cost     decimal.Decimal
	Revenue  decimal.Decimal
	Active   int
	Expiring int
	Expired  int
}

// Profit возвращает разницу между выручкой и затратами.
func (s Stats) Profit() decimal.Decimal {
	return s.Revenue.Sub(s.Cost)
}

// OrderPage — страница списка заказов вместе с агрегатами.
type OrderPage struct {
	Orders     []Order
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	Stats      Stats
	Today      time.Time
}
