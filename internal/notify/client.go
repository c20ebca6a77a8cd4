// Package notify предоставляет клиент для отправки сводок об истекающих подписках на внешний вебхук.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmeshcher/premium-shop/internal/model"
)

// Client инкапсулирует HTTP-взаимодействие с вебхуком уведомлений.
type Client struct {
	url        string
	httpClient *http.Client
}

// DigestItem — одна истекающая подписка в сводке.
type DigestItem struct {
	ID              string `json:"id"`
	Customer        string `json:"customer"`
	CustomerContact string `json:"customer_contact,omitempty"`
	AccountType     string `json:"account_type"`
	EndDate         string `json:"end_date"`
	DaysLeft        int    `json:"days_left"`
}

// Digest — сводка истекающих подписок на дату Today.
type Digest struct {
	Today  string       `json:"today"`
	Count  int          `json:"count"`
	Orders []DigestItem `json:"orders"`
}

// NewDigest собирает сводку по заказам на дату today.
func NewDigest(orders []model.Order, today time.Time) Digest {
	d := Digest{
		Today:  model.FormatDate(today),
		Count:  len(orders),
		Orders: make([]DigestItem, 0, len(orders)),
	}
	for _, o := range orders {
		d.Orders = append(d.Orders, DigestItem{
			ID:              o.ID,
			Customer:        o.Customer,
			CustomerContact: o.CustomerContact,
			AccountType:     string(o.AccountType),
			EndDate:         model.FormatDate(o.EndDate),
			DaysLeft:        o.DaysLeft(today),
		})
	}
	return d
}

// NewClient создаёт HTTP-клиент для отправки сводок по указанному адресу.
func NewClient(url string) *Client {
	return &Client{
		url: strings.TrimSpace(url),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// SendDigest отправляет сводку. При ответе 429 возвращает код и Retry-After без ошибки,
// повторная отправка остаётся на вызывающей стороне.
func (c *Client) SendDigest(ctx context.Context, d Digest) (int, time.Duration, error) {
	if c == nil || c.url == "" {
		return 0, 0, fmt.Errorf("notify client not configured")
	}

	url := c.url
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	body, err := json.Marshal(d)
	if err != nil {
		return 0, 0, fmt.Errorf("encode digest: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return resp.StatusCode, retryAfter, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return resp.StatusCode, 0, nil
}
