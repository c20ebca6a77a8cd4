package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/premium-shop/internal/model"
)

func TestSendDigest_OK(t *testing.T) {
	var got Digest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	today := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	digest := NewDigest([]model.Order{{
		ID:          "a1",
		Customer:    "An",
		AccountType: model.AccountNetflix,
		EndDate:     time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	}}, today)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	code, retry, err := NewClient(ts.URL).SendDigest(ctx, digest)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Zero(t, retry)

	assert.Equal(t, "2024-02-10", got.Today)
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Orders, 1)
	assert.Equal(t, "2024-02-15", got.Orders[0].EndDate)
	assert.Equal(t, 5, got.Orders[0].DaysLeft)
}

func TestSendDigest_TooManyRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	code, retry, err := NewClient(ts.URL).SendDigest(context.Background(), Digest{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, 5*time.Second, retry)
}

func TestSendDigest_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	code, _, err := NewClient(ts.URL).SendDigest(context.Background(), Digest{})
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestSendDigest_NotConfigured(t *testing.T) {
	var c *Client
	_, _, err := c.SendDigest(context.Background(), Digest{})
	assert.Error(t, err)

	_, _, err = NewClient("  ").SendDigest(context.Background(), Digest{})
	assert.Error(t, err)
}
