package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		start  string
		months int
		want   string
	}{
		{"2024-01-15", 1, "2024-02-15"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-31", 1, "2024-04-30"},
		{"2024-11-30", 3, "2025-02-28"},
		{"2024-05-10", 12, "2025-05-10"},
		{"2024-05-10", 24, "2026-05-10"},
	}

	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			got := AddMonths(date(t, tt.start), tt.months)
			assert.Equal(t, tt.want, FormatDate(got))
		})
	}
}

func TestStatusAt_Boundaries(t *testing.T) {
	today := date(t, "2024-02-10")

	tests := []struct {
		name string
		end  time.Time
		want OrderStatus
	}{
		{"yesterday", AddDays(today, -1), OrderStatusExpired},
		{"today", today, OrderStatusExpiring},
		{"today+7", AddDays(today, 7), OrderStatusExpiring},
		{"today+8", AddDays(today, 8), OrderStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusAt(tt.end, today))
		})
	}
}

func TestStatusAt_IgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	now := time.Date(2024, 2, 10, 23, 59, 0, 0, loc)
	end := date(t, "2024-02-10")

	assert.Equal(t, OrderStatusExpiring, StatusAt(end, now))
}

func TestOrderLifecycleScenario(t *testing.T) {
	o := Order{
		StartDate:      date(t, "2024-01-15"),
		DurationMonths: 1,
	}
	o.Normalize()

	assert.Equal(t, "2024-02-15", FormatDate(o.EndDate))
	assert.Equal(t, OrderStatusExpiring, o.Status(date(t, "2024-02-10")))
	assert.Equal(t, OrderStatusExpired, o.Status(date(t, "2024-02-20")))
	assert.Equal(t, 5, o.DaysLeft(date(t, "2024-02-10")))
}

func TestNormalize_Idempotent(t *testing.T) {
	o := Order{
		ID:              "a",
		StartDate:       time.Date(2024, 1, 31, 15, 30, 0, 0, time.UTC),
		DurationMonths:  1,
		CustomerAccount: &CustomerAccount{},
		Cost:            decimal.NewFromInt(100),
	}

	o.Normalize()
	first := o
	o.Normalize()

	assert.Equal(t, first, o)
	assert.Equal(t, "2024-02-29", FormatDate(o.EndDate))
	assert.Nil(t, o.CustomerAccount)
}

func TestNormalize_KeepsStoredEndDate(t *testing.T) {
	o := Order{
		StartDate:      date(t, "2024-01-15"),
		DurationMonths: 1,
		EndDate:        date(t, "2024-03-01"),
	}
	o.Normalize()

	assert.Equal(t, "2024-03-01", FormatDate(o.EndDate))
}

func TestDecodeCustomerAccount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *CustomerAccount
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "null", raw: "null", want: nil},
		{
			name: "object",
			raw:  `{"account":"a@b.c","password":"p","otp_secret":"s"}`,
			want: &CustomerAccount{Account: "a@b.c", Password: "p", OTPSecret: "s"},
		},
		{
			name: "object stored as json text",
			raw:  `"{\"account\":\"a@b.c\"}"`,
			want: &CustomerAccount{Account: "a@b.c"},
		},
		{name: "all fields empty", raw: `{"account":"","password":""}`, want: nil},
		{name: "not json", raw: `{account`, wantErr: true},
		{name: "array", raw: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCustomerAccount([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedCustomerAccount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregate(t *testing.T) {
	today := date(t, "2024-02-10")
	orders := []Order{
		{Cost: decimal.NewFromInt(100), Revenue: decimal.NewFromInt(150), EndDate: AddDays(today, 30)},
		{Cost: decimal.NewFromInt(200), Revenue: decimal.NewFromInt(260), EndDate: AddDays(today, 3)},
		{Cost: decimal.NewFromInt(50), Revenue: decimal.NewFromInt(90), EndDate: today},
		{Cost: decimal.RequireFromString("10.5"), Revenue: decimal.NewFromInt(20), EndDate: AddDays(today, -2)},
	}

	st := Aggregate(orders, today)

	assert.True(t, decimal.RequireFromString("360.5").Equal(st.Cost), "cost = %s", st.Cost)
	assert.True(t, decimal.NewFromInt(520).Equal(st.Revenue), "revenue = %s", st.Revenue)
	assert.True(t, decimal.RequireFromString("159.5").Equal(st.Profit()))
	assert.Equal(t, 1, st.Active)
	assert.Equal(t, 2, st.Expiring)
	assert.Equal(t, 1, st.Expired)
}

func TestProductDiscountPercent(t *testing.T) {
	orig := int64(500000)
	p := Product{Price: 390000, OriginalPrice: &orig}
	assert.Equal(t, 22, p.DiscountPercent())

	assert.Equal(t, 0, Product{Price: 100}.DiscountPercent())
}

func TestAccountTypeValid(t *testing.T) {
	assert.True(t, AccountGoogleOne.Valid())
	assert.False(t, AccountType("hulu").Valid())
	assert.False(t, AccountType("").Valid())
}
