package model

import (
	"fmt"
	"time"
)

// DateLayout — формат календарной даты в API и хранилище.
const DateLayout = "2006-01-02"

// ExpiringWindowDays — сколько дней вперёд подписка считается истекающей.
const ExpiringWindowDays = 7

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// FormatDate форматирует календарную дату; нулевое время даёт пустую строку.
func FormatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// DateOf возвращает календарную дату момента t в его часовом поясе как полночь UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths сдвигает дату на n календарных месяцев.
// Если в целевом месяце нет такого числа, берётся его последний день.
func AddMonths(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// AddDays сдвигает календарную дату на n дней.
func AddDays(d time.Time, n int) time.Time {
	return DateOf(d).AddDate(0, 0, n)
}

// CalcEndDate вычисляет дату окончания подписки.
func CalcEndDate(start time.Time, months int) time.Time {
	return AddMonths(DateOf(start), months)
}

// DaysBetween возвращает число календарных дней от a до b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
