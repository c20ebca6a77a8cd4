package model

import "time"

// StatusAt вычисляет статус подписки с датой окончания end на дату today.
// Обе даты сравниваются как календарные.
func StatusAt(end, today time.Time) OrderStatus {
	end = DateOf(end)
	today = DateOf(today)

	switch {
	case end.Before(today):
		return OrderStatusExpired
	case !end.After(AddDays(today, ExpiringWindowDays)):
		return OrderStatusExpiring
	default:
		return OrderStatusActive
	}
}

// ExpiringWindow возвращает включительные границы окна истечения для today.
func ExpiringWindow(today time.Time) (time.Time, time.Time) {
	from := DateOf(today)
	return from, AddDays(from, ExpiringWindowDays)
}

// Status возвращает статус заказа на дату today.
func (o Order) Status(today time.Time) OrderStatus {
	return StatusAt(o.EndDate, today)
}

// DaysLeft возвращает число дней до окончания подписки (отрицательное для истёкших).
func (o Order) DaysLeft(today time.Time) int {
	return DaysBetween(today, o.EndDate)
}

// Aggregate считает суммы и количество заказов по статусам для переданной страницы.
func Aggregate(orders []Order, today time.Time) Stats {
	var st Stats
	for _, o := range orders {
		st.Cost = st.Cost.Add(o.Cost)
		st.Revenue = st.Revenue.Add(o.Revenue)

		switch o.Status(today) {
		case OrderStatusActive:
			st.Active++
		case OrderStatusExpiring:
			st.Expiring++
		case OrderStatusExpired:
			st.Expired++
		}
	}
	return st
}
