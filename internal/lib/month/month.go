// Package month реализует календарную арифметику по месяцам.
//
// В отличие от time.AddDate, который нормализует 31 января + 1 месяц
// в 2 марта, здесь день зажимается до последнего дня целевого месяца,
// как это делает PostgreSQL при сложении с INTERVAL '1 month'.
package month

import "time"

// DaysIn возвращает количество дней в месяце m года year.
func DaysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Add прибавляет к t n календарных месяцев (n может быть отрицательным).
// Время суток и часовой пояс сохраняются.
func Add(t time.Time, n int) time.Time {
	year, mon, day := t.Date()
	// первое число целевого месяца; time.Date сам переносит год
	first := time.Date(year, mon+time.Month(n), 1, 0, 0, 0, 0, t.Location())

	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Window возвращает окно подписки [start, start + months).
func Window(start time.Time, months int) (time.Time, time.Time) {
	return start, Add(start, months)
}
