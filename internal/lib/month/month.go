// Package month содержит календарные вспомогательные функции для отчётов по месяцам.
package month

import (
	"time"
)

// Bounds возвращает полуинтервал [start, end) календарного месяца, в который попадает t.
// Границы считаются в часовом поясе t.
func Bounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0)
	return start, end
}

// Label возвращает месяц в виде "2006-01".
func Label(t time.Time) string {
	return t.Format("2006-01")
}

// Day отбрасывает время суток, оставляя дату.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
