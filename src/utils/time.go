package utils

import "time"

func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}
