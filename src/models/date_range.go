package models

import "time"

type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r DateRange) String() string {
	return FormatDate(r.Start) + ".." + FormatDate(r.End)
}
