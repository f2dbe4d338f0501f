package models

import (
	"strings"
	"time"
)

// DateLayout is the exchange's day-month-year format.
const DateLayout = "02-01-2006"
const DateLayoutDesc = "DD-MM-YYYY"

type CandleRequest struct {
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
}

// NewCandleRequest validates the caller's input. Both dates must parse as
// DD-MM-YYYY and the end date must not precede the start date.
func NewCandleRequest(symbol, startDate, endDate string) (*CandleRequest, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, &ValidationError{Field: "symbol", Value: symbol, Err: EmptySymbolErr}
	}

	start, err := ParseDate("start_date", startDate)
	if err != nil {
		return nil, err
	}

	end, err := ParseDate("end_date", endDate)
	if err != nil {
		return nil, err
	}

	if end.Before(start) {
		return nil, &ValidationError{Field: "end_date", Value: endDate, Err: DateRangeReversedErr}
	}

	return &CandleRequest{
		Symbol:    symbol,
		StartDate: start,
		EndDate:   end,
	}, nil
}

// ParseDate parses value with DateLayout. time.Parse rejects out-of-range days
// such as 31-02-2021.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Value: value, Err: InvalidDateErr}
	}

	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
