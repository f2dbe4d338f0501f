package models

import (
	"fmt"
	"sort"
	"time"
)

type EquityRow struct {
	Symbol    string
	Timestamp string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	PrevClose float64
	Volume    float64
	VWAP      float64
}

var equityTimestampLayouts = []string{
	"2006-01-02T15:04:05.000Z07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	DateLayout,
}

// ParseEquityTimestamp accepts the layouts the historical endpoint has been
// seen to return.
func ParseEquityTimestamp(value string) (time.Time, error) {
	for _, layout := range equityTimestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

type EquityCandle struct {
	Index     int       `csv:"index" json:"index"`
	Symbol    string    `csv:"symbol" json:"symbol"`
	Datetime  time.Time `csv:"datetime" json:"datetime"`
	Open      float64   `csv:"open" json:"open"`
	High      float64   `csv:"high" json:"high"`
	Low       float64   `csv:"low" json:"low"`
	Close     float64   `csv:"close" json:"close"`
	PrevClose float64   `csv:"prev_close" json:"prev_close"`
	Volume    float64   `csv:"volume" json:"volume"`
	VWAP      float64   `csv:"vwap" json:"vwap"`
}

func NewEquityCandle(row EquityRow) (EquityCandle, error) {
	ts, err := ParseEquityTimestamp(row.Timestamp)
	if err != nil {
		return EquityCandle{}, &SchemaError{Path: "TIMESTAMP", Err: err}
	}

	return EquityCandle{
		Symbol:    row.Symbol,
		Datetime:  ts.UTC(),
		Open:      row.Open,
		High:      row.High,
		Low:       row.Low,
		Close:     row.Close,
		PrevClose: row.PrevClose,
		Volume:    row.Volume,
		VWAP:      row.VWAP,
	}, nil
}

type EquityTable []EquityCandle

// SortByDatetime is stable, so rows sharing a timestamp (seam days) keep their
// fetch order and re-sorting a sorted table changes nothing.
func (t EquityTable) SortByDatetime() {
	sort.SliceStable(t, func(i, j int) bool {
		return t[i].Datetime.Before(t[j].Datetime)
	})
}

func (t EquityTable) Reindex() {
	for i := range t {
		t[i].Index = i
	}
}

func (t EquityTable) Closes() []float64 {
	out := make([]float64, len(t))
	for i, c := range t {
		out[i] = c.Close
	}

	return out
}

func (t EquityTable) VWAPs() []float64 {
	out := make([]float64, len(t))
	for i, c := range t {
		out[i] = c.VWAP
	}

	return out
}
