package models

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/guregu/null/v6"
)

// OptionLeg is one side (PE or CE) of a strike. A strike may lack either side
// of the market, so every field is nullable.
type OptionLeg struct {
	OpenInterest          null.Float
	ChangeInOpenInterest  null.Float
	PChangeInOpenInterest null.Float
	TotalTradedVolume     null.Int
	ImpliedVolatility     null.Float
	LastPrice             null.Float
	Change                null.Float
	PChange               null.Float
}

type OptionRecord struct {
	StrikePrice int64
	ExpiryDate  string
	PE          *OptionLeg
	CE          *OptionLeg
}

type ChainDocument struct {
	Records         []OptionRecord
	Timestamp       string
	UnderlyingValue float64
}

// OptionChainRow is one flattened strike. Leg fields use dotted column names.
type OptionChainRow struct {
	Index       int    `csv:"index" json:"index"`
	StrikePrice int64  `csv:"strikePrice" json:"strikePrice"`
	ExpiryDate  string `csv:"expiryDate" json:"expiryDate"`

	PEOpenInterest          null.Float `csv:"PE.openInterest" json:"PE.openInterest"`
	PEChangeInOpenInterest  null.Float `csv:"PE.changeinOpenInterest" json:"PE.changeinOpenInterest"`
	PEPChangeInOpenInterest null.Float `csv:"PE.pchangeinOpenInterest" json:"PE.pchangeinOpenInterest"`
	PETotalTradedVolume     null.Int   `csv:"PE.totalTradedVolume" json:"PE.totalTradedVolume"`
	PEImpliedVolatility     null.Float `csv:"PE.impliedVolatility" json:"PE.impliedVolatility"`
	PELastPrice             null.Float `csv:"PE.lastPrice" json:"PE.lastPrice"`
	PEChange                null.Float `csv:"PE.change" json:"PE.change"`
	PEPChange               null.Float `csv:"PE.pChange" json:"PE.pChange"`

	CEOpenInterest          null.Float `csv:"CE.openInterest" json:"CE.openInterest"`
	CEChangeInOpenInterest  null.Float `csv:"CE.changeinOpenInterest" json:"CE.changeinOpenInterest"`
	CEPChangeInOpenInterest null.Float `csv:"CE.pchangeinOpenInterest" json:"CE.pchangeinOpenInterest"`
	CETotalTradedVolume     null.Int   `csv:"CE.totalTradedVolume" json:"CE.totalTradedVolume"`
	CEImpliedVolatility     null.Float `csv:"CE.impliedVolatility" json:"CE.impliedVolatility"`
	CELastPrice             null.Float `csv:"CE.lastPrice" json:"CE.lastPrice"`
	CEChange                null.Float `csv:"CE.change" json:"CE.change"`
	CEPChange               null.Float `csv:"CE.pChange" json:"CE.pChange"`

	PESum      float64 `csv:"PE.sum" json:"PE.sum"`
	CESum      float64 `csv:"CE.sum" json:"CE.sum"`
	PCR        Ratio   `csv:"PCR" json:"PCR"`
	Datetime   string  `csv:"datetime" json:"datetime"`
	Underlying float64 `csv:"underlying" json:"underlying"`
}

// NewOptionChainRow flattens a record. A missing leg leaves its columns null.
func NewOptionChainRow(record OptionRecord) OptionChainRow {
	row := OptionChainRow{
		StrikePrice: record.StrikePrice,
		ExpiryDate:  record.ExpiryDate,
	}

	if pe := record.PE; pe != nil {
		row.PEOpenInterest = pe.OpenInterest
		row.PEChangeInOpenInterest = pe.ChangeInOpenInterest
		row.PEPChangeInOpenInterest = pe.PChangeInOpenInterest
		row.PETotalTradedVolume = pe.TotalTradedVolume
		row.PEImpliedVolatility = pe.ImpliedVolatility
		row.PELastPrice = pe.LastPrice
		row.PEChange = pe.Change
		row.PEPChange = pe.PChange
	}

	if ce := record.CE; ce != nil {
		row.CEOpenInterest = ce.OpenInterest
		row.CEChangeInOpenInterest = ce.ChangeInOpenInterest
		row.CEPChangeInOpenInterest = ce.PChangeInOpenInterest
		row.CETotalTradedVolume = ce.TotalTradedVolume
		row.CEImpliedVolatility = ce.ImpliedVolatility
		row.CELastPrice = ce.LastPrice
		row.CEChange = ce.Change
		row.CEPChange = ce.PChange
	}

	return row
}

// Ratio is a float that may be infinite or NaN. JSON has no literal for those,
// so they are written as strings.
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}

	return json.Marshal(f)
}

type OptionChainTable []OptionChainRow

func (t OptionChainTable) SortByStrike() {
	sort.SliceStable(t, func(i, j int) bool {
		return t[i].StrikePrice < t[j].StrikePrice
	})
}

func (t OptionChainTable) Reindex() {
	for i := range t {
		t[i].Index = i
	}
}

func (t OptionChainTable) PEOpenInterest() []float64 {
	return validFloats(t, func(r OptionChainRow) null.Float { return r.PEOpenInterest })
}

func (t OptionChainTable) CEOpenInterest() []float64 {
	return validFloats(t, func(r OptionChainRow) null.Float { return r.CEOpenInterest })
}

func validFloats(t OptionChainTable, column func(OptionChainRow) null.Float) []float64 {
	values := make([]float64, 0, len(t))
	for _, row := range t {
		if v := column(row); v.Valid {
			values = append(values, v.Float64)
		}
	}

	return values
}
