package models

import (
	"encoding/json"
	"fmt"
)

// EquityRowDTO mirrors one entry of the historical equity endpoint. Numeric
// fields accept both JSON numbers and numeric strings.
type EquityRowDTO struct {
	Symbol    *string      `json:"CH_SYMBOL"`
	Timestamp *string      `json:"TIMESTAMP"`
	Open      *json.Number `json:"CH_OPENING_PRICE"`
	High      *json.Number `json:"CH_TRADE_HIGH_PRICE"`
	Low       *json.Number `json:"CH_TRADE_LOW_PRICE"`
	Close     *json.Number `json:"CH_CLOSING_PRICE"`
	PrevClose *json.Number `json:"CH_PREVIOUS_CLS_PRICE"`
	Volume    *json.Number `json:"CH_TOT_TRADED_VAL"`
	VWAP      *json.Number `json:"VWAP"`
}

type EquityResponseDTO struct {
	Data []json.RawMessage `json:"data"`
}

func ParseEquityResponse(body []byte) (*EquityResponseDTO, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &SchemaError{Path: "$", Err: err}
	}

	data, found := raw["data"]
	if !found {
		return nil, &SchemaError{Path: "data", Err: fmt.Errorf("%w: no data found", MissingFieldErr)}
	}

	var dto EquityResponseDTO
	if err := json.Unmarshal(data, &dto.Data); err != nil {
		return nil, &SchemaError{Path: "data", Err: err}
	}

	return &dto, nil
}

func (dto *EquityRowDTO) ToModel(path string) (*EquityRow, error) {
	if dto.Symbol == nil {
		return nil, &SchemaError{Path: path + ".CH_SYMBOL", Err: MissingFieldErr}
	}

	if dto.Timestamp == nil {
		return nil, &SchemaError{Path: path + ".TIMESTAMP", Err: MissingFieldErr}
	}

	row := &EquityRow{
		Symbol:    *dto.Symbol,
		Timestamp: *dto.Timestamp,
	}

	fields := []struct {
		name  string
		value *json.Number
		dest  *float64
	}{
		{"CH_OPENING_PRICE", dto.Open, &row.Open},
		{"CH_TRADE_HIGH_PRICE", dto.High, &row.High},
		{"CH_TRADE_LOW_PRICE", dto.Low, &row.Low},
		{"CH_CLOSING_PRICE", dto.Close, &row.Close},
		{"CH_PREVIOUS_CLS_PRICE", dto.PrevClose, &row.PrevClose},
		{"CH_TOT_TRADED_VAL", dto.Volume, &row.Volume},
		{"VWAP", dto.VWAP, &row.VWAP},
	}

	for _, f := range fields {
		if f.value == nil {
			return nil, &SchemaError{Path: path + "." + f.name, Err: MissingFieldErr}
		}

		v, err := f.value.Float64()
		if err != nil {
			return nil, &SchemaError{Path: path + "." + f.name, Err: err}
		}

		*f.dest = v
	}

	return row, nil
}

// ToEquityRows validates every entry of the data array. Nothing is dropped: a
// single bad row fails the whole document.
func (dto *EquityResponseDTO) ToEquityRows() ([]EquityRow, error) {
	rows := make([]EquityRow, 0, len(dto.Data))
	for i, raw := range dto.Data {
		path := fmt.Sprintf("data[%d]", i)

		var rowDTO EquityRowDTO
		if err := json.Unmarshal(raw, &rowDTO); err != nil {
			return nil, &SchemaError{Path: path, Err: err}
		}

		row, err := rowDTO.ToModel(path)
		if err != nil {
			return nil, err
		}

		rows = append(rows, *row)
	}

	return rows, nil
}
