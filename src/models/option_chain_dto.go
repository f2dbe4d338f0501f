package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/guregu/null/v6"
)

type OptionLegDTO struct {
	OpenInterest          *float64 `json:"openInterest"`
	ChangeInOpenInterest  *float64 `json:"changeinOpenInterest"`
	PChangeInOpenInterest *float64 `json:"pchangeinOpenInterest"`
	TotalTradedVolume     *float64 `json:"totalTradedVolume"`
	ImpliedVolatility     *float64 `json:"impliedVolatility"`
	LastPrice             *float64 `json:"lastPrice"`
	Change                *float64 `json:"change"`
	PChange               *float64 `json:"pChange"`
}

type OptionRecordDTO struct {
	StrikePrice *float64      `json:"strikePrice"`
	ExpiryDate  *string       `json:"expiryDate"`
	PE          *OptionLegDTO `json:"PE"`
	CE          *OptionLegDTO `json:"CE"`
}

type OptionChainRecordsDTO struct {
	Timestamp       *string      `json:"timestamp"`
	UnderlyingValue *json.Number `json:"underlyingValue"`
}

type OptionChainFilteredDTO struct {
	Data []json.RawMessage `json:"data"`
}

type OptionChainResponseDTO struct {
	Records  *OptionChainRecordsDTO  `json:"records"`
	Filtered *OptionChainFilteredDTO `json:"filtered"`
}

func ParseOptionChainResponse(body []byte) (*OptionChainResponseDTO, error) {
	var dto OptionChainResponseDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, &SchemaError{Path: "$", Err: err}
	}

	return &dto, nil
}

func (dto *OptionLegDTO) ToModel() *OptionLeg {
	if dto == nil {
		return nil
	}

	leg := &OptionLeg{
		OpenInterest:          null.FloatFromPtr(dto.OpenInterest),
		ChangeInOpenInterest:  null.FloatFromPtr(dto.ChangeInOpenInterest),
		PChangeInOpenInterest: null.FloatFromPtr(dto.PChangeInOpenInterest),
		ImpliedVolatility:     null.FloatFromPtr(dto.ImpliedVolatility),
		LastPrice:             null.FloatFromPtr(dto.LastPrice),
		Change:                null.FloatFromPtr(dto.Change),
		PChange:               null.FloatFromPtr(dto.PChange),
	}

	if dto.TotalTradedVolume != nil {
		leg.TotalTradedVolume = null.IntFrom(int64(*dto.TotalTradedVolume))
	}

	return leg
}

func (dto *OptionLegDTO) validate(path string) error {
	if dto == nil || dto.TotalTradedVolume == nil {
		return nil
	}

	if !isIntegral(*dto.TotalTradedVolume) {
		return &SchemaError{Path: path + ".totalTradedVolume", Err: NotIntegralErr}
	}

	return nil
}

func (dto *OptionRecordDTO) ToModel(path string) (*OptionRecord, error) {
	if dto.StrikePrice == nil {
		return nil, &SchemaError{Path: path + ".strikePrice", Err: MissingFieldErr}
	}

	if !isIntegral(*dto.StrikePrice) {
		return nil, &SchemaError{Path: path + ".strikePrice", Err: NotIntegralErr}
	}

	if dto.ExpiryDate == nil {
		return nil, &SchemaError{Path: path + ".expiryDate", Err: MissingFieldErr}
	}

	if err := dto.PE.validate(path + ".PE"); err != nil {
		return nil, err
	}

	if err := dto.CE.validate(path + ".CE"); err != nil {
		return nil, err
	}

	return &OptionRecord{
		StrikePrice: int64(*dto.StrikePrice),
		ExpiryDate:  *dto.ExpiryDate,
		PE:          dto.PE.ToModel(),
		CE:          dto.CE.ToModel(),
	}, nil
}

// ToChainDocument validates every strike entry under filtered.data together
// with the records side channel.
func (dto *OptionChainResponseDTO) ToChainDocument() (*ChainDocument, error) {
	if dto.Filtered == nil || dto.Filtered.Data == nil {
		return nil, &SchemaError{Path: "filtered.data", Err: MissingFieldErr}
	}

	if dto.Records == nil {
		return nil, &SchemaError{Path: "records", Err: MissingFieldErr}
	}

	if dto.Records.Timestamp == nil {
		return nil, &SchemaError{Path: "records.timestamp", Err: MissingFieldErr}
	}

	if dto.Records.UnderlyingValue == nil {
		return nil, &SchemaError{Path: "records.underlyingValue", Err: MissingFieldErr}
	}

	underlying, err := dto.Records.UnderlyingValue.Float64()
	if err != nil {
		return nil, &SchemaError{Path: "records.underlyingValue", Err: err}
	}

	doc := &ChainDocument{
		Records:         make([]OptionRecord, 0, len(dto.Filtered.Data)),
		Timestamp:       *dto.Records.Timestamp,
		UnderlyingValue: underlying,
	}

	seen := make(map[int64]struct{}, len(dto.Filtered.Data))
	for i, raw := range dto.Filtered.Data {
		path := fmt.Sprintf("filtered.data[%d]", i)

		var recordDTO OptionRecordDTO
		if err := json.Unmarshal(raw, &recordDTO); err != nil {
			return nil, &SchemaError{Path: path, Err: err}
		}

		record, err := recordDTO.ToModel(path)
		if err != nil {
			return nil, err
		}

		if _, found := seen[record.StrikePrice]; found {
			return nil, &SchemaError{Path: path + ".strikePrice", Err: fmt.Errorf("%w: %d", DuplicateStrikeErr, record.StrikePrice)}
		}
		seen[record.StrikePrice] = struct{}{}

		doc.Records = append(doc.Records, *record)
	}

	return doc, nil
}

func isIntegral(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v) && v == math.Trunc(v)
}
