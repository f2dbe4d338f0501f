package models

import (
	"fmt"
	"time"
)

const ListingDateLayout = "02-Jan-2006"

// EquityListingDTO is one line of the exchange's EQUITY_L.csv.
type EquityListingDTO struct {
	Symbol        string `csv:"SYMBOL"`
	NameOfCompany string `csv:"NAME OF COMPANY"`
	Series        string `csv:"SERIES"`
	DateOfListing string `csv:"DATE OF LISTING"`
	PaidUpValue   string `csv:"PAID UP VALUE"`
	MarketLot     string `csv:"MARKET LOT"`
	ISIN          string `csv:"ISIN NUMBER"`
	FaceValue     string `csv:"FACE VALUE"`
}

type EquityListing struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Series        string    `json:"series"`
	DateOfListing time.Time `json:"date_of_listing"`
	ISIN          string    `json:"isin"`
}

func (dto *EquityListingDTO) ToModel() (*EquityListing, error) {
	listedAt, err := time.Parse(ListingDateLayout, dto.DateOfListing)
	if err != nil {
		return nil, fmt.Errorf("EquityListingDTO.ToModel: %s: failed to parse listing date: %w", dto.Symbol, err)
	}

	return &EquityListing{
		Symbol:        dto.Symbol,
		Name:          dto.NameOfCompany,
		Series:        dto.Series,
		DateOfListing: listedAt,
		ISIN:          dto.ISIN,
	}, nil
}
