package services

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/nsefetch/src/models"
	"github.com/jiaming2012/nsefetch/src/utils"
)

const equitySeries = "EQ"

// SymbolDirectory reads the exchange's list of equities. The list is
// downloaded on every call; nothing is cached.
type SymbolDirectory struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func NewSymbolDirectory(url string, headers map[string]string, timeout time.Duration) *SymbolDirectory {
	return &SymbolDirectory{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// Listings returns the EQ series listings sorted by symbol.
func (d *SymbolDirectory) Listings(ctx context.Context) ([]models.EquityListing, error) {
	body, err := utils.Get(ctx, d.client, d.url, d.headers)
	if err != nil {
		return nil, &models.FetchError{URL: d.url, Err: err}
	}

	return ParseEquityList(body)
}

func ParseEquityList(data []byte) ([]models.EquityListing, error) {
	var dtos []*models.EquityListingDTO
	if err := utils.UnmarshalCsv(data, &dtos); err != nil {
		return nil, &models.SchemaError{Path: "EQUITY_L.csv", Err: err}
	}

	listings := make([]models.EquityListing, 0, len(dtos))
	for _, dto := range dtos {
		dto.Symbol = strings.TrimSpace(dto.Symbol)
		dto.Series = strings.TrimSpace(dto.Series)
		dto.DateOfListing = strings.TrimSpace(dto.DateOfListing)

		if dto.Series != equitySeries {
			continue
		}

		listing, err := dto.ToModel()
		if err != nil {
			return nil, &models.SchemaError{Path: "EQUITY_L.csv", Err: err}
		}

		listings = append(listings, *listing)
	}

	sort.Slice(listings, func(i, j int) bool {
		return listings[i].Symbol < listings[j].Symbol
	})

	return listings, nil
}

// Lookup returns a *models.ValidationError when symbol is not an EQ listing.
func (d *SymbolDirectory) Lookup(ctx context.Context, symbol string) error {
	listings, err := d.Listings(ctx)
	if err != nil {
		return fmt.Errorf("SymbolDirectory.Lookup: %w", err)
	}

	i := sort.Search(len(listings), func(i int) bool {
		return listings[i].Symbol >= symbol
	})

	if i < len(listings) && listings[i].Symbol == symbol {
		return nil
	}

	log.WithField("symbol", symbol).Warn("SymbolDirectory.Lookup: symbol not found")

	return &models.ValidationError{Field: "symbol", Value: symbol, Err: models.UnknownSymbolErr}
}
