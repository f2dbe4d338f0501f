package services

import (
	"context"

	"github.com/montanaflynn/stats"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jiaming2012/nsefetch/src/models"
	"github.com/jiaming2012/nsefetch/src/transport"
	"github.com/jiaming2012/nsefetch/src/utils"
)

type OptionChainService struct {
	fetcher        transport.Fetcher
	optionChainURL string
}

// NewOptionChainService builds request urls as optionChainURL + symbol, so
// optionChainURL must end with the symbol query parameter.
func NewOptionChainService(fetcher transport.Fetcher, optionChainURL string) *OptionChainService {
	return &OptionChainService{
		fetcher:        fetcher,
		optionChainURL: optionChainURL,
	}
}

// FetchOptionChain never returns an error: fetch and schema failures become an
// empty result whose Reason says why.
func (s *OptionChainService) FetchOptionChain(ctx context.Context, symbol string) models.OptionChainResult {
	tracer := otel.Tracer("FetchOptionChain")
	ctx, span := tracer.Start(ctx, "FetchOptionChain")
	defer span.End()

	span.SetAttributes(attribute.String("symbol", symbol))

	url := s.optionChainURL + utils.NormalizeSymbol(symbol)

	table, err := s.fetchOptionChain(ctx, url)
	if err != nil {
		log.WithField("symbol", symbol).Warnf("FetchOptionChain: not able to fetch correct data: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no result")
		return models.NewEmptyOptionChainResult(err)
	}

	span.SetAttributes(attribute.Int("rows", len(table)))
	log.WithField("symbol", symbol).Infof("FetchOptionChain: fetched %d strikes", len(table))

	return models.NewOptionChainResult(table)
}

func (s *OptionChainService) fetchOptionChain(ctx context.Context, url string) (models.OptionChainTable, error) {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	dto, err := models.ParseOptionChainResponse(body)
	if err != nil {
		return nil, err
	}

	doc, err := dto.ToChainDocument()
	if err != nil {
		return nil, err
	}

	return PrepareOptionChain(doc), nil
}

// PrepareOptionChain flattens doc into one row per strike, broadcasts the open
// interest totals and the put/call ratio, stamps the snapshot time and the
// underlying price, then sorts by strike and reindexes.
func PrepareOptionChain(doc *models.ChainDocument) models.OptionChainTable {
	table := make(models.OptionChainTable, 0, len(doc.Records))
	for _, record := range doc.Records {
		table = append(table, models.NewOptionChainRow(record))
	}

	peSum := sum(table.PEOpenInterest())
	ceSum := sum(table.CEOpenInterest())

	// A zero call total yields +Inf (or NaN when both are zero) on purpose.
	pcr := models.Ratio(peSum / ceSum)

	for i := range table {
		table[i].PESum = peSum
		table[i].CESum = ceSum
		table[i].PCR = pcr
		table[i].Datetime = doc.Timestamp
		table[i].Underlying = doc.UnderlyingValue
	}

	table.SortByStrike()
	table.Reindex()

	return table
}

// sum treats an empty column as 0.
func sum(values []float64) float64 {
	total, err := stats.Sum(values)
	if err != nil {
		return 0
	}

	return total
}
