package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jiaming2012/nsefetch/src/models"
	"github.com/jiaming2012/nsefetch/src/transport"
	"github.com/jiaming2012/nsefetch/src/utils"
)

// SymbolValidator rejects symbols the exchange does not list.
type SymbolValidator interface {
	Lookup(ctx context.Context, symbol string) error
}

type CandleServiceConfig struct {
	HistoricalURL  string
	ChunkDays      int
	MaxConcurrency int
}

type CandleService struct {
	fetcher transport.Fetcher
	symbols SymbolValidator
	cfg     CandleServiceConfig
}

// NewCandleService wires the chunked historical fetch. symbols may be nil to
// skip the listing check.
func NewCandleService(fetcher transport.Fetcher, symbols SymbolValidator, cfg CandleServiceConfig) *CandleService {
	if cfg.ChunkDays <= 0 {
		cfg.ChunkDays = 40
	}

	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}

	return &CandleService{
		fetcher: fetcher,
		symbols: symbols,
		cfg:     cfg,
	}
}

// GetCandleData validates the raw caller input before fetching anything.
func (s *CandleService) GetCandleData(ctx context.Context, symbol, startDate, endDate string) (models.EquityTable, error) {
	req, err := models.NewCandleRequest(symbol, startDate, endDate)
	if err != nil {
		return nil, err
	}

	return s.FetchCandles(ctx, req)
}

// SplitDateRange tiles [start, end] with k = days/windowDays fixed windows
// followed by one remainder window. Neighbouring windows share their seam day.
func SplitDateRange(start, end time.Time, windowDays int) []models.DateRange {
	k := 0
	if span := (models.DateRange{Start: start, End: end}).Days(); span > 0 {
		k = span / windowDays
	}

	ranges := make([]models.DateRange, 0, k+1)
	for i := 0; i < k; i++ {
		ranges = append(ranges, models.DateRange{
			Start: utils.AddDays(start, windowDays*i),
			End:   utils.AddDays(start, windowDays*(i+1)),
		})
	}

	lastStart := start
	if k > 0 {
		lastStart = ranges[k-1].End
	}

	return append(ranges, models.DateRange{Start: lastStart, End: end})
}

// FetchCandles fetches every window of the request and returns one table
// sorted by datetime. Seam days fetched twice are kept. Any failed window
// fails the whole call.
func (s *CandleService) FetchCandles(ctx context.Context, req *models.CandleRequest) (models.EquityTable, error) {
	requestID := uuid.New().String()
	logger := log.WithFields(log.Fields{
		"request_id": requestID,
		"symbol":     req.Symbol,
	})

	tracer := otel.Tracer("FetchCandles")
	ctx, span := tracer.Start(ctx, "FetchCandles")
	defer span.End()

	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("symbol", req.Symbol),
		attribute.String("from", models.FormatDate(req.StartDate)),
		attribute.String("to", models.FormatDate(req.EndDate)),
	)

	if s.symbols != nil {
		if err := s.symbols.Lookup(ctx, req.Symbol); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("FetchCandles: %w", err)
		}
	}

	symbol := utils.NormalizeSymbol(req.Symbol)
	ranges := SplitDateRange(req.StartDate, req.EndDate, s.cfg.ChunkDays)

	logger.Infof("FetchCandles: fetching %s..%s in %d chunks", models.FormatDate(req.StartDate), models.FormatDate(req.EndDate), len(ranges))

	chunks := make([][]models.EquityRow, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrency)

	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rows, err := s.fetchChunk(gctx, symbol, r)
			if err != nil {
				return fmt.Errorf("FetchCandles: chunk %d (%s): %w", i, r, err)
			}

			span.AddEvent("chunk", trace.WithAttributes(
				attribute.Int("index", i),
				attribute.String("range", r.String()),
				attribute.Int("rows", len(rows)),
			))

			logger.Debugf("FetchCandles: chunk %d (%s) returned %d rows", i, r, len(rows))

			chunks[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	table, err := assembleCandles(chunks)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("FetchCandles: %w", err)
	}

	logger.Infof("FetchCandles: assembled %d rows", len(table))

	return table, nil
}

func (s *CandleService) historicalURL(symbol string, r models.DateRange) string {
	return fmt.Sprintf("%s?symbol=%s&from=%s&to=%s", s.cfg.HistoricalURL, symbol, models.FormatDate(r.Start), models.FormatDate(r.End))
}

func (s *CandleService) fetchChunk(ctx context.Context, symbol string, r models.DateRange) ([]models.EquityRow, error) {
	body, err := s.fetcher.Fetch(ctx, s.historicalURL(symbol, r))
	if err != nil {
		return nil, err
	}

	dto, err := models.ParseEquityResponse(body)
	if err != nil {
		return nil, err
	}

	return dto.ToEquityRows()
}

// assembleCandles concatenates chunks in window order, then sorts by datetime
// and reindexes. The result does not depend on the order chunks completed in.
func assembleCandles(chunks [][]models.EquityRow) (models.EquityTable, error) {
	total := 0
	for _, rows := range chunks {
		total += len(rows)
	}

	table := make(models.EquityTable, 0, total)
	for _, rows := range chunks {
		for _, row := range rows {
			candle, err := models.NewEquityCandle(row)
			if err != nil {
				return nil, fmt.Errorf("assembleCandles: %w", err)
			}

			table = append(table, candle)
		}
	}

	table.SortByDatetime()
	table.Reindex()

	return table, nil
}
