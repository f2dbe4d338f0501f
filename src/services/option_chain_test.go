package services

import (
	"context"
	"math"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/nsefetch/src/models"
)

const optionChainURL = "https://www.nseindia.com/api/option-chain-indices?symbol="

func leg(oi float64) *models.OptionLeg {
	return &models.OptionLeg{OpenInterest: null.FloatFrom(oi)}
}

func TestPrepareOptionChain(t *testing.T) {
	t.Run("open interest sums and pcr are broadcast", func(t *testing.T) {
		doc := &models.ChainDocument{
			Records: []models.OptionRecord{
				{StrikePrice: 100, ExpiryDate: "25-Jan-2024", PE: leg(10), CE: leg(5)},
				{StrikePrice: 200, ExpiryDate: "25-Jan-2024", PE: leg(20), CE: leg(5)},
			},
			Timestamp:       "19-Jan-2024 15:30:00",
			UnderlyingValue: 21622.4,
		}

		table := PrepareOptionChain(doc)
		require.Len(t, table, 2)

		for _, row := range table {
			assert.Equal(t, 30.0, row.PESum)
			assert.Equal(t, 10.0, row.CESum)
			assert.Equal(t, models.Ratio(3.0), row.PCR)
			assert.Equal(t, "19-Jan-2024 15:30:00", row.Datetime)
			assert.Equal(t, 21622.4, row.Underlying)
		}
	})

	t.Run("a strike without a put leg keeps its row with null put columns", func(t *testing.T) {
		doc := &models.ChainDocument{
			Records: []models.OptionRecord{
				{StrikePrice: 100, ExpiryDate: "25-Jan-2024", CE: &models.OptionLeg{
					OpenInterest:      null.FloatFrom(7),
					TotalTradedVolume: null.IntFrom(12),
					LastPrice:         null.FloatFrom(1.5),
				}},
			},
			Timestamp:       "19-Jan-2024 15:30:00",
			UnderlyingValue: 100,
		}

		table := PrepareOptionChain(doc)
		require.Len(t, table, 1)

		row := table[0]
		assert.False(t, row.PEOpenInterest.Valid)
		assert.False(t, row.PEChangeInOpenInterest.Valid)
		assert.False(t, row.PEPChangeInOpenInterest.Valid)
		assert.False(t, row.PETotalTradedVolume.Valid)
		assert.False(t, row.PEImpliedVolatility.Valid)
		assert.False(t, row.PELastPrice.Valid)
		assert.False(t, row.PEChange.Valid)
		assert.False(t, row.PEPChange.Valid)

		assert.Equal(t, null.FloatFrom(7), row.CEOpenInterest)
		assert.Equal(t, null.IntFrom(12), row.CETotalTradedVolume)
		assert.Equal(t, 0.0, row.PESum)
		assert.Equal(t, models.Ratio(0), row.PCR)
	})

	t.Run("zero call open interest gives an infinite ratio", func(t *testing.T) {
		doc := &models.ChainDocument{
			Records: []models.OptionRecord{
				{StrikePrice: 100, PE: leg(10), CE: leg(0)},
			},
		}

		table := PrepareOptionChain(doc)
		assert.True(t, math.IsInf(float64(table[0].PCR), 1))
	})

	t.Run("no open interest at all gives NaN", func(t *testing.T) {
		doc := &models.ChainDocument{
			Records: []models.OptionRecord{{StrikePrice: 100}},
		}

		table := PrepareOptionChain(doc)
		assert.True(t, math.IsNaN(float64(table[0].PCR)))
	})

	t.Run("rows are sorted by strike and reindexed", func(t *testing.T) {
		doc := &models.ChainDocument{
			Records: []models.OptionRecord{
				{StrikePrice: 300, PE: leg(1), CE: leg(1)},
				{StrikePrice: 100, PE: leg(1), CE: leg(1)},
				{StrikePrice: 200, PE: leg(1), CE: leg(1)},
			},
		}

		table := PrepareOptionChain(doc)

		var strikes []int64
		for i, row := range table {
			strikes = append(strikes, row.StrikePrice)
			assert.Equal(t, i, row.Index)
		}

		assert.Equal(t, []int64{100, 200, 300}, strikes)
	})
}

const optionChainPayload = `{
	"records": {"timestamp": "19-Jan-2024 15:30:00", "underlyingValue": 2021.55, "data": []},
	"filtered": {
		"data": [
			{"strikePrice": 2050, "expiryDate": "25-Jan-2024",
			 "CE": {"openInterest": 5, "changeinOpenInterest": 1, "pchangeinOpenInterest": 25.0,
			        "totalTradedVolume": 40, "impliedVolatility": 18.2, "lastPrice": 3.1,
			        "change": -0.4, "pChange": -11.4, "strikePrice": 2050}},
			{"strikePrice": 2000, "expiryDate": "25-Jan-2024",
			 "PE": {"openInterest": 10, "changeinOpenInterest": 2, "pchangeinOpenInterest": 20,
			        "totalTradedVolume": 100, "impliedVolatility": 17.5, "lastPrice": 12.4,
			        "change": 1.1, "pChange": 9.7},
			 "CE": {"openInterest": 5, "changeinOpenInterest": 0, "pchangeinOpenInterest": 0,
			        "totalTradedVolume": 80, "impliedVolatility": 16.1, "lastPrice": 30.05,
			        "change": 2.0, "pChange": 7.1}}
		]
	}
}`

func TestFetchOptionChain(t *testing.T) {
	t.Run("assembles a table from the raw payload", func(t *testing.T) {
		fetcher := staticFetcher(optionChainPayload)
		svc := NewOptionChainService(fetcher, optionChainURL)

		result := svc.FetchOptionChain(context.Background(), "M&M")
		require.True(t, result.Found())
		require.NoError(t, result.Reason)

		assert.Equal(t, []string{optionChainURL + "M%26M"}, fetcher.calls())

		table := result.Table
		require.Len(t, table, 2)
		assert.Equal(t, int64(2000), table[0].StrikePrice)
		assert.Equal(t, int64(2050), table[1].StrikePrice)
		assert.Equal(t, 0, table[0].Index)
		assert.Equal(t, 1, table[1].Index)

		assert.False(t, table[1].PEOpenInterest.Valid)
		assert.Equal(t, null.IntFrom(40), table[1].CETotalTradedVolume)

		for _, row := range table {
			assert.Equal(t, 10.0, row.PESum)
			assert.Equal(t, 10.0, row.CESum)
			assert.Equal(t, models.Ratio(1.0), row.PCR)
			assert.Equal(t, 2021.55, row.Underlying)
			assert.Equal(t, "19-Jan-2024 15:30:00", row.Datetime)
		}
	})

	t.Run("fetch failure is an empty result", func(t *testing.T) {
		svc := NewOptionChainService(failingFetcher(), optionChainURL)

		result := svc.FetchOptionChain(context.Background(), "NIFTY")
		assert.False(t, result.Found())
		assert.Nil(t, result.Table)
		assert.ErrorIs(t, result.Reason, models.FetchErr)
	})

	t.Run("missing side channel is an empty result", func(t *testing.T) {
		svc := NewOptionChainService(staticFetcher(`{"filtered": {"data": []}}`), optionChainURL)

		result := svc.FetchOptionChain(context.Background(), "NIFTY")
		assert.False(t, result.Found())
		assert.ErrorIs(t, result.Reason, models.SchemaErr)
	})

	t.Run("empty upstream object is an empty result", func(t *testing.T) {
		svc := NewOptionChainService(staticFetcher(`{}`), optionChainURL)

		result := svc.FetchOptionChain(context.Background(), "BANKNIFTY")
		assert.False(t, result.Found())
		assert.ErrorIs(t, result.Reason, models.SchemaErr)
	})
}
