package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainDocument(t *testing.T, body string) (*ChainDocument, error) {
	dto, err := ParseOptionChainResponse([]byte(body))
	require.NoError(t, err)

	return dto.ToChainDocument()
}

func TestToChainDocument(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc, err := chainDocument(t, `{
			"records": {"timestamp": "19-Jan-2024 15:30:00", "underlyingValue": "21622.40"},
			"filtered": {"data": [
				{"strikePrice": 21600.0, "expiryDate": "25-Jan-2024",
				 "PE": {"openInterest": 1200, "totalTradedVolume": 3400.0, "impliedVolatility": 12.5},
				 "CE": {"openInterest": 800, "lastPrice": 95.3}}
			]}
		}`)
		require.NoError(t, err)

		assert.Equal(t, "19-Jan-2024 15:30:00", doc.Timestamp)
		assert.Equal(t, 21622.40, doc.UnderlyingValue)
		require.Len(t, doc.Records, 1)

		r := doc.Records[0]
		assert.Equal(t, int64(21600), r.StrikePrice)
		assert.Equal(t, null.FloatFrom(1200), r.PE.OpenInterest)
		assert.Equal(t, null.IntFrom(3400), r.PE.TotalTradedVolume)
		assert.False(t, r.PE.LastPrice.Valid)
		assert.Equal(t, null.FloatFrom(95.3), r.CE.LastPrice)
	})

	t.Run("absent leg stays nil", func(t *testing.T) {
		doc, err := chainDocument(t, `{
			"records": {"timestamp": "t", "underlyingValue": 1},
			"filtered": {"data": [{"strikePrice": 100, "expiryDate": "e", "CE": {"openInterest": 1}}]}
		}`)
		require.NoError(t, err)
		assert.Nil(t, doc.Records[0].PE)
		assert.NotNil(t, doc.Records[0].CE)
	})

	for name, body := range map[string]string{
		"missing filtered data":     `{"records": {"timestamp": "t", "underlyingValue": 1}}`,
		"missing records":           `{"filtered": {"data": []}}`,
		"missing timestamp":         `{"records": {"underlyingValue": 1}, "filtered": {"data": []}}`,
		"missing underlying":        `{"records": {"timestamp": "t"}, "filtered": {"data": []}}`,
		"missing strike":            `{"records": {"timestamp": "t", "underlyingValue": 1}, "filtered": {"data": [{"expiryDate": "e"}]}}`,
		"missing expiry":            `{"records": {"timestamp": "t", "underlyingValue": 1}, "filtered": {"data": [{"strikePrice": 1}]}}`,
		"fractional strike":         `{"records": {"timestamp": "t", "underlyingValue": 1}, "filtered": {"data": [{"strikePrice": 1.5, "expiryDate": "e"}]}}`,
		"fractional volume":         `{"records": {"timestamp": "t", "underlyingValue": 1}, "filtered": {"data": [{"strikePrice": 1, "expiryDate": "e", "PE": {"totalTradedVolume": 2.5}}]}}`,
		"string open interest":      `{"records": {"timestamp": "t", "underlyingValue": 1}, "filtered": {"data": [{"strikePrice": 1, "expiryDate": "e", "CE": {"openInterest": "many"}}]}}`,
		"duplicate strike":          `{"records": {"timestamp": "t", "underlyingValue": 1}, "filtered": {"data": [{"strikePrice": 1, "expiryDate": "e"}, {"strikePrice": 1, "expiryDate": "e"}]}}`,
		"non numeric underlying":    `{"records": {"timestamp": "t", "underlyingValue": "n/a"}, "filtered": {"data": []}}`,
		"record is not an object":   `{"records": {"timestamp": "t", "underlyingValue": 1}, "filtered": {"data": [42]}}`,
	} {
		body := body
		t.Run(name, func(t *testing.T) {
			dto, err := ParseOptionChainResponse([]byte(body))
			if err == nil {
				_, err = dto.ToChainDocument()
			}

			assert.ErrorIs(t, err, SchemaErr)
		})
	}
}

func TestRatioMarshalJSON(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want string
	}{
		{3, `3`},
		{0.5, `0.5`},
		{math.Inf(1), `"+Inf"`},
		{math.Inf(-1), `"-Inf"`},
		{math.NaN(), `"NaN"`},
	} {
		b, err := json.Marshal(Ratio(tc.in))
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(b))
	}
}
