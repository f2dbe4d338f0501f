package main

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/nsefetch/src/models"
)

func sampleChain() models.OptionChainTable {
	return models.OptionChainTable{
		{
			Index: 0, StrikePrice: 21500, ExpiryDate: "25-Jan-2024",
			PEOpenInterest: null.FloatFrom(1200), CEOpenInterest: null.FloatFrom(400),
			PESum: 1200, CESum: 400, PCR: 3, Datetime: "19-Jan-2024 15:30:00", Underlying: 21622.4,
		},
		{
			Index: 1, StrikePrice: 21600, ExpiryDate: "25-Jan-2024",
			PESum: 1200, CESum: 400, PCR: 3, Datetime: "19-Jan-2024 15:30:00", Underlying: 21622.4,
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "csv", "json"} {
		f, err := parseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}

	_, err := parseFormat("xml")
	assert.Error(t, err)
}

func TestWriteOptionChain(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOptionChain(&buf, sampleChain(), FormatTable))

		out := buf.String()
		assert.Contains(t, out, "21,500")
		assert.Contains(t, out, "1,200")
		assert.Contains(t, out, "PCR: 3.0000")
		assert.Contains(t, out, "Underlying: 21,622.40")
	})

	t.Run("csv keeps dotted columns", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOptionChain(&buf, sampleChain(), FormatCSV))

		header := strings.SplitN(buf.String(), "\n", 2)[0]
		assert.Contains(t, header, "PE.openInterest")
		assert.Contains(t, header, "CE.sum")
		assert.Contains(t, header, "PCR")
	})

	t.Run("json with an infinite ratio", func(t *testing.T) {
		table := sampleChain()
		for i := range table {
			table[i].PCR = models.Ratio(math.Inf(1))
		}

		var buf bytes.Buffer
		require.NoError(t, writeOptionChain(&buf, table, FormatJSON))

		var rows []map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
		require.Len(t, rows, 2)
		assert.Equal(t, "+Inf", rows[0]["PCR"])
		assert.Nil(t, rows[1]["PE.openInterest"])
	})
}

func TestWriteCandles(t *testing.T) {
	table := models.EquityTable{
		{Index: 0, Symbol: "INFY", Datetime: time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), Close: 100, VWAP: 99},
		{Index: 1, Symbol: "INFY", Datetime: time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC), Close: 110, VWAP: 101},
	}

	t.Run("table with summary", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeCandles(&buf, table, FormatTable))

		out := buf.String()
		assert.Contains(t, out, "2021-01-05")
		assert.Contains(t, out, "Mean close: 105.00")
		assert.Contains(t, out, "Mean VWAP: 100.00")
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeCandles(&buf, models.EquityTable{}, FormatTable))
		assert.Contains(t, buf.String(), "Rows: 0")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeCandles(&buf, table, FormatCSV))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "index,symbol,datetime"))
	})
}
