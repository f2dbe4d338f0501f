package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingRow struct {
	Symbol string `csv:"SYMBOL"`
	Series string `csv:"SERIES"`
}

type legRow struct {
	Strike       int64      `csv:"strikePrice"`
	OpenInterest null.Float `csv:"PE.openInterest"`
}

func TestUnmarshalCsv(t *testing.T) {
	t.Run("padded headers and byte order mark", func(t *testing.T) {
		data := "\xef\xbb\xbfSYMBOL, SERIES \r\nINFY,EQ\r\nM&M,EQ\r\n"

		var rows []*listingRow
		require.NoError(t, UnmarshalCsv([]byte(data), &rows))
		require.Len(t, rows, 2)

		assert.Equal(t, "INFY", rows[0].Symbol)
		assert.Equal(t, "EQ", rows[0].Series)
		assert.Equal(t, "M&M", rows[1].Symbol)
	})

	t.Run("ragged row", func(t *testing.T) {
		var rows []*listingRow
		err := UnmarshalCsv([]byte("SYMBOL,SERIES\nINFY\n"), &rows)
		assert.Error(t, err)
	})
}

func TestExportToCsv(t *testing.T) {
	rows := []legRow{
		{Strike: 100, OpenInterest: null.FloatFrom(12.5)},
		{Strike: 200},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportToCsv(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"strikePrice,PE.openInterest", "100,12.5", "200,"}, lines)
}
