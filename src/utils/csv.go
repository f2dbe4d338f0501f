package utils

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// ExportToCsv writes rows (a slice of csv-tagged structs) to w.
func ExportToCsv(w io.Writer, rows interface{}) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("ExportToCsv: failed to marshal rows: %w", err)
	}

	return nil
}

// UnmarshalCsv decodes data into out after trimming whitespace around the
// header names. Some exchange files pad their column names.
func UnmarshalCsv(data []byte, out interface{}) error {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	header, rest, _ := bytes.Cut(data, []byte("\n"))
	columns := strings.Split(strings.TrimRight(string(header), "\r"), ",")
	for i, c := range columns {
		columns[i] = strings.TrimSpace(c)
	}

	normalized := append([]byte(strings.Join(columns, ",")+"\n"), rest...)

	if err := gocsv.UnmarshalBytes(normalized, out); err != nil {
		return fmt.Errorf("UnmarshalCsv: %w", err)
	}

	return nil
}
