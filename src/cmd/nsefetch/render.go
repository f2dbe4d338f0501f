package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/guregu/null/v6"
	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jiaming2012/nsefetch/src/models"
	"github.com/jiaming2012/nsefetch/src/utils"
)

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

func parseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: expected table, csv or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOptionChain(w io.Writer, table models.OptionChainTable, format Format) error {
	switch format {
	case FormatCSV:
		return utils.ExportToCsv(w, table)
	case FormatJSON:
		return writeJSON(w, table)
	}

	p := message.NewPrinter(language.English)

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"PE OI", "PE Chg OI", "PE Vol", "PE IV", "PE LTP", "Strike", "CE LTP", "CE IV", "CE Vol", "CE Chg OI", "CE OI"})
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, row := range table {
		tw.Append([]string{
			formatFloat(p, row.PEOpenInterest, 0),
			formatFloat(p, row.PEChangeInOpenInterest, 0),
			formatInt(p, row.PETotalTradedVolume),
			formatFloat(p, row.PEImpliedVolatility, 2),
			formatFloat(p, row.PELastPrice, 2),
			p.Sprintf("%d", row.StrikePrice),
			formatFloat(p, row.CELastPrice, 2),
			formatFloat(p, row.CEImpliedVolatility, 2),
			formatInt(p, row.CETotalTradedVolume),
			formatFloat(p, row.CEChangeInOpenInterest, 0),
			formatFloat(p, row.CEOpenInterest, 0),
		})
	}

	tw.Render()

	if len(table) > 0 {
		first := table[0]
		fmt.Fprintf(w, "Expiry: %s\n", first.ExpiryDate)
		fmt.Fprintf(w, "Underlying: %s as of %s\n", p.Sprintf("%.2f", first.Underlying), first.Datetime)
		fmt.Fprintf(w, "PE.sum: %s  CE.sum: %s  PCR: %.4f\n", p.Sprintf("%.0f", first.PESum), p.Sprintf("%.0f", first.CESum), float64(first.PCR))
	}

	return nil
}

func writeCandles(w io.Writer, table models.EquityTable, format Format) error {
	switch format {
	case FormatCSV:
		return utils.ExportToCsv(w, table)
	case FormatJSON:
		return writeJSON(w, table)
	}

	p := message.NewPrinter(language.English)

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"#", "Date", "Open", "High", "Low", "Close", "Prev Close", "Traded Value", "VWAP"})
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, c := range table {
		tw.Append([]string{
			p.Sprintf("%d", c.Index),
			c.Datetime.Format("2006-01-02"),
			p.Sprintf("%.2f", c.Open),
			p.Sprintf("%.2f", c.High),
			p.Sprintf("%.2f", c.Low),
			p.Sprintf("%.2f", c.Close),
			p.Sprintf("%.2f", c.PrevClose),
			p.Sprintf("%.2f", c.Volume),
			p.Sprintf("%.2f", c.VWAP),
		})
	}

	tw.Render()

	if meanClose, err := stats.Mean(table.Closes()); err == nil {
		meanVWAP, _ := stats.Mean(table.VWAPs())
		fmt.Fprintf(w, "Rows: %d  Mean close: %s  Mean VWAP: %s\n", len(table), p.Sprintf("%.2f", meanClose), p.Sprintf("%.2f", meanVWAP))
	} else {
		fmt.Fprintln(w, "Rows: 0")
	}

	return nil
}

func writeListings(w io.Writer, listings []models.EquityListing, format Format) error {
	switch format {
	case FormatCSV:
		return utils.ExportToCsv(w, listings)
	case FormatJSON:
		return writeJSON(w, listings)
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Symbol", "Name", "Listed", "ISIN"})

	for _, l := range listings {
		tw.Append([]string{l.Symbol, l.Name, l.DateOfListing.Format(models.ListingDateLayout), l.ISIN})
	}

	tw.Render()
	return nil
}

func formatFloat(p *message.Printer, v null.Float, precision int) string {
	if !v.Valid {
		return "-"
	}

	return p.Sprintf(fmt.Sprintf("%%.%df", precision), v.Float64)
}

func formatInt(p *message.Printer, v null.Int) string {
	if !v.Valid {
		return "-"
	}

	return p.Sprintf("%d", v.Int64)
}
