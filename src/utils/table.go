package utils

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RenderTable formats rows into an aligned terminal table.
func RenderTable(header []string, rows [][]string) string {
	display := &strings.Builder{}

	table := tablewriter.NewWriter(display)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnSeparator("")

	for _, row := range rows {
		table.Append(row)
	}

	table.Render()
	return display.String()
}

// Dollars formats a dollar amount with thousands separators.
func Dollars(v float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("$%.2f", v)
}

// Percent formats a fraction as a percentage with one decimal.
func Percent(v float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.1f%%", v*100)
}
