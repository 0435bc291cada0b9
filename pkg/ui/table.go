package ui

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// RenderTable writes rows under header as a bordered table
func RenderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(toAny(header)...)
	for _, row := range rows {
		if err := table.Append(toAny(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintTable renders a table to the regular output
func PrintTable(header []string, rows [][]string) error {
	return RenderTable(writer(), header, rows)
}

func toAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
