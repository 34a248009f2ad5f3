package commands

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// renderTable writes rows under headers as an aligned table
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w)

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	table.Header(header...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return fmt.Errorf("failed to build table: %w", err)
		}
	}
	return table.Render()
}
