package tabular

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table is an ordered set of rows under a fixed header. the export
// pipeline produces one and hands it off, it never touches files or
// terminals itself.
type Table struct {
	Header []string
	Rows   [][]string
}

type Writer interface {
	Write(ctx context.Context, t Table) error
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}

func render(t Table) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(toRow(t.Header))
	for _, row := range t.Rows {
		tw.AppendRow(toRow(row))
	}
	return tw
}

// CsvWriter renders the table as CSV into a file.
type CsvWriter struct {
	Path string
}

func (w CsvWriter) Write(ctx context.Context, t Table) error {
	f, err := os.Create(w.Path)
	if err != nil {
		return err
	}

	tw := render(t)
	tw.SetOutputMirror(f)
	tw.RenderCSV()
	return f.Close()
}

// ConsoleWriter pretty-prints the table to stdout.
type ConsoleWriter struct{}

func (w ConsoleWriter) Write(ctx context.Context, t Table) error {
	tw := render(t)
	tw.SetStyle(table.StyleRounded)
	tw.SetOutputMirror(os.Stdout)
	tw.Render()
	return nil
}

// NewTable is the house style for ad-hoc CLI tables.
func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
