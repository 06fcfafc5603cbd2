package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ops-agent/internal/compose"
	"ops-agent/internal/metrics"
)

// OutputFormat selects how command results are printed.
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

func parseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatHuman:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderAttachment prints a table as aligned columns and a chart as one
// labelled value per line.
func renderAttachment(w io.Writer, a *compose.Attachment) {
	if a == nil {
		return
	}
	switch a.Kind {
	case compose.AttachmentTable:
		if a.Table != nil {
			renderTable(w, a.Table)
		}
	case compose.AttachmentChart:
		if a.Chart != nil {
			renderChart(w, a.Chart)
		}
	}
}

func renderTable(w io.Writer, t *compose.TableData) {
	fmt.Fprintf(w, "\n%s\n", t.Title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	labels := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		labels[i] = c.Label
	}
	fmt.Fprintln(tw, strings.Join(labels, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func renderChart(w io.Writer, c *compose.ChartConfig) {
	fmt.Fprintf(w, "\n%s (%s chart)\n", c.Title, c.ChartType)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range c.Series {
		for _, p := range s.Data {
			fmt.Fprintf(tw, "%s\t%s\n", p.Label, metrics.FormatInt(int(p.Value)))
		}
	}
	tw.Flush()
}
