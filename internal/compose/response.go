// Package compose renders analytical figures into the engine's response: a
// natural-language text plus at most one table or chart attachment.
package compose

// AttachmentKind says which payload an Attachment carries.
type AttachmentKind string

const (
	AttachmentNone  AttachmentKind = "none"
	AttachmentTable AttachmentKind = "table"
	AttachmentChart AttachmentKind = "chart"
)

// Response is the answer to one query. Text is never empty.
type Response struct {
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Kind returns the attachment kind, AttachmentNone when there is none.
func (r Response) Kind() AttachmentKind {
	if r.Attachment == nil {
		return AttachmentNone
	}
	return r.Attachment.Kind
}

// Attachment holds exactly one of Table or Chart, matching Kind.
type Attachment struct {
	Kind  AttachmentKind `json:"kind"`
	Table *TableData     `json:"table,omitempty"`
	Chart *ChartConfig   `json:"chart,omitempty"`
}

// TableData is a render-ready table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Column describes one table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text" or "number"
	Align string `json:"align"` // "left" or "right"
}

// ChartConfig is a render-ready chart.
type ChartConfig struct {
	ChartType string        `json:"chartType"` // "bar" or "pie"
	Title     string        `json:"title"`
	XAxis     string        `json:"xAxis,omitempty"`
	YAxis     string        `json:"yAxis,omitempty"`
	Series    []ChartSeries `json:"series"`
}

type ChartSeries struct {
	Name string       `json:"name"`
	Data []ChartPoint `json:"data"`
}

type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

func tableAttachment(t *TableData) *Attachment {
	return &Attachment{Kind: AttachmentTable, Table: t}
}

func chartAttachment(c *ChartConfig) *Attachment {
	return &Attachment{Kind: AttachmentChart, Chart: c}
}

func textColumn(key, label string) Column {
	return Column{Key: key, Label: label, Type: "text", Align: "left"}
}

func numberColumn(key, label string) Column {
	return Column{Key: key, Label: label, Type: "number", Align: "right"}
}
