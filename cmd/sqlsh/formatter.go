package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smflabs/sqlglue/internal/glue"
	"github.com/smflabs/sqlglue/internal/value"
)

// Format is an enum type representing the available output formats,
// generalizing output.Format (smf's internal/output/formatter.go) from its
// fixed sql/json/summary trio down to the two shapes a Payload actually
// has: a human-readable table and a machine-readable document.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
)

// Formatter renders a glue.Payload, mirroring output.Formatter's
// single-method-per-result-kind shape collapsed to Payload's one kind.
type Formatter interface {
	FormatPayload(*glue.Payload) (string, error)
}

// NewFormatter creates a new Formatter based on name, defaulting to human
// when unspecified, matching output.NewFormatter's default-to-SQL rule.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatHuman:
		return humanFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'human' or 'json'", name)
	}
}

type humanFormatter struct{}

func (humanFormatter) FormatPayload(p *glue.Payload) (string, error) {
	if p == nil {
		return "", nil
	}
	if len(p.Columns) == 0 {
		return fmt.Sprintf("%d row(s) affected\n", p.Affected), nil
	}

	widths := make([]int, len(p.Columns))
	for i, c := range p.Columns {
		widths[i] = len(c.Name)
	}
	cells := make([][]string, len(p.Rows))
	for r, row := range p.Rows {
		cells[r] = make([]string, len(row))
		for i, v := range row {
			cells[r][i] = cellText(v)
			if len(cells[r][i]) > widths[i] {
				widths[i] = len(cells[r][i])
			}
		}
	}

	var b strings.Builder
	writeRow(&b, widths, func(i int) string { return p.Columns[i].Name })
	for _, row := range cells {
		i := -1
		writeRow(&b, widths, func(idx int) string { i = idx; return row[i] })
	}
	fmt.Fprintf(&b, "(%d row(s))\n", len(p.Rows))
	return b.String(), nil
}

func writeRow(b *strings.Builder, widths []int, cellAt func(int) string) {
	for i, w := range widths {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(b, "%-*s", w, cellAt(i))
	}
	b.WriteByte('\n')
}

func cellText(v value.Value) string {
	if value.IsNull(v) {
		return "NULL"
	}
	if s, ok := v.(value.Str); ok {
		return string(s)
	}
	return v.SQL()
}

type jsonFormatter struct{}

type payloadDoc struct {
	Columns  []string `json:"columns,omitempty"`
	Rows     [][]any  `json:"rows,omitempty"`
	Affected int64    `json:"affected"`
}

func (jsonFormatter) FormatPayload(p *glue.Payload) (string, error) {
	doc := payloadDoc{}
	if p != nil {
		doc.Affected = p.Affected
		for _, c := range p.Columns {
			doc.Columns = append(doc.Columns, c.Name)
		}
		for _, row := range p.Rows {
			jr := make([]any, len(row))
			for i, v := range row {
				jr[i] = cellJSON(v)
			}
			doc.Rows = append(doc.Rows, jr)
		}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func cellJSON(v value.Value) any {
	if value.IsNull(v) {
		return nil
	}
	if s, ok := v.(value.Str); ok {
		return string(s)
	}
	return v.SQL()
}
