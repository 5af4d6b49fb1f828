// Package render formats a table.Table into the five output forms
// spec.md §6.1 lists for -f: table, json, csv, markdown, html. The
// "table" form uses github.com/olekukonko/tablewriter (present in the
// example pack's dependency set); the others are simple enough that no
// additional library earns its keep -- see DESIGN.md.
package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/Funz/fz-sub001/internal/table"
)

// Format selects the output rendering.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat defaults to FormatTable for an empty or unrecognized
// string.
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatMarkdown, FormatHTML:
		return Format(s)
	default:
		return FormatTable
	}
}

// Render writes t in the requested format.
func Render(t table.Table, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(t)
	case FormatCSV:
		return renderCSV(t)
	case FormatMarkdown:
		return renderMarkdown(t), nil
	case FormatHTML:
		return renderHTML(t), nil
	default:
		return renderTable(t), nil
	}
}

func rowCount(t table.Table) int {
	for _, col := range t.Columns {
		return len(t.Values[col])
	}
	return 0
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func renderTable(t table.Table) string {
	var buf bytes.Buffer
	w := tablewriter.NewWriter(&buf)
	w.SetHeader(t.Columns)
	n := rowCount(t)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = cell(t.Values[col][i])
		}
		w.Append(row)
	}
	w.Render()
	return buf.String()
}

func renderJSON(t table.Table) (string, error) {
	n := rowCount(t)
	rows := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		row := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			row[col] = t.Values[col][i]
		}
		rows[i] = row
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func renderCSV(t table.Table) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return "", err
	}
	n := rowCount(t)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = cell(t.Values[col][i])
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

func renderMarkdown(t table.Table) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Columns)) + "\n")
	n := rowCount(t)
	for i := 0; i < n; i++ {
		cells := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			cells[j] = cell(t.Values[col][i])
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func renderHTML(t table.Table) string {
	var b strings.Builder
	b.WriteString("<table>\n<thead><tr>")
	for _, col := range t.Columns {
		b.WriteString("<th>" + html.EscapeString(col) + "</th>")
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	n := rowCount(t)
	for i := 0; i < n; i++ {
		b.WriteString("<tr>")
		for _, col := range t.Columns {
			b.WriteString("<td>" + html.EscapeString(cell(t.Values[col][i])) + "</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n")
	return b.String()
}
