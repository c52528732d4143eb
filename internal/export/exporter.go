package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/ethocode/internal/filelock"
)

// Exporter renders tables as one document.
type Exporter interface {
	Export(tables ...*Table) (string, error)
}

// Supported formats.
const (
	FormatTSV      = "tsv"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// ParseFormat normalizes a format name ("md" is an alias of markdown).
func ParseFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "md" {
		format = FormatMarkdown
	}
	switch format {
	case FormatTSV, FormatCSV, FormatJSON, FormatMarkdown, FormatHTML:
		return format, nil
	}
	return "", fmt.Errorf("invalid format '%s': must be one of: tsv, csv, json, markdown (or md), html", format)
}

// New returns the exporter for a format.
func New(format string) (Exporter, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatTSV:
		return &DelimitedExporter{Comma: '\t'}, nil
	case FormatCSV:
		return &DelimitedExporter{Comma: ','}, nil
	case FormatJSON:
		return &JSONExporter{Pretty: true}, nil
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	default:
		return &HTMLExporter{}, nil
	}
}

// ExportToString renders tables in format.
func ExportToString(format string, tables ...*Table) (string, error) {
	exp, err := New(format)
	if err != nil {
		return "", err
	}
	return exp.Export(tables...)
}

// ExportToFile renders tables in format and replaces path atomically.
func ExportToFile(path, format string, tables ...*Table) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	content, err := ExportToString(format, tables...)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return filelock.AtomicWrite(path, []byte(content))
}

// DelimitedExporter writes TSV or CSV. Tables are separated by a blank line and
// preceded by their title when they have one.
type DelimitedExporter struct {
	Comma rune
}

// Export writes the tables with encoding/csv quoting rules.
func (de *DelimitedExporter) Export(tables ...*Table) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = de.Comma

	for i, t := range tables {
		if i > 0 {
			if err := w.Write([]string{}); err != nil {
				return "", err
			}
		}
		if t.Title != "" {
			if err := w.Write([]string{t.Title}); err != nil {
				return "", err
			}
		}
		if err := w.Write(t.Header); err != nil {
			return "", err
		}
		for _, row := range t.Rows {
			rec := make([]string, len(row))
			for j, c := range row {
				rec[j] = cellText(c)
			}
			if err := w.Write(rec); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write delimited output: %w", err)
	}
	return buf.String(), nil
}

// JSONExporter writes a list of {"title", "rows"} objects; each row is an
// object keyed by the header, in column order.
type JSONExporter struct {
	Pretty bool
}

type jsonTable struct {
	Title string    `json:"title"`
	Rows  []jsonRow `json:"rows"`
}

type jsonRow struct {
	keys   []string
	values []interface{}
}

func (r jsonRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		var v interface{}
		if i < len(r.values) {
			v = r.values[i]
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Export converts the tables to JSON.
func (je *JSONExporter) Export(tables ...*Table) (string, error) {
	out := make([]jsonTable, 0, len(tables))
	for _, t := range tables {
		jt := jsonTable{Title: t.Title, Rows: make([]jsonRow, 0, len(t.Rows))}
		for _, row := range t.Rows {
			jt.Rows = append(jt.Rows, jsonRow{keys: jsonKeys(t.Header), values: row})
		}
		out = append(out, jt)
	}

	var data []byte
	var err error
	if je.Pretty {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// jsonKeys names the unnamed label column of a matrix.
func jsonKeys(header []string) []string {
	keys := make([]string, len(header))
	for i, h := range header {
		if h == "" {
			h = "from"
		}
		keys[i] = h
	}
	return keys
}

// MarkdownExporter writes GitHub-style pipe tables under "##" titles.
type MarkdownExporter struct{}

// Export converts the tables to Markdown.
func (me *MarkdownExporter) Export(tables ...*Table) (string, error) {
	var sb strings.Builder
	for i, t := range tables {
		if i > 0 {
			sb.WriteString("\n")
		}
		if t.Title != "" {
			sb.WriteString(fmt.Sprintf("## %s\n\n", t.Title))
		}
		writeMarkdownRow(&sb, t.Header)
		sep := make([]string, len(t.Header))
		for j := range sep {
			sep[j] = "---"
		}
		writeMarkdownRow(&sb, sep)
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for j, c := range row {
				cells[j] = cellText(c)
			}
			writeMarkdownRow(&sb, cells)
		}
	}
	return sb.String(), nil
}

func writeMarkdownRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		c = strings.ReplaceAll(c, "\n", " ")
		sb.WriteString(" " + c + " |")
	}
	sb.WriteString("\n")
}

// HTMLExporter renders the Markdown document to HTML with goldmark tables.
type HTMLExporter struct {
	markdown goldmark.Markdown
}

// Export converts the tables to an HTML fragment.
func (he *HTMLExporter) Export(tables ...*Table) (string, error) {
	if he.markdown == nil {
		he.markdown = goldmark.New(goldmark.WithExtensions(extension.Table))
	}
	md, err := (&MarkdownExporter{}).Export(tables...)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := he.markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.String(), nil
}
