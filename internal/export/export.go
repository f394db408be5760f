// Package export writes result tables to disk in the format implied by the
// file extension.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mwiater/thematic/internal/records"
)

// Format names an output encoding.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatJSONL  Format = "jsonl"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// FormatFor maps a path's extension to a Format.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", &records.InputError{Op: "export", Key: path, Reason: "unsupported extension (want .csv, .json, .jsonl, .yaml, .yml, .db or .sqlite)"}
	}
}

// Write stores table at path. SQLite files gain or replace a table named
// after table.Name; every other format overwrites the file.
func Write(path string, table records.Table) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	if format == FormatSQLite {
		return WriteSQLite(path, table)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, format, table); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Encode writes table to w in a text format.
func Encode(w io.Writer, format Format, table records.Table) error {
	switch format {
	case FormatCSV:
		return encodeCSV(w, table)
	case FormatJSON:
		return encodeJSON(w, table)
	case FormatJSONL:
		return encodeJSONL(w, table)
	case FormatYAML:
		return encodeYAML(w, table)
	default:
		return fmt.Errorf("export: format %q cannot be streamed", format)
	}
}

func encodeCSV(w io.Writer, table records.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	for _, row := range table.Rows {
		out := make([]string, len(table.Columns))
		for i := range table.Columns {
			if i < len(row) {
				out[i] = cellString(row[i])
			}
		}
		if err := cw.Write(out); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeJSON(w io.Writer, table records.Table) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range table.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		obj, err := orderedObject(table.Columns, row)
		if err != nil {
			return err
		}
		buf.Write(obj)
	}
	buf.WriteByte(']')

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf.Bytes(), "", "    "); err != nil {
		return err
	}
	pretty.WriteByte('\n')
	_, err := w.Write(pretty.Bytes())
	return err
}

func encodeJSONL(w io.Writer, table records.Table) error {
	for _, row := range table.Rows {
		obj, err := orderedObject(table.Columns, row)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(obj, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// orderedObject encodes one row as a JSON object whose keys follow column order.
func orderedObject(columns []string, row []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		var cell any
		if i < len(row) {
			cell = jsonSafe(row[i])
		}
		val, err := json.Marshal(cell)
		if err != nil {
			return nil, fmt.Errorf("export: column %q: %w", col, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeYAML(w io.Writer, table records.Table) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range table.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, col := range table.Columns {
			var cell any
			if i < len(row) {
				cell = row[i]
			}
			val := &yaml.Node{}
			if err := val.Encode(cell); err != nil {
				return fmt.Errorf("export: column %q: %w", col, err)
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: col}, val)
		}
		seq.Content = append(seq.Content, m)
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{seq}}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// jsonSafe maps non-finite floats, which JSON cannot carry, to null.
func jsonSafe(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
