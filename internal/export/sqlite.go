package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mwiater/thematic/internal/records"
)

// WriteSQLite replaces table.Name in the database at path with the table's
// rows, inside one transaction. Column types come from the first non-nil
// value in each column.
func WriteSQLite(path string, table records.Table) error {
	if strings.TrimSpace(table.Name) == "" {
		return &records.InputError{Op: "export sqlite", Key: "name", Reason: "table name is required"}
	}
	if len(table.Columns) == 0 {
		return &records.InputError{Op: "export sqlite", Key: table.Name, Reason: "table has no columns"}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	name := quoteIdent(table.Name)
	if _, err := tx.Exec(`DROP TABLE IF EXISTS ` + name); err != nil {
		return fmt.Errorf("drop %s: %w", table.Name, err)
	}

	defs := make([]string, len(table.Columns))
	cols := make([]string, len(table.Columns))
	marks := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		cols[i] = quoteIdent(col)
		defs[i] = cols[i] + " " + columnType(table, i)
		marks[i] = "?"
	}
	if _, err := tx.Exec(fmt.Sprintf(`CREATE TABLE %s (%s)`, name, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create %s: %w", table.Name, err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, name, strings.Join(cols, ", "), strings.Join(marks, ",")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for r, row := range table.Rows {
		args := make([]any, len(table.Columns))
		for i := range table.Columns {
			if i < len(row) {
				args[i] = sqlValue(row[i])
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert row %d: %w", r, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CountRows returns the number of rows in a table of the database at path.
func CountRows(path, table string) (int, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("open sqlite: %w", err)
	}
	defer conn.Close()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM ` + quoteIdent(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func columnType(table records.Table, col int) string {
	for _, row := range table.Rows {
		if col >= len(row) || row[col] == nil {
			continue
		}
		switch row[col].(type) {
		case int, int32, int64, bool:
			return "INTEGER"
		case float32, float64:
			return "REAL"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}

func sqlValue(v any) any {
	switch x := v.(type) {
	case nil, string, int, int32, int64, bool, []byte:
		return x
	case float32, float64:
		return jsonSafe(x)
	default:
		return cellString(x)
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
