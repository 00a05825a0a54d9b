package report

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	_ "modernc.org/sqlite"
)

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %w", err)
	}
	return os.Create(path)
}

// WriteCSV writes the table with a header row
func WriteCSV(path string, t Table) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return f.Close()
}

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
)

// FormatLaTeX renders a tabular environment without index column. Floats
// have two decimals, text columns are left aligned and numeric columns right
// aligned.
func FormatLaTeX(t Table) string {
	var b strings.Builder

	align := make([]byte, len(t.Columns))
	for i := range t.Columns {
		align[i] = 'r'
		for _, row := range t.Rows {
			if _, ok := row[i].(string); ok {
				align[i] = 'l'
				break
			}
		}
	}

	fmt.Fprintf(&b, "\\begin{tabular}{%s}\n", align)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = latexEscaper.Replace(c)
	}
	b.WriteString(strings.Join(header, " & ") + " \\\\\n")

	cells := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			switch x := v.(type) {
			case float64:
				if math.IsNaN(x) {
					cells[i] = "nan"
				} else {
					cells[i] = fmt.Sprintf("%.2f", x)
				}
			default:
				cells[i] = latexEscaper.Replace(formatCell(x))
			}
		}
		b.WriteString(strings.Join(cells, " & ") + " \\\\\n")
	}
	b.WriteString("\\end{tabular}\n")
	return b.String()
}

// WriteLaTeX writes FormatLaTeX(t) to path
func WriteLaTeX(path string, t Table) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(FormatLaTeX(t)); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// sqlType picks the column affinity from the first non-nil cell
func sqlType(t Table, col int) string {
	for _, row := range t.Rows {
		switch row[col].(type) {
		case int:
			return "INTEGER"
		case float64:
			return "REAL"
		case string:
			return "TEXT"
		}
	}
	return "TEXT"
}

// WriteSQLite stores each table in the database at path, replacing tables of
// the same name. NaN is stored as NULL.
func WriteSQLite(path string, tables ...Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range tables {
		if err := writeSQLiteTable(tx, t); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	return tx.Commit()
}

func writeSQLiteTable(tx *sql.Tx, t Table) error {
	name := quoteIdent(t.Name)
	if _, err := tx.Exec("DROP TABLE IF EXISTS " + name); err != nil {
		return err
	}

	defs := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = quoteIdent(c) + " " + sqlType(t, i)
		marks[i] = "?"
	}
	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))); err != nil {
		return err
	}

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]interface{}, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				v = nil
			}
			args[i] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return nil
}

// WriteParquet writes rows as a zstd compressed Parquet file. The schema is
// derived from the parquet tags of T.
func WriteParquet[T any](path string, rows []T) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pw := parquet.NewGenericWriter[T](f, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return f.Close()
}
