package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vinodismyname/fuelprice/internal/aggregate"
	_ "modernc.org/sqlite"
)

// WriteSQLite stores rep in the sqlite database at path, one table per
// result set. Existing tables of the same name are replaced. Everything is
// written in a single transaction.
func WriteSQLite(ctx context.Context, path string, rep *aggregate.Report) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("export: open sqlite: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, t := range tables(rep) {
		if err = writeTable(ctx, tx, t); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("export: commit: %w", err)
	}
	return nil
}

func writeTable(ctx context.Context, tx *sql.Tx, t table) error {
	defs := make([]string, len(t.cols))
	names := make([]string, len(t.cols))
	marks := make([]string, len(t.cols))
	for i, c := range t.cols {
		defs[i] = fmt.Sprintf("%q %s", c.name, c.sqlType)
		names[i] = fmt.Sprintf("%q", c.name)
		marks[i] = "?"
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, t.name)); err != nil {
		return fmt.Errorf("export: drop %s: %w", t.name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, t.name, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("export: create %s: %w", t.name, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		t.name, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("export: prepare %s: %w", t.name, err)
	}
	defer stmt.Close()

	for _, row := range t.rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("export: insert %s: %w", t.name, err)
		}
	}
	return nil
}
