package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Sink is the staging capability: it replaces or appends a named table
type Sink interface {
	ReplaceTable(ctx context.Context, t *Table) error
	AppendTable(ctx context.Context, t *Table) error
}

// DB wraps the staging database connection
type DB struct {
	*sql.DB
	driver string
}

// Connect establishes a connection to the staging database
func Connect(driver, dsn string) (*DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported staging driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// single writer; also keeps a ":memory:" database alive across calls
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, driver: driver}, nil
}

// Driver returns the database driver name
func (db *DB) Driver() string {
	return db.driver
}

// ReplaceTable drops and recreates the table, then loads its rows, all in
// one transaction
func (db *DB) ReplaceTable(ctx context.Context, t *Table) error {
	return db.stage(ctx, t, true)
}

// AppendTable creates the table if needed and appends its rows
func (db *DB) AppendTable(ctx context.Context, t *Table) error {
	return db.stage(ctx, t, false)
}

// CountRows returns the number of rows in a staged table
func (db *DB) CountRows(ctx context.Context, table string) (int, error) {
	var n int
	query := "SELECT COUNT(*) FROM " + db.quote(table)
	if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return n, nil
}

func (db *DB) stage(ctx context.Context, t *Table, replace bool) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+db.quote(t.Name)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", t.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, db.createStatement(t)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}

	if db.driver == DriverPostgres {
		err = copyRows(ctx, tx, t)
	} else {
		err = db.insertRows(ctx, tx, t)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table %s: %w", t.Name, err)
	}
	return nil
}

func (db *DB) createStatement(t *Table) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = db.quote(c.Name) + " " + db.columnType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", db.quote(t.Name), strings.Join(cols, ", "))
}

func (db *DB) columnType(ct ColumnType) string {
	if db.driver != DriverPostgres {
		return string(ct)
	}
	switch ct {
	case Integer:
		return "BIGINT"
	case Real:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func (db *DB) quote(name string) string {
	if db.driver == DriverPostgres {
		return pq.QuoteIdentifier(name)
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// copyRows bulk loads rows with the PostgreSQL COPY protocol
func copyRows(ctx context.Context, tx *sql.Tx, t *Table) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(t.Name, t.ColumnNames()...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to copy row %d into %s: %w", i, t.Name, err)
		}
	}

	// flush the buffered COPY data
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to flush copy into %s: %w", t.Name, err)
	}
	return nil
}

func (db *DB) insertRows(ctx context.Context, tx *sql.Tx, t *Table) error {
	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = db.quote(c.Name)
		marks[i] = "?"
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		db.quote(t.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, t.Name, err)
		}
	}
	return nil
}
