// Package db keeps an in-memory DuckDB catalog of the loaded documents.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/joeblew999/geojson-viewer/internal/document"
	"github.com/joeblew999/geojson-viewer/internal/mapsync"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	position  INTEGER NOT NULL,
	name      VARCHAR NOT NULL,
	type      VARCHAR NOT NULL,
	source_id VARCHAR NOT NULL,
	features  INTEGER NOT NULL,
	points    INTEGER NOT NULL,
	min_lon   DOUBLE,
	min_lat   DOUBLE,
	max_lon   DOUBLE,
	max_lat   DOUBLE,
	data      VARCHAR NOT NULL
)`

// Catalog is a DuckDB database holding one row per loaded document.
// It lives in memory only and is rebuilt on every change.
type Catalog struct {
	db *sql.DB
}

// Open creates an in-memory catalog and loads the named DuckDB extensions.
func Open(extensions ...string) (*Catalog, error) {
	conn, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	// One connection keeps every statement on the same in-memory database.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	// Extensions are optional; plain queries work without them.
	for _, ext := range extensions {
		_, _ = conn.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext))
	}

	return &Catalog{db: conn}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Replace swaps the catalog contents for docs in one transaction.
func (c *Catalog) Replace(ctx context.Context, docs []document.Loaded) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents
		(position, name, type, source_id, features, points, min_lon, min_lat, max_lon, max_lat, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, doc := range docs {
		b := mapsync.DocumentBounds([]document.Loaded{doc})
		var minLon, minLat, maxLon, maxLat sql.NullFloat64
		if !b.Empty() {
			bound := b.Bound()
			minLon = sql.NullFloat64{Float64: bound.Left(), Valid: true}
			minLat = sql.NullFloat64{Float64: bound.Bottom(), Valid: true}
			maxLon = sql.NullFloat64{Float64: bound.Right(), Valid: true}
			maxLat = sql.NullFloat64{Float64: bound.Top(), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			i, doc.Name(), string(doc.Type()), mapsync.SourceID(i),
			len(doc.Features()), b.Count(),
			minLon, minLat, maxLon, maxLat,
			string(doc.Data()),
		); err != nil {
			return fmt.Errorf("inserting %s: %w", doc.Name(), err)
		}
	}

	return tx.Commit()
}

// Tables lists the catalog's tables.
func (c *Catalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			tables = append(tables, name)
		}
	}
	return tables, rows.Err()
}

// Query runs a read query and returns its columns and rows.
func (c *Catalog) Query(ctx context.Context, query string, args ...any) ([]string, []map[string]any, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			continue
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	return columns, results, rows.Err()
}
