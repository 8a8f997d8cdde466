// Package postgres writes the relational rows of RNTuple indexes to a
// PostgreSQL database.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/segmentio/rntuple-go/sink"
)

// Sink writes rows to PostgreSQL.
type Sink struct {
	pool *pgxpool.Pool
}

// New connects to the database at databaseURL and creates the tables which do
// not exist yet.
func New(ctx context.Context, databaseURL string) (*Sink, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 8
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &Sink{pool: pool}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

// Close closes the connection pool.
func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}

// Store inserts rows in a single transaction. Rows which already exist are
// left unchanged, so storing the same file twice, or several files sharing
// the schema of a dataset, is safe.
//
// The method returns the number of rows inserted per table.
func (s *Sink) Store(ctx context.Context, rows *sink.Rows) (map[string]int, error) {
	inserted := make(map[string]int)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, stmt := range statements(rows) {
			if len(stmt.args) == 0 {
				continue
			}
			batch := new(pgx.Batch)
			for _, args := range stmt.args {
				batch.Queue(stmt.query, args...)
			}

			results := tx.SendBatch(ctx, batch)
			for range stmt.args {
				tag, err := results.Exec()
				if err != nil {
					results.Close()
					return fmt.Errorf("failed to insert into %s: %w", stmt.table, err)
				}
				inserted[stmt.table] += int(tag.RowsAffected())
			}
			if err := results.Close(); err != nil {
				return fmt.Errorf("failed to insert into %s: %w", stmt.table, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return inserted, nil
}

// Count returns the number of rows of a table.
func (s *Sink) Count(ctx context.Context, table string) (int, error) {
	if _, ok := tables[table]; !ok {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return n, nil
}

type statement struct {
	table string
	query string
	args  [][]interface{}
}

// statements returns the insert statements of rows, parents before children
// so foreign keys always resolve.
func statements(rows *sink.Rows) []statement {
	stmts := []statement{
		{table: "dataset", query: `INSERT INTO dataset (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`},
		{table: "input_file", query: `INSERT INTO input_file (id, dataset_id, uuid, lfn, entries) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`},
		{table: "rntuple", query: `INSERT INTO rntuple (id, dataset_id, name, description) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`},
		{table: "rntuple_instance", query: `INSERT INTO rntuple_instance (id, file_id, rntuple_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`},
		{table: "field", query: `INSERT INTO field (id, rntuple_id, parent_id, version, type_version, name, type_name, type_alias, description, role, array_size, type_checksum) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) ON CONFLICT DO NOTHING`},
		{table: "column", query: `INSERT INTO "column" (id, field_id, "index") VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`},
		{table: "column_representation", query: `INSERT INTO column_representation (id, column_id, column_type, bits_on_storage, first_element_index, min_value, max_value) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT DO NOTHING`},
		{table: "cluster_group", query: `INSERT INTO cluster_group (id, rntuple_instance_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`},
		{table: "cluster", query: `INSERT INTO cluster (id, cluster_group_id, entry_start, entry_stop) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`},
		{table: "object", query: `INSERT INTO object (id, input_file_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`},
		{table: "page_group", query: `INSERT INTO page_group (id, object_id, cluster_id, column_rep_id, element_offset, compression_settings) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`},
		{table: "page", query: `INSERT INTO page (id, page_group_id, "index", "offset", size, elements) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`},
		{table: "alias_column", query: `INSERT INTO alias_column (field_id, column_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`},
	}

	add := func(i int, args ...interface{}) { stmts[i].args = append(stmts[i].args, args) }

	for _, r := range rows.Datasets {
		add(0, r.ID, r.Name)
	}
	for _, r := range rows.InputFiles {
		add(1, r.ID, r.DatasetID, r.UUID, r.LFN, r.Entries)
	}
	for _, r := range rows.RNTuples {
		add(2, r.ID, r.DatasetID, r.Name, r.Description)
	}
	for _, r := range rows.RNTupleInstances {
		add(3, r.ID, r.FileID, r.RNTupleID)
	}
	for _, r := range rows.Fields {
		add(4, r.ID, r.RNTupleID, r.ParentID, r.Version, r.TypeVersion, r.Name, r.TypeName, r.TypeAlias, r.Description, r.Role, r.ArraySize, r.TypeChecksum)
	}
	for _, r := range rows.Columns {
		add(5, r.ID, r.FieldID, r.Index)
	}
	for _, r := range rows.ColumnRepresentations {
		add(6, r.ID, r.ColumnID, r.ColumnType, r.BitsOnStorage, r.FirstElementIndex, r.MinValue, r.MaxValue)
	}
	for _, r := range rows.ClusterGroups {
		add(7, r.ID, r.RNTupleInstanceID)
	}
	for _, r := range rows.Clusters {
		add(8, r.ID, r.ClusterGroupID, r.EntryStart, r.EntryStop)
	}
	for _, r := range rows.Objects {
		add(9, r.ID, r.InputFileID)
	}
	for _, r := range rows.PageGroups {
		add(10, r.ID, r.ObjectID, r.ClusterID, r.ColumnRepID, r.ElementOffset, r.CompressionSettings)
	}
	for _, r := range rows.Pages {
		add(11, r.ID, r.PageGroupID, r.Index, r.Offset, r.Size, r.Elements)
	}
	for _, r := range rows.AliasColumns {
		add(12, r.FieldID, r.ColumnID)
	}

	return stmts
}
