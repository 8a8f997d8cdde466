package postgres

import "context"

var tables = map[string]struct{}{
	"dataset":               {},
	"input_file":            {},
	"rntuple":               {},
	"rntuple_instance":      {},
	"field":                 {},
	"column":                {},
	"column_representation": {},
	"cluster_group":         {},
	"cluster":               {},
	"object":                {},
	"page_group":            {},
	"page":                  {},
	"alias_column":          {},
}

func (s *Sink) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS dataset (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS input_file (
		id UUID PRIMARY KEY,
		dataset_id UUID NOT NULL REFERENCES dataset(id),
		uuid UUID,
		lfn TEXT,
		entries BIGINT
	);

	CREATE TABLE IF NOT EXISTS rntuple (
		id UUID PRIMARY KEY,
		dataset_id UUID NOT NULL REFERENCES dataset(id),
		name TEXT,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS rntuple_instance (
		id UUID PRIMARY KEY,
		file_id UUID NOT NULL REFERENCES input_file(id),
		rntuple_id UUID NOT NULL REFERENCES rntuple(id)
	);

	CREATE TABLE IF NOT EXISTS field (
		id UUID PRIMARY KEY,
		rntuple_id UUID NOT NULL REFERENCES rntuple(id),
		parent_id UUID REFERENCES field(id),
		version BIGINT NOT NULL,
		type_version BIGINT NOT NULL,
		name TEXT NOT NULL,
		type_name TEXT NOT NULL,
		type_alias TEXT NOT NULL,
		description TEXT NOT NULL,
		role TEXT NOT NULL,
		array_size BIGINT,
		type_checksum BIGINT
	);

	CREATE TABLE IF NOT EXISTS "column" (
		id UUID PRIMARY KEY,
		field_id UUID NOT NULL REFERENCES field(id),
		"index" INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS column_representation (
		id UUID PRIMARY KEY,
		column_id UUID NOT NULL REFERENCES "column"(id),
		column_type INTEGER NOT NULL,
		bits_on_storage INTEGER NOT NULL,
		first_element_index BIGINT,
		min_value DOUBLE PRECISION,
		max_value DOUBLE PRECISION
	);

	CREATE TABLE IF NOT EXISTS cluster_group (
		id UUID PRIMARY KEY,
		rntuple_instance_id UUID NOT NULL REFERENCES rntuple_instance(id)
	);

	CREATE TABLE IF NOT EXISTS cluster (
		id UUID PRIMARY KEY,
		cluster_group_id UUID NOT NULL REFERENCES cluster_group(id),
		entry_start BIGINT,
		entry_stop BIGINT
	);

	CREATE TABLE IF NOT EXISTS object (
		id UUID PRIMARY KEY,
		input_file_id UUID NOT NULL REFERENCES input_file(id)
	);

	CREATE TABLE IF NOT EXISTS page_group (
		id UUID PRIMARY KEY,
		object_id UUID NOT NULL REFERENCES object(id),
		cluster_id UUID NOT NULL REFERENCES cluster(id),
		column_rep_id UUID NOT NULL REFERENCES column_representation(id),
		element_offset BIGINT NOT NULL,
		compression_settings BIGINT,
		UNIQUE (cluster_id, column_rep_id)
	);

	CREATE TABLE IF NOT EXISTS page (
		id UUID PRIMARY KEY,
		page_group_id UUID NOT NULL REFERENCES page_group(id),
		"index" INTEGER,
		"offset" BIGINT NOT NULL,
		size BIGINT NOT NULL,
		elements BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alias_column (
		field_id UUID NOT NULL REFERENCES field(id),
		column_id UUID NOT NULL REFERENCES "column"(id),
		PRIMARY KEY (field_id, column_id)
	);

	CREATE INDEX IF NOT EXISTS idx_field_rntuple_id ON field(rntuple_id);
	CREATE INDEX IF NOT EXISTS idx_page_page_group_id ON page(page_group_id);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}
