package storage

import (
	"context"
	"fmt"
)

// SchemaSQL returns the idempotent DDL for a vector column of dim.
func SchemaSQL(dim int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS notes (
  id          uuid PRIMARY KEY,
  title       text NOT NULL,
  authors     text[] NOT NULL DEFAULT '{}',
  publication text NOT NULL DEFAULT '',
  year        int,
  keywords    text[] NOT NULL DEFAULT '{}',
  content     text NOT NULL DEFAULT '',
  created_at  timestamptz NOT NULL DEFAULT NOW(),
  updated_at  timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS note_embeddings (
  id            bigserial PRIMARY KEY,
  note_id       uuid NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
  chunk_index   int NOT NULL,
  content_chunk text NOT NULL,
  embedding     vector(%d) NOT NULL,
  created_at    timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS note_embeddings_note_id_idx ON note_embeddings (note_id);

CREATE TABLE IF NOT EXISTS generation_calls (
  call_id     uuid PRIMARY KEY,
  operation   text NOT NULL,
  provider    text NOT NULL,
  model       text NOT NULL,
  status      text NOT NULL,
  error_type  text,
  attempts    int NOT NULL,
  duration_ms bigint NOT NULL,
  created_at  timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS generation_calls_created_at_idx ON generation_calls (created_at DESC);
`, dim)
}

func (d *DB) EnsureSchema(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dim)
	}
	if _, err := d.Pool.Exec(ctx, SchemaSQL(dim)); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
