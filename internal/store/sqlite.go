package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Store is the local SQLite document store. It doubles as the forecast
// payload archive so past runs stay queryable after the remote document is
// overwritten.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ReadDocument returns the named document, or ErrDocumentNotFound.
func (s *Store) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM documents WHERE name = ?`, name).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", name, err)
	}
	return []byte(content), nil
}

// WriteDocument replaces the named document in full.
func (s *Store) WriteDocument(ctx context.Context, name string, content []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (name, content, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at
	`, name, string(content), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write document %s: %w", name, err)
	}
	return nil
}

// ArchivePayload stores a gzip-compressed copy of a produced forecast
// payload, keyed by initialization time and deduplicated by content hash.
// Returns the archive row ID, or 0 for a duplicate.
func (s *Store) ArchivePayload(ctx context.Context, initTime string, payload []byte) (int64, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return 0, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("close gzip: %w", err)
	}

	hash := sha256.Sum256(payload)
	hashHex := hex.EncodeToString(hash[:])

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO payload_archive (init_time, generated_at, payload_compressed, payload_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(payload_hash) DO NOTHING
	`, initTime, time.Now().UTC(), buf.Bytes(), hashHex)
	if err != nil {
		return 0, fmt.Errorf("insert payload archive: %w", err)
	}

	return result.LastInsertId()
}

// LatestArchivedPayload returns the most recently archived payload for an
// initialization time, decompressed, or ErrDocumentNotFound.
func (s *Store) LatestArchivedPayload(ctx context.Context, initTime string) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload_compressed FROM payload_archive
		WHERE init_time = ?
		ORDER BY generated_at DESC
		LIMIT 1
	`, initTime).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read payload archive: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// CleanupArchive deletes archived payloads older than retentionDays.
// Returns the number of deleted rows.
func (s *Store) CleanupArchive(ctx context.Context, retentionDays int) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM payload_archive
		WHERE generated_at < DATE('now', '-' || ? || ' days')
	`, retentionDays)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
