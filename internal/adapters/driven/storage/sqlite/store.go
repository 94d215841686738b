package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

// MetadataFileName is the sidecar database written into the index
// location, next to the vector artifact.
const MetadataFileName = "metadata.db"

// maxInParams caps placeholders per IN clause; larger id sets are
// fetched in batches.
const maxInParams = 500

// Store is the SQLite-backed metadata sidecar. It maps chunk ids back
// to their text and provenance so search hits can be hydrated into
// full results.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.MetadataStore = (*Store)(nil)

// NewStore opens (or creates) the metadata database inside the given
// index location.
func NewStore(location string) (*Store, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: index location is required", domain.ErrInvalidConfig)
	}

	if err := os.MkdirAll(location, 0o755); err != nil {
		return nil, fmt.Errorf("creating index location: %w", err)
	}

	dbPath := filepath.Join(location, MetadataFileName)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial_schema.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// dbtx is the querying surface shared by *sql.DB and *sql.Tx, so the
// statement helpers below can run standalone or inside a batch
// transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// batch runs sidecar writes against one transaction opened by Apply.
// Nothing it does is visible until that transaction commits.
type batch struct {
	tx *sql.Tx
}

var _ driven.MetadataBatch = (*batch)(nil)

func (b *batch) UpsertDocuments(ctx context.Context, docs []domain.Document) error {
	return upsertDocuments(ctx, b.tx, docs)
}

func (b *batch) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	return upsertChunks(ctx, b.tx, chunks)
}

func (b *batch) DocumentsByIDs(ctx context.Context, ids []string) (map[string]domain.Document, error) {
	return documentsByIDs(ctx, b.tx, ids)
}

func (b *batch) CountChunks(ctx context.Context) (int, error) {
	return countChunks(ctx, b.tx)
}

func (b *batch) CountDocuments(ctx context.Context) (int, error) {
	return countDocuments(ctx, b.tx)
}

func (b *batch) Reset(ctx context.Context) error {
	return resetAll(ctx, b.tx)
}

// Apply runs fn against a single transaction. The sidecar is
// unchanged unless fn returns nil and the commit succeeds.
func (s *Store) Apply(ctx context.Context, fn func(driven.MetadataBatch) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&batch{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpsertDocuments inserts or replaces document records. The whole
// batch is written in one transaction.
func (s *Store) UpsertDocuments(ctx context.Context, docs []domain.Document) error {
	return s.Apply(ctx, func(b driven.MetadataBatch) error {
		return b.UpsertDocuments(ctx, docs)
	})
}

func upsertDocuments(ctx context.Context, q dbtx, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO documents (id, title, authors, category, published, source_url, text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			authors = excluded.authors,
			category = excluded.category,
			published = excluded.published,
			source_url = excluded.source_url,
			text = excluded.text
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("%w: document id is empty", domain.ErrInvalidArgument)
		}

		authorsJSON, err := json.Marshal(doc.Authors)
		if err != nil {
			return fmt.Errorf("marshalling authors: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Title, string(authorsJSON),
			doc.Category, nullTime(doc.Published), doc.SourceURL, doc.Text); err != nil {
			return fmt.Errorf("saving document %s: %w", doc.ID, err)
		}
	}
	return nil
}

// UpsertChunks inserts or replaces chunk records. Parent documents
// must already be stored.
func (s *Store) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	return s.Apply(ctx, func(b driven.MetadataBatch) error {
		return b.UpsertChunks(ctx, chunks)
	})
}

func upsertChunks(ctx context.Context, q dbtx, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, sequence_index, start_offset, end_offset, text)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			sequence_index = excluded.sequence_index,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			text = excluded.text
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if chunk.ID == "" {
			return fmt.Errorf("%w: chunk id is empty", domain.ErrInvalidArgument)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.SequenceIndex,
			chunk.StartOffset, chunk.EndOffset, chunk.Text); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}
	return nil
}

// ChunksByIDs returns the chunks found for the given ids, keyed by id.
// Missing ids are simply absent from the map.
func (s *Store) ChunksByIDs(ctx context.Context, ids []string) (map[string]domain.Chunk, error) {
	out := make(map[string]domain.Chunk, len(ids))
	for start := 0; start < len(ids); start += maxInParams {
		end := min(start+maxInParams, len(ids))
		if err := queryChunks(ctx, s.db, ids[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func queryChunks(ctx context.Context, q dbtx, ids []string, out map[string]domain.Chunk) error {
	query := fmt.Sprintf(`
		SELECT id, document_id, sequence_index, start_offset, end_offset, text
		FROM chunks WHERE id IN (%s)
	`, placeholders(len(ids)))

	rows, err := q.QueryContext(ctx, query, asAnySlice(ids)...)
	if err != nil {
		return fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunk domain.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.SequenceIndex,
			&chunk.StartOffset, &chunk.EndOffset, &chunk.Text); err != nil {
			return fmt.Errorf("scanning chunk: %w", err)
		}
		out[chunk.ID] = chunk
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating chunks: %w", err)
	}
	return nil
}

// DocumentsByIDs returns the documents found for the given ids, keyed
// by id. Missing ids are simply absent from the map.
func (s *Store) DocumentsByIDs(ctx context.Context, ids []string) (map[string]domain.Document, error) {
	return documentsByIDs(ctx, s.db, ids)
}

func documentsByIDs(ctx context.Context, q dbtx, ids []string) (map[string]domain.Document, error) {
	out := make(map[string]domain.Document, len(ids))
	for start := 0; start < len(ids); start += maxInParams {
		end := min(start+maxInParams, len(ids))
		if err := queryDocuments(ctx, q, ids[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func queryDocuments(ctx context.Context, q dbtx, ids []string, out map[string]domain.Document) error {
	query := fmt.Sprintf(`
		SELECT id, title, authors, category, published, source_url, text
		FROM documents WHERE id IN (%s)
	`, placeholders(len(ids)))

	rows, err := q.QueryContext(ctx, query, asAnySlice(ids)...)
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return err
		}
		out[doc.ID] = doc
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating documents: %w", err)
	}
	return nil
}

func scanDocument(rows *sql.Rows) (domain.Document, error) {
	var (
		doc         domain.Document
		authorsJSON string
		published   sql.NullTime
	)
	if err := rows.Scan(&doc.ID, &doc.Title, &authorsJSON, &doc.Category,
		&published, &doc.SourceURL, &doc.Text); err != nil {
		return domain.Document{}, fmt.Errorf("scanning document: %w", err)
	}

	if err := json.Unmarshal([]byte(authorsJSON), &doc.Authors); err != nil {
		return domain.Document{}, fmt.Errorf("unmarshalling authors: %w", err)
	}
	if published.Valid {
		doc.Published = published.Time.UTC()
	}
	return doc, nil
}

// CountChunks returns the number of stored chunk records.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	return countChunks(ctx, s.db)
}

func countChunks(ctx context.Context, q dbtx) (int, error) {
	var n int
	row := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// CountDocuments returns the number of stored document records.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	return countDocuments(ctx, s.db)
}

func countDocuments(ctx context.Context, q dbtx) (int, error) {
	var n int
	row := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents")
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Reset removes all stored records. A fresh index build starts from an
// empty sidecar.
func (s *Store) Reset(ctx context.Context) error {
	return s.Apply(ctx, func(b driven.MetadataBatch) error {
		return b.Reset(ctx)
	})
}

func resetAll(ctx context.Context, q dbtx) error {
	// Chunks first: they reference documents.
	if _, err := q.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	return nil
}

// nullTime maps the zero time to NULL so unknown publication dates
// round-trip as zero values.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func asAnySlice(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
