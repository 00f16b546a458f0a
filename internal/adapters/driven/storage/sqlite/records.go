package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// recordColumns is the select list shared by every record query.
const recordColumns = `r.id, r.kind, r.raw_text, r.vision_description, r.tags, r.metadata, r.created_at, r.updated_at`

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Add upserts a record. CreatedAt of an existing record is kept.
func (s *recordStore) Add(ctx context.Context, rec *domain.ContentRecord) error {
	if rec == nil || rec.ID == "" {
		return domain.ErrInvalidInput
	}

	tagsJSON, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now()
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	body := rec.Body()

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO records (id, kind, raw_text, vision_description, body, tags, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				kind = excluded.kind,
				raw_text = excluded.raw_text,
				vision_description = excluded.vision_description,
				body = excluded.body,
				tags = excluded.tags,
				metadata = excluded.metadata,
				updated_at = excluded.updated_at
		`, rec.ID, string(rec.Kind), rec.RawText, rec.VisionDescription, body,
			string(tagsJSON), string(metaJSON), formatTime(created), formatTime(updated))
		if err != nil {
			return fmt.Errorf("saving record: %w", err)
		}

		if err := replaceTags(ctx, tx, rec.ID, rec.Tags); err != nil {
			return err
		}
		return replaceFTS(ctx, tx, rec.ID, body)
	})
}

// Get retrieves a record by ID.
func (s *recordStore) Get(ctx context.Context, id string) (*domain.ContentRecord, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records r WHERE r.id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Exists reports whether a record is stored under id.
func (s *recordStore) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking record: %w", err)
	}
	return n > 0, nil
}

// UpdateTags rewrites the tags of a record and the tag header of its body.
func (s *recordStore) UpdateTags(ctx context.Context, id string, tags []domain.Tag) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		var body string
		err := tx.QueryRowContext(ctx, `SELECT body FROM records WHERE id = ?`, id).Scan(&body)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading record body: %w", err)
		}

		body = domain.RewriteTagHeader(body, tags)
		_, err = tx.ExecContext(ctx,
			`UPDATE records SET tags = ?, body = ?, updated_at = ? WHERE id = ?`,
			string(tagsJSON), body, formatTime(time.Now()), id)
		if err != nil {
			return fmt.Errorf("updating tags: %w", err)
		}

		if err := replaceTags(ctx, tx, id, tags); err != nil {
			return err
		}
		return replaceFTS(ctx, tx, id, body)
	})
}

// Rename moves a record to newID. Fails if newID is already taken.
func (s *recordStore) Rename(ctx context.Context, oldID, newID string) error {
	if newID == "" {
		return domain.ErrInvalidInput
	}
	if oldID == newID {
		return nil
	}

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		var taken int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE id = ?`, newID).Scan(&taken); err != nil {
			return fmt.Errorf("checking target id: %w", err)
		}
		if taken > 0 {
			return fmt.Errorf("%w: record %s already exists", domain.ErrInvalidInput, newID)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE records SET id = ?, updated_at = ? WHERE id = ?`,
			newID, formatTime(time.Now()), oldID)
		if err != nil {
			return fmt.Errorf("renaming record: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `UPDATE records_fts SET id = ? WHERE id = ?`, newID, oldID); err != nil {
			return fmt.Errorf("renaming index entry: %w", err)
		}
		return nil
	})
}

// Query ranks records with FTS5 bm25 against the terms of text.
// n <= 0 returns every match.
func (s *recordStore) Query(ctx context.Context, text string, n int) ([]domain.SearchHit, error) {
	match := ftsMatchExpr(text)
	if match == "" {
		return []domain.SearchHit{}, nil
	}
	if n <= 0 {
		n = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+recordColumns+`, bm25(records_fts) AS rank
		FROM records_fts
		JOIN records r ON r.id = records_fts.id
		WHERE records_fts MATCH ?
		ORDER BY rank, r.id
		LIMIT ?
	`, match, n)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	hits := []domain.SearchHit{}
	for rows.Next() {
		var rank float64
		rec, err := scanRecordWith(rows, &rank)
		if err != nil {
			return nil, err
		}
		// bm25 is lower for better matches.
		hits = append(hits, domain.SearchHit{Record: *rec, Score: -rank})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}
	return hits, nil
}

// List returns records matching filter, newest first. Limit <= 0 means all.
func (s *recordStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.ContentRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Kind != "" {
		where = append(where, "r.kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM record_tags t WHERE t.record_id = r.id AND t.tag = ?)")
		args = append(args, string(filter.Tag))
	}

	query := `SELECT ` + recordColumns + ` FROM records r`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	return s.queryRecords(ctx, query, args...)
}

// ListByTags returns records carrying any of tags, ordered by ID.
func (s *recordStore) ListByTags(ctx context.Context, tags []domain.Tag) ([]domain.ContentRecord, error) {
	if len(tags) == 0 {
		return []domain.ContentRecord{}, nil
	}

	placeholders := make([]string, len(tags))
	args := make([]any, len(tags))
	for i, t := range tags {
		placeholders[i] = "?"
		args[i] = string(t)
	}

	return s.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM records r
		WHERE r.id IN (SELECT record_id FROM record_tags WHERE tag IN (`+strings.Join(placeholders, ", ")+`))
		ORDER BY r.id
	`, args...)
}

// Count returns the number of stored records.
func (s *recordStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

func (s *recordStore) queryRecords(ctx context.Context, query string, args ...any) ([]domain.ContentRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	records := []domain.ContentRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// ==================== Helper Functions ====================

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func replaceTags(ctx context.Context, tx *sql.Tx, id string, tags []domain.Tag) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM record_tags WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}
	for i, t := range tags {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO record_tags (record_id, tag, position) VALUES (?, ?, ?)`,
			id, string(t), i)
		if err != nil {
			return fmt.Errorf("saving tag %s: %w", t, err)
		}
	}
	return nil
}

func replaceFTS(ctx context.Context, tx *sql.Tx, id, body string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM records_fts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("clearing index entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO records_fts (id, body) VALUES (?, ?)`, id, body); err != nil {
		return fmt.Errorf("indexing record: %w", err)
	}
	return nil
}

// ftsMatchExpr turns free text into an FTS5 OR query of quoted terms.
// Quoting keeps FTS5 operators in user input from being interpreted.
func ftsMatchExpr(text string) string {
	terms := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

func scanRecord(row rowScanner) (*domain.ContentRecord, error) {
	return scanRecordWith(row)
}

// scanRecordWith scans the record columns followed by any extra destinations.
func scanRecordWith(row rowScanner, extra ...any) (*domain.ContentRecord, error) {
	var (
		rec                  domain.ContentRecord
		kind                 string
		tagsJSON, metaJSON   string
		createdAt, updatedAt string
	)

	dest := append([]any{
		&rec.ID, &kind, &rec.RawText, &rec.VisionDescription,
		&tagsJSON, &metaJSON, &createdAt, &updatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	rec.Kind = domain.Kind(kind)
	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &rec.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata of %s: %w", rec.ID, err)
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)

	return &rec, nil
}
