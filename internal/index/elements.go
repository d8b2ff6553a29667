package index

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ElementRecord is an indexed element row.
type ElementRecord struct {
	ID          string
	Type        string
	Identifier  string
	Name        string
	Description string
	Author      string
	Version     string
	TrustLevel  string
	Tags        []string
	IndexedAt   time.Time
}

// UpsertElement inserts or replaces the index row for an element, keyed by
// (type, identifier). Rebuilds are therefore idempotent.
func (db *DB) UpsertElement(rec ElementRecord) error {
	if rec.Type == "" || rec.Identifier == "" {
		return fmt.Errorf("element record requires type and identifier")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.IndexedAt.IsZero() {
		rec.IndexedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO elements (id, element_type, identifier, name, description, author, version, trust_level, tags, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(element_type, identifier) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			author = excluded.author,
			version = excluded.version,
			trust_level = excluded.trust_level,
			tags = excluded.tags,
			indexed_at = excluded.indexed_at`,
		rec.ID, rec.Type, rec.Identifier, rec.Name, rec.Description,
		nullable(rec.Author), nullable(rec.Version), nullable(rec.TrustLevel),
		nullable(strings.Join(rec.Tags, ",")), rec.IndexedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert element %s/%s: %w", rec.Type, rec.Identifier, err)
	}
	return nil
}

// DeleteElement removes an element row from the index.
func (db *DB) DeleteElement(elementType, identifier string) error {
	res, err := db.Exec(`DELETE FROM elements WHERE element_type = ? AND identifier = ?`, elementType, identifier)
	if err != nil {
		return fmt.Errorf("delete element %s/%s: %w", elementType, identifier, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("element %s/%s not indexed", elementType, identifier)
	}
	return nil
}

// ClearElements removes all element rows. Used before a full rebuild.
func (db *DB) ClearElements() error {
	if _, err := db.Exec(`DELETE FROM elements`); err != nil {
		return fmt.Errorf("clear elements: %w", err)
	}
	return nil
}

// ListElements returns indexed elements, optionally filtered by type,
// ordered by type then identifier.
func (db *DB) ListElements(elementType string) ([]ElementRecord, error) {
	query := `SELECT id, element_type, identifier, name, description, author, version, trust_level, tags, indexed_at
		FROM elements`
	var args []any
	if elementType != "" {
		query += ` WHERE element_type = ?`
		args = append(args, elementType)
	}
	query += ` ORDER BY element_type, identifier`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	defer rows.Close()

	return scanElementRows(rows)
}

// SearchElements returns elements whose name, description, or tags contain
// the query string, case-insensitively.
func (db *DB) SearchElements(query string) ([]ElementRecord, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	pattern := "%" + strings.ToLower(q) + "%"

	rows, err := db.Query(`
		SELECT id, element_type, identifier, name, description, author, version, trust_level, tags, indexed_at
		FROM elements
		WHERE lower(name) LIKE ? OR lower(description) LIKE ? OR lower(coalesce(tags, '')) LIKE ?
		ORDER BY element_type, identifier`,
		pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search elements: %w", err)
	}
	defer rows.Close()

	return scanElementRows(rows)
}

func scanElementRows(rows *sql.Rows) ([]ElementRecord, error) {
	var result []ElementRecord
	for rows.Next() {
		var rec ElementRecord
		var author, version, trustLevel, tags sql.NullString
		var indexedAt int64

		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Identifier, &rec.Name, &rec.Description,
			&author, &version, &trustLevel, &tags, &indexedAt); err != nil {
			return nil, fmt.Errorf("scan element row: %w", err)
		}

		rec.Author = author.String
		rec.Version = version.String
		rec.TrustLevel = trustLevel.String
		if tags.String != "" {
			rec.Tags = strings.Split(tags.String, ",")
		}
		rec.IndexedAt = time.Unix(indexedAt, 0)

		result = append(result, rec)
	}
	return result, rows.Err()
}

// nullable converts an empty string to a NULL-storing value.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
