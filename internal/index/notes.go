package index

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reference types stored in note_refs.
const (
	RefTypeIssue   = "issue"
	RefTypeElement = "element"
)

// NoteRecord is an indexed session note row.
type NoteRecord struct {
	ID          string
	FileName    string
	Date        time.Time
	Suffix      string
	Title       string
	Author      string
	Content     string
	IssueRefs   []int
	ElementRefs []string
	IndexedAt   time.Time
}

// UpsertNote inserts or replaces a session note and its references, keyed
// by filename.
func (db *DB) UpsertNote(rec NoteRecord) error {
	if rec.FileName == "" {
		return fmt.Errorf("note record requires a filename")
	}
	if rec.IndexedAt.IsZero() {
		rec.IndexedAt = time.Now()
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert note: %w", err)
	}
	defer tx.Rollback()

	// Reuse the existing row id so note_refs can be replaced cleanly
	var id string
	err = tx.QueryRow(`SELECT id FROM notes WHERE file_name = ?`, rec.FileName).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		id = rec.ID
		if id == "" {
			id = uuid.NewString()
		}
	case err != nil:
		return fmt.Errorf("lookup note %s: %w", rec.FileName, err)
	}

	_, err = tx.Exec(`
		INSERT INTO notes (id, file_name, note_date, suffix, title, author, content, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_name) DO UPDATE SET
			note_date = excluded.note_date,
			suffix = excluded.suffix,
			title = excluded.title,
			author = excluded.author,
			content = excluded.content,
			indexed_at = excluded.indexed_at`,
		id, rec.FileName, rec.Date.Format("2006-01-02"), nullable(rec.Suffix),
		rec.Title, nullable(rec.Author), rec.Content, rec.IndexedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert note %s: %w", rec.FileName, err)
	}

	if _, err := tx.Exec(`DELETE FROM note_refs WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("clear note refs: %w", err)
	}

	for _, issue := range rec.IssueRefs {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO note_refs (note_id, ref_type, ref_value) VALUES (?, ?, ?)`,
			id, RefTypeIssue, strconv.Itoa(issue)); err != nil {
			return fmt.Errorf("insert issue ref: %w", err)
		}
	}
	for _, elem := range rec.ElementRefs {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO note_refs (note_id, ref_type, ref_value) VALUES (?, ?, ?)`,
			id, RefTypeElement, strings.ToLower(elem)); err != nil {
			return fmt.Errorf("insert element ref: %w", err)
		}
	}

	return tx.Commit()
}

// ClearNotes removes all note rows and their references. Used before a
// full rebuild.
func (db *DB) ClearNotes() error {
	if _, err := db.Exec(`DELETE FROM notes`); err != nil {
		return fmt.Errorf("clear notes: %w", err)
	}
	return nil
}

// ListNotes returns indexed notes ordered by date descending.
func (db *DB) ListNotes() ([]NoteRecord, error) {
	return db.queryNotes(`
		SELECT id, file_name, note_date, suffix, title, author, content, indexed_at
		FROM notes ORDER BY note_date DESC, file_name`)
}

// SearchNotes runs a full-text search over note titles and bodies,
// newest first.
func (db *DB) SearchNotes(query string) ([]NoteRecord, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	return db.queryNotes(`
		SELECT n.id, n.file_name, n.note_date, n.suffix, n.title, n.author, n.content, n.indexed_at
		FROM notes n
		JOIN notes_fts f ON f.rowid = n.rowid
		WHERE notes_fts MATCH ?
		ORDER BY n.note_date DESC, n.file_name`,
		ftsQuery(q))
}

// ftsQuery turns free text into an FTS5 query: each term quoted and
// AND-combined, so user input cannot inject FTS syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, ``)+`"`)
	}
	return strings.Join(quoted, " AND ")
}

// NotesByIssue returns notes referencing the given issue or PR number,
// newest first.
func (db *DB) NotesByIssue(number int) ([]NoteRecord, error) {
	return db.notesByRef(RefTypeIssue, strconv.Itoa(number))
}

// NotesByElement returns notes mentioning the given element name,
// newest first.
func (db *DB) NotesByElement(name string) ([]NoteRecord, error) {
	return db.notesByRef(RefTypeElement, strings.ToLower(strings.TrimSpace(name)))
}

func (db *DB) notesByRef(refType, refValue string) ([]NoteRecord, error) {
	if refValue == "" {
		return nil, fmt.Errorf("reference value cannot be empty")
	}

	return db.queryNotes(`
		SELECT n.id, n.file_name, n.note_date, n.suffix, n.title, n.author, n.content, n.indexed_at
		FROM notes n
		JOIN note_refs r ON r.note_id = n.id
		WHERE r.ref_type = ? AND r.ref_value = ?
		ORDER BY n.note_date DESC, n.file_name`,
		refType, refValue)
}

// queryNotes runs a note query, fully consumes the cursor, then attaches
// references. Refs are loaded after the cursor closes since the pool is
// limited to a single connection.
func (db *DB) queryNotes(query string, args ...any) ([]NoteRecord, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}

	var result []NoteRecord
	for rows.Next() {
		var rec NoteRecord
		var suffix, author sql.NullString
		var noteDate string
		var indexedAt int64

		if err := rows.Scan(&rec.ID, &rec.FileName, &noteDate, &suffix, &rec.Title,
			&author, &rec.Content, &indexedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan note row: %w", err)
		}

		date, err := time.Parse("2006-01-02", noteDate)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse note date %q: %w", noteDate, err)
		}

		rec.Date = date
		rec.Suffix = suffix.String
		rec.Author = author.String
		rec.IndexedAt = time.Unix(indexedAt, 0)

		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range result {
		refs, err := db.loadRefs(result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].IssueRefs = refs.issues
		result[i].ElementRefs = refs.elements
	}

	return result, nil
}

type noteRefs struct {
	issues   []int
	elements []string
}

func (db *DB) loadRefs(noteID string) (noteRefs, error) {
	rows, err := db.Query(`SELECT ref_type, ref_value FROM note_refs WHERE note_id = ? ORDER BY ref_value`, noteID)
	if err != nil {
		return noteRefs{}, fmt.Errorf("load note refs: %w", err)
	}
	defer rows.Close()

	var refs noteRefs
	for rows.Next() {
		var refType, refValue string
		if err := rows.Scan(&refType, &refValue); err != nil {
			return noteRefs{}, fmt.Errorf("scan note ref: %w", err)
		}
		switch refType {
		case RefTypeIssue:
			n, err := strconv.Atoi(refValue)
			if err != nil {
				continue
			}
			refs.issues = append(refs.issues, n)
		case RefTypeElement:
			refs.elements = append(refs.elements, refValue)
		}
	}
	if err := rows.Err(); err != nil {
		return noteRefs{}, err
	}
	sort.Ints(refs.issues)
	return refs, nil
}
