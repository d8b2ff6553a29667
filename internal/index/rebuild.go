package index

import (
	"fmt"
	"time"

	"dollhouse/internal/elements"
	"dollhouse/internal/logging"
	"dollhouse/internal/notes"
	"dollhouse/internal/portfolio"
)

// RebuildStats summarizes a full index rebuild.
type RebuildStats struct {
	ElementsIndexed int
	NotesIndexed    int
	Duration        time.Duration
}

// Rebuild wipes and repopulates the index from the portfolio and the
// session note collection. The operation is idempotent: rows are keyed by
// (type, identifier) for elements and filename for notes, so repeated
// rebuilds converge to the same state.
func (db *DB) Rebuild(p *portfolio.Portfolio, c *notes.Collection, logger *logging.AppLogger) (RebuildStats, error) {
	if logger == nil {
		logger = logging.GetDefault()
	}
	start := time.Now()
	var stats RebuildStats

	if err := db.ClearElements(); err != nil {
		return stats, err
	}
	if err := db.ClearNotes(); err != nil {
		return stats, err
	}

	// Quarantined memories stay indexed so they remain discoverable for
	// review; listing layers decide whether to show them.
	infos, err := p.ListAll(portfolio.ListOptions{IncludeQuarantined: true})
	if err != nil {
		return stats, fmt.Errorf("failed to scan portfolio: %w", err)
	}

	for _, info := range infos {
		elem, err := p.Load(info.Type, info.Identifier)
		if err != nil {
			logger.Warn("Skipping unindexable element", "type", info.Type, "identifier", info.Identifier, "error", err)
			continue
		}
		rec := ElementRecord{
			Type:        info.Type.String(),
			Identifier:  info.Identifier,
			Name:        elem.Metadata.Name,
			Description: elem.Metadata.Description,
			Author:      elem.Metadata.Author,
			Version:     elem.Metadata.Version,
			TrustLevel:  elem.Metadata.TrustLevel.String(),
			Tags:        elem.Metadata.Tags,
		}
		if err := db.UpsertElement(rec); err != nil {
			return stats, err
		}
		stats.ElementsIndexed++
	}

	sessionNotes, err := c.List()
	if err != nil {
		return stats, fmt.Errorf("failed to scan session notes: %w", err)
	}

	for _, note := range sessionNotes {
		rec := NoteRecord{
			FileName:    note.FileName,
			Date:        note.Date,
			Suffix:      note.Suffix,
			Title:       note.Title,
			Author:      note.Author,
			Content:     note.Content,
			IssueRefs:   note.IssueRefs,
			ElementRefs: note.ElementRefs,
		}
		if err := db.UpsertNote(rec); err != nil {
			return stats, err
		}
		stats.NotesIndexed++
	}

	stats.Duration = time.Since(start)
	logger.Info("Index rebuilt",
		"elements", stats.ElementsIndexed,
		"notes", stats.NotesIndexed,
		"duration", stats.Duration)

	return stats, nil
}

// IndexElement indexes or reindexes a single element.
func (db *DB) IndexElement(elem *elements.Element, identifier string) error {
	return db.UpsertElement(ElementRecord{
		Type:        elem.Type.String(),
		Identifier:  identifier,
		Name:        elem.Metadata.Name,
		Description: elem.Metadata.Description,
		Author:      elem.Metadata.Author,
		Version:     elem.Metadata.Version,
		TrustLevel:  elem.Metadata.TrustLevel.String(),
		Tags:        elem.Metadata.Tags,
	})
}
