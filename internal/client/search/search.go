// Package search keeps a full-text index of entries.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/labkeeper/internal/client/editor"
	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/dbx"
)

// Document is the indexable view of an entry.
type Document struct {
	ID             string
	Title          string
	Tags           []string
	Body           string
	AttachmentText string
}

// Indexer maintains documents and answers ranked queries with entry ids.
type Indexer interface {
	Index(ctx context.Context, doc Document) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// DocumentFor flattens an entry and its attachments into a Document.
func DocumentFor(e models.Entry, attachments []models.Attachment) Document {
	tags := make([]string, 0, len(e.Tags)+len(e.ProjectTags)+len(e.ExperimentTags))
	tags = append(tags, e.Tags...)
	tags = append(tags, e.ProjectTags...)
	tags = append(tags, e.ExperimentTags...)

	var att []string
	for _, a := range attachments {
		for _, s := range []string{a.Filename, a.Tag, a.SampleID} {
			if s != "" {
				att = append(att, s)
			}
		}
	}

	return Document{
		ID:             e.ID,
		Title:          e.Title,
		Tags:           tags,
		Body:           editor.EntryBody(e.Content),
		AttachmentText: strings.Join(att, " "),
	}
}

// SQLiteIndexer stores documents in the entry_index FTS5 table and ranks
// matches with bm25, title matches weighing most.
type SQLiteIndexer struct {
	db *sql.DB
}

func NewSQLiteIndexer(db *sql.DB) *SQLiteIndexer {
	return &SQLiteIndexer{db: db}
}

func (x *SQLiteIndexer) Index(ctx context.Context, doc Document) error {
	err := dbx.WithTx(ctx, x.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entry_index WHERE id = ?`, doc.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entry_index (id, title, tags, body, attachments) VALUES (?, ?, ?, ?, ?)
		`, doc.ID, doc.Title, strings.Join(doc.Tags, " "), doc.Body, doc.AttachmentText)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to index entry[%s]: %w", doc.ID, err)
	}
	return nil
}

func (x *SQLiteIndexer) Remove(ctx context.Context, id string) error {
	if _, err := x.db.ExecContext(ctx, `DELETE FROM entry_index WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove entry[%s] from index: %w", id, err)
	}
	return nil
}

// Search returns ids of entries matching every word of query, best first.
// Words match as prefixes. An empty query matches nothing.
func (x *SQLiteIndexer) Search(ctx context.Context, query string, limit int) ([]string, error) {
	match := MatchExpression(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := x.db.QueryContext(ctx, `
		SELECT id FROM entry_index
		WHERE entry_index MATCH ?
		ORDER BY bm25(entry_index, 0.0, 10.0, 5.0, 1.0, 2.0)
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search rows: %w", err)
	}
	return ids, nil
}

// MatchExpression turns free text into an FTS5 query: every word quoted
// and prefix-matched, all words required.
func MatchExpression(query string) string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, `"`+strings.ToLower(w)+`"*`)
	}
	return strings.Join(terms, " ")
}
