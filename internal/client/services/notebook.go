package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/blobstore"
	"github.com/dmitrijs2005/labkeeper/internal/client/editor"
	"github.com/dmitrijs2005/labkeeper/internal/client/export"
	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/client/search"
	"github.com/dmitrijs2005/labkeeper/internal/client/store"
	"github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/dmitrijs2005/labkeeper/internal/logging"
	"github.com/dustin/go-humanize"
)

// Queue records change events for the sync engine.
type Queue interface {
	Enqueue(entryID string, blockIDs []string, ts time.Time) models.ChangeQueueItem
}

// NotebookService defines the editing operations of the notebook.
//
// Mutations on unknown entries or blocks are silent no-ops, except where a
// result has to be returned.
type NotebookService interface {
	CreateEntry(ctx context.Context, in store.EntryInput) (models.Entry, error)
	SaveContent(ctx context.Context, entryID string, blocks []models.Block) ([]string, error)
	SaveTree(ctx context.Context, entryID string, nodes []editor.Node) ([]string, error)
	ToggleChecklistItem(ctx context.Context, entryID, blockID, itemID string) error
	SetBlockText(ctx context.Context, entryID, blockID, text string) error
	AttachFile(ctx context.Context, in AttachInput) (models.Attachment, error)
	Search(ctx context.Context, query string, limit int) ([]models.Entry, error)
	Reindex(ctx context.Context) error
	ExportMarkdown(ctx context.Context, entryID string) (string, error)
	ExportHTML(ctx context.Context, entryIDs []string) (string, error)
	ExportBundle(ctx context.Context, entryID string, w io.Writer) ([]string, error)
}

// AttachInput describes a file attached to an entry.
type AttachInput struct {
	EntryID  string
	Filename string
	Data     []byte
	Caption  string
	Tag      string
	SampleID string
}

type Options struct {
	Store    *store.Store
	Queue    Queue
	Editor   editor.Editor
	Blobs    blobstore.Writer
	Reader   blobstore.Reader
	Indexer  search.Indexer
	Logger   logging.Logger
	Now      func() time.Time
	NewID    common.IDGenerator
	AuthorID string
}

type notebookService struct {
	store    *store.Store
	queue    Queue
	editor   editor.Editor
	blobs    blobstore.Writer
	reader   blobstore.Reader
	indexer  search.Indexer
	logger   logging.Logger
	now      func() time.Time
	newID    common.IDGenerator
	authorID string
}

func NewNotebookService(opts Options) NotebookService {
	s := &notebookService{
		store:    opts.Store,
		queue:    opts.Queue,
		editor:   opts.Editor,
		blobs:    opts.Blobs,
		reader:   opts.Reader,
		indexer:  opts.Indexer,
		logger:   opts.Logger,
		now:      opts.Now,
		newID:    opts.NewID,
		authorID: opts.AuthorID,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.logger = s.logger.With("module", "notebook")
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = common.NewID
	}
	if s.editor == nil {
		s.editor = editor.NewTreeEditor(s.newID)
	}
	return s
}

func (s *notebookService) CreateEntry(ctx context.Context, in store.EntryInput) (models.Entry, error) {
	if in.AuthorID == "" {
		in.AuthorID = s.authorID
	}
	e, err := s.store.CreateEntry(in)
	if err != nil {
		return models.Entry{}, fmt.Errorf("error creating entry: %w", err)
	}
	s.reindex(ctx, e.ID)
	return e, nil
}

// SaveContent replaces the content of an entry and enqueues one change
// holding the ids of added, modified and removed blocks. It returns those
// ids. Nothing is enqueued when nothing changed.
func (s *notebookService) SaveContent(ctx context.Context, entryID string, blocks []models.Block) ([]string, error) {
	current, ok := s.store.Entry(entryID)
	if !ok {
		return nil, nil
	}

	next := models.CloneBlocks(blocks)
	changed, err := s.diff(current.Content, next)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return nil, nil
	}

	s.store.UpdateEntryContent(entryID, next)
	s.queue.Enqueue(entryID, changed, s.now())
	s.reindex(ctx, entryID)
	return changed, nil
}

// diff stamps added and modified blocks in next and returns the changed
// ids in content order, removed ids last.
func (s *notebookService) diff(prev, next []models.Block) ([]string, error) {
	old := make(map[string]models.Block, len(prev))
	for _, b := range prev {
		old[b.ID] = b
	}

	seen := make(map[string]struct{}, len(next))
	var changed []string
	now := s.now()

	for i := range next {
		b := &next[i]
		seen[b.ID] = struct{}{}

		was, existed := old[b.ID]
		if existed {
			// locks survive content edits
			b.Locked = b.Locked || was.Locked
			same, err := sameContent(was, *b)
			if err != nil {
				return nil, err
			}
			if same {
				b.UpdatedAt, b.UpdatedBy = was.UpdatedAt, was.UpdatedBy
				continue
			}
		}

		ts := now
		b.UpdatedAt = &ts
		b.UpdatedBy = s.authorID
		changed = append(changed, b.ID)
	}

	for _, b := range prev {
		if _, ok := seen[b.ID]; ok {
			continue
		}
		if b.Locked {
			return nil, fmt.Errorf("block %s is locked: %w", b.ID, common.ErrValidation)
		}
		changed = append(changed, b.ID)
	}
	return changed, nil
}

// sameContent compares the normalized JSON of two blocks, ignoring the
// change stamps.
func sameContent(a, b models.Block) (bool, error) {
	na, err := normalized(a)
	if err != nil {
		return false, err
	}
	nb, err := normalized(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(na, nb), nil
}

func normalized(b models.Block) ([]byte, error) {
	b.UpdatedAt = nil
	b.UpdatedBy = ""
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("error encoding block %s: %w", b.ID, err)
	}
	return data, nil
}

func (s *notebookService) SaveTree(ctx context.Context, entryID string, nodes []editor.Node) ([]string, error) {
	return s.SaveContent(ctx, entryID, s.editor.Serialize(nodes))
}

func (s *notebookService) ToggleChecklistItem(ctx context.Context, entryID, blockID, itemID string) error {
	return s.editBlock(ctx, entryID, blockID, func(b *models.Block) (bool, error) {
		cl, ok := b.Payload.(models.Checklist)
		if !ok {
			return false, nil
		}
		i := slices.IndexFunc(cl.Items, func(it models.ChecklistItem) bool { return it.ID == itemID })
		if i < 0 {
			return false, nil
		}
		cl.Items[i].Done = !cl.Items[i].Done
		b.Payload = cl
		return true, nil
	})
}

// SetBlockText replaces the text of a heading, paragraph or quote and drops
// its formatting runs.
func (s *notebookService) SetBlockText(ctx context.Context, entryID, blockID, text string) error {
	return s.editBlock(ctx, entryID, blockID, func(b *models.Block) (bool, error) {
		switch p := b.Payload.(type) {
		case models.Heading:
			p.Text, p.Runs = text, nil
			b.Payload = p
		case models.Paragraph:
			p.Text, p.Runs = text, nil
			b.Payload = p
		case models.Quote:
			p.Text, p.Runs = text, nil
			b.Payload = p
		default:
			return false, fmt.Errorf("%s block has no text: %w", b.Type(), common.ErrValidation)
		}
		return true, nil
	})
}

func (s *notebookService) editBlock(ctx context.Context, entryID, blockID string, fn func(*models.Block) (bool, error)) error {
	e, ok := s.store.Entry(entryID)
	if !ok {
		return nil
	}
	i := slices.IndexFunc(e.Content, func(b models.Block) bool { return b.ID == blockID })
	if i < 0 {
		return nil
	}

	ok, err := fn(&e.Content[i])
	if err != nil || !ok {
		return err
	}
	_, err = s.SaveContent(ctx, entryID, e.Content)
	return err
}

// AttachFile stores the data, records the attachment and appends an image
// or file block referencing it.
func (s *notebookService) AttachFile(ctx context.Context, in AttachInput) (models.Attachment, error) {
	e, ok := s.store.Entry(in.EntryID)
	if !ok {
		return models.Attachment{}, fmt.Errorf("entry %s: %w", in.EntryID, common.ErrorNotFound)
	}

	loc, err := s.blobs.Write(ctx, in.Data, in.Filename)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("error storing %s: %w", in.Filename, err)
	}

	a := s.store.AddAttachment(models.Attachment{
		EntryID:     in.EntryID,
		Type:        models.AttachmentTypeFor(in.Filename),
		Filename:    in.Filename,
		Filesize:    humanize.Bytes(uint64(len(in.Data))),
		StoragePath: logicalPath(in.EntryID, in.Filename),
		CachedPath:  loc,
		Tag:         in.Tag,
		SampleID:    in.SampleID,
	})
	s.store.LinkFile(in.EntryID, a.ID)

	block := models.Block{ID: s.newID()}
	if a.Type == models.AttachmentImage {
		// session-only preview handle
		s.store.SetAttachmentThumbnail(a.ID, loc)
		block.Payload = models.Image{AttachmentID: a.ID, Caption: in.Caption}
	} else {
		block.Payload = models.File{AttachmentID: a.ID, Label: in.Caption}
	}

	s.logger.Info(ctx, "attachment stored", "entry", in.EntryID, "attachment", a.ID, "locator", loc, "size", a.Filesize)

	if _, err := s.SaveContent(ctx, in.EntryID, append(e.Content, block)); err != nil {
		return a, err
	}
	return a, nil
}

// Search returns matching entries, best first. Archived entries are left out.
func (s *notebookService) Search(ctx context.Context, query string, limit int) ([]models.Entry, error) {
	if s.indexer == nil {
		return nil, nil
	}
	ids, err := s.indexer.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error searching: %w", err)
	}

	out := make([]models.Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.store.Entry(id); ok && !e.Archived {
			out = append(out, e)
		}
	}
	return out, nil
}

// Reindex rebuilds the index documents of every entry.
func (s *notebookService) Reindex(ctx context.Context) error {
	if s.indexer == nil {
		return nil
	}
	for _, e := range s.store.Entries(true) {
		doc := search.DocumentFor(e, s.store.AttachmentsForEntry(e.ID))
		if err := s.indexer.Index(ctx, doc); err != nil {
			return fmt.Errorf("error indexing entry %s: %w", e.ID, err)
		}
	}
	return nil
}

// reindex refreshes one entry. Failures are logged and never surface to
// the editing operation.
func (s *notebookService) reindex(ctx context.Context, entryID string) {
	if s.indexer == nil {
		return
	}
	e, ok := s.store.Entry(entryID)
	if !ok {
		return
	}
	if err := s.indexer.Index(ctx, search.DocumentFor(e, s.store.AttachmentsForEntry(entryID))); err != nil {
		s.logger.Warn(ctx, "index update failed", "entry", entryID, "error", err)
	}
}

func (s *notebookService) ExportMarkdown(ctx context.Context, entryID string) (string, error) {
	e, ok := s.store.Entry(entryID)
	if !ok {
		return "", fmt.Errorf("entry %s: %w", entryID, common.ErrorNotFound)
	}
	return "# " + e.Title + "\n\n" + export.ToMarkdown(e.Content, s.store.AttachmentsByID(), nil) + "\n", nil
}

// ExportHTML renders the given entries, or every active entry when ids is
// empty. Unknown ids are skipped.
func (s *notebookService) ExportHTML(ctx context.Context, entryIDs []string) (string, error) {
	var entries []models.Entry
	if len(entryIDs) == 0 {
		entries = s.store.Entries(false)
	} else {
		for _, id := range entryIDs {
			if e, ok := s.store.Entry(id); ok {
				entries = append(entries, e)
			}
		}
	}
	return export.ToHTMLDocument(entries, s.store.AttachmentsByID(), nil)
}

// ExportBundle writes a zip of the entry and its attachments. It returns
// the ids of attachments that could not be read.
func (s *notebookService) ExportBundle(ctx context.Context, entryID string, w io.Writer) ([]string, error) {
	e, ok := s.store.Entry(entryID)
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", entryID, common.ErrorNotFound)
	}

	skipped, err := export.WriteBundle(ctx, w, e, s.store.AttachmentsForEntry(entryID), s.reader)
	if err != nil {
		return skipped, fmt.Errorf("error exporting entry %s: %w", entryID, err)
	}
	if len(skipped) > 0 {
		s.logger.Warn(ctx, "bundle is missing attachments", "entry", entryID, "skipped", skipped)
	}
	return skipped, nil
}

// logicalPath is the backend independent path shown in exports. The blob
// locator goes to CachedPath.
func logicalPath(entryID, filename string) string {
	name := path.Base(filepath.ToSlash(filename))
	if name == "." || name == "/" {
		name = "attachment"
	}
	return path.Join("attachments", entryID, name)
}
