// Package store holds the authoritative in-memory collections of the
// notebook (projects, experiments, entries, attachments) and tracks which
// collections changed since the last snapshot.
//
// Readers always receive copies; callers cannot mutate stored entities
// except through Store methods. Operations on unknown ids are silent no-ops.
package store

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/common"
)

// Collection names one snapshot record.
type Collection string

const (
	CollectionProjects    Collection = "projects"
	CollectionExperiments Collection = "experiments"
	CollectionEntries     Collection = "entries"
	CollectionAttachments Collection = "attachments"
)

// Collections lists every snapshot record in write order.
var Collections = []Collection{CollectionProjects, CollectionExperiments, CollectionEntries, CollectionAttachments}

// Options configures a Store. Zero values fall back to the wall clock,
// random UUIDs and the built-in templates.
type Options struct {
	Now       func() time.Time
	NewID     common.IDGenerator
	Templates map[string]Template
}

type Store struct {
	mu sync.RWMutex

	projects    []*models.Project
	experiments []*models.Experiment
	entries     map[string]*models.Entry
	entryOrder  []string
	attachments []*models.Attachment

	dirty map[Collection]struct{}

	now       func() time.Time
	newID     common.IDGenerator
	templates map[string]Template
}

func New(opts Options) *Store {
	s := &Store{
		entries:   make(map[string]*models.Entry),
		dirty:     make(map[Collection]struct{}),
		now:       opts.Now,
		newID:     opts.NewID,
		templates: opts.Templates,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = common.NewID
	}
	if s.templates == nil {
		s.templates = DefaultTemplates()
	}
	return s
}

// normalizeTitle trims and collapses inner whitespace.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

func (s *Store) markDirty(c Collection) {
	s.dirty[c] = struct{}{}
}

// CreateProject returns the id of the project titled title, creating it
// when no project with the same title (case-insensitive) exists.
func (s *Store) CreateProject(title string) (string, error) {
	title = normalizeTitle(title)
	if title == "" {
		return "", fmt.Errorf("%w: project title is empty", common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.projects {
		if strings.EqualFold(p.Title, title) {
			return p.ID, nil
		}
	}

	p := &models.Project{ID: s.newID(), Title: title, CreatedAt: s.now()}
	s.projects = append(s.projects, p)
	s.markDirty(CollectionProjects)
	return p.ID, nil
}

// ExperimentInput carries the fields of a new experiment.
type ExperimentInput struct {
	Title              string
	ProjectID          string
	ProtocolRef        string
	DefaultRawDataPath string
}

// CreateExperiment is idempotent by title within a project.
func (s *Store) CreateExperiment(in ExperimentInput) (string, error) {
	title := normalizeTitle(in.Title)
	projectID := strings.TrimSpace(in.ProjectID)
	if title == "" {
		return "", fmt.Errorf("%w: experiment title is empty", common.ErrValidation)
	}
	if projectID == "" {
		return "", fmt.Errorf("%w: experiment project is empty", common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.experiments {
		if e.ProjectID == projectID && strings.EqualFold(e.Title, title) {
			return e.ID, nil
		}
	}

	e := &models.Experiment{
		ID:                 s.newID(),
		ProjectID:          projectID,
		Title:              title,
		ProtocolRef:        in.ProtocolRef,
		DefaultRawDataPath: in.DefaultRawDataPath,
		CreatedAt:          s.now(),
	}
	s.experiments = append(s.experiments, e)
	s.markDirty(CollectionExperiments)
	return e.ID, nil
}

// EntryInput carries the fields of a new entry.
type EntryInput struct {
	TemplateID   string
	ProjectID    string
	ExperimentID string
	Title        string
	AuthorID     string
	Tags         []string
}

// CreateEntry instantiates a template into a new entry.
func (s *Store) CreateEntry(in EntryInput) (models.Entry, error) {
	templateID := in.TemplateID
	if templateID == "" {
		templateID = BlankTemplateID
	}
	tpl, ok := s.templates[templateID]
	if !ok {
		return models.Entry{}, fmt.Errorf("%w: unknown template %q", common.ErrValidation, in.TemplateID)
	}

	title := normalizeTitle(in.Title)
	if title == "" {
		title = tpl.DefaultTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := s.newID()
	content, regions := tpl.instantiate(id, s.newID)

	e := &models.Entry{
		ID:                 id,
		ProjectID:          in.ProjectID,
		ExperimentID:       in.ExperimentID,
		CreatedDatetime:    now,
		LastEditedDatetime: now,
		AuthorID:           in.AuthorID,
		Title:              title,
		DateBucket:         now.Format(common.DateBucketLayout),
		Content:            content,
		Tags:               tagSet(in.Tags),
		PinnedRegions:      regions,
		TemplateID:         templateID,
	}
	s.entries[id] = e
	s.entryOrder = append(s.entryOrder, id)
	s.markDirty(CollectionEntries)
	return e.Clone(), nil
}

// UpdateEntryContent replaces the whole content of an entry.
func (s *Store) UpdateEntryContent(entryID string, content []models.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok {
		return
	}
	e.Content = models.CloneBlocks(content)
	e.LastEditedDatetime = s.now()
	s.markDirty(CollectionEntries)
}

// EntryPatch lists metadata fields to overwrite; nil fields are kept.
type EntryPatch struct {
	Title          *string
	ProjectID      *string
	ExperimentID   *string
	Tags           []string
	ProjectTags    []string
	ExperimentTags []string
}

// PatchEntryMetadata applies patch to an entry.
func (s *Store) PatchEntryMetadata(entryID string, patch EntryPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok {
		return
	}
	if patch.Title != nil {
		if t := normalizeTitle(*patch.Title); t != "" {
			e.Title = t
		}
	}
	if patch.ProjectID != nil {
		e.ProjectID = *patch.ProjectID
	}
	if patch.ExperimentID != nil {
		e.ExperimentID = *patch.ExperimentID
	}
	if patch.Tags != nil {
		e.Tags = dedupe(patch.Tags)
	}
	if patch.ProjectTags != nil {
		e.ProjectTags = dedupe(patch.ProjectTags)
	}
	if patch.ExperimentTags != nil {
		e.ExperimentTags = dedupe(patch.ExperimentTags)
	}
	e.LastEditedDatetime = s.now()
	s.markDirty(CollectionEntries)
}

// ArchiveEntry hides an entry from default listings. Entries are never
// deleted.
func (s *Store) ArchiveEntry(entryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok || e.Archived {
		return
	}
	e.Archived = true
	e.LastEditedDatetime = s.now()
	s.markDirty(CollectionEntries)
}

// LinkFile records attachmentID in the entry's linked files.
func (s *Store) LinkFile(entryID, attachmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok || slices.Contains(e.LinkedFiles, attachmentID) {
		return
	}
	e.LinkedFiles = append(e.LinkedFiles, attachmentID)
	e.LastEditedDatetime = s.now()
	s.markDirty(CollectionEntries)
}

// AddAttachment stores a new attachment, assigning an id when missing.
func (s *Store) AddAttachment(a models.Attachment) models.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = s.newID()
	}
	stored := a
	s.attachments = append(s.attachments, &stored)
	s.markDirty(CollectionAttachments)
	return a
}

// SetAttachmentPinnedOffline toggles the offline policy hint.
func (s *Store) SetAttachmentPinnedOffline(id string, pinned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.attachments {
		if a.ID == id {
			if a.PinnedOffline != pinned {
				a.PinnedOffline = pinned
				s.markDirty(CollectionAttachments)
			}
			return
		}
	}
}

// SetAttachmentThumbnail sets the session-local preview handle. Thumbnails
// are not persisted, so this does not mark the collection dirty.
func (s *Store) SetAttachmentThumbnail(id, thumbnail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.attachments {
		if a.ID == id {
			a.Thumbnail = thumbnail
			return
		}
	}
}

func (s *Store) Projects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out
}

func (s *Store) Experiments(projectID string) []models.Experiment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Experiment, 0, len(s.experiments))
	for _, e := range s.experiments {
		if projectID == "" || e.ProjectID == projectID {
			out = append(out, *e)
		}
	}
	return out
}

// Entries returns entries in creation order. Archived entries are included
// only when includeArchived is set.
func (s *Store) Entries(includeArchived bool) []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Entry, 0, len(s.entryOrder))
	for _, id := range s.entryOrder {
		e := s.entries[id]
		if e.Archived && !includeArchived {
			continue
		}
		out = append(out, e.Clone())
	}
	return out
}

func (s *Store) Entry(id string) (models.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return models.Entry{}, false
	}
	return e.Clone(), true
}

// EntriesByDateBucket returns non-archived entries created on day
// (YYYY-MM-DD).
func (s *Store) EntriesByDateBucket(day string) []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Entry
	for _, id := range s.entryOrder {
		e := s.entries[id]
		if e.DateBucket == day && !e.Archived {
			out = append(out, e.Clone())
		}
	}
	return out
}

func (s *Store) Attachment(id string) (models.Attachment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.attachments {
		if a.ID == id {
			return *a, true
		}
	}
	return models.Attachment{}, false
}

// AttachmentsByID indexes every attachment by id.
func (s *Store) AttachmentsByID() map[string]models.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.Attachment, len(s.attachments))
	for _, a := range s.attachments {
		out[a.ID] = *a
	}
	return out
}

func (s *Store) AttachmentsForEntry(entryID string) []models.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Attachment
	for _, a := range s.attachments {
		if a.EntryID == entryID {
			out = append(out, *a)
		}
	}
	return out
}

// Templates returns the template catalogue.
func (s *Store) Templates() map[string]Template {
	return s.templates
}

// tagSet is dedupe that keeps an absent tag list nil.
func tagSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return dedupe(values)
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
