package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
)

// SnapshotRepository persists one opaque record per collection.
// Get returns (nil, nil) for a key that was never written.
type SnapshotRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Seeds are default entities merged in on hydrate when missing by id.
type Seeds struct {
	Projects    []models.Project
	Experiments []models.Experiment
	Entries     []models.Entry
	Attachments []models.Attachment
}

// takeDirty returns the collections changed since the previous call and
// clears the flags.
func (s *Store) takeDirty() []Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Collection
	for _, c := range Collections {
		if _, ok := s.dirty[c]; ok {
			out = append(out, c)
			delete(s.dirty, c)
		}
	}
	return out
}

// requeueDirty marks collections dirty again after a failed write.
func (s *Store) requeueDirty(cs ...Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cs {
		s.markDirty(c)
	}
}

// Snapshot serializes a whole collection. Entries are written as a map
// keyed by id, the other collections as arrays.
func (s *Store) Snapshot(c Collection) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch c {
	case CollectionProjects:
		return json.Marshal(s.projects)
	case CollectionExperiments:
		return json.Marshal(s.experiments)
	case CollectionEntries:
		return json.Marshal(s.entries)
	case CollectionAttachments:
		return json.Marshal(s.attachments)
	default:
		return nil, fmt.Errorf("unknown collection %q", c)
	}
}

// Hydrate loads every collection from repo and merges seeds that are
// missing by id. Existing records are never overwritten by seeds.
// Collections that received seeds are marked dirty.
func (s *Store) Hydrate(ctx context.Context, repo SnapshotRepository, seeds Seeds) error {
	var (
		projects    []*models.Project
		experiments []*models.Experiment
		entries     map[string]*models.Entry
		attachments []*models.Attachment
	)

	if err := load(ctx, repo, CollectionProjects, &projects); err != nil {
		return err
	}
	if err := load(ctx, repo, CollectionExperiments, &experiments); err != nil {
		return err
	}
	if err := load(ctx, repo, CollectionEntries, &entries); err != nil {
		return err
	}
	if err := load(ctx, repo, CollectionAttachments, &attachments); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects = projects
	s.experiments = experiments
	s.attachments = attachments
	s.entries = make(map[string]*models.Entry, len(entries))
	s.entryOrder = s.entryOrder[:0]
	for id, e := range entries {
		if e == nil {
			continue
		}
		s.entries[id] = e
		s.entryOrder = append(s.entryOrder, id)
	}
	s.sortEntryOrder()

	for _, p := range seeds.Projects {
		if !containsID(s.projects, p.ID, func(x *models.Project) string { return x.ID }) {
			cp := p
			s.projects = append(s.projects, &cp)
			s.markDirty(CollectionProjects)
		}
	}
	for _, e := range seeds.Experiments {
		if !containsID(s.experiments, e.ID, func(x *models.Experiment) string { return x.ID }) {
			cp := e
			s.experiments = append(s.experiments, &cp)
			s.markDirty(CollectionExperiments)
		}
	}
	for _, e := range seeds.Entries {
		if _, ok := s.entries[e.ID]; !ok {
			cp := e.Clone()
			s.entries[e.ID] = &cp
			s.entryOrder = append(s.entryOrder, e.ID)
			s.markDirty(CollectionEntries)
		}
	}
	for _, a := range seeds.Attachments {
		if !containsID(s.attachments, a.ID, func(x *models.Attachment) string { return x.ID }) {
			cp := a
			s.attachments = append(s.attachments, &cp)
			s.markDirty(CollectionAttachments)
		}
	}
	s.sortEntryOrder()
	return nil
}

func (s *Store) sortEntryOrder() {
	slices.SortFunc(s.entryOrder, func(a, b string) int {
		if c := s.entries[a].CreatedDatetime.Compare(s.entries[b].CreatedDatetime); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

func load(ctx context.Context, repo SnapshotRepository, c Collection, dst any) error {
	data, err := repo.Get(ctx, string(c))
	if err != nil {
		return fmt.Errorf("load %s snapshot: %w", c, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s snapshot: %w", c, err)
	}
	return nil
}

func containsID[T any](items []T, id string, key func(T) string) bool {
	for _, it := range items {
		if key(it) == id {
			return true
		}
	}
	return false
}
