package models

import (
	"path/filepath"
	"strings"
	"time"
)

type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

type Experiment struct {
	ID                 string    `json:"id"`
	ProjectID          string    `json:"projectId"`
	Title              string    `json:"title"`
	ProtocolRef        string    `json:"protocolRef,omitempty"`
	DefaultRawDataPath string    `json:"defaultRawDataPath,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// PinnedRegion is a labelled group of blocks inside an entry, created by
// structured templates. Block ids that no longer exist in the entry are
// ignored by readers.
type PinnedRegion struct {
	ID                string   `json:"id"`
	EntryID           string   `json:"entryId"`
	Label             string   `json:"label"`
	BlockIDs          []string `json:"blockIds"`
	LinkedAttachments []string `json:"linkedAttachments,omitempty"`
	Summary           string   `json:"summary,omitempty"`
}

// Entry is one notebook page.
type Entry struct {
	ID                 string         `json:"id"`
	ExperimentID       string         `json:"experimentId,omitempty"`
	ProjectID          string         `json:"projectId,omitempty"`
	CreatedDatetime    time.Time      `json:"createdDatetime"`
	LastEditedDatetime time.Time      `json:"lastEditedDatetime"`
	AuthorID           string         `json:"authorId"`
	Title              string         `json:"title"`
	DateBucket         string         `json:"dateBucket"`
	Content            []Block        `json:"content"`
	Tags               []string       `json:"tags,omitempty"`
	ProjectTags        []string       `json:"projectTags,omitempty"`
	ExperimentTags     []string       `json:"experimentTags,omitempty"`
	LinkedFiles        []string       `json:"linkedFiles,omitempty"`
	PinnedRegions      []PinnedRegion `json:"pinnedRegions,omitempty"`
	TemplateID         string         `json:"templateId,omitempty"`
	Archived           bool           `json:"archived,omitempty"`
}

// Block returns the block with the given id.
func (e Entry) Block(id string) (Block, bool) {
	for _, b := range e.Content {
		if b.ID == id {
			return b, true
		}
	}
	return Block{}, false
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	out := e
	out.Content = CloneBlocks(e.Content)
	out.Tags = cloneStrings(e.Tags)
	out.ProjectTags = cloneStrings(e.ProjectTags)
	out.ExperimentTags = cloneStrings(e.ExperimentTags)
	out.LinkedFiles = cloneStrings(e.LinkedFiles)
	if e.PinnedRegions != nil {
		out.PinnedRegions = make([]PinnedRegion, len(e.PinnedRegions))
		for i, r := range e.PinnedRegions {
			r.BlockIDs = cloneStrings(r.BlockIDs)
			r.LinkedAttachments = cloneStrings(r.LinkedAttachments)
			out.PinnedRegions[i] = r
		}
	}
	return out
}

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentPDF   AttachmentType = "pdf"
	AttachmentFile  AttachmentType = "file"
	AttachmentRaw   AttachmentType = "raw"
)

// Attachment is a stored binary linked to an entry. Thumbnail is a
// session-local preview handle and is never persisted.
type Attachment struct {
	ID            string         `json:"id"`
	EntryID       string         `json:"entryId"`
	Type          AttachmentType `json:"type"`
	Filename      string         `json:"filename"`
	Filesize      string         `json:"filesize"`
	StoragePath   string         `json:"storagePath"`
	CachedPath    string         `json:"cachedPath,omitempty"`
	Thumbnail     string         `json:"-"`
	PinnedOffline bool           `json:"pinnedOffline,omitempty"`
	Tag           string         `json:"tag,omitempty"`
	SampleID      string         `json:"sampleId,omitempty"`
}

// AttachmentTypeFor guesses the attachment type from a file name.
func AttachmentTypeFor(filename string) AttachmentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".tif", ".tiff":
		return AttachmentImage
	case ".pdf":
		return AttachmentPDF
	case ".csv", ".tsv", ".fcs", ".raw", ".dat":
		return AttachmentRaw
	default:
		return AttachmentFile
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
