package static

import (
	"errors"
	"time"

	"github.com/MrSnakeDoc/hublink/internal/domain"
)

// ErrMissingConfig is returned for documents without a "config" section.
var ErrMissingConfig = errors.New("static document has no config section")

// Mapper converts a Document into a domain snapshot and back.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a new mapper
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// MapSnapshot builds a static-origin snapshot from doc.
func (m *Mapper) MapSnapshot(doc *Document) (*domain.Snapshot, error) {
	if doc == nil || doc.Config == nil {
		return nil, ErrMissingConfig
	}

	categories := make([]domain.Category, len(doc.Categories))
	copy(categories, doc.Categories)

	links := make([]domain.LinkEntry, 0, len(doc.Links))
	for _, l := range doc.Links {
		cats := make([]string, len(l.Categories))
		copy(cats, l.Categories)
		l.Categories = cats
		links = append(links, l)
	}

	return &domain.Snapshot{
		Config:     *doc.Config,
		Categories: categories,
		Links:      links,
		Origin:     domain.OriginStatic,
		ResolvedAt: m.now(),
	}, nil
}

// DocumentFrom renders a snapshot in static document shape, whatever its origin.
func DocumentFrom(snap *domain.Snapshot) *Document {
	cfg := snap.Config
	doc := &Document{
		Config:     &cfg,
		Categories: snap.Categories,
		Links:      snap.Links,
	}
	if doc.Categories == nil {
		doc.Categories = []domain.Category{}
	}
	if doc.Links == nil {
		doc.Links = []domain.LinkEntry{}
	}
	return doc
}
