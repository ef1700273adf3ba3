package static

import (
	"context"

	"github.com/MrSnakeDoc/hublink/internal/domain"
)

// Source loads the static document and maps it to a snapshot in one call.
type Source struct {
	loader *Loader
	mapper *Mapper
}

func NewSource(loader *Loader, mapper *Mapper) *Source {
	return &Source{loader: loader, mapper: mapper}
}

// Snapshot returns a fresh static-origin snapshot.
func (s *Source) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	doc, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.mapper.MapSnapshot(doc)
}

// Loader exposes the underlying loader (used by the file watcher).
func (s *Source) Loader() *Loader {
	return s.loader
}
