package hub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

// ContentWriter is the write surface of the remote store.
type ContentWriter interface {
	ReplaceContent(ctx context.Context, cfg domain.CompanyConfig, categories []domain.Category, links []domain.LinkEntry) error
}

// Refresher re-resolves and publishes the configuration.
type Refresher interface {
	Refresh(ctx context.Context) (*domain.Snapshot, error)
}

// EditBuffer is what the admin panel submits: the full desired content.
type EditBuffer struct {
	Config     domain.CompanyConfig `json:"config"`
	Categories []domain.Category    `json:"categories" validate:"dive"`
	Links      []domain.LinkEntry   `json:"links" validate:"dive"`
}

// Saver validates an edit buffer, writes it to the remote store and
// refreshes the published snapshot.
type Saver struct {
	writer   ContentWriter
	store    Refresher
	validate *validator.Validate
	observer Observer
	logger   logger.Logger
	newID    func() string
}

func NewSaver(writer ContentWriter, store Refresher, obs Observer, log logger.Logger) *Saver {
	return &Saver{
		writer:   writer,
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		observer: observerOrNop(obs),
		logger:   log,
		newID:    func() string { return uuid.NewString() },
	}
}

// Save writes buf and returns the refreshed snapshot.
//
// A *ValidationError means nothing was attempted. A *SaveError means the
// store rolled back and no refresh happened, so the published snapshot is
// unchanged. ErrRefreshAfterSave means the data is saved but the refetch
// failed and the previous snapshot is still served.
func (s *Saver) Save(ctx context.Context, buf EditBuffer) (*domain.Snapshot, error) {
	draft := s.normalize(buf)

	if err := s.check(draft); err != nil {
		return nil, err
	}

	if err := s.writer.ReplaceContent(ctx, draft.Config, draft.Categories, draft.Links); err != nil {
		s.observer.ObserveSaveFailure()
		s.logger.Error("admin save failed",
			logger.Error(err))
		return nil, &SaveError{Err: err}
	}

	s.logger.Info("admin save committed",
		logger.Int("categories", len(draft.Categories)),
		logger.Int("links", len(draft.Links)))

	snap, err := s.store.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshAfterSave, err)
	}
	return snap, nil
}

// normalize copies buf, trims identifiers and assigns ids to new entries.
func (s *Saver) normalize(buf EditBuffer) EditBuffer {
	out := EditBuffer{
		Config:     buf.Config,
		Categories: make([]domain.Category, 0, len(buf.Categories)),
		Links:      make([]domain.LinkEntry, 0, len(buf.Links)),
	}
	out.Config.CompanyName = strings.TrimSpace(out.Config.CompanyName)

	for _, c := range buf.Categories {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			c.ID = s.newID()
		}
		c.Name = strings.TrimSpace(c.Name)
		out.Categories = append(out.Categories, c)
	}

	for _, l := range buf.Links {
		l.ID = strings.TrimSpace(l.ID)
		if l.ID == "" {
			l.ID = s.newID()
		}
		l.Title = strings.TrimSpace(l.Title)
		l.URL = strings.TrimSpace(l.URL)
		cats := make([]string, 0, len(l.Categories))
		for _, id := range l.Categories {
			cats = append(cats, strings.TrimSpace(id))
		}
		l.Categories = cats
		out.Links = append(out.Links, l)
	}
	return out
}

func (s *Saver) check(buf EditBuffer) error {
	var problems []string

	if err := s.validate.Struct(buf); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ValidationError{Problems: []string{err.Error()}}
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
		}
	}

	categoryIDs := make(map[string]struct{}, len(buf.Categories))
	for _, c := range buf.Categories {
		if _, dup := categoryIDs[c.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate category id %q", c.ID))
		}
		categoryIDs[c.ID] = struct{}{}
	}

	linkIDs := make(map[string]struct{}, len(buf.Links))
	for _, l := range buf.Links {
		if _, dup := linkIDs[l.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate link id %q", l.ID))
		}
		linkIDs[l.ID] = struct{}{}

		for _, id := range l.Categories {
			if _, ok := categoryIDs[id]; !ok {
				problems = append(problems, fmt.Sprintf("link %q references unknown category %q", l.ID, id))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
