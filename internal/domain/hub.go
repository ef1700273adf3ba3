package domain

import "time"

// Origin identifies where a Snapshot was resolved from.
type Origin string

const (
	OriginStatic Origin = "static"
	OriginRemote Origin = "remote"
)

// ThemeSpec holds the color tokens of the hub, as HSL triplets ("217 91% 60%").
// Values are opaque: they are passed through to clients and never parsed.
type ThemeSpec struct {
	Primary             string `json:"primary" yaml:"primary"`
	PrimaryForeground   string `json:"primaryForeground" yaml:"primaryForeground"`
	Accent              string `json:"accent" yaml:"accent"`
	AccentForeground    string `json:"accentForeground" yaml:"accentForeground"`
	Background          string `json:"background" yaml:"background"`
	Foreground          string `json:"foreground" yaml:"foreground"`
	Card                string `json:"card" yaml:"card"`
	CardForeground      string `json:"cardForeground" yaml:"cardForeground"`
	Secondary           string `json:"secondary" yaml:"secondary"`
	SecondaryForeground string `json:"secondaryForeground" yaml:"secondaryForeground"`
	Muted               string `json:"muted" yaml:"muted"`
	MutedForeground     string `json:"mutedForeground" yaml:"mutedForeground"`
	Border              string `json:"border" yaml:"border"`
}

// CompanyConfig represents the tenant-level settings of the hub.
type CompanyConfig struct {
	// AdminEnabled switches resolution to the remote store when a session exists.
	AdminEnabled bool `json:"adminEnabled" yaml:"adminEnabled"`

	CompanyName    string `json:"companyName" yaml:"companyName" validate:"required"`
	CompanyTagline string `json:"companyTagline" yaml:"companyTagline"`
	WelcomeMessage string `json:"welcomeMessage,omitempty" yaml:"welcomeMessage,omitempty"`

	// Logo is an icon identifier (see ResolveIcon).
	Logo string `json:"logo,omitempty" yaml:"logo,omitempty"`

	Theme ThemeSpec `json:"theme" yaml:"theme"`
}

// Category is a filter facet links can belong to.
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name" validate:"required"`
	Icon string `json:"icon" yaml:"icon"`
}

// LinkEntry is one entry of the directory.
type LinkEntry struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	ID string `json:"id" yaml:"id"`

	// ─────────────────────────────
	// Display
	// ─────────────────────────────

	Title       string `json:"title" yaml:"title" validate:"required"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url" yaml:"url" validate:"required,url"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`

	// ─────────────────────────────
	// Membership
	// ─────────────────────────────

	// Categories holds Category IDs. Order is irrelevant and ids that do not
	// reference an existing Category are kept as-is; they simply never match.
	Categories []string `json:"categories" yaml:"categories"`
}

// Snapshot is one fully resolved configuration bundle.
//
// A Snapshot is read-only once built: a newer resolution replaces it as a
// whole, it is never patched in place. Consumers that need current data
// must read it again from the store.
type Snapshot struct {
	Config     CompanyConfig `json:"config"`
	Categories []Category    `json:"categories"`
	Links      []LinkEntry   `json:"links"`

	Origin     Origin    `json:"origin"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// Link returns the link with the given id.
func (s *Snapshot) Link(id string) (LinkEntry, bool) {
	if s == nil {
		return LinkEntry{}, false
	}
	for _, l := range s.Links {
		if l.ID == id {
			return l, true
		}
	}
	return LinkEntry{}, false
}

// Category returns the category with the given id.
func (s *Snapshot) Category(id string) (Category, bool) {
	if s == nil {
		return Category{}, false
	}
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// LinkIDs returns the set of link ids in the snapshot.
func (s *Snapshot) LinkIDs() map[string]struct{} {
	if s == nil {
		return map[string]struct{}{}
	}
	ids := make(map[string]struct{}, len(s.Links))
	for _, l := range s.Links {
		ids[l.ID] = struct{}{}
	}
	return ids
}
