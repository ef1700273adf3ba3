package static

import "github.com/MrSnakeDoc/hublink/internal/domain"

// Document is the root structure of config.json / config.yaml.
//
//	{ "config": {...}, "categories": [...], "links": [...] }
type Document struct {
	Config     *domain.CompanyConfig `json:"config" yaml:"config"`
	Categories []domain.Category     `json:"categories" yaml:"categories"`
	Links      []domain.LinkEntry    `json:"links" yaml:"links"`
}
