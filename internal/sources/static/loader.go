package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"
)

type format int

const (
	formatJSON format = iota
	formatYAML
)

// Loader reads the static document from a file path or an http(s) URL.
type Loader struct {
	location string
	client   *resty.Client
}

// NewLoader creates a loader for location. Remote locations are fetched
// with the given timeout.
func NewLoader(location string, timeout time.Duration) *Loader {
	return &Loader{
		location: location,
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(200 * time.Millisecond).
			SetHeader("Accept", "application/json, application/yaml"),
	}
}

// Location returns the configured path or URL.
func (l *Loader) Location() string {
	return l.location
}

// IsRemote reports whether the document is fetched over HTTP.
func (l *Loader) IsRemote() bool {
	return isURL(l.location)
}

// Load reads and parses the document.
func (l *Loader) Load(ctx context.Context) (*Document, error) {
	data, f, err := l.read(ctx)
	if err != nil {
		return nil, err
	}

	var doc Document
	switch f {
	case formatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse static document yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse static document json: %w", err)
		}
	}

	return &doc, nil
}

func (l *Loader) read(ctx context.Context) ([]byte, format, error) {
	if !l.IsRemote() {
		data, err := os.ReadFile(l.location)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read static document: %w", err)
		}
		return data, formatFromPath(l.location), nil
	}

	resp, err := l.client.R().SetContext(ctx).Get(l.location)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch static document: %w", err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("failed to fetch static document: unexpected status %d", resp.StatusCode())
	}

	f := formatFromPath(resp.Request.URL)
	if ct := resp.Header().Get("Content-Type"); strings.Contains(ct, "yaml") {
		f = formatYAML
	}
	return resp.Body(), f, nil
}

func formatFromPath(p string) format {
	// Drop any query string before looking at the extension
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
