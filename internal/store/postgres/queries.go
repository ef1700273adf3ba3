package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/MrSnakeDoc/hublink/internal/domain"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ─────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────

// Settings returns the singleton settings record, or nil when none was saved yet.
func (s *Store) Settings(ctx context.Context) (*domain.CompanyConfig, error) {
	return querySettings(ctx, s.db)
}

// Categories returns all categories by ascending sort order.
func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	return queryCategories(ctx, s.db)
}

// Links returns all links with their category ids.
func (s *Store) Links(ctx context.Context) ([]domain.LinkEntry, error) {
	return queryLinks(ctx, s.db)
}

// HasRole reports whether userID holds role.
func (s *Store) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`,
		userID, role,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return ok, nil
}

func querySettings(ctx context.Context, db executor) (*domain.CompanyConfig, error) {
	var (
		cfg   domain.CompanyConfig
		theme []byte
	)
	err := db.QueryRowContext(ctx, `
		SELECT company_name, company_tagline, welcome_message, logo, theme
		FROM settings WHERE id = 1`,
	).Scan(&cfg.CompanyName, &cfg.CompanyTagline, &cfg.WelcomeMessage, &cfg.Logo, &theme)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	if len(theme) > 0 {
		if err := json.Unmarshal(theme, &cfg.Theme); err != nil {
			return nil, fmt.Errorf("decode theme: %w", err)
		}
	}
	return &cfg, nil
}

func queryCategories(ctx context.Context, db executor) ([]domain.Category, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, icon FROM categories
		ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func queryLinks(ctx context.Context, db executor) ([]domain.LinkEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT l.id, l.title, l.description, l.url, l.image,
			COALESCE(array_agg(lc.category_id ORDER BY lc.category_id)
				FILTER (WHERE lc.category_id IS NOT NULL), '{}')
		FROM links l
		LEFT JOIN link_categories lc ON lc.link_id = l.id
		GROUP BY l.id
		ORDER BY l.sort_order ASC, l.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []domain.LinkEntry
	for rows.Next() {
		var (
			l    domain.LinkEntry
			cats []string
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.URL, &l.Image, pq.Array(&cats)); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		if cats == nil {
			cats = []string{}
		}
		l.Categories = cats
		links = append(links, l)
	}
	return links, rows.Err()
}

// ─────────────────────────────────────────────────────────────────
// Save
// ─────────────────────────────────────────────────────────────────

// ReplaceContent makes the store hold exactly cfg, categories and links.
// Rows are upserted, rows absent from the input are deleted, and the
// whole operation runs in one transaction: on failure nothing changes.
// Slice order becomes the stored sort order.
func (s *Store) ReplaceContent(ctx context.Context, cfg domain.CompanyConfig, categories []domain.Category, links []domain.LinkEntry) error {
	return s.runInTransaction(ctx, func(tx executor) error {
		if err := upsertSettings(ctx, tx, cfg); err != nil {
			return err
		}

		categoryIDs := make([]string, 0, len(categories))
		for i, c := range categories {
			if err := upsertCategory(ctx, tx, c, i); err != nil {
				return err
			}
			categoryIDs = append(categoryIDs, c.ID)
		}

		linkIDs := make([]string, 0, len(links))
		for i, l := range links {
			if err := upsertLink(ctx, tx, l, i); err != nil {
				return err
			}
			linkIDs = append(linkIDs, l.ID)
		}

		if err := replaceAssociations(ctx, tx, links, linkIDs); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM links WHERE NOT (id = ANY($1))`, pq.Array(linkIDs)); err != nil {
			return fmt.Errorf("delete stale links: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM categories WHERE NOT (id = ANY($1))`, pq.Array(categoryIDs)); err != nil {
			return fmt.Errorf("delete stale categories: %w", err)
		}
		return nil
	})
}

func upsertSettings(ctx context.Context, db executor, cfg domain.CompanyConfig) error {
	theme, err := json.Marshal(cfg.Theme)
	if err != nil {
		return fmt.Errorf("encode theme: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO settings (id, company_name, company_tagline, welcome_message, logo, theme, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			company_tagline = EXCLUDED.company_tagline,
			welcome_message = EXCLUDED.welcome_message,
			logo = EXCLUDED.logo,
			theme = EXCLUDED.theme,
			updated_at = now()`,
		cfg.CompanyName, cfg.CompanyTagline, cfg.WelcomeMessage, cfg.Logo, theme,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func upsertCategory(ctx context.Context, db executor, c domain.Category, order int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO categories (id, name, icon, sort_order)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			icon = EXCLUDED.icon,
			sort_order = EXCLUDED.sort_order`,
		c.ID, c.Name, c.Icon, order,
	)
	if err != nil {
		return fmt.Errorf("upsert category %s: %w", c.ID, err)
	}
	return nil
}

func upsertLink(ctx context.Context, db executor, l domain.LinkEntry, order int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO links (id, title, description, url, image, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			url = EXCLUDED.url,
			image = EXCLUDED.image,
			sort_order = EXCLUDED.sort_order`,
		l.ID, l.Title, l.Description, l.URL, l.Image, order,
	)
	if err != nil {
		return fmt.Errorf("upsert link %s: %w", l.ID, err)
	}
	return nil
}

func replaceAssociations(ctx context.Context, db executor, links []domain.LinkEntry, linkIDs []string) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM link_categories WHERE link_id = ANY($1)`, pq.Array(linkIDs)); err != nil {
		return fmt.Errorf("clear link categories: %w", err)
	}

	for _, l := range links {
		for _, categoryID := range uniqueStrings(l.Categories) {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO link_categories (link_id, category_id) VALUES ($1, $2)`,
				l.ID, categoryID,
			); err != nil {
				return fmt.Errorf("link %s to category %s: %w", l.ID, categoryID, err)
			}
		}
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
