package domain

import "strings"

// Filter returns the links visible for the given category selection and
// search query.
//
// A link is visible when it passes both predicates:
//   - category: selection is empty, or the link belongs to at least one
//     selected category (OR across the selection)
//   - search: query is blank, or its lowercase form is a substring of the
//     lowercase title or of the lowercase description
//
// The result is a new slice that keeps the input order. links is never modified.
func Filter(links []LinkEntry, selectedCategoryIDs []string, query string) []LinkEntry {
	q := normalizeQuery(query)
	selected := categorySet(selectedCategoryIDs)

	visible := make([]LinkEntry, 0, len(links))
	for _, link := range links {
		if !matchesCategorySet(link, selected) {
			continue
		}
		if !matchesNormalizedQuery(link, q) {
			continue
		}
		visible = append(visible, link)
	}
	return visible
}

// FilterByCategory keeps the links belonging to categoryID.
// An empty categoryID means no category filter.
func FilterByCategory(links []LinkEntry, categoryID string) []LinkEntry {
	if categoryID == "" {
		return Filter(links, nil, "")
	}
	return Filter(links, []string{categoryID}, "")
}

// Search keeps the links whose title or description contains query.
func Search(links []LinkEntry, query string) []LinkEntry {
	return Filter(links, nil, query)
}

// MatchesCategories reports whether link passes the category predicate.
func MatchesCategories(link LinkEntry, selectedCategoryIDs []string) bool {
	return matchesCategorySet(link, categorySet(selectedCategoryIDs))
}

// MatchesQuery reports whether link passes the search predicate.
func MatchesQuery(link LinkEntry, query string) bool {
	return matchesNormalizedQuery(link, normalizeQuery(query))
}

func matchesCategorySet(link LinkEntry, selected map[string]struct{}) bool {
	if len(selected) == 0 {
		return true
	}
	for _, id := range link.Categories {
		if _, ok := selected[id]; ok {
			return true
		}
	}
	return false
}

// matchesNormalizedQuery expects q to be lowercased already.
// Title and description are matched independently.
func matchesNormalizedQuery(link LinkEntry, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(link.Title), q) ||
		strings.Contains(strings.ToLower(link.Description), q)
}

// normalizeQuery lowercases the query. A whitespace-only query disables the
// search predicate; otherwise the query is kept verbatim so "Link 2" still
// requires the inner space.
func normalizeQuery(query string) string {
	if strings.TrimSpace(query) == "" {
		return ""
	}
	return strings.ToLower(query)
}

func categorySet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// ToggleCategory adds categoryID to the selection, or removes it when it is
// already selected. The input slice is not modified.
func ToggleCategory(selected []string, categoryID string) []string {
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, id := range selected {
		if id == categoryID {
			found = true
			continue
		}
		out = append(out, id)
	}
	if !found {
		out = append(out, categoryID)
	}
	return out
}
