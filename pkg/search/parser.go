package search

import (
	"strings"
)

// SearchFilters holds the extracted filters and the remaining clean query
type SearchFilters struct {
	Repository  string
	Branch      string
	SearchQuery string // The remaining text to search for
}

// ParseQuery extracts slash commands from the raw query string
// Supported:
// /repo:<name> OR /in:<name> -> Scope to one repository
// /branch:<name> -> Search a specific branch
// <text> -> Remaining text is the SearchQuery
func ParseQuery(raw string) SearchFilters {
	filters := SearchFilters{}
	parts := strings.Fields(raw)
	var cleanParts []string

	for _, part := range parts {
		lowerPart := strings.ToLower(part)

		if strings.HasPrefix(lowerPart, "/repo:") {
			filters.Repository = part[len("/repo:"):]
		} else if strings.HasPrefix(lowerPart, "/in:") {
			// Alias for /repo:
			filters.Repository = part[len("/in:"):]
		} else if strings.HasPrefix(lowerPart, "/branch:") {
			filters.Branch = part[len("/branch:"):]
		} else {
			cleanParts = append(cleanParts, part)
		}
	}

	filters.SearchQuery = strings.Join(cleanParts, " ")
	return filters
}
