// Package validator performs the semantic check of a parsed spec document.
// It never fails with an error return: every problem is reported inside the
// result, and warnings never affect validity.
package validator

import (
	"fmt"
	"sort"

	"github.com/dashforge/dashforge/pkg/spec"
)

type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Summary  Summary  `json:"summary"`
}

// Summary counts what the spec declares. QueriesCount is the number of
// distinct query ids actually referenced by components, not the number of
// declared queries. FiltersCount is present only when the spec has filters.
type Summary struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	SectionsCount   int    `json:"sections_count"`
	ComponentsCount int    `json:"components_count"`
	QueriesCount    int    `json:"queries_count"`
	FiltersCount    *int   `json:"filters_count,omitempty"`
}

// Validate checks a spec document and reports errors, warnings and a
// summary. The document is not modified.
func Validate(doc *spec.Document) *Result {
	errors := []string{}
	warnings := []string{}

	if doc.Meta == nil {
		errors = append(errors, "Missing required field: meta")
	}
	if doc.Sections == nil {
		errors = append(errors, "Missing required field: sections")
	}

	componentsCount := 0
	queriesNeeded := map[string]bool{}

	for _, section := range doc.Sections {
		if section.Components == nil {
			sectionID := section.ID
			if sectionID == "" {
				sectionID = "unknown"
			}
			warnings = append(warnings, fmt.Sprintf("Section '%s' has no components", sectionID))
			continue
		}

		for _, component := range section.Components {
			componentsCount++
			if component.QueryID == "" {
				continue
			}
			queriesNeeded[component.QueryID] = true

			if _, ok := doc.Queries[component.QueryID]; !ok {
				componentID := component.ID
				if componentID == "" {
					componentID = "unknown"
				}
				errors = append(errors, fmt.Sprintf("Component '%s' references undefined query: %s", componentID, component.QueryID))
			}
		}
	}

	queryIDs := make([]string, 0, len(doc.Queries))
	for queryID := range doc.Queries {
		queryIDs = append(queryIDs, queryID)
	}
	sort.Strings(queryIDs)
	for _, queryID := range queryIDs {
		if query := doc.Queries[queryID]; query.SQL == "" && query.File != "" {
			warnings = append(warnings, fmt.Sprintf("Query '%s' references external file - SQL must be inline", queryID))
		}
	}

	summary := Summary{
		Title:           doc.Title(),
		Description:     doc.Description(),
		SectionsCount:   len(doc.Sections),
		ComponentsCount: componentsCount,
		QueriesCount:    len(queriesNeeded),
	}
	if doc.Filters != nil {
		filtersCount := len(doc.Filters.Items)
		summary.FiltersCount = &filtersCount
	}

	return &Result{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
		Summary:  summary,
	}
}
