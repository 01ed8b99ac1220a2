// Package params maps spec filters to Metabase dashboard parameters.
package params

import "github.com/dashforge/dashforge/pkg/spec"

// NoDefaultSentinel marks a filter with no default applied. It must be
// omitted from the parameter, not passed through literally.
const NoDefaultSentinel = "all"

// Parameter is a Metabase-native dashboard filter control.
type Parameter struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Slug    string      `json:"slug"`
	Type    string      `json:"type"`
	Default interface{} `json:"default,omitempty"`
}

// filterTypes is the closed mapping from spec filter types to Metabase
// parameter types.
var filterTypes = map[string]string{
	"date_range_preset": "date/all-options",
	"multi_select":      "string/=",
	"single_select":     "string/=",
	"text":              "string/contains",
	"number":            "number/=",
}

// MapFilterType returns the Metabase parameter type for a spec filter type,
// defaulting to a string equality filter.
func MapFilterType(specType string) string {
	if paramType, ok := filterTypes[specType]; ok {
		return paramType
	}
	return "string/="
}

// Build maps every filter to a parameter. Name falls back to the filter id,
// the slug always equals the id, and defaults equal to the sentinel are
// dropped.
func Build(filters *spec.FilterSet) []Parameter {
	if filters == nil {
		return nil
	}

	parameters := make([]Parameter, 0, len(filters.Items))
	for _, item := range filters.Items {
		name := item.Label
		if name == "" {
			name = item.ID
		}

		filterType := item.Type
		if filterType == "" {
			filterType = "text"
		}

		parameter := Parameter{
			ID:   item.ID,
			Name: name,
			Slug: item.ID,
			Type: MapFilterType(filterType),
		}
		if item.Default != nil && item.Default != NoDefaultSentinel {
			parameter.Default = item.Default
		}

		parameters = append(parameters, parameter)
	}

	return parameters
}
