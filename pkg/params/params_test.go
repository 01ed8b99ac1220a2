package params

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dashforge/dashforge/pkg/spec"
)

func TestMapFilterType(t *testing.T) {
	testCases := map[string]string{
		"date_range_preset": "date/all-options",
		"multi_select":      "string/=",
		"single_select":     "string/=",
		"text":              "string/contains",
		"number":            "number/=",
		"something_else":    "string/=",
	}

	for specType, expected := range testCases {
		assert.Equal(t, expected, MapFilterType(specType), "type %q", specType)
	}
}

func TestBuildSentinelDefaultIsOmitted(t *testing.T) {
	parameters := Build(&spec.FilterSet{Items: []spec.Filter{
		{ID: "region", Type: "single_select", Default: "all"},
		{ID: "territory", Type: "single_select", Default: "north"},
	}})

	assert.Len(t, parameters, 2)
	assert.Nil(t, parameters[0].Default)
	assert.Equal(t, "north", parameters[1].Default)

	// The sentinel must be omitted from the wire format, not sent literally
	encoded, err := json.Marshal(parameters[0])
	assert.NoError(t, err)
	assert.NotContains(t, string(encoded), "default")
}

func TestBuildNameFallsBackToID(t *testing.T) {
	parameters := Build(&spec.FilterSet{Items: []spec.Filter{
		{ID: "date_range", Label: "Date Range", Type: "date_range_preset"},
		{ID: "region", Type: "multi_select"},
	}})

	assert.Equal(t, "Date Range", parameters[0].Name)
	assert.Equal(t, "date_range", parameters[0].Slug)
	assert.Equal(t, "region", parameters[1].Name)
	assert.Equal(t, "region", parameters[1].Slug)
}

func TestBuildMissingTypeIsText(t *testing.T) {
	parameters := Build(&spec.FilterSet{Items: []spec.Filter{{ID: "search"}}})

	assert.Equal(t, "string/contains", parameters[0].Type)
}

func TestBuildNoFilters(t *testing.T) {
	assert.Nil(t, Build(nil))
	assert.Empty(t, Build(&spec.FilterSet{}))
}
