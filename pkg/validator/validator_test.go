package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dashforge/dashforge/pkg/spec"
	"github.com/dashforge/dashforge/pkg/testutils"
)

var snapshotter = testutils.NewSnapshotter("../../test/assets/snapshots/validator")

func mustUnmarshal(t *testing.T, data string) *spec.Document {
	doc, err := spec.Unmarshal([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestValidateMissingRequiredFields(t *testing.T) {
	result := Validate(mustUnmarshal(t, `{}`))

	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		"Missing required field: meta",
		"Missing required field: sections",
	}, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateEmptySectionsArePresent(t *testing.T) {
	result := Validate(mustUnmarshal(t, `{"meta": {}, "sections": []}`))

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "Untitled", result.Summary.Title)
	assert.Equal(t, 0, result.Summary.SectionsCount)
}

func TestValidateUndefinedQueryReference(t *testing.T) {
	document := `{
		"meta": {"title": "Broken"},
		"sections": [
			{"id": "s1", "components": [
				{"id": "c1", "type": "data_table", "query_id": "missing"}
			]}
		]
	}`

	result := Validate(mustUnmarshal(t, document))

	assert.False(t, result.Valid)
	assert.Equal(t, []string{"Component 'c1' references undefined query: missing"}, result.Errors)
	assert.Equal(t, 1, result.Summary.QueriesCount)
}

func TestValidateFixingReportedErrorsYieldsValid(t *testing.T) {
	document := `{
		"meta": {"title": "Fixed"},
		"sections": [
			{"id": "s1", "components": [
				{"id": "c1", "type": "data_table", "query_id": "q1"}
			]}
		],
		"queries": {"q1": {"sql": "SELECT 1"}}
	}`

	result := Validate(mustUnmarshal(t, document))

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateAnonymousComponentAndSection(t *testing.T) {
	document := `{
		"meta": {},
		"sections": [
			{},
			{"components": [{"query_id": "nope"}]}
		]
	}`

	result := Validate(mustUnmarshal(t, document))

	assert.Equal(t, []string{"Component 'unknown' references undefined query: nope"}, result.Errors)
	assert.Equal(t, []string{"Section 'unknown' has no components"}, result.Warnings)
}

func TestValidateExternalQueryFileWarns(t *testing.T) {
	document := `{
		"meta": {"title": "Files"},
		"sections": [],
		"queries": {
			"external": {"file": "queries/revenue.sql"},
			"inline": {"sql": "SELECT 1"}
		}
	}`

	result := Validate(mustUnmarshal(t, document))

	assert.True(t, result.Valid, "external files are warnings, not errors")
	assert.Equal(t, []string{"Query 'external' references external file - SQL must be inline"}, result.Warnings)
}

func TestValidateCountsDistinctReferencedQueries(t *testing.T) {
	document := `{
		"meta": {"title": "Counts"},
		"sections": [
			{"id": "s1", "components": [
				{"id": "c1", "query_id": "q1"},
				{"id": "c2", "query_id": "q1"},
				{"id": "c3", "query_id": "q2"},
				{"id": "c4"}
			]}
		],
		"queries": {
			"q1": {"sql": "SELECT 1"},
			"q2": {"sql": "SELECT 2"},
			"unreferenced": {"sql": "SELECT 3"}
		}
	}`

	result := Validate(mustUnmarshal(t, document))

	assert.Equal(t, 4, result.Summary.ComponentsCount)
	assert.Equal(t, 2, result.Summary.QueriesCount, "only distinct referenced queries are counted")
}

func TestValidateSalesSpec(t *testing.T) {
	doc, err := spec.LoadFromPath("../../test/assets/specs/sales.json")
	if err != nil {
		t.Fatal(err)
	}

	result := Validate(doc)

	assert.True(t, result.Valid)
	snapshotter.SnapshotTJson(t, result)
}
