package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentDefaults(t *testing.T) {
	doc := &Document{}

	assert.Equal(t, "Untitled", doc.Title())
	assert.Empty(t, doc.Description())
	assert.Equal(t, 12, doc.GridColumns())
}

func TestDocumentAccessors(t *testing.T) {
	doc := &Document{
		Meta:   &Meta{Title: "Sales Overview", Description: "Revenue health"},
		Layout: &Layout{Columns: 24},
	}

	assert.Equal(t, "Sales Overview", doc.Title())
	assert.Equal(t, "Revenue health", doc.Description())
	assert.Equal(t, 24, doc.GridColumns())

	// An empty title still falls back, even with meta present
	doc.Meta.Title = ""
	assert.Equal(t, "Untitled", doc.Title())
}

func TestUnmarshalDistinguishesAbsentFromEmpty(t *testing.T) {
	absent, err := Unmarshal([]byte(`{"meta": {"title": "x"}}`))
	assert.NoError(t, err)
	assert.Nil(t, absent.Sections)

	empty, err := Unmarshal([]byte(`{"meta": {"title": "x"}, "sections": []}`))
	assert.NoError(t, err)
	assert.NotNil(t, empty.Sections)
	assert.Empty(t, empty.Sections)
}

func TestUnmarshalRejectsMalformedJSON(t *testing.T) {
	_, err := Unmarshal([]byte(`{"meta":`))
	assert.Error(t, err)
}

func TestLoadFromPath(t *testing.T) {
	doc, err := LoadFromPath("../../test/assets/specs/sales.json")

	assert.NoError(t, err)
	assert.Equal(t, "Sales Overview", doc.Title())
	assert.Len(t, doc.Sections, 2)
	assert.Len(t, doc.Queries, 3)

	_, err = LoadFromPath("../../test/assets/specs/does-not-exist.json")
	assert.Error(t, err)
}
