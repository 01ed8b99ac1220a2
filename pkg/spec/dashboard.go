package spec

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	// DefaultTitle is used when a spec's meta carries no title.
	DefaultTitle = "Untitled"

	// DefaultGridColumns is the column resolution of the spec's grid when
	// the layout block is absent.
	DefaultGridColumns = 12
)

// Document is the declarative dashboard specification. It is immutable
// input: constructed once per validate/compile request and never mutated.
type Document struct {
	Meta     *Meta            `json:"meta,omitempty"`
	Sections []Section        `json:"sections,omitempty"`
	Queries  map[string]Query `json:"queries,omitempty"`
	Filters  *FilterSet       `json:"filters,omitempty"`
	Layout   *Layout          `json:"layout,omitempty"`
}

type Meta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type Layout struct {
	Columns int `json:"columns,omitempty"`
}

// Section groups components. Order is presentation order only.
type Section struct {
	ID         string      `json:"id,omitempty"`
	Position   *Position   `json:"position,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// Position is a rectangle in the spec's grid. Fields are pointers so that
// absent keys can be defaulted per use during position resolution.
type Position struct {
	Row    *int `json:"row,omitempty"`
	Col    *int `json:"col,omitempty"`
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// Placement is a component's position within its section: either an
// order-based slot (Order, 1-based, with an optional Width) or nothing, in
// which case the section's position is reused verbatim.
type Placement struct {
	Order  *int `json:"order,omitempty"`
	Width  *int `json:"width,omitempty"`
	Row    *int `json:"row,omitempty"`
	Col    *int `json:"col,omitempty"`
	Height *int `json:"height,omitempty"`
}

// Component is one visual element within a section, bound to at most one
// query by QueryID.
type Component struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	QueryID  string           `json:"query_id,omitempty"`
	Config   *ComponentConfig `json:"config,omitempty"`
	Position *Placement       `json:"position,omitempty"`
}

// ComponentConfig carries the per-type rendering configuration. Only the
// fields relevant to the component's type are consulted; pointers
// distinguish absent keys from zero values.
type ComponentConfig struct {
	Title           string         `json:"title,omitempty"`
	Format          string         `json:"format,omitempty"`
	Columns         []ColumnConfig `json:"columns,omitempty"`
	XAxis           *AxisConfig    `json:"x_axis,omitempty"`
	YAxis           *AxisConfig    `json:"y_axis,omitempty"`
	ShowLegend      *bool          `json:"show_legend,omitempty"`
	ShowCenterTotal *bool          `json:"show_center_total,omitempty"`
}

type ColumnConfig struct {
	Field string `json:"field,omitempty"`
	Label string `json:"label,omitempty"`
}

type AxisConfig struct {
	Label string `json:"label,omitempty"`
}

// Query holds the SQL backing a card. File references are accepted by the
// parser but cannot be resolved at compile time.
type Query struct {
	SQL  string `json:"sql,omitempty"`
	File string `json:"file,omitempty"`
}

type FilterSet struct {
	Items []Filter `json:"items,omitempty"`
}

// Filter describes one user-facing dashboard filter. Default may be any
// JSON value; the sentinel "all" means no default is applied.
type Filter struct {
	ID      string      `json:"id,omitempty"`
	Label   string      `json:"label,omitempty"`
	Type    string      `json:"type,omitempty"`
	Default interface{} `json:"default,omitempty"`
}

// Title returns the dashboard title, defaulted when meta or title is absent.
func (d *Document) Title() string {
	if d.Meta == nil || d.Meta.Title == "" {
		return DefaultTitle
	}
	return d.Meta.Title
}

// Description returns the dashboard description, empty when absent.
func (d *Document) Description() string {
	if d.Meta == nil {
		return ""
	}
	return d.Meta.Description
}

// GridColumns returns the spec grid's column count.
func (d *Document) GridColumns() int {
	if d.Layout == nil || d.Layout.Columns == 0 {
		return DefaultGridColumns
	}
	return d.Layout.Columns
}

// Unmarshal parses a spec document from JSON.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid spec document: %w", err)
	}
	return &doc, nil
}

// LoadFromPath reads and parses a spec document from a JSON file.
func LoadFromPath(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec '%s': %w", path, err)
	}
	return Unmarshal(data)
}
