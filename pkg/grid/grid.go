// Package grid resolves component placements to canonical positions in the
// spec's grid and converts them into Metabase's 24-column grid. Only the
// horizontal axis differs in resolution between the two grids, so only
// horizontal measurements are scaled; row units are identical in both.
package grid

import (
	"fmt"

	"github.com/dashforge/dashforge/pkg/spec"
)

// MetabaseColumns is the fixed column resolution of the backend's grid.
const MetabaseColumns = 24

const (
	defaultSectionWidth = 12
	defaultWidth        = 4
	defaultHeight       = 4
	defaultSlotWidth    = 3
)

// Position is a resolved rectangle in the spec's grid.
type Position struct {
	Row    int
	Col    int
	Width  int
	Height int
}

// DashcardPosition is a card placement in the backend's grid coordinates.
type DashcardPosition struct {
	Col   int `json:"col"`
	Row   int `json:"row"`
	SizeX int `json:"size_x"`
	SizeY int `json:"size_y"`
}

// SectionPosition resolves a section's declared position. A section with no
// position block spans a full default row.
func SectionPosition(pos *spec.Position) Position {
	if pos == nil {
		return Position{Row: 0, Col: 0, Width: defaultSectionWidth, Height: defaultHeight}
	}
	return Position{
		Row:    intOr(pos.Row, 0),
		Col:    intOr(pos.Col, 0),
		Width:  intOr(pos.Width, defaultWidth),
		Height: intOr(pos.Height, defaultHeight),
	}
}

// ResolvePlacement resolves a component's placement within its section to a
// canonical position. An order-based slot lays components out horizontally
// from the section's left edge; without an order the section position is
// reused verbatim.
func ResolvePlacement(section Position, placement *spec.Placement) Position {
	if placement == nil || placement.Order == nil {
		return section
	}

	width := intOr(placement.Width, defaultSlotWidth)
	return Position{
		Row:    section.Row,
		Col:    section.Col + (*placement.Order-1)*width,
		Width:  width,
		Height: section.Height,
	}
}

// Convert maps a position in a sourceColumns-wide grid onto the backend's
// grid. Horizontal measurements scale by MetabaseColumns/sourceColumns,
// truncated toward zero; rows and heights pass through unscaled.
func Convert(pos Position, sourceColumns int) (DashcardPosition, error) {
	if sourceColumns <= 0 {
		return DashcardPosition{}, fmt.Errorf("grid columns must be positive, got %d", sourceColumns)
	}

	scale := float64(MetabaseColumns) / float64(sourceColumns)
	return DashcardPosition{
		Col:   int(float64(pos.Col) * scale),
		Row:   pos.Row,
		SizeX: int(float64(pos.Width) * scale),
		SizeY: pos.Height,
	}, nil
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
