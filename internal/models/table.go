package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableInactive  TableStatus = "inactive"
)

type TableType struct {
	bun.BaseModel `bun:"table:table_types"`

	ID   string `bun:"id,pk" json:"id"`
	Name string `bun:"name" json:"name"`
}

type Table struct {
	bun.BaseModel `bun:"table:tables"`

	ID          string      `bun:"id,pk" json:"id"`
	TableNumber string      `bun:"table_number" json:"table_number"`
	Capacity    int         `bun:"capacity" json:"capacity"`
	TableTypeID string      `bun:"table_type_id" json:"table_type_id"`
	Status      TableStatus `bun:"status" json:"status"`

	// Floor-plan placement, used only for layout display.
	Floor       int    `bun:"floor" json:"floor"`
	PositionX   int    `bun:"position_x" json:"position_x"`
	PositionY   int    `bun:"position_y" json:"position_y"`
	SpanX       int    `bun:"span_x" json:"span_x"`
	SpanY       int    `bun:"span_y" json:"span_y"`
	Orientation string  `bun:"orientation" json:"orientation"`

	CreatedAt time.Time `bun:"created_at" json:"created_at"`

	TableType *TableType `bun:"rel:belongs-to,join:table_type_id=id" json:"table_type,omitempty"`
}

// OverlapsFootprint reports whether the table's floor-plan rectangle overlaps
// another table's rectangle on the same floor. Spans default to 1 cell.
// A table parked off-plan (position_x == -1) never overlaps anything.
func (t *Table) OverlapsFootprint(other *Table) bool {
	if t.Floor != other.Floor || t.PositionX == -1 || other.PositionX == -1 {
		return false
	}
	return rectanglesOverlap(
		t.PositionX, t.PositionY, spanOrOne(t.SpanX), spanOrOne(t.SpanY),
		other.PositionX, other.PositionY, spanOrOne(other.SpanX), spanOrOne(other.SpanY),
	)
}

func spanOrOne(s int) int {
	if s < 1 {
		return 1
	}
	return s
}

func rectanglesOverlap(x1, y1, w1, h1, x2, y2, w2, h2 int) bool {
	return !(x1+w1 <= x2 || x2+w2 <= x1 || y1+h1 <= y2 || y2+h2 <= y1)
}

// TableAvailability is the bulk floor-plan view with live availability.
type TableAvailability struct {
	Table
	IsAvailableForBooking bool `json:"is_available_for_booking"`
}
