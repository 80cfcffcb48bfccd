package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func placed(floor, x, y, spanX, spanY int) *Table {
	return &Table{Floor: floor, PositionX: x, PositionY: y, SpanX: spanX, SpanY: spanY}
}

func TestOverlapsFootprint(t *testing.T) {
	base := placed(1, 2, 2, 2, 2) // occupies cells (2,2)-(3,3)

	assert.True(t, base.OverlapsFootprint(placed(1, 3, 3, 1, 1)), "corner cell shared")
	assert.True(t, base.OverlapsFootprint(placed(1, 1, 1, 2, 2)), "partial overlap from the other side")
	assert.True(t, base.OverlapsFootprint(placed(1, 2, 2, 2, 2)), "identical footprint")

	assert.False(t, base.OverlapsFootprint(placed(1, 4, 2, 1, 1)), "adjacent on the right")
	assert.False(t, base.OverlapsFootprint(placed(1, 2, 4, 1, 1)), "adjacent below")
	assert.False(t, base.OverlapsFootprint(placed(2, 2, 2, 2, 2)), "same cells on another floor")
}

func TestOverlapsFootprintOffPlanTables(t *testing.T) {
	onPlan := placed(1, 2, 2, 1, 1)
	offPlan := placed(1, -1, 0, 1, 1)

	assert.False(t, onPlan.OverlapsFootprint(offPlan))
	assert.False(t, offPlan.OverlapsFootprint(onPlan))
}

func TestOverlapsFootprintDefaultsSpanToOne(t *testing.T) {
	a := placed(1, 2, 2, 0, 0)
	b := placed(1, 2, 2, 0, 0)
	c := placed(1, 3, 2, 0, 0)

	assert.True(t, a.OverlapsFootprint(b))
	assert.False(t, a.OverlapsFootprint(c))
}
