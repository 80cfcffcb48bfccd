package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID   string `bun:"id,pk" json:"id"`
	Name string `bun:"name" json:"name"`
}

type Menu struct {
	bun.BaseModel `bun:"table:menus"`

	ID          string    `bun:"id,pk" json:"id"`
	MenuName    string    `bun:"menu_name" json:"menu_name"`
	Description string    `bun:"description" json:"description"`
	Price       float64   `bun:"price" json:"price"`
	CategoryID  string    `bun:"category_id" json:"category_id"`
	ImageURL    string    `bun:"image_url,nullzero" json:"image_url,omitempty"`
	IsAvailable bool      `bun:"is_available" json:"is_available"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`

	Category        *Category         `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	VariationGroups []*VariationGroup `bun:"m2m:menu_variations,join:Menu=VariationGroup" json:"variation_groups,omitempty"`
}

type VariationGroupType string

const (
	SingleChoice   VariationGroupType = "single_choice"
	MultipleChoice VariationGroupType = "multiple_choice"
)

type VariationGroup struct {
	bun.BaseModel `bun:"table:variation_groups"`

	ID            string             `bun:"id,pk" json:"id"`
	Name          string             `bun:"name" json:"name"`
	Type          VariationGroupType `bun:"type" json:"type"`
	IsRequired    bool               `bun:"is_required" json:"is_required"`
	MinSelections int                `bun:"min_selections" json:"min_selections"`
	MaxSelections int                `bun:"max_selections,nullzero" json:"max_selections,omitempty"`

	Options []*VariationOption `bun:"rel:has-many,join:id=variation_group_id" json:"options,omitempty"`
}

type VariationOption struct {
	bun.BaseModel `bun:"table:variation_options"`

	ID               string  `bun:"id,pk" json:"id"`
	VariationGroupID string  `bun:"variation_group_id" json:"variation_group_id"`
	Name             string  `bun:"name" json:"name"`
	PriceAdjustment  float64 `bun:"price_adjustment" json:"price_adjustment"`
	IsDefault        bool    `bun:"is_default" json:"is_default"`
	Order            int     `bun:"sort_order" json:"order"`
}

// MenuVariation joins menus to their variation groups.
type MenuVariation struct {
	bun.BaseModel `bun:"table:menu_variations"`

	MenuID           string          `bun:"menu_id,pk"`
	VariationGroupID string          `bun:"variation_group_id,pk"`
	Menu             *Menu           `bun:"rel:belongs-to,join:menu_id=id"`
	VariationGroup   *VariationGroup `bun:"rel:belongs-to,join:variation_group_id=id"`
}
