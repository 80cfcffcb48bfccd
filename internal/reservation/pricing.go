package reservation

import (
	"encoding/json"
	"fmt"
	"math"

	"cafe-reservation/internal/models"
)

// LinePrice is the frozen pricing of one order line.
type LinePrice struct {
	UnitPrice  float64
	Subtotal   float64
	Selections []SelectedOption
}

// SelectedOption is the captured variation choice, serialized onto the
// reservation item so later catalog edits cannot alter historical orders.
type SelectedOption struct {
	GroupID         string  `json:"group_id"`
	GroupName       string  `json:"group_name"`
	OptionID        string  `json:"option_id"`
	OptionName      string  `json:"option_name"`
	PriceAdjustment float64 `json:"price_adjustment"`
}

// PriceLine computes unit price and subtotal for one menu line:
// base price plus the selected options' signed adjustments, times quantity.
// Selections are validated against the owning groups' constraints.
func PriceLine(menu *models.Menu, optionIDs []string, quantity int) (*LinePrice, error) {
	if quantity < 1 {
		return nil, models.NewValidationError("quantity", "must be at least 1")
	}

	selections, err := resolveSelections(menu, optionIDs)
	if err != nil {
		return nil, err
	}

	unit := menu.Price
	for _, sel := range selections {
		unit += sel.PriceAdjustment
	}
	unit = round2(unit)

	return &LinePrice{
		UnitPrice:  unit,
		Subtotal:   round2(unit * float64(quantity)),
		Selections: selections,
	}, nil
}

// resolveSelections maps option ids onto the menu's variation groups and
// enforces the group constraints: required groups need a selection,
// single_choice groups accept at most one, multiple_choice groups honour
// min/max selection counts. Unknown option ids are rejected.
func resolveSelections(menu *models.Menu, optionIDs []string) ([]SelectedOption, error) {
	type groupedOption struct {
		group  *models.VariationGroup
		option *models.VariationOption
	}

	byOptionID := map[string]groupedOption{}
	for _, group := range menu.VariationGroups {
		for _, opt := range group.Options {
			byOptionID[opt.ID] = groupedOption{group: group, option: opt}
		}
	}

	selections := make([]SelectedOption, 0, len(optionIDs))
	perGroup := map[string]int{}
	for _, id := range optionIDs {
		entry, ok := byOptionID[id]
		if !ok {
			return nil, models.NewValidationError("variation_option_ids",
				fmt.Sprintf("option %s does not belong to menu %s", id, menu.ID))
		}
		perGroup[entry.group.ID]++
		selections = append(selections, SelectedOption{
			GroupID:         entry.group.ID,
			GroupName:       entry.group.Name,
			OptionID:        entry.option.ID,
			OptionName:      entry.option.Name,
			PriceAdjustment: entry.option.PriceAdjustment,
		})
	}

	for _, group := range menu.VariationGroups {
		count := perGroup[group.ID]
		switch {
		case group.IsRequired && count == 0:
			return nil, models.NewValidationError("variation_option_ids",
				fmt.Sprintf("variation %q is required for menu %s", group.Name, menu.MenuName))
		case group.Type == models.SingleChoice && count > 1:
			return nil, models.NewValidationError("variation_option_ids",
				fmt.Sprintf("variation %q accepts only one selection", group.Name))
		case group.Type == models.MultipleChoice && count > 0 && count < group.MinSelections:
			return nil, models.NewValidationError("variation_option_ids",
				fmt.Sprintf("variation %q needs at least %d selections", group.Name, group.MinSelections))
		case group.Type == models.MultipleChoice && group.MaxSelections > 0 && count > group.MaxSelections:
			return nil, models.NewValidationError("variation_option_ids",
				fmt.Sprintf("variation %q accepts at most %d selections", group.Name, group.MaxSelections))
		}
	}

	return selections, nil
}

// SerializeSelections renders the captured choices for the item row.
func SerializeSelections(selections []SelectedOption) (string, error) {
	if len(selections) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(selections)
	if err != nil {
		return "", fmt.Errorf("failed to serialize variation selections: %w", err)
	}
	return string(raw), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
