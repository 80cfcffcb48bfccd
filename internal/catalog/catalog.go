package catalog

import (
	"context"
	"database/sql"
	"errors"

	"cafe-reservation/internal/models"

	"github.com/uptrace/bun"
)

// DB serves the read-only catalog: menus with their categories and variation
// groups, consumed by customers browsing and by the pricing calculator.
type DB struct {
	Bun *bun.DB
}

// ListMenus returns available menus, optionally narrowed to one category.
func (d *DB) ListMenus(ctx context.Context, categoryID string) ([]*models.Menu, error) {
	var menus []*models.Menu
	q := d.Bun.NewSelect().
		Model(&menus).
		Relation("Category").
		Relation("VariationGroups").
		Relation("VariationGroups.Options", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("sort_order")
		}).
		Where("is_available = ?", true).
		Order("menu_name")
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return menus, nil
}

func (d *DB) GetMenu(ctx context.Context, id string) (*models.Menu, error) {
	var menu models.Menu
	err := d.Bun.NewSelect().
		Model(&menu).
		Relation("Category").
		Relation("VariationGroups").
		Relation("VariationGroups.Options", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("sort_order")
		}).
		Where("menu.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (d *DB) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := d.Bun.NewSelect().
		Model(&categories).
		Order("name").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return categories, nil
}
