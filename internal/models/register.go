package models

import "github.com/uptrace/bun"

// RegisterModels registers the join tables bun needs to resolve m2m
// relations. Call once right after bun.NewDB.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*MenuVariation)(nil))
}
