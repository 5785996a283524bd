package product

import (
	"context"

	"github.com/google/uuid"
)

// Catalog is the read and stock surface that order placement depends on.
// Placement and cancellation move stock inside the order transaction, so the
// order package only calls FindProduct. AdjustInventory is the guarded
// single-row form for callers outside such a transaction.
type Catalog interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	AdjustInventory(ctx context.Context, id uuid.UUID, delta int) error
}

type catalog struct {
	repo Repository
}

func NewCatalog(repo Repository) Catalog {
	return &catalog{repo: repo}
}

func (c *catalog) FindProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return c.repo.FindProduct(ctx, id)
}

func (c *catalog) AdjustInventory(ctx context.Context, id uuid.UUID, delta int) error {
	_, err := c.repo.AdjustInventory(ctx, id, delta)
	return err
}
