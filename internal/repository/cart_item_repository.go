package repository

import (
	"context"

	"smartshop/internal/domain/model"
)

type CartItemRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.CartItem, error)
	FindByID(ctx context.Context, id string) (model.CartItem, error)
	// (productID, userID) の既存明細。無ければErrNotFound
	FindByProductAndUser(ctx context.Context, productID string, userID string) (model.CartItem, error)

	Create(ctx context.Context, item model.CartItem) error
	UpdateQuantity(ctx context.Context, id string, qty int64) error
	DeleteByID(ctx context.Context, id string) error
	ClearByUser(ctx context.Context, userID string) error
}
