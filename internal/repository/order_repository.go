package repository

import (
	"context"

	"smartshop/internal/domain/model"
)

type OrderRepository interface {
	// 注文日の降順
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	FindByID(ctx context.Context, id string) (model.Order, error)

	Create(ctx context.Context, o model.Order) error
	UpdateStatus(ctx context.Context, id string, status string) error
	DeleteByID(ctx context.Context, id string) error

	CountByUser(ctx context.Context, userID string) (int64, error)
}
