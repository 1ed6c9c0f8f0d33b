package repository

import (
	"context"
	"errors"

	"smartshop/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 商品の永続化（保存・取得）だけを約束。
// userIDが空文字なら全ユーザー分を対象にする。
type ProductRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (model.Product, error)

	Create(ctx context.Context, p model.Product) error
	Update(ctx context.Context, p model.Product) error
	DeleteByID(ctx context.Context, id string) error

	// 集計（件数と在庫評価額 price×quantity の合計）
	CountByUser(ctx context.Context, userID string) (int64, error)
	StockValueByUser(ctx context.Context, userID string) (decimal.Decimal, error)
}
