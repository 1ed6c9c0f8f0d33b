package repository

import (
	"context"
	"database/sql"
	"errors"

	"smartshop/internal/domain/model"
	repo "smartshop/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// userIDが空なら全件。並びはストレージ任せ。
func (r *ProductGormRepository) ListByUser(ctx context.Context, userID string) ([]model.Product, error) {
	var products []model.Product

	tx := r.db.WithContext(ctx)
	if userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}

	if err := tx.Find(&products).Error; err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) error {
	return r.db.WithContext(ctx).Create(&p).Error
}

// IDの行を全フィールド上書き
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":      p.Name,
		"quantity":  p.Quantity,
		"price":     p.Price,
		"user_id":   p.UserID,
		"image_url": p.ImageURL,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除
func (r *ProductGormRepository) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品数
func (r *ProductGormRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64

	tx := r.db.WithContext(ctx).Model(&model.Product{})
	if userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}

	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// 在庫評価額 SUM(price * quantity)
// floatを経由すると丸まるので文字列で受けてdecimalに戻す。
func (r *ProductGormRepository) StockValueByUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	var total sql.NullString

	tx := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("COALESCE(SUM(price * quantity), 0)")
	if userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}

	if err := tx.Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid || total.String == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(total.String)
}
