package repository_test

import (
	"context"
	"testing"

	"smartshop/internal/domain/model"
	infraRepo "smartshop/internal/infra/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, id string, userID string, price string, qty int64) {
	t.Helper()

	p := model.Product{
		ID:       id,
		Name:     "seed-" + id,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
		UserID:   userID,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestProductGormRepository_StockValueByUser_EmptyIsZero(t *testing.T) {
	repo := infraRepo.NewProductGormRepository(newTestDB(t))

	total, err := repo.StockValueByUser(context.Background(), "u1")

	assert.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestProductGormRepository_StockValueByUser_SumsPriceTimesQuantity(t *testing.T) {
	db := newTestDB(t)
	repo := infraRepo.NewProductGormRepository(db)

	seedProduct(t, db, "p1", "u1", "40", 2)
	seedProduct(t, db, "p2", "u1", "0.25", 4)
	seedProduct(t, db, "p3", "u2", "15", 3)

	// ユーザー絞り込み
	total, err := repo.StockValueByUser(context.Background(), "u1")
	assert.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(81)), "got %s", total)

	// 空userIDは全ユーザー分
	all, err := repo.StockValueByUser(context.Background(), "")
	assert.NoError(t, err)
	assert.True(t, all.Equal(decimal.NewFromInt(126)), "got %s", all)
}

func TestProductGormRepository_CountByUser(t *testing.T) {
	db := newTestDB(t)
	repo := infraRepo.NewProductGormRepository(db)

	seedProduct(t, db, "p1", "u1", "10", 1)
	seedProduct(t, db, "p2", "u1", "10", 1)
	seedProduct(t, db, "p3", "u2", "10", 1)

	count, err := repo.CountByUser(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	all, err := repo.CountByUser(context.Background(), "")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), all)
}
