package model

import "github.com/shopspring/decimal"

// 商品。IDはUUID文字列で、リモート側のドキュメントIDと同じ値を使う。
// 1商品は必ず1ユーザーに属する。
type Product struct {
	ID       string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name     string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity int64           `gorm:"not null" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	UserID   string          `gorm:"type:varchar(64);not null;index" json:"userId"`
	ImageURL string          `gorm:"type:text" json:"imageUrl"`
}
