package model

import "github.com/shopspring/decimal"

// カートの明細。
// 商品名と単価は追加時点のスナップショット（商品を後から編集しても変わらない）。
// (ProductID, UserID) につき1行。重複追加は数量加算で解決する。
type CartItem struct {
	ID           string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProductID    string          `gorm:"type:varchar(36);not null;index" json:"productId"`
	ProductName  string          `gorm:"type:varchar(255);not null" json:"productName"`
	ProductPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"productPrice"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	UserID       string          `gorm:"type:varchar(64);not null;index" json:"userId"`
}

// 明細の小計
func (c CartItem) TotalPrice() decimal.Decimal {
	return c.ProductPrice.Mul(decimal.NewFromInt(c.Quantity))
}
