package model

import "github.com/shopspring/decimal"

// ステータスは固定のenumではなく文字列（既知のラベルは下の3つ）。
const (
	OrderStatusInProgress = "in progress"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 注文。Itemsは作成時に確定するJSON blobで、以後変更しない。
// OrderDateはepochミリ秒。
type Order struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string          `gorm:"type:varchar(64);not null;index" json:"userId"`
	Items       string          `gorm:"type:text;not null" json:"items"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	OrderDate   int64           `gorm:"not null;index" json:"orderDate"`
	Status      string          `gorm:"type:varchar(32);not null" json:"status"`
}
