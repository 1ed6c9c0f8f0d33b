package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// 注文明細。行としては持たず、orders.itemsにJSONで埋め込む。
type OrderItem struct {
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// EncodeOrderItems は明細リストをorders.items用のblobにする。
func EncodeOrderItems(items []OrderItem) string {
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeOrderItems はblobを明細リストに戻す。
// 壊れたblobは空リスト扱い（エラーにしない）。
func DecodeOrderItems(blob string) []OrderItem {
	var items []OrderItem
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return []OrderItem{}
	}
	if items == nil {
		return []OrderItem{}
	}
	return items
}
