package usecase

import (
	"context"
	"errors"
	"net/http"

	"smartshop/internal/domain/model"
	repo "smartshop/internal/repository"
	"smartshop/internal/watch"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	hub    *watch.Hub
	idGen  IDGenerator
	clock  Clock
	log    *zap.Logger
}

// DI
func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	hub *watch.Hub,
	idGen IDGenerator,
	clock Clock,
	log *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:     tx,
		orders: orders,
		hub:    hub,
		idGen:  idGen,
		clock:  clock,
		log:    log,
	}
}

func topicOrders(userID string) string {
	return "orders/" + userID
}

func (u *OrderUsecase) notifyOrders(userID string) {
	u.hub.Notify(topicOrders(userID))
}

func (u *OrderUsecase) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := u.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return orders, nil
}

// WatchOrders は変更のたびにユーザーの全注文を流す（注文日の降順）。
func (u *OrderUsecase) WatchOrders(ctx context.Context, userID string) <-chan []model.Order {
	sig, cancel := u.hub.Subscribe(topicOrders(userID))
	out := make(chan []model.Order, 1)

	go func() {
		defer cancel()
		defer close(out)

		for {
			orders, err := u.orders.ListByUser(ctx, userID)
			if err != nil {
				u.log.Warn("list orders for watch failed",
					zap.String("user_id", userID),
					zap.Error(err))
			} else {
				select {
				case out <- orders:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-sig:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// CreateOrder はカート明細から注文を確定する。
// 空カートは何もしない（注文は作らず、エラーも返さない。createdがfalseになる）。
//
// 確定の手順は1トランザクションで行う：
//  1. 明細を {商品名, 数量, 単価} でスナップショットし、合計を出す
//  2. 注文行を保存（新しいUUID、現在時刻、ステータス "in progress"）
//  3. 行ごとに商品を読み直し、減算後の在庫が0以上になるときだけ減らす
//     （足りない行は在庫に触らずそのまま売上として記録する）
//  4. ユーザーのカートを無条件に空にする
//
// 途中で失敗したときは全部巻き戻る。注文だけ残ってカートが残る、といった
// 中途半端な状態にはならない。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID string, cartItems []model.CartItem) (model.Order, bool, error) {
	if len(cartItems) == 0 {
		return model.Order{}, false, nil
	}

	items := make([]model.OrderItem, 0, len(cartItems))
	total := decimal.Zero
	for _, ci := range cartItems {
		items = append(items, model.OrderItem{
			ProductName: ci.ProductName,
			Quantity:    ci.Quantity,
			Price:       ci.ProductPrice,
		})
		total = total.Add(ci.TotalPrice())
	}

	order := model.Order{
		ID:          u.idGen.NewID(),
		UserID:      userID,
		Items:       model.EncodeOrderItems(items),
		TotalAmount: total,
		OrderDate:   u.clock.Now().UnixMilli(),
		Status:      model.OrderStatusInProgress,
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().Create(ctx, order); err != nil {
			return err
		}

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				// 商品が消えていても注文は通す（在庫調整なし）
				continue
			}
			if err != nil {
				return err
			}

			newQty := p.Quantity - ci.Quantity
			if newQty < 0 {
				// 在庫を負にはしない。減算を見送って売上だけ記録する。
				u.log.Warn("stock short, skipping decrement",
					zap.String("product_id", p.ID),
					zap.Int64("stock", p.Quantity),
					zap.Int64("ordered", ci.Quantity))
				continue
			}

			p.Quantity = newQty
			if err := r.Products().Update(ctx, p); err != nil {
				return err
			}
		}

		return r.CartItems().ClearByUser(ctx, userID)
	})
	if err != nil {
		return model.Order{}, false, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.notifyOrders(userID)
	u.hub.Notify(topicCart(userID))
	u.hub.Notify(topicProducts(userID))
	u.hub.Notify(topicProducts(""))
	return order, true, nil
}

// UpdateOrderStatus はステータスを上書きする。
// ラベルは開いた集合なので中身は検証しない。
func (u *OrderUsecase) UpdateOrderStatus(ctx context.Context, userID string, orderID string, newStatus string) error {
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.UserID != userID {
		//他人の注文は「存在しない扱い」にする
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.orders.UpdateStatus(ctx, orderID, newStatus); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.notifyOrders(userID)
	return nil
}

// DeleteOrder は注文を消す。減算済みの在庫は戻さない。
func (u *OrderUsecase) DeleteOrder(ctx context.Context, userID string, orderID string) error {
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.UserID != userID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.orders.DeleteByID(ctx, orderID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.notifyOrders(userID)
	return nil
}

func (u *OrderUsecase) OrderCount(ctx context.Context, userID string) (int64, error) {
	count, err := u.orders.CountByUser(ctx, userID)
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return count, nil
}
