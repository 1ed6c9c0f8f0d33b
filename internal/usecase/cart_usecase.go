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

// CartUsecase はカート明細の業務ロジック。
type CartUsecase struct {
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
	hub       *watch.Hub
	idGen     IDGenerator
	log       *zap.Logger
}

// DI
func NewCartUsecase(
	cartItems repo.CartItemRepository,
	products repo.ProductRepository,
	hub *watch.Hub,
	idGen IDGenerator,
	log *zap.Logger,
) *CartUsecase {
	return &CartUsecase{
		cartItems: cartItems,
		products:  products,
		hub:       hub,
		idGen:     idGen,
		log:       log,
	}
}

func topicCart(userID string) string {
	return "cart/" + userID
}

func (u *CartUsecase) notifyCart(userID string) {
	u.hub.Notify(topicCart(userID))
}

func (u *CartUsecase) ListCartItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	items, err := u.cartItems.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

// WatchCartItems は変更のたびにユーザーの全明細を流す。
func (u *CartUsecase) WatchCartItems(ctx context.Context, userID string) <-chan []model.CartItem {
	sig, cancel := u.hub.Subscribe(topicCart(userID))
	out := make(chan []model.CartItem, 1)

	go func() {
		defer cancel()
		defer close(out)

		for {
			items, err := u.cartItems.ListByUser(ctx, userID)
			if err != nil {
				u.log.Warn("list cart items for watch failed",
					zap.String("user_id", userID),
					zap.Error(err))
			} else {
				select {
				case out <- items:
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

// AddToCart は商品をカートに入れる。
// 同じ商品が既にあれば数量を加算し、無ければ現時点の商品名と単価のスナップショットで新規作成する。
func (u *CartUsecase) AddToCart(ctx context.Context, userID string, productID string, quantity int64) error {
	if quantity < 1 {
		return NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	existing, err := u.cartItems.FindByProductAndUser(ctx, productID, userID)
	if err == nil {
		// 加算（上書きではない）
		if err := u.cartItems.UpdateQuantity(ctx, existing.ID, existing.Quantity+quantity); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		u.notifyCart(userID)
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	item := model.CartItem{
		ID:           u.idGen.NewID(),
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductPrice: p.Price,
		Quantity:     quantity,
		UserID:       userID,
	}
	if err := u.cartItems.Create(ctx, item); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.notifyCart(userID)
	return nil
}

// UpdateCartItemQuantity は数量を上書きする。0以下なら行ごと削除する。
// 現在の在庫との突き合わせはここでは行わない。
func (u *CartUsecase) UpdateCartItemQuantity(ctx context.Context, userID string, itemID string, quantity int64) error {
	item, err := u.cartItems.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if item.UserID != userID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if quantity <= 0 {
		if err := u.cartItems.DeleteByID(ctx, itemID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		u.notifyCart(userID)
		return nil
	}

	if err := u.cartItems.UpdateQuantity(ctx, itemID, quantity); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.notifyCart(userID)
	return nil
}

// RemoveFromCart は明細を1行消す。
func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID string, itemID string) error {
	item, err := u.cartItems.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if item.UserID != userID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.cartItems.DeleteByID(ctx, itemID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.notifyCart(userID)
	return nil
}

// ClearCart はユーザーの明細を全部消す。
func (u *CartUsecase) ClearCart(ctx context.Context, userID string) error {
	if err := u.cartItems.ClearByUser(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.notifyCart(userID)
	return nil
}

// CartTotal は（単価×数量）の合計。空カートは0。
func (u *CartUsecase) CartTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	items, err := u.cartItems.ListByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice())
	}
	return total, nil
}
