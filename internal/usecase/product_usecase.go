package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"smartshop/internal/domain/model"
	repo "smartshop/internal/repository"
	"smartshop/internal/watch"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RemoteCatalog はリモートのドキュメントストアとの約束。
// Listenはスナップショットが来るたびに全件を届け、エラー時は空を届ける。
type RemoteCatalog interface {
	Listen(ctx context.Context, userID string, onSnapshot func([]model.Product)) (stop func())
}

// Mirror はローカル書き込みをリモートへ写す非同期キューとの約束。
// ベストエフォートで、失敗しても呼び出し元には返らない。
type Mirror interface {
	EnqueueSave(p model.Product)
	EnqueueDelete(id string)
}

type ProductUsecase struct {
	products repo.ProductRepository
	remote   RemoteCatalog
	mirror   Mirror
	hub      *watch.Hub
	idGen    IDGenerator
	log      *zap.Logger
}

// DI
func NewProductUsecase(
	products repo.ProductRepository,
	remote RemoteCatalog,
	mirror Mirror,
	hub *watch.Hub,
	idGen IDGenerator,
	log *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		remote:   remote,
		mirror:   mirror,
		hub:      hub,
		idGen:    idGen,
		log:      log,
	}
}

// watchトピック。空userIDは「全商品」。
func topicProducts(userID string) string {
	return "products/" + userID
}

func (u *ProductUsecase) notifyProducts(userID string) {
	u.hub.Notify(topicProducts(userID))
	u.hub.Notify(topicProducts(""))
}

// 価格は正、数量は0以上。どちらも書き込み前に弾く。
func validateProduct(p model.Product) error {
	if !p.Price.IsPositive() {
		return NewHTTPError(http.StatusBadRequest, "price must be > 0")
	}
	if p.Quantity < 0 {
		return NewHTTPError(http.StatusBadRequest, "quantity must be >= 0")
	}
	return nil
}

// ListProducts はユーザーの商品一覧（userIDが空なら全件）。
func (u *ProductUsecase) ListProducts(ctx context.Context, userID string) ([]model.Product, error) {
	products, err := u.products.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return products, nil
}

// WatchProducts は変更のたびに全件を流すチャネルを返す。
// 購読はctxの寿命に従い、ctxが終わるとチャネルは閉じる。最初に現時点の全件を流す。
func (u *ProductUsecase) WatchProducts(ctx context.Context, userID string) <-chan []model.Product {
	sig, cancel := u.hub.Subscribe(topicProducts(userID))
	out := make(chan []model.Product, 1)

	go func() {
		defer cancel()
		defer close(out)

		for {
			products, err := u.products.ListByUser(ctx, userID)
			if err != nil {
				u.log.Warn("list products for watch failed",
					zap.String("user_id", userID),
					zap.Error(err))
			} else {
				select {
				case out <- products:
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

// AddProduct は商品を作成し、リモートへのミラー保存を積む。
// IDが空なら新しいUUIDを割り当てて返す。
// ミラーは非同期で、失敗しても呼び出し元には返らない。
func (u *ProductUsecase) AddProduct(ctx context.Context, p model.Product) (model.Product, error) {
	if err := validateProduct(p); err != nil {
		return model.Product{}, err
	}

	p.Name = strings.TrimSpace(p.Name)
	if p.ID == "" {
		p.ID = u.idGen.NewID()
	}

	if err := u.products.Create(ctx, p); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.mirror.EnqueueSave(p)
	u.notifyProducts(p.UserID)
	return p, nil
}

// UpdateProduct はローカルの行をIDで上書きし、リモートも全フィールド上書きで写す。
// 他人の商品は「存在しない扱い」にする。
func (u *ProductUsecase) UpdateProduct(ctx context.Context, p model.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	p.Name = strings.TrimSpace(p.Name)

	existing, err := u.products.FindByID(ctx, p.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing.UserID != p.UserID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	err = u.products.Update(ctx, p)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.mirror.EnqueueSave(p)
	u.notifyProducts(p.UserID)
	return nil
}

// DeleteProduct はローカルの行を消し、リモートのドキュメント削除を積む。
// 他人の商品は「存在しない扱い」にする。
func (u *ProductUsecase) DeleteProduct(ctx context.Context, userID string, productID string) error {
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.UserID != userID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.products.DeleteByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.mirror.EnqueueDelete(productID)
	u.notifyProducts(p.UserID)
	return nil
}

// SyncProductFromRemote はリモートスナップショットの1件をローカルへ取り込む。
// 無ければ挿入、あれば無条件でリモートの値に上書き（リモート優先、版の比較はしない）。
func (u *ProductUsecase) SyncProductFromRemote(ctx context.Context, p model.Product) error {
	_, err := u.products.FindByID(ctx, p.ID)
	if errors.Is(err, repo.ErrNotFound) {
		if err := u.products.Create(ctx, p); err != nil {
			return err
		}
		u.notifyProducts(p.UserID)
		return nil
	}
	if err != nil {
		return err
	}

	if err := u.products.Update(ctx, p); err != nil {
		return err
	}
	u.notifyProducts(p.UserID)
	return nil
}

// StartCatalogSync はリモートのスナップショット購読を張り、
// 届いた全件を1件ずつ取り込む。返すstopで購読を止める。
// 取り込み失敗はログを残して続行する。
func (u *ProductUsecase) StartCatalogSync(ctx context.Context, userID string) func() {
	return u.remote.Listen(ctx, userID, func(products []model.Product) {
		for _, p := range products {
			if err := u.SyncProductFromRemote(ctx, p); err != nil {
				u.log.Warn("sync product from remote failed",
					zap.String("product_id", p.ID),
					zap.Error(err))
			}
		}
	})
}

// 集計（ダッシュボード用）
type ProductStats struct {
	Count      int64           `json:"count"`
	StockValue decimal.Decimal `json:"stockValue"`
}

func (u *ProductUsecase) Stats(ctx context.Context, userID string) (ProductStats, error) {
	count, err := u.products.CountByUser(ctx, userID)
	if err != nil {
		return ProductStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	value, err := u.products.StockValueByUser(ctx, userID)
	if err != nil {
		return ProductStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductStats{Count: count, StockValue: value}, nil
}
