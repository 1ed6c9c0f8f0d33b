package remote

import (
	"context"

	"smartshop/internal/domain/model"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const productsCollection = "products"

// Catalog はリモートのドキュメントストア（Firestore）側のカタログ。
// 1商品=1ドキュメント、ドキュメントIDは商品ID。userIdフィールドで絞り込む。
type Catalog struct {
	client *firestore.Client
	log    *zap.Logger
}

func NewCatalog(ctx context.Context, projectID string, credentialsFile string, log *zap.Logger) (*Catalog, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}
	return &Catalog{client: client, log: log}, nil
}

func (c *Catalog) Close() error {
	return c.client.Close()
}

// Firestoreに置くドキュメントの形。priceは数値で持つ。
type productDoc struct {
	ID       string  `firestore:"id"`
	Name     string  `firestore:"name"`
	Quantity int64   `firestore:"quantity"`
	Price    float64 `firestore:"price"`
	UserID   string  `firestore:"userId"`
	ImageURL string  `firestore:"imageUrl"`
}

func toDoc(p model.Product) productDoc {
	return productDoc{
		ID:       p.ID,
		Name:     p.Name,
		Quantity: p.Quantity,
		Price:    p.Price.InexactFloat64(),
		UserID:   p.UserID,
		ImageURL: p.ImageURL,
	}
}

func fromDoc(d productDoc) model.Product {
	return model.Product{
		ID:       d.ID,
		Name:     d.Name,
		Quantity: d.Quantity,
		Price:    decimal.NewFromFloat(d.Price),
		UserID:   d.UserID,
		ImageURL: d.ImageURL,
	}
}

// SaveProduct はドキュメントを全フィールド上書きで保存する（部分更新はしない）。
func (c *Catalog) SaveProduct(ctx context.Context, p model.Product) error {
	_, err := c.client.Collection(productsCollection).Doc(p.ID).Set(ctx, toDoc(p))
	return err
}

func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.client.Collection(productsCollection).Doc(id).Delete(ctx)
	return err
}

// Listen はユーザーのカタログにスナップショットリスナーを張る。
// リモートが変わるたびに差分ではなく全件を届ける。
// エラー時は空スナップショットを届ける（呼び出し側からは商品ゼロと区別できない）。
// 返すstopで購読を止める。
func (c *Catalog) Listen(ctx context.Context, userID string, onSnapshot func([]model.Product)) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		it := c.client.Collection(productsCollection).
			Where("userId", "==", userID).
			Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Warn("catalog listener failed",
					zap.String("user_id", userID),
					zap.Error(err))
				onSnapshot([]model.Product{})
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				c.log.Warn("read catalog snapshot failed",
					zap.String("user_id", userID),
					zap.Error(err))
				onSnapshot([]model.Product{})
				continue
			}

			products := make([]model.Product, 0, len(docs))
			for _, doc := range docs {
				var d productDoc
				if err := doc.DataTo(&d); err != nil {
					c.log.Warn("decode catalog document failed",
						zap.String("doc_id", doc.Ref.ID),
						zap.Error(err))
					continue
				}
				products = append(products, fromDoc(d))
			}

			onSnapshot(products)
		}
	}()

	return cancel
}
