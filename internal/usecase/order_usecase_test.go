package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartshop/internal/domain/model"
	repo "smartshop/internal/repository"
	"smartshop/internal/usecase"
	"smartshop/internal/watch"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// =====================
// Mock: OrderRepository
// =====================

type OrderRepoMock struct {
	mock.Mock
}

func (m *OrderRepoMock) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, id string) (model.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, o model.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, id string, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *OrderRepoMock) DeleteByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *OrderRepoMock) CountByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// =====================
// Fake: TransactionManager
// =====================

// fnにそのままモックのリポジトリを渡す。fnがエラーを返したら同じエラーを返す
// （巻き戻し相当。本物のDBは使わない）。
type fakeTxManager struct {
	repos fakeTxRepos
}

type fakeTxRepos struct {
	products  *ProdRepoMock
	cartItems *CartRepoMock
	orders    *OrderRepoMock
}

func (r fakeTxRepos) Products() repo.ProductRepository   { return r.products }
func (r fakeTxRepos) CartItems() repo.CartItemRepository { return r.cartItems }
func (r fakeTxRepos) Orders() repo.OrderRepository       { return r.orders }

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

type fixedClock struct{ at time.Time }

func (c *fixedClock) Now() time.Time { return c.at }

func newOrderUC(tx *fakeTxManager, orders *OrderRepoMock) *usecase.OrderUsecase {
	clock := &fixedClock{at: time.UnixMilli(1_700_000_000_000)}
	return usecase.NewOrderUsecase(tx, orders, watch.NewHub(), &fixedIDGen{id: "order-id"}, clock, zap.NewNop())
}

func newTx() *fakeTxManager {
	return &fakeTxManager{repos: fakeTxRepos{
		products:  new(ProdRepoMock),
		cartItems: new(CartRepoMock),
		orders:    new(OrderRepoMock),
	}}
}

// =====================
// CreateOrder
// =====================

func TestOrderUsecase_CreateOrder_EmptyCartDoesNothing(t *testing.T) {
	tx := newTx()
	uc := newOrderUC(tx, new(OrderRepoMock))

	order, created, err := uc.CreateOrder(context.Background(), "u1", nil)

	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.Order{}, order)
	tx.repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CreateOrder_DecrementsStockAndClearsCart(t *testing.T) {
	tx := newTx()
	uc := newOrderUC(tx, new(OrderRepoMock))

	cart := []model.CartItem{
		{ID: "r1", ProductID: "p1", ProductName: "Keyboard", ProductPrice: decimal.NewFromInt(40), Quantity: 3, UserID: "u1"},
	}

	tx.repos.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.ID == "order-id" &&
			o.UserID == "u1" &&
			o.Status == model.OrderStatusInProgress &&
			o.OrderDate == int64(1_700_000_000_000) &&
			o.TotalAmount.Equal(decimal.NewFromInt(120))
	})).Return(nil)
	tx.repos.products.On("FindByID", mock.Anything, "p1").
		Return(model.Product{ID: "p1", Quantity: 5, Price: decimal.NewFromInt(40), UserID: "u1"}, nil)
	tx.repos.products.On("Update", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.ID == "p1" && p.Quantity == 2
	})).Return(nil)
	tx.repos.cartItems.On("ClearByUser", mock.Anything, "u1").Return(nil)

	order, created, err := uc.CreateOrder(context.Background(), "u1", cart)

	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "order-id", order.ID)

	items := model.DecodeOrderItems(order.Items)
	assert.Equal(t, 1, len(items))
	assert.Equal(t, "Keyboard", items[0].ProductName)
	assert.Equal(t, int64(3), items[0].Quantity)

	tx.repos.orders.AssertExpectations(t)
	tx.repos.products.AssertExpectations(t)
	tx.repos.cartItems.AssertExpectations(t)
}

func TestOrderUsecase_CreateOrder_StockShortSkipsDecrement(t *testing.T) {
	tx := newTx()
	uc := newOrderUC(tx, new(OrderRepoMock))

	cart := []model.CartItem{
		{ID: "r1", ProductID: "p1", ProductName: "Keyboard", ProductPrice: decimal.NewFromInt(40), Quantity: 10, UserID: "u1"},
	}

	tx.repos.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	tx.repos.products.On("FindByID", mock.Anything, "p1").
		Return(model.Product{ID: "p1", Quantity: 5, Price: decimal.NewFromInt(40), UserID: "u1"}, nil)
	tx.repos.cartItems.On("ClearByUser", mock.Anything, "u1").Return(nil)

	// 在庫不足でも注文は通り、カートも空になる。在庫だけ触らない。
	_, created, err := uc.CreateOrder(context.Background(), "u1", cart)

	assert.NoError(t, err)
	assert.True(t, created)
	tx.repos.products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	tx.repos.cartItems.AssertExpectations(t)
}

func TestOrderUsecase_CreateOrder_MissingProductIsSkipped(t *testing.T) {
	tx := newTx()
	uc := newOrderUC(tx, new(OrderRepoMock))

	cart := []model.CartItem{
		{ID: "r1", ProductID: "gone", ProductName: "Old", ProductPrice: decimal.NewFromInt(5), Quantity: 1, UserID: "u1"},
	}

	tx.repos.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	tx.repos.products.On("FindByID", mock.Anything, "gone").Return(model.Product{}, repo.ErrNotFound)
	tx.repos.cartItems.On("ClearByUser", mock.Anything, "u1").Return(nil)

	_, created, err := uc.CreateOrder(context.Background(), "u1", cart)

	assert.NoError(t, err)
	assert.True(t, created)
	tx.repos.products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CreateOrder_TxFailureReturnsError(t *testing.T) {
	tx := newTx()
	uc := newOrderUC(tx, new(OrderRepoMock))

	cart := []model.CartItem{
		{ID: "r1", ProductID: "p1", ProductPrice: decimal.NewFromInt(5), Quantity: 1, UserID: "u1"},
	}

	tx.repos.orders.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	_, created, err := uc.CreateOrder(context.Background(), "u1", cart)

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 500, he.Status)
	assert.False(t, created)
}

// =====================
// WatchOrders
// =====================

func recvOrders(t *testing.T, ch <-chan []model.Order) []model.Order {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed early")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("no emission")
	}
	return nil
}

func TestOrderUsecase_WatchOrders_InitialThenReemitOnChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	orders := new(OrderRepoMock)
	uc := newOrderUC(newTx(), orders)

	pending := model.Order{ID: "o1", UserID: "u1", Status: model.OrderStatusInProgress}
	delivered := pending
	delivered.Status = model.OrderStatusDelivered

	orders.On("ListByUser", mock.Anything, "u1").Return([]model.Order{pending}, nil).Once()
	orders.On("ListByUser", mock.Anything, "u1").Return([]model.Order{delivered}, nil)
	orders.On("FindByID", mock.Anything, "o1").Return(pending, nil)
	orders.On("UpdateStatus", mock.Anything, "o1", model.OrderStatusDelivered).Return(nil)

	ch := uc.WatchOrders(ctx, "u1")

	// 購読直後に現時点の全件が届く
	initial := recvOrders(t, ch)
	assert.Equal(t, 1, len(initial))
	assert.Equal(t, model.OrderStatusInProgress, initial[0].Status)

	// ステータス変更で全件が再送される
	assert.NoError(t, uc.UpdateOrderStatus(ctx, "u1", "o1", model.OrderStatusDelivered))
	next := recvOrders(t, ch)
	assert.Equal(t, model.OrderStatusDelivered, next[0].Status)

	cancel()
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-time.After(time.Second):
			t.Fatal("channel did not close")
		}
	}
}

// =====================
// UpdateOrderStatus / DeleteOrder
// =====================

func TestOrderUsecase_UpdateOrderStatus_OtherUsersOrderIsNotFound(t *testing.T) {
	orders := new(OrderRepoMock)
	uc := newOrderUC(newTx(), orders)

	orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", UserID: "owner"}, nil)

	err := uc.UpdateOrderStatus(context.Background(), "intruder", "o1", model.OrderStatusDelivered)

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 404, he.Status)
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_UpdateOrderStatus_AcceptsAnyLabel(t *testing.T) {
	orders := new(OrderRepoMock)
	uc := newOrderUC(newTx(), orders)

	orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", UserID: "u1"}, nil)
	orders.On("UpdateStatus", mock.Anything, "o1", "on hold").Return(nil)

	err := uc.UpdateOrderStatus(context.Background(), "u1", "o1", "on hold")

	assert.NoError(t, err)
	orders.AssertExpectations(t)
}

func TestOrderUsecase_DeleteOrder(t *testing.T) {
	orders := new(OrderRepoMock)
	uc := newOrderUC(newTx(), orders)

	orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", UserID: "u1"}, nil)
	orders.On("DeleteByID", mock.Anything, "o1").Return(nil)

	err := uc.DeleteOrder(context.Background(), "u1", "o1")

	assert.NoError(t, err)
	orders.AssertExpectations(t)
}
