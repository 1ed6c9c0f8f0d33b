package handler

import (
	"context"
	"net/http"

	"smartshop/internal/config"
	"smartshop/internal/middleware"
	"smartshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /ordersのHTTP
type OrderHandler struct {
	uc     *usecase.OrderUsecase
	cartUC *usecase.CartUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase, cartUC *usecase.CartUsecase) *OrderHandler {
	return &OrderHandler{uc: uc, cartUC: cartUC}
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// /orders を登録
func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.list)
	g.GET("/stream", h.stream)
	g.POST("", h.place)
	g.PATCH("/:id/status", h.patchStatus)
	g.DELETE("/:id", h.delete)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orders, err := h.uc.ListOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// 現在のカートから注文を確定する。
// usecase側は空カートを黙ってスキップするが、HTTP境界では400を返す。
func (h *OrderHandler) place(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	items, err := h.cartUC.ListCartItems(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	order, created, err := h.uc.CreateOrder(c.Request().Context(), userID, items)
	if err != nil {
		return writeError(c, err)
	}
	if !created {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cart empty"})
	}

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) patchStatus(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID := c.Param("id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Status == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status required"})
	}

	if err := h.uc.UpdateOrderStatus(c.Request().Context(), userID, orderID, req.Status); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID := c.Param("id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.DeleteOrder(c.Request().Context(), userID, orderID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// websocketで注文履歴のliveシーケンスを流す
func (h *OrderHandler) stream(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for orders := range h.uc.WatchOrders(ctx, userID) {
		if err := conn.WriteJSON(orders); err != nil {
			return nil
		}
	}
	return nil
}
