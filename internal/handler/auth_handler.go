package handler

import (
	"context"
	"errors"
	"net/http"

	"smartshop/internal/usecase"
	auth "smartshop/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// /authのHTTP。ログイン成功でSessionGateを切り替える。
// appCtxはリクエストより長生きする文脈。リモート購読はこちらに紐づける
// （リクエストのctxはレスポンス後にキャンセルされるため使えない）。
type AuthHandler struct {
	appCtx     context.Context
	registerUC *auth.RegisterUserUsecase
	loginUC    *auth.LoginUsecase
	gate       *usecase.SessionGate
}

// DI
func NewAuthHandler(
	appCtx context.Context,
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	gate *usecase.SessionGate,
) *AuthHandler {
	return &AuthHandler{
		appCtx:     appCtx,
		registerUC: registerUC,
		loginUC:    loginUC,
		gate:       gate,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// /auth を登録（認証前なのでJWTミドルウェアは通さない）
func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/auth")

	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/session", h.session)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmailFormat),
			errors.Is(err, auth.ErrPasswordTooShort):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, out.User)
}

// 失敗は短い文だけ返す（それ以上の詳細はユーザーに見せない）
func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	h.gate.BeginAuth()

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.gate.Fail("invalid email or password")
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid email or password"})
		case errors.Is(err, auth.ErrUserInactive):
			h.gate.Fail("account disabled")
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "account disabled"})
		default:
			h.gate.Fail("login failed")
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
	}

	//サインイン確定。ここでリモートカタログの購読がこのユーザーへ切り替わる。
	h.gate.SignIn(h.appCtx, out.User.ID, out.User.Email)

	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) logout(c echo.Context) error {
	h.gate.SignOut()
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) session(c echo.Context) error {
	return c.JSON(http.StatusOK, h.gate.Current())
}
