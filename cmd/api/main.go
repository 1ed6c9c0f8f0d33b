package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"smartshop/internal/config"
	"smartshop/internal/domain/model"
	"smartshop/internal/handler"
	"smartshop/internal/infra/db"
	"smartshop/internal/infra/remote"
	infraRepo "smartshop/internal/infra/repository"
	"smartshop/internal/logger"
	"smartshop/internal/mirror"
	"smartshop/internal/server"
	"smartshop/internal/usecase"
	auth "smartshop/internal/usecase/auth_usecase"
	"smartshop/internal/watch"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID string, email string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	// .envは無くてもよい（本番は環境変数のみ）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// SIGINT/SIGTERMでアプリ全体を止める
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
	); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//リモートカタログ（Firestore）
	catalog, err := remote.NewCatalog(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile, log)
	if err != nil {
		log.Fatal("firestore connect failed", zap.Error(err))
	}
	defer catalog.Close()

	//ローカル→リモートのミラーキュー
	mirrorQueue := mirror.NewQueue(catalog, 64, 10*time.Second, log)
	mirrorQueue.Start(ctx)
	defer mirrorQueue.Stop()

	//watch通知のハブ
	hub := watch.NewHub()

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer := &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: 15 * time.Minute,
	}

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, idGen, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	productUC := usecase.NewProductUsecase(productRepo, catalog, mirrorQueue, hub, idGen, log)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, hub, idGen, log)
	orderUC := usecase.NewOrderUsecase(txManager, orderRepo, hub, idGen, clock, log)

	gate := usecase.NewSessionGate(productUC, log)

	//Handler生成
	authH := handler.NewAuthHandler(ctx, registerUC, loginUC, gate)
	productH := handler.NewProductHandler(productUC)
	cartH := handler.NewCartHandler(cartUC)
	orderH := handler.NewOrderHandler(orderUC, cartUC)

	//Server起動
	e := server.New(log)
	server.RegisterRoutes(e, cfg, authH, productH, cartH, orderH)

	if err := server.Start(ctx, e, ":"+cfg.Port, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
