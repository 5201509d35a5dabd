package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bagshop/config"
	_ "bagshop/docs"
	"bagshop/internal/cart"
	"bagshop/internal/hashing"
	"bagshop/internal/producer"
	"bagshop/internal/repository"
	"bagshop/internal/service"
	"bagshop/internal/token"
	"bagshop/internal/transport/http/middleware"
	"bagshop/internal/transport/http/router"
	"bagshop/pkg/database"
	"bagshop/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// @Title Bagshop API
// @Version 1.0
// @Description Витрина, корзина, оформление заказов и админка магазина сумок
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)
	catalog := service.NewCatalogService(repos, log)

	var store cart.SessionStore = cart.NewMemoryStore()
	if cfg.Redis.Enabled {
		rdb, err := cart.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("Redis недоступен", zap.Error(err))
		}
		defer rdb.Close()
		store = cart.NewRedisStore(rdb, cfg.Redis.CartTTL)
	} else {
		log.Warn("REDIS_ENABLED=false: корзины хранятся в памяти процесса")
	}
	carts := cart.NewService(store, catalog, log)

	// Event bus необязателен: без KAFKA_BROKERS события не публикуются
	var events service.EventBus
	if len(cfg.Kafka.Brokers) > 0 {
		prod := producer.NewOrderEventProducer(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic)
		defer prod.Close()
		events = prod
	}

	orders := service.NewOrderService(repos, events, service.OrderOptions{
		CurrencyCode:  cfg.Checkout.CurrencyCode,
		PaymentMethod: cfg.Checkout.PaymentMethod,
	}, log)
	checkout := service.NewCheckoutService(carts, orders, log)

	tokens := token.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)
	passwords := hashing.NewPasswords(cfg.Password.BcryptCost)
	customers := service.NewCustomerService(repos.Customers, passwords, tokens, cfg.JWT.AccessExp, log)

	r := router.Router(router.Deps{
		Customers:    customers,
		Auth:         customers,
		Catalog:      catalog,
		Carts:        carts,
		Checkout:     checkout,
		Orders:       orders,
		AllowOrigins: cfg.HTTP.AllowOrigins,
		Session: middleware.SessionConfig{
			MaxAge: cfg.Redis.CartTTL,
			Secure: cfg.HTTP.SecureCookies,
		},
	}, log)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Starting bagshop HTTP server", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-quit
	log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	log.Info("HTTP server stopped gracefully")
}
