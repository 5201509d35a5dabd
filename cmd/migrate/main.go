package main

import (
	"context"
	"os"

	"bagshop/config"
	"bagshop/internal/hashing"
	"bagshop/internal/migrate"
	"bagshop/internal/repository"
	"bagshop/internal/service"
	"bagshop/pkg/database"
	"bagshop/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	dbCfg := config.LoadDB(log)

	db := database.ConnectDBForMigration(&dbCfg.Config, log)
	defer database.CloseDB(db, log)

	ctx := context.Background()

	opts := migrate.DefaultMigrateOptions()

	if err := migrate.MigrateShopDB(ctx, db, log, opts); err != nil {
		log.Fatal("Ошибка при выполнении миграции", zap.Error(err))
	}

	log.Info("Миграция успешно завершена")

	adminCfg := config.LoadAdmin()
	if adminCfg.Email == "" || adminCfg.Password == "" {
		return
	}

	repos := repository.New(db)
	customers := service.NewCustomerService(repos.Customers, hashing.NewPasswords(config.LoadPassword().BcryptCost), nil, 0, log)
	admin, err := customers.CreateAdmin(ctx, service.RegisterInput{
		FirstName: "Admin",
		Email:     adminCfg.Email,
		Password:  adminCfg.Password,
	})
	if err != nil {
		log.Fatal("Не удалось создать администратора", zap.Error(err))
	}
	log.Info("Администратор готов", zap.String("customer_id", admin.ID.String()), zap.String("email", admin.Email))
}
