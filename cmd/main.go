package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chocohouse/order-service/internal/app"
	"github.com/chocohouse/order-service/internal/config"
	"github.com/chocohouse/order-service/internal/events"
	"github.com/chocohouse/order-service/internal/gateway"
	"github.com/chocohouse/order-service/internal/handler"
	"github.com/chocohouse/order-service/internal/postgres"
	"github.com/chocohouse/order-service/internal/pricing"
	"github.com/chocohouse/order-service/internal/repo"
	"github.com/chocohouse/order-service/internal/service"
	"github.com/chocohouse/order-service/pkg/cache"
	"github.com/chocohouse/order-service/pkg/trm"

	_ "github.com/chocohouse/order-service/docs"
	"github.com/joho/godotenv"
)

// @title           Choco House Order API
// @version         1.0
// @description     Оформление заказов, оплата и сверка платежей
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	orderRepo := repo.NewPostgresRepo(db)
	catalogRepo := repo.NewCatalogRepo(db)
	txManager := trm.NewManager(db)
	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)

	pricingEngine := pricing.NewEngine(catalogRepo)
	stripeGateway := gateway.NewStripeGateway(logger, conf.Stripe)
	publisher := events.NewKafkaPublisher(conf.Kafka)

	orderService := service.NewOrderService(
		logger, txManager, orderRepo, pricingEngine, stripeGateway, publisher, orderCache,
	)

	handler.RegisterMetrics()

	application := app.New(logger, conf)
	application.SetHTTPHandlers(
		handler.NewOrderHandler(logger, orderService),
		handler.NewPaymentHandler(logger, orderService),
		handler.NewAdminHandler(logger, orderService),
		handler.NewMenuHandler(logger, catalogRepo),
	)
	application.SetStarters(orderCache)
	application.SetClosers(publisher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", application.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", application.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
