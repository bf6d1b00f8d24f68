package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/MagnunAVF/qr-tracker/internal"
	"github.com/MagnunAVF/qr-tracker/internal/cache"
	"github.com/MagnunAVF/qr-tracker/internal/httpapi"
	applog "github.com/MagnunAVF/qr-tracker/internal/logger"
	"github.com/MagnunAVF/qr-tracker/internal/scan"
	"github.com/MagnunAVF/qr-tracker/internal/store"
)

type Config struct {
	ScanQueue string
	PublicDir string
	Redis     *redis.Client
	DB        *gorm.DB
	RabbitMQ  *amqp091.Channel
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Warn(".env file not found, relying on env vars", "err", err)
	}

	applog.InitFromEnv()

	ctx := context.Background()
	cfg := loadConfig(ctx)

	slog.Info("Running GORM auto-migration...")
	if err := cfg.DB.AutoMigrate(&internal.QRCode{}, &internal.Scan{}); err != nil {
		slog.Error("Failed to auto-migrate database", "err", err)
		os.Exit(1)
	}

	st := store.NewGormStore(cfg.DB)
	slugCache := cache.NewSlugCache(cfg.Redis, 0)
	publisher := scan.NewAMQPPublisher(cfg.RabbitMQ, cfg.ScanQueue)

	app := fiber.New()
	app.Use(applog.FiberMiddleware())
	app.Use(cors.New())

	httpapi.NewServer(st, slugCache, publisher, cfg.PublicDir).RegisterRoutes(app)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	port := os.Getenv("API_SERVICE_PORT")
	slog.Info("Starting API Service", "port", port)
	if err := app.Listen(port); err != nil {
		slog.Error("API Service failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) *Config {
	db, err := gorm.Open(postgres.Open(os.Getenv("DB_URL")), &gorm.Config{
		Logger: applog.NewGormLogger(os.Getenv("GORM_LOG_LEVEL")),
		// Slug collisions must surface as gorm.ErrDuplicatedKey for the
		// store's generate-and-retry loop.
		TranslateError: true,
	})
	if err != nil {
		slog.Error("Unable to connect to database", "err", err)
		os.Exit(1)
	}

	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	rdb := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		slog.Error("Unable to connect to Redis", "err", err)
		os.Exit(1)
	}

	rabbitConn, err := amqp091.Dial(os.Getenv("RABBITMQ_URL"))
	if err != nil {
		slog.Error("Unable to connect to RabbitMQ", "err", err)
		os.Exit(1)
	}
	rabbitCH, err := rabbitConn.Channel()
	if err != nil {
		slog.Error("Unable to open RabbitMQ channel", "err", err)
		os.Exit(1)
	}

	queueName := os.Getenv("SCAN_QUEUE_NAME")
	if _, err := scan.DeclareQueue(rabbitCH, queueName); err != nil {
		slog.Error("Failed to declare RabbitMQ queue", "queue", queueName, "err", err)
		os.Exit(1)
	}

	return &Config{
		ScanQueue: queueName,
		PublicDir: os.Getenv("PUBLIC_DIR"),
		Redis:     rdb,
		DB:        db,
		RabbitMQ:  rabbitCH,
	}
}
