package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/category"
	"github.com/wichananm65/storefront-backend/internal/config"
	"github.com/wichananm65/storefront-backend/internal/customer"
	"github.com/wichananm65/storefront-backend/internal/database"
	"github.com/wichananm65/storefront-backend/internal/events"
	"github.com/wichananm65/storefront-backend/internal/logger"
	"github.com/wichananm65/storefront-backend/internal/metrics"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/recommended"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.MigrationsEnabled {
		if err := database.Migrate(db, log); err != nil {
			log.Fatal("migrate database", zap.Error(err))
		}
	}
	if cfg.Database.SeedDemoProducts {
		n, err := database.SeedProducts(context.Background(), db)
		if err != nil {
			log.Fatal("seed products", zap.Error(err))
		}
		log.Info("catalog seeded", zap.Int("products", n))
	}

	carts, closeCarts := mustCartStore(cfg, log)
	defer closeCarts()

	publisher := mustPublisher(cfg, log)
	defer publisher.Close()

	checkout := metrics.NewCheckout()

	admin, err := customer.NewAdmin(cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
	if err != nil {
		log.Fatal("hash admin password", zap.Error(err))
	}

	app := newApp(cfg, log, db, carts, publisher, checkout, admin)

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := app.Listen(cfg.HTTP.Addr); err != nil {
			log.Fatal("http server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
}

func newApp(cfg *config.Config, log *zap.Logger, db *sql.DB, carts cart.Store, publisher events.Publisher, checkout *metrics.Checkout, admin customer.Admin) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: cfg.HTTP.CORSAllowOrigins != "*",
	}))
	app.Use(logger.Middleware(log))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, checkout.Handler())
	}

	issuer := auth.NewIssuer(cfg.Auth)
	app.Use(issuer.Middleware())
	app.Use(cart.Session(carts, cart.SessionConfig{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Auth.CookieSecure,
	}))

	productService := product.NewService(product.NewPostgresRepository(db))
	orderService := order.NewService(order.NewPostgresStore(db), order.Options{
		MaxStockRetries: cfg.Checkout.MaxStockRetries,
		PublishTimeout:  cfg.Kafka.PublishTimeout,
		Publisher:       publisher,
		Recorder:        checkout,
	})
	customerService := customer.NewService(customer.NewPostgresRepository(db), admin)

	productHandler := product.NewHandler(productService)
	cartHandler := cart.NewHandler(cart.NewService(productService, cfg.Checkout.TaxRate))
	orderHandler := order.NewHandler(orderService)
	customerHandler := customer.NewHandler(customerService, issuer, orderService, productService)

	productHandler.RegisterPublicRoutes(app)
	category.NewHandler(category.NewService(productService)).RegisterPublicRoutes(app)
	recommended.NewHandler(recommended.NewService(productService)).RegisterPublicRoutes(app)
	cartHandler.RegisterPublicRoutes(app)
	orderHandler.RegisterPublicRoutes(app)
	customerHandler.RegisterPublicRoutes(app)

	customerHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	adminGroup := app.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	productHandler.RegisterAdminRoutes(adminGroup)
	customerHandler.RegisterAdminRoutes(adminGroup)
	orderHandler.RegisterAdminRoutes(adminGroup)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"code": "HTTP_ERROR", "message": fe.Message})
	}
	return apperror.Respond(c, err)
}

func mustCartStore(cfg *config.Config, log *zap.Logger) (cart.Store, func()) {
	if cfg.Session.Driver != "redis" {
		return cart.NewMemoryStore(cfg.Session.TTL), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("connect redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	log.Info("cart sessions stored in redis", zap.String("addr", cfg.Redis.Addr))
	return cart.NewRedisStore(client, "cart:", cfg.Session.TTL), func() { client.Close() }
}

func mustPublisher(cfg *config.Config, log *zap.Logger) events.Publisher {
	if !cfg.Kafka.Enabled {
		return events.NopPublisher{}
	}
	p, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		log.Fatal("connect kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.Error(err))
	}
	return p
}
