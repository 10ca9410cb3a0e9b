package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-product-admin/internal/cache"
	"go-product-admin/internal/client"
	"go-product-admin/internal/config"
	"go-product-admin/internal/handler"
	"go-product-admin/internal/model"
	"go-product-admin/internal/repository"
	"go-product-admin/internal/service"
	"go-product-admin/internal/ws"
	"go-product-admin/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// maxFilesPerRequest bounds the request body next to the per-file limit.
const maxFilesPerRequest = 10

func main() {
	// 1. Load Env
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// 2. Setup Draft Store
	var draftRepo repository.DraftRepository
	if cfg.DatabaseURL != "" {
		db, err := database.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.AutoMigrate(&model.DraftRecord{}); err != nil {
			log.Fatalf("Failed to migrate drafts table: %v", err)
		}
		draftRepo = repository.NewDraftRepo(db)
		log.Println("Drafts stored in Postgres")
	} else {
		draftRepo = repository.NewMemoryDraftRepo()
		log.Println("DATABASE_URL not set, drafts kept in memory")
	}

	// 3. Setup Reference Cache
	var refCache cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cancel()
		if err != nil {
			log.Printf("Warning: Redis unavailable, reference cache disabled: %v", err)
		} else {
			defer rc.Close()
			refCache = rc
		}
	}

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	backend := client.New(cfg)

	draftService := service.NewDraftService(draftRepo, backend, wsHub, cfg.BackendMediaURL, cfg.MaxVariants)
	productService := service.NewProductService(backend, wsHub)
	refService := service.NewReferenceService(backend, refCache, cfg.ReferenceCacheTTL, cfg.Tags)

	secret := []byte(cfg.JWTSecret)
	authHandler := handler.NewAuthHandler(secret)
	draftHandler := handler.NewDraftHandler(draftService, cfg.MaxUploadBytes)
	productHandler := handler.NewProductHandler(productService)
	refHandler := handler.NewReferenceHandler(refService, cfg.MaxUploadBytes)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Product Admin v1.0",
		BodyLimit: int(cfg.MaxUploadBytes) * maxFilesPerRequest,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	handler.SetupRoutes(app.Group("/api/v1"), secret, authHandler, draftHandler, productHandler, refHandler)

	// Health Route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Purge abandoned drafts
	stopPurge := make(chan struct{})
	go purgeLoop(draftService, cfg.DraftTTL, stopPurge)

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	close(stopPurge)
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// purgeLoop drops drafts untouched for longer than ttl.
func purgeLoop(drafts service.DraftService, ttl time.Duration, stop <-chan struct{}) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n, err := drafts.PurgeStale(ttl)
			if err != nil {
				log.Printf("Warning: Failed to purge stale drafts: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Purged %d stale drafts", n)
			}
		}
	}
}
