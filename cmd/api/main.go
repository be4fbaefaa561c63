package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"adaptive-dice-backend/internal/config"
	"adaptive-dice-backend/internal/handlers"
	"adaptive-dice-backend/internal/middleware"
	"adaptive-dice-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	presets, err := config.LoadPresets(cfg.PresetsFile)
	if err != nil {
		log.Fatalf("Failed to load presets: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisService, err := services.NewRedisService(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)

	tableManager := services.NewTableManager(presets, jwtService, redisService)
	wsHandler := handlers.NewWebSocketHandler(tableManager)
	tableManager.SetBroadcaster(wsHandler)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			tableManager.CleanupStaleTables(context.Background(), cfg.TableIdleTimeout)
		}
	}()

	tableHandler := handlers.NewTableHandler(tableManager, redisService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	handlers.RegisterRoutes(router, tableHandler, wsHandler,
		middleware.TableAuthMiddleware(jwtService),
		middleware.RateLimitMiddleware(redisService, cfg.RollRateLimit, time.Minute),
	)

	log.Printf("Server starting on port %s (%d presets)", cfg.Port, len(presets.List()))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
