package main

import (
	"context"
	"log"

	"bizhub_backend/internal/cache"
	"bizhub_backend/internal/config"
	"bizhub_backend/internal/database"
	"bizhub_backend/internal/repositories"
	"bizhub_backend/internal/router"
	"bizhub_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)
	if cfg.JWTSecret == "" {
		utils.LogWarn(nil, "JWT_SECRET is not set, tokens cannot be validated")
	}
	utils.SetJWTSecret(cfg.JWTSecret)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	// Initialize Database
	db, err := database.Open(ctx, database.Options{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		Name:         cfg.DBName,
		SSLMode:      cfg.DBSSLMode,
		SchemaPath:   cfg.DBSchemaPath,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		utils.LogError(err, "Failed to initialize database")
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	var analyticsCache cache.AnalyticsCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.AnalyticsCacheTTL)
		if err != nil {
			utils.LogWarn(err, "Redis unavailable, analytics cache disabled", map[string]interface{}{"addr": cfg.RedisAddr})
		} else {
			defer redisCache.Close()
			analyticsCache = redisCache
		}
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	// Setup all application routes
	router.Setup(engine, repositories.NewPostgresStore(db), analyticsCache, cfg)

	utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "env": cfg.AppEnv})
	if err := engine.Run(":" + cfg.Port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
