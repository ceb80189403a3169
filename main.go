package main

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/authstack/backend/internal/config"
	"github.com/authstack/backend/internal/db"
	"github.com/authstack/backend/internal/handler"
	"github.com/authstack/backend/internal/model"
	"github.com/authstack/backend/internal/service"
)

func main() {
	// Best effort; env vars win over .env entries.
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	pg, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	redisClient, err := db.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	tokens, err := service.NewTokenService(cfg.Auth)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	authSvc := service.NewAuthService(
		pg,
		pg,
		tokens,
		service.NewBcryptHasher(),
		db.NewResetLedger(redisClient),
		service.LogNotifier{},
		cfg.Server,
	)

	if err := authSvc.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("admin seed: %v", err)
	}

	router := gin.Default()
	if origins := cfg.Server.AllowedOrigins; origins != "" {
		router.Use(handler.CORSMiddleware(strings.Split(origins, ",")))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handler.NewAuthHandler(authSvc)
	auth := router.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", handler.Authenticate(authSvc), authHandler.Logout)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/reset-password", authHandler.RequestPasswordReset)
		auth.POST("/reset-password/:token", authHandler.ConfirmPasswordReset)
		auth.GET("/me", handler.Authenticate(authSvc), authHandler.Me)
		auth.GET("/admin", handler.Authenticate(authSvc), handler.RequireRole(model.RoleAdmin), authHandler.Admin)
	}

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
