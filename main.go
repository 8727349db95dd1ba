package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yisunguk/drawing-detector-sub003/browse"
	"github.com/yisunguk/drawing-detector-sub003/config"
	"github.com/yisunguk/drawing-detector-sub003/handler"
	"github.com/yisunguk/drawing-detector-sub003/middleware"
	"github.com/yisunguk/drawing-detector-sub003/pkg/logger"
	"github.com/yisunguk/drawing-detector-sub003/service"
	"github.com/yisunguk/drawing-detector-sub003/session"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Collaborator clients
	auth := service.NewAuthClient(&cfg.Auth)
	api := service.NewContractAPI(&cfg.API, auth)

	lister, err := newLister(cfg)
	if err != nil {
		slog.Error("failed to initialize storage lister", "error", err)
		os.Exit(1)
	}

	// Core engines
	policy := browse.RootPolicy{Admin: cfg.Browser.AdminUsername}
	browser := browse.New(policy, lister)
	ctrl := session.NewController(api, auth, browser)

	// Handlers
	authHandler := handler.NewAuthHandler(auth)
	contractHandler := handler.NewContractHandler(ctrl)
	browserHandler := handler.NewBrowserHandler(ctrl)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.AccessLog())
	router.Use(middleware.CORS())
	router.Use(middleware.Throttle(100, time.Minute))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/auth/login", authHandler.Login)
		apiGroup.GET("/auth/me", authHandler.Me)
		apiGroup.POST("/auth/logout", authHandler.Logout)

		apiGroup.GET("/contracts", contractHandler.List)
		apiGroup.POST("/contracts/select", contractHandler.Select)
		apiGroup.GET("/contracts/active", contractHandler.Active)
		apiGroup.POST("/contracts/upload", contractHandler.Upload)
		apiGroup.DELETE("/contracts/:id", contractHandler.Delete)

		apiGroup.GET("/state", contractHandler.State)
		apiGroup.POST("/filters", contractHandler.SetFilters)
		apiGroup.POST("/filters/clear", contractHandler.ClearFilters)
		apiGroup.POST("/selection", contractHandler.SetSelection)

		apiGroup.GET("/articles", contractHandler.Articles)
		apiGroup.GET("/articles/:no/deviations", contractHandler.ArticleDeviations)
		apiGroup.POST("/deviations", contractHandler.CreateDeviation)
		apiGroup.POST("/deviations/:id/comments", contractHandler.AddComment)
		apiGroup.PATCH("/deviations/:id/status", contractHandler.ToggleStatus)

		apiGroup.POST("/browser/open", browserHandler.Open)
		apiGroup.GET("/browser", browserHandler.State)
		apiGroup.POST("/browser/navigate", browserHandler.Navigate)
		apiGroup.POST("/browser/up", browserHandler.Up)
		apiGroup.POST("/browser/confirm", browserHandler.Confirm)
		apiGroup.POST("/browser/close", browserHandler.Close)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// newLister picks the storage-listing backend from the config.
func newLister(cfg *config.Config) (service.Lister, error) {
	switch cfg.Storage.Mode {
	case config.StorageModeMinio:
		return service.NewMinioLister(&cfg.Storage.Minio)
	default:
		return service.NewAzureLister(&cfg.Storage.Azure), nil
	}
}
