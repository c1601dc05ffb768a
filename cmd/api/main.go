// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/photo-forge/internal/config"
	"github.com/yourusername/photo-forge/internal/exif"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 構造化ロガーの設定
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	router.Use(cors.New(corsConfig))

	// アップロードディレクトリは起動時に用意する
	store, err := exif.NewStore(cfg.UploadDir, cfg.CleanupDelay(), logger)
	if err != nil {
		log.Fatalf("Failed to prepare upload dir: %v", err)
	}

	// 抽出ツールはプロセス全体で1つのハンドルを共有し、終了時に必ず閉じる
	extractor := exif.NewExifTool(cfg.ExifToolPath)
	service := exif.NewService(cfg, store, extractor, logger)

	// ルーティングの設定
	setupRoutes(router, cfg, service)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting API server", "addr", srv.Addr, "mode", cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// SIGINT/SIGTERM を待ち、サーバーと抽出ツールを順に停止する
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	stop()

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := extractor.Close(); err != nil {
		logger.Error("extractor shutdown failed", "error", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "photo-forge-api",
		"version": "0.1.0",
	})
}

// setupRoutes は静的ページとアップロードAPIの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, service *exif.Service) {
	router.GET("/health", handleHealth)

	// アップロードフォームの静的ページ
	router.StaticFile("/", filepath.Join(cfg.StaticDir, "index.html"))

	router.POST("/upload", exif.UploadHandler(service))
	router.POST("/upload-readable", exif.UploadReadableHandler(service))
}
