// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// アップロード設定
	UploadDir      string // 一時アップロードファイルの保存先ディレクトリ
	MaxFileSize    int64  // 単一ファイルの最大サイズ（バイト）
	CleanupDelayMS int    // レスポンス送信後に一時ファイルを削除するまでの遅延（ミリ秒）

	// メタデータ抽出設定
	ExifToolPath string // exiftool実行ファイルのパス

	// 静的ファイル設定
	StaticDir string // アップロードページ等の静的ファイルのディレクトリ
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// サーバー設定
		Port:    getEnv("PORT", "3000"),
		GinMode: getEnv("GIN_MODE", "debug"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// アップロード設定
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxFileSize:    getEnvAsInt64("MAX_FILE_SIZE", 50*1024*1024), // 50MiB
		CleanupDelayMS: getEnvAsInt("CLEANUP_DELAY_MS", 1000),

		// メタデータ抽出設定
		ExifToolPath: getEnv("EXIFTOOL_PATH", "exiftool"),

		// 静的ファイル設定
		StaticDir: getEnv("STATIC_DIR", "web"),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if c.CleanupDelayMS < 0 {
		return fmt.Errorf("CLEANUP_DELAY_MS must not be negative")
	}
	if c.GinMode == "release" && c.ExifToolPath == "" {
		return fmt.Errorf("EXIFTOOL_PATH is required in release mode")
	}

	return nil
}

// CleanupDelay は一時ファイル削除の遅延を time.Duration として返します。
func (c *Config) CleanupDelay() time.Duration {
	return time.Duration(c.CleanupDelayMS) * time.Millisecond
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 は環境変数を64ビット整数として取得します。
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
