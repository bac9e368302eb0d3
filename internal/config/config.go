package config

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"

	libconfig "github.com/shouni/go-postcraft-kit/pkg/config"
)

// デフォルト値の定義なのだ
const (
	DefaultAddr      = ":8080"
	DefaultLogLevel  = "info"
	DefaultExportDir = "output/posts" // campaign コマンドが合成画像を書き出す先なのだ
)

// Config はアプリケーション全体の環境設定（APIキーやサーバー設定）を保持する構造体なのだ。
type Config struct {
	Addr     string
	LogLevel string

	// Library はライブラリ側 (pkg/config) に渡す設定なのだ。
	Library libconfig.Config

	Options GenerateOptions
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	// .env は任意なので、無くても気にしないのだ
	_ = godotenv.Load()

	lib := libconfig.DefaultConfig()
	lib.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	lib.GeminiModel = envutil.GetEnv("GEMINI_MODEL", libconfig.DefaultGeminiModel)
	lib.ImageModel = envutil.GetEnv("IMAGE_GEMINI_MODEL", libconfig.DefaultImageModel)
	lib.VideoModel = envutil.GetEnv("VIDEO_GEMINI_MODEL", libconfig.DefaultVideoModel)
	lib.RateInterval = durationEnv("POSTCRAFT_RATE_INTERVAL", lib.RateInterval)
	lib.VideoPollInterval = durationEnv("POSTCRAFT_VIDEO_POLL_INTERVAL", lib.VideoPollInterval)
	lib.VideoMaxPolls = intEnv("POSTCRAFT_VIDEO_MAX_POLLS", lib.VideoMaxPolls)

	return &Config{
		Addr:     envutil.GetEnv("POSTCRAFT_ADDR", DefaultAddr),
		LogLevel: envutil.GetEnv("LOG_LEVEL", DefaultLogLevel),
		Library:  lib,
	}
}

// SlogLevel は LogLevel 文字列を slog.Level に変換するのだ。
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

func intEnv(key string, fallback int) int {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return n
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ブランド入力関連
	BrandContext string   // --context
	Links        []string // --link
	LogoFile     string   // --logo

	// キャンペーン関連
	Goal      string   // --goal
	Platforms []string // --platform

	// 出力関連
	OutputDir string // --output-dir
	Format    string // --format

	// AI挙動設定
	AIModel    string // --model
	ImageModel string // --image-model

	// ログ
	LogJSON bool // --log-json
}
