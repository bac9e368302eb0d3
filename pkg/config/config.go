package config

import (
	"time"
)

// デフォルト値の定義
const (
	DefaultGeminiModel       = "gemini-3-flash-preview"
	DefaultImageModel        = "gemini-2.5-flash-image"
	DefaultVideoModel        = "veo-3.1-fast-generate-preview"
	DefaultImageAspectRatio  = "1:1"
	DefaultTemperature       = float32(0.7)
	DefaultRateInterval      = 0
	DefaultVideoPollInterval = 10 * time.Second
	DefaultVideoMaxPolls     = 60
	DefaultRequestTimeout    = 2 * time.Minute
	DefaultCanvasSize        = 1080
	DefaultImageCacheTTL     = 10 * time.Minute
	DefaultFetchTimeout      = 30 * time.Second
)

// Config は Go Postcraft Kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiModel string // テキスト・構造化出力・チャット用
	ImageModel  string // 投稿画像の生成用
	VideoModel  string // 動画プレビューの生成用

	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string
	BaseURL      string // テストやプロキシ向けの上書き先

	// --- Generation Settings ---
	Temperature      float32
	ImageAspectRatio string
	// RateInterval が 0 より大きい場合のみ画像生成の送出間隔を制限します。
	RateInterval time.Duration

	// --- Video Settings ---
	VideoPollInterval time.Duration
	VideoMaxPolls     int

	// --- Compositor Settings ---
	CanvasSize    int
	ImageCacheTTL time.Duration
	FetchTimeout  time.Duration

	// --- Timeout & Retries ---
	RequestTimeout time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:       DefaultGeminiModel,
		ImageModel:        DefaultImageModel,
		VideoModel:        DefaultVideoModel,
		Temperature:       DefaultTemperature,
		ImageAspectRatio:  DefaultImageAspectRatio,
		RateInterval:      DefaultRateInterval,
		VideoPollInterval: DefaultVideoPollInterval,
		VideoMaxPolls:     DefaultVideoMaxPolls,
		CanvasSize:        DefaultCanvasSize,
		ImageCacheTTL:     DefaultImageCacheTTL,
		FetchTimeout:      DefaultFetchTimeout,
		RequestTimeout:    DefaultRequestTimeout,
	}
}

// WithDefaults はゼロ値のフィールドを既定値で補完したコピーを返します。
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.GeminiModel == "" {
		c.GeminiModel = d.GeminiModel
	}
	if c.ImageModel == "" {
		c.ImageModel = d.ImageModel
	}
	if c.VideoModel == "" {
		c.VideoModel = d.VideoModel
	}
	if c.Temperature <= 0 {
		c.Temperature = d.Temperature
	}
	if c.ImageAspectRatio == "" {
		c.ImageAspectRatio = d.ImageAspectRatio
	}
	if c.RateInterval < 0 {
		c.RateInterval = 0
	}
	if c.VideoPollInterval <= 0 {
		c.VideoPollInterval = d.VideoPollInterval
	}
	if c.VideoMaxPolls <= 0 {
		c.VideoMaxPolls = d.VideoMaxPolls
	}
	if c.CanvasSize <= 0 {
		c.CanvasSize = d.CanvasSize
	}
	if c.ImageCacheTTL <= 0 {
		c.ImageCacheTTL = d.ImageCacheTTL
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	return c
}
