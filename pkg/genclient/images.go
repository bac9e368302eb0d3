package genclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/gemini-image-kit/generator"
	"github.com/shouni/gemini-image-kit/ports"
	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/go-http-kit/httpkit"
	"google.golang.org/genai"

	"github.com/shouni/go-postcraft-kit/pkg/config"
)

const (
	imageMaxRetries   = 1
	imageInitialDelay = 5 * time.Second
	imageMaxDelay     = 30 * time.Second
)

// ImageExecutor は画像生成リクエストを実行します。
// gemini-image-kit の GeminiImageCore が満たし、テストでは偽の実装に差し替えます。
type ImageExecutor interface {
	ExecuteRequest(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ports.ImageResponse, error)
}

// NewImageExecutor は API キーから画像生成用の GeminiImageCore を初期化します。
// 画像の生成呼び出しは go-gemini-client の再試行方針に従います。
func NewImageExecutor(ctx context.Context, apiKey string, cfg config.Config) (*generator.GeminiImageCore, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("APIキーは必須です")
	}
	cfg = cfg.WithDefaults()

	aiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:       apiKey,
		Temperature:  genai.Ptr(cfg.Temperature),
		MaxRetries:   imageMaxRetries,
		InitialDelay: imageInitialDelay,
		MaxDelay:     imageMaxDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("画像生成クライアントの初期化に失敗しました: %w", err)
	}

	httpClient := httpkit.New(cfg.FetchTimeout)
	imgCache := cache.New(cfg.ImageCacheTTL, 2*cfg.ImageCacheTTL)
	core, err := generator.NewGeminiImageCore(aiClient, storageUnsupported{}, httpClient, imgCache, cfg.ImageCacheTTL, false)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCore の初期化に失敗しました: %w", err)
	}
	return core, nil
}

// storageUnsupported は Cloud Storage を使わない構成向けの ContentReader です。
type storageUnsupported struct{}

func (storageUnsupported) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("storage URI is not supported: %s", uri)
}

// classifyImage は画像生成のエラーを分類します。
// ブロックや画像パートの欠落など、応答は届いたが画像が無いものは KindEmpty です。
func classifyImage(err error) *GenerationError {
	var respErr *gemini.APIResponseError
	if errors.As(err, &respErr) {
		return newError(OpImage, KindEmpty, err)
	}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	var netErr net.Error
	switch {
	case errors.As(err, &apiErr), errors.As(err, &apiErrPtr):
		return classify(OpImage, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return newError(OpImage, KindTransport, err)
	}
	return newError(OpImage, KindEmpty, err)
}
