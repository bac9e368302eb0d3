package genclient

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Backend は Gemini クライアントのうち、本パッケージが利用する最小限の操作です。
// テストでは偽の実装に差し替えます。
type Backend interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateVideos(ctx context.Context, model, prompt string, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	DownloadVideo(ctx context.Context, video *genai.GeneratedVideo) ([]byte, error)
}

// genaiBackend は *genai.Client を Backend に適合させます。
type genaiBackend struct {
	client *genai.Client
}

// NewGenAIBackend は API キーから Gemini API 向けのバックエンドを初期化します。
func NewGenAIBackend(ctx context.Context, apiKey, baseURL string) (Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("APIキーは必須です")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
	}
	return &genaiBackend{client: client}, nil
}

func (b *genaiBackend) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return b.client.Models.GenerateContent(ctx, model, contents, config)
}

func (b *genaiBackend) GenerateVideos(ctx context.Context, model, prompt string, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return b.client.Models.GenerateVideos(ctx, model, prompt, nil, config)
}

func (b *genaiBackend) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return b.client.Operations.GetVideosOperation(ctx, op, nil)
}

func (b *genaiBackend) DownloadVideo(ctx context.Context, video *genai.GeneratedVideo) ([]byte, error) {
	return b.client.Files.Download(ctx, genai.NewDownloadURIFromGeneratedVideo(video), nil)
}
