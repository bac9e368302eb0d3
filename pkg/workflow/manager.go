package workflow

import (
	"context"
	"fmt"

	"github.com/shouni/go-postcraft-kit/pkg/app"
	"github.com/shouni/go-postcraft-kit/pkg/compositor"
	"github.com/shouni/go-postcraft-kit/pkg/config"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
	"github.com/shouni/go-postcraft-kit/pkg/prompts"
)

// BackendFactory は API キーから生成バックエンドを作ります。
type BackendFactory func(ctx context.Context, apiKey, baseURL string) (genclient.Backend, error)

// ImageExecutorFactory は API キーから画像生成の実行器を作ります。
type ImageExecutorFactory func(ctx context.Context, apiKey string, cfg config.Config) (genclient.ImageExecutor, error)

// ManagerArgs は Manager の依存関係です。nil の項目は既定の実装で補われます。
type ManagerArgs struct {
	Config           config.Config
	PromptBuilder    prompts.PromptBuilder
	NewBackend       BackendFactory
	NewImageExecutor ImageExecutorFactory
}

// Manager は、設定を基にクライアント・合成器・コントローラーを構築・管理します。
type Manager struct {
	cfg        config.Config
	prompts    prompts.PromptBuilder
	newBackend BackendFactory
	newImages  ImageExecutorFactory
	compositor *compositor.Compositor
}

var _ Workflow = (*Manager)(nil)

// New は、設定を基に新しい Manager を初期化します。
func New(args ManagerArgs) (*Manager, error) {
	cfg := args.Config.WithDefaults()

	pb, err := initializePromptBuilder(args.PromptBuilder)
	if err != nil {
		return nil, err
	}

	newBackend := args.NewBackend
	if newBackend == nil {
		newBackend = genclient.NewGenAIBackend
	}
	newImages := args.NewImageExecutor
	if newImages == nil {
		newImages = defaultImageExecutor
	}

	comp, err := compositor.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("合成エンジンの初期化に失敗しました: %w", err)
	}

	return &Manager{
		cfg:        cfg,
		prompts:    pb,
		newBackend: newBackend,
		newImages:  newImages,
		compositor: comp,
	}, nil
}

func defaultImageExecutor(ctx context.Context, apiKey string, cfg config.Config) (genclient.ImageExecutor, error) {
	return genclient.NewImageExecutor(ctx, apiKey, cfg)
}

// initializePromptBuilder は PromptBuilder を初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializePromptBuilder(pb prompts.PromptBuilder) (prompts.PromptBuilder, error) {
	if pb != nil {
		return pb, nil
	}
	builder, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}
	return builder, nil
}

// Config は補完済みの設定を返します。
func (m *Manager) Config() config.Config {
	return m.cfg
}

// Compositor は共有の合成器を返します。
func (m *Manager) Compositor() *compositor.Compositor {
	return m.compositor
}

// BuildClient は API キーで生成クライアントを構築します。
func (m *Manager) BuildClient(ctx context.Context, apiKey string) (genclient.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("APIキーは必須です")
	}
	backend, err := m.newBackend(ctx, apiKey, m.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	images, err := m.newImages(ctx, apiKey, m.cfg)
	if err != nil {
		return nil, fmt.Errorf("画像生成エンジンの初期化に失敗しました: %w", err)
	}
	client, err := genclient.NewGeminiClient(backend, images, m.prompts, m.cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// BuildController はアプリケーション状態を所有する Controller を構築します。
// apiKey が空なら未有効化の状態で起動します。
func (m *Manager) BuildController(ctx context.Context, apiKey string) (*app.Controller, error) {
	return app.New(ctx, app.Args{
		NewClient:    m.BuildClient,
		Compositor:   m.compositor,
		APIKey:       apiKey,
		RateInterval: m.cfg.RateInterval,
	})
}
