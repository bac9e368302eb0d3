package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-postcraft-kit/internal/config"
	"github.com/shouni/go-postcraft-kit/internal/runner"
	"github.com/shouni/go-postcraft-kit/pkg/workflow"
)

// BuildAppContext は設定から Manager と Controller を組み立てます。
// CLI フラグで指定されたモデル名は環境変数より優先されます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	lib := cfg.Library
	if cfg.Options.AIModel != "" {
		lib.GeminiModel = cfg.Options.AIModel
	}
	if cfg.Options.ImageModel != "" {
		lib.ImageModel = cfg.Options.ImageModel
	}

	manager, err := workflow.New(workflow.ManagerArgs{Config: lib})
	if err != nil {
		return nil, fmt.Errorf("ワークフローの初期化に失敗しました: %w", err)
	}

	controller, err := manager.BuildController(ctx, lib.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("コントローラーの初期化に失敗しました: %w", err)
	}

	appCtx := NewAppContext(cfg, manager, controller)
	return &appCtx, nil
}

// ExportDir は書き出し先ディレクトリを返します。
func ExportDir(appCtx *AppContext) string {
	if appCtx.Options.OutputDir == "" {
		return config.DefaultExportDir
	}
	return appCtx.Options.OutputDir
}

// BuildExportRunner は合成画像の書き出しを担当する Runner を構築します。
func BuildExportRunner(appCtx *AppContext) *runner.ExportRunner {
	return runner.NewExportRunner(appCtx.Controller, ExportDir(appCtx), appCtx.Options.Format)
}
