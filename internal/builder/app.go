package builder

import (
	"github.com/shouni/go-postcraft-kit/internal/config"
	"github.com/shouni/go-postcraft-kit/pkg/app"
	"github.com/shouni/go-postcraft-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config     *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options    config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です（ゴール、出力先など）。
	Workflow   workflow.Workflow      // Workflowは、生成クライアントと合成器を構築するマネージャーです。
	Controller *app.Controller        // Controllerは、状態を所有し各操作を提供します。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, wf workflow.Workflow, controller *app.Controller) AppContext {
	return AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		Workflow:   wf,
		Controller: controller,
	}
}
