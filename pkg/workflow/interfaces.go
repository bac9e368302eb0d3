package workflow

import (
	"context"

	"github.com/shouni/go-postcraft-kit/pkg/app"
	"github.com/shouni/go-postcraft-kit/pkg/compositor"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
)

// Workflow は、ブランド定義からキャンペーン生成までを担う各コンポーネントを構築するためのインターフェースを定義します。
type Workflow interface {
	BuildClient(ctx context.Context, apiKey string) (genclient.Client, error)
	BuildController(ctx context.Context, apiKey string) (*app.Controller, error)
	Compositor() *compositor.Compositor
}
