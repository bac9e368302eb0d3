package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-postcraft-kit/internal/builder"
	"github.com/shouni/go-postcraft-kit/internal/server"

	"github.com/spf13/cobra"
)

// serveCmd は HTTP API を起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP API サーバーを起動するのだ。",
	Long: `ウィザードの状態を保持する HTTP API を起動するのだ。
GEMINI_API_KEY が無くても起動でき、POST /api/activate でキーを渡すまで生成操作は拒否されるのだよ。`,
	RunE: serveCommand,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "待ち受けアドレスなのだ（省略時は POSTCRAFT_ADDR）。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	srv, err := server.New(appCtx.Controller)
	if err != nil {
		return fmt.Errorf("サーバーの初期化に失敗したのだ: %w", err)
	}

	slog.Info("サーバーを起動するのだ！", "addr", cfg.Addr, "activation", appCtx.Controller.Snapshot().Activation)
	return srv.Run(ctx, cfg.Addr)
}
