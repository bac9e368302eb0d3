package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-postcraft-kit/internal/config"

	"github.com/spf13/cobra"
)

// opts はすべてのサブコマンドで共有する実行時パラメータなのだ。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:               "postcraft",
	Short:             "ブランドからSNSキャンペーンを組み立てるアシスタントなのだ。",
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ブランド入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.BrandContext, "context", "c", "", "ブランドの説明文なのだ。")
	rootCmd.PersistentFlags().StringSliceVarP(&opts.Links, "link", "l", nil, "参考にするURLなのだ（複数指定できるのだ）。")
	rootCmd.PersistentFlags().StringVar(&opts.LogoFile, "logo", "", "ロゴ画像ファイルのパスなのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", "", "使用する Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使う Gemini モデル名なのだ。")

	// --- ログ ---
	rootCmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "ログを JSON で出力するのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
// serve は未有効化のまま起動してキーを後から受け取れるので、チェックしないのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	setupLogger(cmd)

	if cmd.Name() == serveCmd.Name() {
		return nil
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

func setupLogger(cmd *cobra.Command) {
	level := config.LoadConfig().SlogLevel()
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts)
	if opts.LogJSON {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig は環境変数とフラグを合わせた設定を返すのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.Options = opts
	return cfg
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(serveCmd, brandCmd, campaignCmd, chatCmd)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
