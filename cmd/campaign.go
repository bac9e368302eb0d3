package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-postcraft-kit/internal/config"
	"github.com/shouni/go-postcraft-kit/internal/pipeline"
	"github.com/shouni/go-postcraft-kit/pkg/compositor"
	"github.com/shouni/go-postcraft-kit/pkg/domain"

	"github.com/spf13/cobra"
)

// campaignCmd は、ブランド推論からキャンペーン生成と画像の書き出しまでを実行するのだ。
var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "キャンペーンを生成して合成画像を書き出すのだ。",
	Long: `ブランドを推論し、ゴールとプラットフォームからキャンペーン構成・投稿案・画像を生成するのだ。
合成済みの画像は --output-dir に post_<番号>_<プラットフォーム>.<形式> として保存されるのだよ。`,
	RunE: campaignCommand,
}

func init() {
	campaignCmd.Flags().StringVarP(&opts.Goal, "goal", "g", "", "キャンペーンのゴールなのだ。")
	campaignCmd.Flags().StringSliceVarP(&opts.Platforms, "platform", "p", []string{domain.PlatformInstagram}, "対象プラットフォームなのだ（複数指定できるのだ）。")
	campaignCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultExportDir, "合成画像の保存先ディレクトリなのだ。")
	campaignCmd.Flags().StringVarP(&opts.Format, "format", "f", compositor.FormatPNG, "書き出し形式なのだ（png, jpeg, webp）。")
}

func campaignCommand(cmd *cobra.Command, args []string) error {
	if opts.BrandContext == "" {
		return fmt.Errorf("ブランドの説明（--context）を指定してほしいのだ")
	}
	if opts.Goal == "" {
		return fmt.Errorf("キャンペーンのゴール（--goal）を指定してほしいのだ")
	}

	cfg := loadConfig()
	slog.Info("キャンペーン生成パイプラインを起動するのだ！",
		"platforms", opts.Platforms,
		"output", opts.OutputDir,
		"format", opts.Format)

	if err := pipeline.ExecuteCampaign(cmd.Context(), cfg, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}
