package cmd

import (
	"fmt"

	"github.com/shouni/go-postcraft-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// brandCmd は、ブランド文脈を解析して結果を表示するのだ。
var brandCmd = &cobra.Command{
	Use:   "brand",
	Short: "ブランドの特徴を推論して JSON で表示するのだ。",
	RunE:  brandCommand,
}

func brandCommand(cmd *cobra.Command, args []string) error {
	if opts.BrandContext == "" {
		return fmt.Errorf("ブランドの説明（--context）を指定してほしいのだ")
	}
	return pipeline.ExecuteBrand(cmd.Context(), loadConfig(), cmd.OutOrStdout())
}
