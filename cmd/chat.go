package cmd

import (
	"strings"

	"github.com/shouni/go-postcraft-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// chatCmd は、戦略アシスタントに1回だけ質問するのだ。
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "戦略アシスタントに質問するのだ。",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ExecuteChat(cmd.Context(), loadConfig(), strings.Join(args, " "), cmd.OutOrStdout())
	},
}
