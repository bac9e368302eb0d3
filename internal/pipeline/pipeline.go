package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/shouni/go-postcraft-kit/internal/builder"
	"github.com/shouni/go-postcraft-kit/internal/config"
	"github.com/shouni/go-postcraft-kit/pkg/asset"
	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/orchestrator"
	"github.com/shouni/go-postcraft-kit/pkg/publisher"
)

// ExecuteBrand は、ブランド文脈を解析して BrandIdentity を JSON で出力するのだ。
func ExecuteBrand(ctx context.Context, cfg *config.Config, w io.Writer) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	brand, err := defineBrand(ctx, appCtx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	out := brand
	out.AssetData = ""
	return enc.Encode(out)
}

// ExecuteCampaign は、ブランド推論からキャンペーン生成、合成画像の書き出しまでを一気に実行するのだ。
func ExecuteCampaign(ctx context.Context, cfg *config.Config, w io.Writer) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	// --- Phase 1: Brand Phase ---
	if _, err := defineBrand(ctx, appCtx); err != nil {
		return err
	}

	// --- Phase 2: Campaign Phase ---
	posts, err := appCtx.Controller.RunCampaign(ctx, appCtx.Options.Goal, appCtx.Options.Platforms)
	if err != nil {
		return fmt.Errorf("キャンペーン生成に失敗したのだ: %w", err)
	}

	// --- Phase 3: Export Phase ---
	res, err := builder.BuildExportRunner(appCtx).Run(ctx, posts)
	if err != nil {
		return err
	}

	snapshot := appCtx.Controller.Snapshot()
	summary, err := publisher.NewMarkdownPublisher().Publish(publisher.Campaign{
		Brand:  *snapshot.Brand,
		Intent: snapshot.Intent,
		Posts:  posts,
		Files:  res.Files,
	}, builder.ExportDir(appCtx))
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, renderPostTable(posts, res.Files)); err != nil {
		return err
	}
	slog.Info("キャンペーンの書き出しが完了したのだ！", "files", len(res.Files), "placeholders", len(res.Skipped), "summary", summary)
	return nil
}

// ExecuteChat は、戦略チャットに1回だけ発言して応答を出力するのだ。
func ExecuteChat(ctx context.Context, cfg *config.Config, message string, w io.Writer) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	reply, err := appCtx.Controller.SendChat(ctx, message)
	if err != nil {
		return fmt.Errorf("チャットに失敗したのだ: %w", err)
	}
	_, err = fmt.Fprintln(w, formatReply(reply))
	return err
}

func defineBrand(ctx context.Context, appCtx *builder.AppContext) (domain.BrandIdentity, error) {
	opts := appCtx.Options
	assetData, err := loadLogo(opts.LogoFile)
	if err != nil {
		return domain.BrandIdentity{}, err
	}
	brand, err := appCtx.Controller.DefineBrand(ctx, orchestrator.BrandInput{
		Context:   opts.BrandContext,
		Links:     strings.Join(opts.Links, "\n"),
		AssetData: assetData,
	})
	if err != nil {
		return domain.BrandIdentity{}, fmt.Errorf("ブランド推論に失敗したのだ: %w", err)
	}
	return brand, nil
}

// loadLogo はロゴ画像ファイルを data URI にするのだ。パスが空なら空文字を返すのだ。
func loadLogo(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("ロゴファイル '%s' の読み込みに失敗しました: %w", path, err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("ロゴファイル '%s' は画像ではないのだ (%s)", path, mime)
	}
	return asset.EncodeDataURI(mime, data), nil
}

func formatReply(msg domain.ChatMessage) string {
	var b strings.Builder
	b.WriteString(msg.Text)
	for _, s := range msg.Sources {
		title := s.Title
		if title == "" {
			title = s.URI
		}
		fmt.Fprintf(&b, "\n  - %s <%s>", title, s.URI)
	}
	return b.String()
}
