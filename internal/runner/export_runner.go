package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/go-postcraft-kit/pkg/asset"
	"github.com/shouni/go-postcraft-kit/pkg/compositor"
	"github.com/shouni/go-postcraft-kit/pkg/domain"
)

// Renderer は投稿を合成画像にする処理なのだ。app.Controller が満たすのだ。
type Renderer interface {
	Render(ctx context.Context, id string) (*image.RGBA, error)
}

// ExportResult は書き出したファイルと、元画像が使えなかった投稿なのだ。
type ExportResult struct {
	Files   []string
	Skipped []string
}

// ExportRunner は合成済みの投稿画像をディレクトリに書き出すのだ。
type ExportRunner struct {
	renderer  Renderer
	outputDir string
	format    string
}

// NewExportRunner は ExportRunner を作るのだ。
func NewExportRunner(renderer Renderer, outputDir, format string) *ExportRunner {
	if format == "" {
		format = compositor.FormatPNG
	}
	return &ExportRunner{renderer: renderer, outputDir: outputDir, format: format}
}

// Run は投稿ごとに合成して保存するのだ。
// 元画像が無い・読めない投稿もプレースホルダーとして保存し、Skipped に ID を残すのだ。
func (r *ExportRunner) Run(ctx context.Context, posts []domain.SocialPost) (ExportResult, error) {
	dir := r.outputDir
	if dir == "" {
		dir = asset.DefaultExportDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("出力ディレクトリの作成に失敗したのだ: %w", err)
	}

	var result ExportResult
	for i, p := range posts {
		img, err := r.renderer.Render(ctx, p.ID)
		if err != nil {
			if !errors.Is(err, compositor.ErrImageUnavailable) || img == nil {
				return result, fmt.Errorf("投稿 %s の合成に失敗したのだ: %w", p.ID, err)
			}
			slog.WarnContext(ctx, "Source image unavailable, exporting placeholder", "post_id", p.ID, "error", err)
			result.Skipped = append(result.Skipped, p.ID)
		}
		if p.ImageURL == "" && err == nil {
			result.Skipped = append(result.Skipped, p.ID)
		}

		var buf bytes.Buffer
		if err := compositor.Encode(&buf, img, r.format); err != nil {
			return result, fmt.Errorf("投稿 %s のエンコードに失敗したのだ: %w", p.ID, err)
		}
		path := asset.ResolveOutputPath(dir, asset.PostFileName(p.Platform, i+1, r.format))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return result, fmt.Errorf("%s への書き込みに失敗したのだ: %w", filepath.Base(path), err)
		}
		slog.InfoContext(ctx, "Post exported", "post_id", p.ID, "path", path)
		result.Files = append(result.Files, path)
	}
	return result, nil
}
