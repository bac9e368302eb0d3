package publisher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
)

// DefaultSummaryFileName はキャンペーン概要の既定ファイル名です。
const DefaultSummaryFileName = "campaign.md"

// Campaign は概要に書き出す内容です。Files は Posts と同じ順序の画像パスです。
type Campaign struct {
	Brand  domain.BrandIdentity
	Intent *domain.CampaignIntent
	Posts  []domain.SocialPost
	Files  []string
}

// MarkdownPublisher は、生成結果を構造化された Markdown 形式で出力する役割を担います。
type MarkdownPublisher struct{}

func NewMarkdownPublisher() *MarkdownPublisher {
	return &MarkdownPublisher{}
}

// BuildMarkdown は、ブランド・構成案・各投稿を1つの Markdown 文字列にまとめます。
// 画像パスは baseDir からの相対パスで記載します。
func (mp *MarkdownPublisher) BuildMarkdown(c Campaign, baseDir string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", c.Brand.Name)
	fmt.Fprintf(&sb, "- voice: %s\n", c.Brand.Voice)
	fmt.Fprintf(&sb, "- tone: %s\n", c.Brand.Tone)
	fmt.Fprintf(&sb, "- style: %s\n", c.Brand.Style)
	fmt.Fprintf(&sb, "- colors: %s\n\n", strings.Join(c.Brand.Colors, ", "))

	if c.Intent != nil {
		sb.WriteString("## Brief\n\n")
		fmt.Fprintf(&sb, "- key message: %s\n", c.Intent.KeyMessage)
		fmt.Fprintf(&sb, "- post type: %s\n", c.Intent.PostType)
		fmt.Fprintf(&sb, "- platforms: %s\n", strings.Join(c.Intent.Platforms, ", "))
		fmt.Fprintf(&sb, "- cta: %s\n\n", c.Intent.Constraints.CTA)
	}

	for i, p := range c.Posts {
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, p.Platform)
		if i < len(c.Files) {
			fmt.Fprintf(&sb, "![%s](%s)\n\n", p.Platform, relative(baseDir, c.Files[i]))
		} else if p.Error != "" {
			fmt.Fprintf(&sb, "> %s\n\n", p.Error)
		}
		sb.WriteString(strings.TrimSpace(p.Caption))
		sb.WriteString("\n\n")
		if len(p.SuggestedTags) > 0 {
			sb.WriteString(strings.Join(p.SuggestedTags, " "))
			sb.WriteString("\n\n")
		}
		if p.Reasoning != "" {
			fmt.Fprintf(&sb, "_%s_\n\n", strings.TrimSpace(p.Reasoning))
		}
		if p.VideoURL != "" && !strings.HasPrefix(p.VideoURL, "data:") {
			fmt.Fprintf(&sb, "[video](%s)\n\n", p.VideoURL)
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// Publish は概要を dir に書き出し、そのパスを返します。
func (mp *MarkdownPublisher) Publish(c Campaign, dir string) (string, error) {
	path := filepath.Join(dir, DefaultSummaryFileName)
	if err := os.WriteFile(path, []byte(mp.BuildMarkdown(c, dir)), 0o644); err != nil {
		return "", fmt.Errorf("キャンペーン概要の書き込みに失敗しました: %w", err)
	}
	return path, nil
}

func relative(baseDir, path string) string {
	if rel, err := filepath.Rel(baseDir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}
