package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// DefaultExportDir は CLI が合成済み画像を書き出す既定ディレクトリです。
	DefaultExportDir = "output/posts"
	// DefaultPostFileName は合成済み投稿画像の共通のベースファイル名です。
	DefaultPostFileName = "post.png"
)

var unsafeNameRegex = regexp.MustCompile(`[^a-z0-9]+`)

// PostFileName はプラットフォーム名と連番から書き出し用のファイル名を生成します。
// 例: ("Twitter (X)", 2, "png") -> "post_2_twitter_x.png"
func PostFileName(platform string, index int, format string) string {
	ext := filepath.Ext(DefaultPostFileName)
	if format != "" {
		ext = "." + strings.ToLower(format)
	}
	base := strings.TrimSuffix(DefaultPostFileName, filepath.Ext(DefaultPostFileName))
	slug := strings.Trim(unsafeNameRegex.ReplaceAllString(strings.ToLower(platform), "_"), "_")
	if slug == "" {
		return fmt.Sprintf("%s_%d%s", base, index, ext)
	}
	return fmt.Sprintf("%s_%d_%s%s", base, index, slug, ext)
}

// ResolveOutputPath はディレクトリとファイル名を結合した書き出し先を返します。
func ResolveOutputPath(baseDir, fileName string) string {
	if baseDir == "" {
		baseDir = DefaultExportDir
	}
	return filepath.Join(baseDir, fileName)
}
