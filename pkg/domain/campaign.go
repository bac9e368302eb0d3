package domain

import (
	"fmt"
	"slices"
	"strings"
)

// サポートされる配信プラットフォームです。
const (
	PlatformInstagram = "Instagram"
	PlatformLinkedIn  = "LinkedIn"
	PlatformTwitter   = "Twitter (X)"
	PlatformFacebook  = "Facebook"
)

// Platforms は選択可能なプラットフォームを表示順に並べたものです。
var Platforms = []string{PlatformInstagram, PlatformLinkedIn, PlatformTwitter, PlatformFacebook}

// IsSupportedPlatform は name がサポート対象のプラットフォームかどうかを返します。
func IsSupportedPlatform(name string) bool {
	return slices.Contains(Platforms, name)
}

// NormalizePlatforms は重複を除き、未対応の名前があればエラーを返します。
// 入力順は保持します。
func NormalizePlatforms(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if !IsSupportedPlatform(n) {
			return nil, fmt.Errorf("unsupported platform %q: %w", n, ErrInvalid)
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// Constraints はキャンペーン全体に適用される制約です。
type Constraints struct {
	Tone            string `json:"tone"`
	CTA             string `json:"cta"`
	ThemeColors     string `json:"themeColors"`
	IncludeLogo     bool   `json:"includeLogo"`
	RealisticImages bool   `json:"realisticImages"`
	VideoPreview    bool   `json:"videoPreview"`
}

// CampaignIntent はゴールから生成された戦略プランです。
type CampaignIntent struct {
	Platforms   []string    `json:"platforms"`
	PostType    string      `json:"postType"`
	KeyMessage  string      `json:"keyMessage"`
	Constraints Constraints `json:"constraints"`
}

// Clone はスライスを含めてコピーを返します。
func (c CampaignIntent) Clone() CampaignIntent {
	out := c
	out.Platforms = append([]string(nil), c.Platforms...)
	return out
}
