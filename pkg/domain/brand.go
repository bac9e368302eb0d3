package domain

import (
	"errors"
	"fmt"
	"strings"
)

// BrandIdentity は推論されたブランドの人格を保持します。
// AssetData はアップロードされたロゴの data URI で、以降の画像生成すべてで再利用されます。
type BrandIdentity struct {
	Name      string   `json:"name"`
	Voice     string   `json:"voice"`
	Colors    []string `json:"colors"`
	Tone      string   `json:"tone"`
	Style     string   `json:"style"`
	AssetData string   `json:"assetData,omitempty"`
}

// Validate は推論結果に必須の5項目が揃っているかを確認します。
func (b BrandIdentity) Validate() error {
	var missing []string
	if strings.TrimSpace(b.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(b.Voice) == "" {
		missing = append(missing, "voice")
	}
	if len(b.Colors) == 0 {
		missing = append(missing, "colors")
	}
	if strings.TrimSpace(b.Tone) == "" {
		missing = append(missing, "tone")
	}
	if strings.TrimSpace(b.Style) == "" {
		missing = append(missing, "style")
	}
	if len(missing) > 0 {
		return fmt.Errorf("brand identity is missing %s: %w", strings.Join(missing, ", "), ErrInvalid)
	}
	return nil
}

// HasAsset はロゴが添付されているかを返します。
func (b BrandIdentity) HasAsset() bool {
	return b.AssetData != ""
}

// Clone はスライスを含めてコピーを返します。
func (b BrandIdentity) Clone() BrandIdentity {
	c := b
	c.Colors = append([]string(nil), b.Colors...)
	return c
}

// ErrInvalid はドメイン値が必須条件を満たさない場合に返されます。
var ErrInvalid = errors.New("invalid domain value")
