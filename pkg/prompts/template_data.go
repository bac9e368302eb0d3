package prompts

import (
	"embed"
	"encoding/json"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
)

const (
	ModeBrand      = "brand"
	ModeCampaign   = "campaign"
	ModeVariations = "variations"
	ModeRefine     = "refine"
	ModeImage      = "image"
	ModeVideo      = "video"
	ModeChatSystem = "chat_system"
)

// TemplateData はプロンプトテンプレートに渡すデータ構造です。
// モードごとに使用するフィールドだけを埋めれば十分です。
type TemplateData struct {
	Context     string
	HasAsset    bool
	Goal        string
	Platforms   []string
	Brand       domain.BrandIdentity
	BrandJSON   string
	IntentJSON  string
	Caption     string
	ImagePrompt string
	Instruction string
}

// templateFS はモード名をファイル名とするプロンプトテンプレート群です。
//
//go:embed *.md
var templateFS embed.FS

// requiredModes は起動時に揃っている必要のあるモードです。
var requiredModes = []string{ModeBrand, ModeCampaign, ModeVariations, ModeRefine, ModeImage, ModeVideo, ModeChatSystem}

// BrandContextJSON はブランド情報をプロンプト埋め込み用の JSON にします。
// ロゴの data URI は巨大なため除外します。
func BrandContextJSON(b domain.BrandIdentity) string {
	b = b.Clone()
	b.AssetData = ""
	out, err := json.Marshal(b)
	if err != nil {
		return b.Name
	}
	return string(out)
}

// IntentJSON はキャンペーン意図をプロンプト埋め込み用の JSON にします。
func IntentJSON(intent domain.CampaignIntent) string {
	out, err := json.Marshal(intent)
	if err != nil {
		return intent.KeyMessage
	}
	return string(out)
}
