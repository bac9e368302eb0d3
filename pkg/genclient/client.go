package genclient

import (
	"context"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
)

// 操作名。エラーとメトリクスのラベルに使用します。
const (
	OpInferBrand = "infer_brand_identity"
	OpCampaign   = "generate_campaign_structure"
	OpVariations = "generate_post_variations"
	OpRefine     = "refine_post_content"
	OpImage      = "generate_image_for_post"
	OpVideo      = "generate_video_for_post"
	OpChat       = "chat_with_agent"
)

// Client は生成AIバックエンドとの契約です。
// すべての操作は失敗時に *GenerationError を返します。
type Client interface {
	// InferBrandIdentity はブランド文脈とロゴ（任意の data URI）からブランド像を推論します。
	InferBrandIdentity(ctx context.Context, rawInput, assetData string) (domain.BrandIdentity, error)
	// GenerateCampaignStructure はゴールと対象プラットフォームからキャンペーン計画を作ります。
	GenerateCampaignStructure(ctx context.Context, goal string, brand domain.BrandIdentity, platforms []string) (domain.CampaignIntent, error)
	// GeneratePostVariations はプラットフォームごとの投稿案を作ります。
	GeneratePostVariations(ctx context.Context, brand domain.BrandIdentity, intent domain.CampaignIntent) ([]domain.SocialPost, error)
	// RefinePostContent は指示文に従ってキャプションと画像プロンプトを書き直します。
	RefinePostContent(ctx context.Context, post domain.SocialPost, instruction string, brand domain.BrandIdentity) (domain.Refinement, error)
	// GenerateImageForPost は正方形の画像を生成し data URI で返します。
	GenerateImageForPost(ctx context.Context, imagePrompt string, brand domain.BrandIdentity) (string, error)
	// GenerateVideoForPost は長時間処理の動画生成を完了までポーリングし、動画の参照を返します。
	GenerateVideoForPost(ctx context.Context, prompt string) (string, error)
	// ChatWithAgent は検索グラウンディング付きのチャットを1往復実行します。
	ChatWithAgent(ctx context.Context, message string, history []domain.ChatMessage) (domain.ChatReply, error)
}
