// Package genclienttest は genclient.Client の差し替え用実装を提供します。
package genclienttest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
)

// Fake は関数フィールドで応答を差し替えられる genclient.Client です。
// 未設定の操作はもっともらしい既定値を返します。呼び出し回数は並行に安全に記録されます。
type Fake struct {
	InferBrandFunc func(ctx context.Context, rawInput, assetData string) (domain.BrandIdentity, error)
	CampaignFunc   func(ctx context.Context, goal string, brand domain.BrandIdentity, platforms []string) (domain.CampaignIntent, error)
	VariationsFunc func(ctx context.Context, brand domain.BrandIdentity, intent domain.CampaignIntent) ([]domain.SocialPost, error)
	RefineFunc     func(ctx context.Context, post domain.SocialPost, instruction string, brand domain.BrandIdentity) (domain.Refinement, error)
	ImageFunc      func(ctx context.Context, imagePrompt string, brand domain.BrandIdentity) (string, error)
	VideoFunc      func(ctx context.Context, prompt string) (string, error)
	ChatFunc       func(ctx context.Context, message string, history []domain.ChatMessage) (domain.ChatReply, error)

	mu    sync.Mutex
	calls map[string]int
	last  map[string][]any
}

var _ genclient.Client = (*Fake)(nil)

// Calls は操作名ごとの呼び出し回数を返します。
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// LastArgs は操作の直近の引数を返します。
func (f *Fake) LastArgs(op string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last[op]
}

func (f *Fake) record(op string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
		f.last = make(map[string][]any)
	}
	f.calls[op]++
	f.last[op] = args
}

// Brand はテスト用の既定ブランドです。
func Brand() domain.BrandIdentity {
	return domain.BrandIdentity{
		Name:   "Ember Roasters",
		Voice:  "warm and knowledgeable",
		Colors: []string{"#3B2F2F", "#D4A373"},
		Tone:   "calm",
		Style:  "rustic film photography",
	}
}

// ErrTransport は通信失敗を模した GenerationError を返します。
func ErrTransport(op string) error {
	return &genclient.GenerationError{Op: op, Kind: genclient.KindTransport, Err: errors.New("connection reset")}
}

// ErrUnauthorized は無効なキーを模した GenerationError を返します。
func ErrUnauthorized(op string) error {
	return &genclient.GenerationError{Op: op, Kind: genclient.KindUnauthorized, Err: errors.New("API key not valid")}
}

func (f *Fake) InferBrandIdentity(ctx context.Context, rawInput, assetData string) (domain.BrandIdentity, error) {
	f.record(genclient.OpInferBrand, rawInput, assetData)
	if f.InferBrandFunc != nil {
		return f.InferBrandFunc(ctx, rawInput, assetData)
	}
	b := Brand()
	b.AssetData = assetData
	return b, nil
}

func (f *Fake) GenerateCampaignStructure(ctx context.Context, goal string, brand domain.BrandIdentity, platforms []string) (domain.CampaignIntent, error) {
	f.record(genclient.OpCampaign, goal, brand, platforms)
	if f.CampaignFunc != nil {
		return f.CampaignFunc(ctx, goal, brand, platforms)
	}
	return domain.CampaignIntent{
		Platforms:  append([]string(nil), platforms...),
		PostType:   "announcement",
		KeyMessage: goal,
		Constraints: domain.Constraints{
			Tone:        brand.Tone,
			CTA:         "Learn more",
			ThemeColors: "brand palette",
		},
	}, nil
}

func (f *Fake) GeneratePostVariations(ctx context.Context, brand domain.BrandIdentity, intent domain.CampaignIntent) ([]domain.SocialPost, error) {
	f.record(genclient.OpVariations, brand, intent)
	if f.VariationsFunc != nil {
		return f.VariationsFunc(ctx, brand, intent)
	}
	posts := make([]domain.SocialPost, 0, len(intent.Platforms))
	for i, platform := range intent.Platforms {
		posts = append(posts, domain.SocialPost{
			ID:            fmt.Sprintf("post-%d", i+1),
			Platform:      platform,
			Caption:       fmt.Sprintf("%s on %s", intent.KeyMessage, platform),
			ImagePrompt:   fmt.Sprintf("prompt for %s", platform),
			Reasoning:     "fits the platform",
			SuggestedTags: []string{"#brand"},
			OverlayText:   "new",
			OverlayConfig: domain.OverlayConfig{Position: domain.PositionBottom, Color: "#FFFFFF", FontSize: 40, ShowBackground: true},
		})
	}
	return posts, nil
}

func (f *Fake) RefinePostContent(ctx context.Context, post domain.SocialPost, instruction string, brand domain.BrandIdentity) (domain.Refinement, error) {
	f.record(genclient.OpRefine, post, instruction, brand)
	if f.RefineFunc != nil {
		return f.RefineFunc(ctx, post, instruction, brand)
	}
	return domain.Refinement{
		Caption:     post.Caption + " (" + instruction + ")",
		ImagePrompt: post.ImagePrompt + ", refined",
		Reasoning:   "applied: " + instruction,
	}, nil
}

func (f *Fake) GenerateImageForPost(ctx context.Context, imagePrompt string, brand domain.BrandIdentity) (string, error) {
	f.record(genclient.OpImage, imagePrompt, brand)
	if f.ImageFunc != nil {
		return f.ImageFunc(ctx, imagePrompt, brand)
	}
	return "data:image/png;base64,iVBORw0KGgo=", nil
}

func (f *Fake) GenerateVideoForPost(ctx context.Context, prompt string) (string, error) {
	f.record(genclient.OpVideo, prompt)
	if f.VideoFunc != nil {
		return f.VideoFunc(ctx, prompt)
	}
	return "data:video/mp4;base64,bXA0", nil
}

func (f *Fake) ChatWithAgent(ctx context.Context, message string, history []domain.ChatMessage) (domain.ChatReply, error) {
	f.record(genclient.OpChat, message, history)
	if f.ChatFunc != nil {
		return f.ChatFunc(ctx, message, history)
	}
	return domain.ChatReply{Text: "Try a carousel.", Sources: []domain.Source{{Title: "Guide", URI: "https://guide.example"}}}, nil
}
