package app

import (
	"context"
	"log/slog"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
)

// gatedClient は有効化されていない間の呼び出しを拒否し、
// 資格情報エラーを検知したら状態を unauthorized に切り替えます。
type gatedClient struct {
	c *Controller
}

var _ genclient.Client = gatedClient{}

func (g gatedClient) current() (genclient.Client, error) {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	if g.c.state.Activation != ActivationActive || g.c.client == nil {
		return nil, ErrNotActivated
	}
	return g.c.client, nil
}

func (g gatedClient) observe(err error) {
	if err == nil || !genclient.IsUnauthorized(err) {
		return
	}
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	if g.c.state.Activation == ActivationActive {
		slog.Warn("API key rejected, deactivating generation")
		g.c.state.Activation = ActivationUnauthorized
	}
}

func (g gatedClient) InferBrandIdentity(ctx context.Context, rawInput, assetData string) (domain.BrandIdentity, error) {
	client, err := g.current()
	if err != nil {
		return domain.BrandIdentity{}, err
	}
	out, err := client.InferBrandIdentity(ctx, rawInput, assetData)
	g.observe(err)
	return out, err
}

func (g gatedClient) GenerateCampaignStructure(ctx context.Context, goal string, brand domain.BrandIdentity, platforms []string) (domain.CampaignIntent, error) {
	client, err := g.current()
	if err != nil {
		return domain.CampaignIntent{}, err
	}
	out, err := client.GenerateCampaignStructure(ctx, goal, brand, platforms)
	g.observe(err)
	return out, err
}

func (g gatedClient) GeneratePostVariations(ctx context.Context, brand domain.BrandIdentity, intent domain.CampaignIntent) ([]domain.SocialPost, error) {
	client, err := g.current()
	if err != nil {
		return nil, err
	}
	out, err := client.GeneratePostVariations(ctx, brand, intent)
	g.observe(err)
	return out, err
}

func (g gatedClient) RefinePostContent(ctx context.Context, post domain.SocialPost, instruction string, brand domain.BrandIdentity) (domain.Refinement, error) {
	client, err := g.current()
	if err != nil {
		return domain.Refinement{}, err
	}
	out, err := client.RefinePostContent(ctx, post, instruction, brand)
	g.observe(err)
	return out, err
}

func (g gatedClient) GenerateImageForPost(ctx context.Context, imagePrompt string, brand domain.BrandIdentity) (string, error) {
	client, err := g.current()
	if err != nil {
		return "", err
	}
	out, err := client.GenerateImageForPost(ctx, imagePrompt, brand)
	g.observe(err)
	return out, err
}

func (g gatedClient) GenerateVideoForPost(ctx context.Context, prompt string) (string, error) {
	client, err := g.current()
	if err != nil {
		return "", err
	}
	out, err := client.GenerateVideoForPost(ctx, prompt)
	g.observe(err)
	return out, err
}

func (g gatedClient) ChatWithAgent(ctx context.Context, message string, history []domain.ChatMessage) (domain.ChatReply, error) {
	client, err := g.current()
	if err != nil {
		return domain.ChatReply{}, err
	}
	out, err := client.ChatWithAgent(ctx, message, history)
	g.observe(err)
	return out, err
}
