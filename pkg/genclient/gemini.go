package genclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"

	"github.com/shouni/go-postcraft-kit/pkg/asset"
	"github.com/shouni/go-postcraft-kit/pkg/config"
	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/prompts"
)

// GeminiClient は Backend 上に Client の7操作を実装します。
// 画像生成だけは ImageExecutor を経由します。構造化出力と検索付きチャットは
// ResponseSchema と Tools を渡すため Backend を直接呼び出します。
type GeminiClient struct {
	backend Backend
	images  ImageExecutor
	prompts prompts.PromptBuilder
	cfg     config.Config

	// sleep はポーリング間隔の待機です。テストで差し替えます。
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient は GeminiClient を初期化します。
func NewGeminiClient(backend Backend, images ImageExecutor, pb prompts.PromptBuilder, cfg config.Config) (*GeminiClient, error) {
	if backend == nil {
		return nil, fmt.Errorf("Backend は必須です")
	}
	if images == nil {
		return nil, fmt.Errorf("ImageExecutor は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("PromptBuilder は必須です")
	}
	return &GeminiClient{
		backend: backend,
		images:  images,
		prompts: pb,
		cfg:     cfg.WithDefaults(),
		sleep:   sleepContext,
	}, nil
}

// InferBrandIdentity はブランド文脈を解析し、ロゴをそのまま引き継いだ BrandIdentity を返します。
func (c *GeminiClient) InferBrandIdentity(ctx context.Context, rawInput, assetData string) (brand domain.BrandIdentity, err error) {
	start := time.Now()
	defer func() { observe(OpInferBrand, start, err) }()

	text, err := c.prompts.Build(prompts.ModeBrand, prompts.TemplateData{Context: rawInput, HasAsset: assetData != ""})
	if err != nil {
		return brand, newError(OpInferBrand, KindMalformed, err)
	}

	parts := []*genai.Part{genai.NewPartFromText(text)}
	if assetData != "" {
		part, perr := inlineAsset(assetData)
		if perr != nil {
			return brand, newError(OpInferBrand, KindMalformed, perr)
		}
		parts = append(parts, part)
	}

	if err = c.generateStructured(ctx, OpInferBrand, parts, brandSchema, &brand); err != nil {
		return domain.BrandIdentity{}, err
	}
	if verr := brand.Validate(); verr != nil {
		slog.Warn("Inferred brand identity is incomplete", "error", verr)
		err = newError(OpInferBrand, KindMalformed, verr)
		return domain.BrandIdentity{}, err
	}
	brand.AssetData = assetData
	return brand, nil
}

// GenerateCampaignStructure はキャンペーン計画を生成します。
func (c *GeminiClient) GenerateCampaignStructure(ctx context.Context, goal string, brand domain.BrandIdentity, platforms []string) (intent domain.CampaignIntent, err error) {
	start := time.Now()
	defer func() { observe(OpCampaign, start, err) }()

	text, err := c.prompts.Build(prompts.ModeCampaign, prompts.TemplateData{Goal: goal, Brand: brand, Platforms: platforms})
	if err != nil {
		return intent, newError(OpCampaign, KindMalformed, err)
	}
	if err = c.generateStructured(ctx, OpCampaign, []*genai.Part{genai.NewPartFromText(text)}, campaignSchema, &intent); err != nil {
		return domain.CampaignIntent{}, err
	}
	return intent, nil
}

// GeneratePostVariations は投稿案を生成し、欠落・重複した ID を補修して返します。
func (c *GeminiClient) GeneratePostVariations(ctx context.Context, brand domain.BrandIdentity, intent domain.CampaignIntent) (posts []domain.SocialPost, err error) {
	start := time.Now()
	defer func() { observe(OpVariations, start, err) }()

	text, err := c.prompts.Build(prompts.ModeVariations, prompts.TemplateData{
		Brand:      brand,
		BrandJSON:  prompts.BrandContextJSON(brand),
		IntentJSON: prompts.IntentJSON(intent),
	})
	if err != nil {
		return nil, newError(OpVariations, KindMalformed, err)
	}

	var decoded domain.Posts
	if err = c.generateStructured(ctx, OpVariations, []*genai.Part{genai.NewPartFromText(text)}, variationsSchema, &decoded); err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		err = newError(OpVariations, KindEmpty, errors.New("no posts returned"))
		return nil, err
	}
	return decoded.EnsureUniqueIDs(), nil
}

// RefinePostContent は指示文に従った改稿案を返します。
func (c *GeminiClient) RefinePostContent(ctx context.Context, post domain.SocialPost, instruction string, brand domain.BrandIdentity) (ref domain.Refinement, err error) {
	start := time.Now()
	defer func() { observe(OpRefine, start, err) }()

	text, err := c.prompts.Build(prompts.ModeRefine, prompts.TemplateData{
		Caption:     post.Caption,
		ImagePrompt: post.ImagePrompt,
		Instruction: instruction,
		BrandJSON:   prompts.BrandContextJSON(brand),
	})
	if err != nil {
		return ref, newError(OpRefine, KindMalformed, err)
	}
	if err = c.generateStructured(ctx, OpRefine, []*genai.Part{genai.NewPartFromText(text)}, refineSchema, &ref); err != nil {
		return domain.Refinement{}, err
	}
	return ref, nil
}

// GenerateImageForPost は正方形の画像を生成します。ロゴがあれば先頭に添付します。
func (c *GeminiClient) GenerateImageForPost(ctx context.Context, imagePrompt string, brand domain.BrandIdentity) (uri string, err error) {
	start := time.Now()
	defer func() { observe(OpImage, start, err) }()

	text, err := c.prompts.Build(prompts.ModeImage, prompts.TemplateData{ImagePrompt: imagePrompt, Brand: brand, HasAsset: brand.HasAsset()})
	if err != nil {
		return "", newError(OpImage, KindMalformed, err)
	}

	var parts []*genai.Part
	if brand.HasAsset() {
		part, perr := inlineAsset(brand.AssetData)
		if perr != nil {
			err = newError(OpImage, KindMalformed, perr)
			return "", err
		}
		parts = append(parts, part)
	}
	parts = append(parts, genai.NewPartFromText(text))

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, gerr := c.images.ExecuteRequest(ctx, c.cfg.ImageModel, parts, gemini.GenerateOptions{
		AspectRatio: c.cfg.ImageAspectRatio,
	})
	if gerr != nil {
		err = classifyImage(gerr)
		return "", err
	}
	if resp == nil || len(resp.Data) == 0 {
		err = newError(OpImage, KindEmpty, errors.New("visual synthesis returned no image"))
		return "", err
	}

	mimeType := resp.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(resp.Data)
	}
	return asset.EncodeDataURI(mimeType, resp.Data), nil
}

// ChatWithAgent は履歴付きで Google 検索グラウンディングを有効にした1往復を行います。
func (c *GeminiClient) ChatWithAgent(ctx context.Context, message string, history []domain.ChatMessage) (reply domain.ChatReply, err error) {
	start := time.Now()
	defer func() { observe(OpChat, start, err) }()

	system, err := c.prompts.Build(prompts.ModeChatSystem, prompts.TemplateData{})
	if err != nil {
		return reply, newError(OpChat, KindMalformed, err)
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if m.Role == domain.RoleAgent {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, gerr := c.backend.GenerateContent(ctx, c.cfg.GeminiModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(c.cfg.Temperature),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if gerr != nil {
		err = classify(OpChat, gerr)
		return reply, err
	}

	return domain.ChatReply{
		Text:    responseText(resp),
		Sources: groundingSources(resp),
	}, nil
}

// generateStructured は JSON スキーマ付きでテキストモデルを呼び出し、検証済みの結果を out に写します。
func (c *GeminiClient) generateStructured(ctx context.Context, op string, parts []*genai.Part, schema *genai.Schema, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.backend.GenerateContent(ctx, c.cfg.GeminiModel, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.cfg.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return classify(op, err)
	}

	raw := responseText(resp)
	if strings.TrimSpace(raw) == "" {
		return newError(op, KindEmpty, errors.New("AI returned an empty response"))
	}

	v, err := decodeJSON(raw)
	if err != nil {
		slog.Warn("Failed to parse structured response", "operation", op, "error", err, "raw_length", len(raw))
		return newError(op, KindMalformed, err)
	}
	if err := validate(v, schema); err != nil {
		slog.Warn("Structured response does not match schema", "operation", op, "error", err)
		return newError(op, KindMalformed, err)
	}
	if err := remarshal(v, out); err != nil {
		return newError(op, KindMalformed, err)
	}
	return nil
}

func (c *GeminiClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.RequestTimeout)
}

// inlineAsset は data URI のロゴを画像パートに変換します。
func inlineAsset(assetData string) (*genai.Part, error) {
	mimeType, data, err := asset.ParseDataURI(assetData)
	if err != nil {
		return nil, fmt.Errorf("ロゴデータの解析に失敗しました: %w", err)
	}
	return genai.NewPartFromBytes(data, mimeType), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Text()
}

// groundingSources は Web のグラウンディング情報を URI で重複排除して返します。
func groundingSources(resp *genai.GenerateContentResponse) []domain.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}

	var sources []domain.Source
	seen := make(map[string]struct{})
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		if _, ok := seen[chunk.Web.URI]; ok {
			continue
		}
		seen[chunk.Web.URI] = struct{}{}
		title := chunk.Web.Title
		if title == "" {
			title = chunk.Web.URI
		}
		sources = append(sources, domain.Source{Title: title, URI: chunk.Web.URI})
	}
	return sources
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
