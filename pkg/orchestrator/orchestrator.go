package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
)

// ImageErrorMessage は画像生成に失敗した投稿に記録される表示用メッセージです。
const ImageErrorMessage = "Image Error"

// ErrPrecondition は入力不足で操作を開始できない場合に返されます。
var ErrPrecondition = errors.New("precondition not met")

// BrandInput はブランド推論の入力です。
type BrandInput struct {
	Context   string
	Links     string
	AssetData string
}

// CampaignRequest はキャンペーン実行の入力です。
type CampaignRequest struct {
	Goal      string
	Platforms []string
	Brand     *domain.BrandIdentity
}

// Result はキャンペーン1周分の成果です。
type Result struct {
	Intent domain.CampaignIntent
	Posts  []domain.SocialPost
}

// Sink はキャンペーンの進行を受け取ります。実装は並行に呼ばれても安全である必要があります。
type Sink interface {
	// EnterGeneration は構成案が確定し、生成段階へ進んだときに呼ばれます。
	EnterGeneration(intent domain.CampaignIntent)
	// PostsDrafted は画像生成前の下書き（IsGenerating = true）を渡します。
	PostsDrafted(posts []domain.SocialPost)
	// PostSettled は1件の画像生成が成功または失敗で確定するたびに呼ばれます。
	PostSettled(post domain.SocialPost)
	// PostsSettled は全件確定後の最終一覧を1度だけ渡します。
	PostsSettled(posts []domain.SocialPost)
}

// NopSink は進行通知を捨てる Sink です。
type NopSink struct{}

func (NopSink) EnterGeneration(domain.CampaignIntent) {}
func (NopSink) PostsDrafted([]domain.SocialPost)      {}
func (NopSink) PostSettled(domain.SocialPost)         {}
func (NopSink) PostsSettled([]domain.SocialPost)      {}

// Orchestrator はブランド推論からキャンペーン生成までの工程を統括します。
type Orchestrator struct {
	client   genclient.Client
	interval time.Duration
}

// New は Orchestrator を初期化します。interval が 0 より大きい場合のみ画像生成の送出間隔を制限します。
func New(client genclient.Client, interval time.Duration) (*Orchestrator, error) {
	if client == nil {
		return nil, fmt.Errorf("genclient.Client は必須です")
	}
	return &Orchestrator{client: client, interval: interval}, nil
}

// DefineBrand はブランド文脈とリンクを結合してブランド像を推論します。
func (o *Orchestrator) DefineBrand(ctx context.Context, in BrandInput) (domain.BrandIdentity, error) {
	if strings.TrimSpace(in.Context) == "" {
		return domain.BrandIdentity{}, fmt.Errorf("brand context is empty: %w", ErrPrecondition)
	}

	raw := in.Context + "\n" + in.Links
	brand, err := o.client.InferBrandIdentity(ctx, raw, in.AssetData)
	if err != nil {
		return domain.BrandIdentity{}, fmt.Errorf("ブランド推論に失敗しました: %w", err)
	}
	brand.AssetData = in.AssetData
	slog.InfoContext(ctx, "Brand identity inferred", "name", brand.Name, "colors", len(brand.Colors), "has_asset", brand.HasAsset())
	return brand, nil
}

// RunCampaign は構成案・投稿案・画像を順に生成します。
// 構成案の生成に失敗した場合は sink を一切呼ばずに返ります。
// 画像生成は投稿ごとに独立しており、失敗は該当投稿の Error に記録されます。
func (o *Orchestrator) RunCampaign(ctx context.Context, req CampaignRequest, sink Sink) (Result, error) {
	if strings.TrimSpace(req.Goal) == "" {
		return Result{}, fmt.Errorf("campaign goal is empty: %w", ErrPrecondition)
	}
	if req.Brand == nil {
		return Result{}, fmt.Errorf("brand identity is not defined: %w", ErrPrecondition)
	}
	platforms, err := domain.NormalizePlatforms(req.Platforms)
	if err != nil {
		return Result{}, fmt.Errorf("%v: %w", err, ErrPrecondition)
	}
	if len(platforms) == 0 {
		return Result{}, fmt.Errorf("no platforms selected: %w", ErrPrecondition)
	}
	if sink == nil {
		sink = NopSink{}
	}
	brand := req.Brand.Clone()

	intent, err := o.client.GenerateCampaignStructure(ctx, req.Goal, brand, platforms)
	if err != nil {
		return Result{}, fmt.Errorf("キャンペーン構成の生成に失敗しました: %w", err)
	}
	sink.EnterGeneration(intent.Clone())

	variations, err := o.client.GeneratePostVariations(ctx, brand, intent)
	if err != nil {
		return Result{Intent: intent}, fmt.Errorf("投稿案の生成に失敗しました: %w", err)
	}

	drafts := domain.Posts(variations).EnsureUniqueIDs()
	for i := range drafts {
		drafts[i].IsGenerating = true
		drafts[i].Error = ""
	}
	sink.PostsDrafted(drafts.Clone())

	settled := o.generateImages(ctx, brand, drafts, sink)
	sink.PostsSettled(domain.Posts(settled).Clone())

	failed := 0
	for _, p := range settled {
		if p.Error != "" {
			failed++
		}
	}
	slog.InfoContext(ctx, "Campaign generated", "posts", len(settled), "image_failures", failed, "platforms", platforms)
	return Result{Intent: intent, Posts: settled}, nil
}

// generateImages は投稿ごとに並列で画像を生成します。
// 1件の失敗が他の投稿を取り消さないよう、各ゴルーチンは常に nil を返します。
func (o *Orchestrator) generateImages(ctx context.Context, brand domain.BrandIdentity, drafts domain.Posts, sink Sink) []domain.SocialPost {
	results := make([]domain.SocialPost, len(drafts))
	var eg errgroup.Group

	var limiter *rate.Limiter
	if o.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(o.interval), 2)
	}

	for i, draft := range drafts {
		eg.Go(func() error {
			logger := slog.With("post_id", draft.ID, "platform", draft.Platform)
			post := draft.Clone()
			post.IsGenerating = false

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					logger.Warn("Image generation was not started", "error", err)
					post.Error = ImageErrorMessage
					results[i] = post
					sink.PostSettled(post.Clone())
					return nil
				}
			}

			url, err := o.client.GenerateImageForPost(ctx, draft.ImagePrompt, brand)
			if err != nil {
				logger.Error("Image generation failed", "error", err)
				post.Error = ImageErrorMessage
			} else {
				post.ImageURL = url
			}
			results[i] = post
			sink.PostSettled(post.Clone())
			return nil
		})
	}

	_ = eg.Wait()
	return results
}
