package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shouni/go-postcraft-kit/pkg/chat"
	"github.com/shouni/go-postcraft-kit/pkg/compositor"
	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
	"github.com/shouni/go-postcraft-kit/pkg/orchestrator"
	"github.com/shouni/go-postcraft-kit/pkg/refine"
)

var (
	// ErrNotActivated は有効な API キーが無い間に生成操作を呼んだ場合に返されます。
	ErrNotActivated = errors.New("generation is not activated")
	// ErrNotFound は対象の投稿が存在しない場合に返されます。
	ErrNotFound = errors.New("post not found")
	// ErrPrecondition は入力不足や段階の条件を満たさない場合に返されます。
	ErrPrecondition = errors.New("precondition not met")
	// ErrBusy は同じ対象への操作が実行中の場合に返されます。
	ErrBusy = errors.New("operation already in progress")
)

// ClientFactory は API キーから生成クライアントを作ります。
type ClientFactory func(ctx context.Context, apiKey string) (genclient.Client, error)

// Args は Controller の依存関係です。
type Args struct {
	NewClient  ClientFactory
	Compositor *compositor.Compositor
	// APIKey が空でなければ起動時に有効化を試みます。
	APIKey string
	// RateInterval は画像生成の送出間隔です。0 なら制限しません。
	RateInterval time.Duration
}

// Controller は State を所有し、各コンポーネントを組み合わせて操作を提供します。
type Controller struct {
	newClient  ClientFactory
	compositor *compositor.Compositor

	orchestrator *orchestrator.Orchestrator
	refiner      *refine.Controller
	chat         *chat.Session

	mu     sync.Mutex
	state  State
	client genclient.Client
}

// New は Controller を初期化します。
func New(ctx context.Context, args Args) (*Controller, error) {
	if args.NewClient == nil {
		return nil, fmt.Errorf("ClientFactory は必須です")
	}
	if args.Compositor == nil {
		return nil, fmt.Errorf("Compositor は必須です")
	}

	c := &Controller{
		newClient:  args.NewClient,
		compositor: args.Compositor,
		state: State{
			Step:       domain.StepBrand,
			Activation: ActivationInactive,
		},
	}

	gate := gatedClient{c: c}
	var err error
	if c.orchestrator, err = orchestrator.New(gate, args.RateInterval); err != nil {
		return nil, err
	}
	if c.refiner, err = refine.New(gate, stateStore{c: c}); err != nil {
		return nil, err
	}
	if c.chat, err = chat.NewSession(gate); err != nil {
		return nil, err
	}

	if args.APIKey != "" {
		if err := c.Activate(ctx, args.APIKey); err != nil {
			slog.Warn("Initial activation failed, starting inactive", "error", err)
		}
	}
	return c, nil
}

// Snapshot は状態のコピーを返します。
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	s := c.state.clone()
	c.mu.Unlock()
	s.Pending = c.pending(s.Posts)
	s.ChatMessages = c.chat.Messages()
	return s
}

// pending は一覧中の投稿で実行中の操作を集めます。c.mu を保持せずに呼び出します。
func (c *Controller) pending(posts domain.Posts) map[string]string {
	var out map[string]string
	for _, p := range posts {
		action, ok := c.refiner.Busy(p.ID)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[p.ID] = action
	}
	return out
}

// Activate は API キーでクライアントを作り直し、生成操作を再開します。
func (c *Controller) Activate(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API key is empty: %w", ErrPrecondition)
	}
	client, err := c.newClient(ctx, apiKey)
	if err != nil {
		return fmt.Errorf("クライアントの初期化に失敗しました: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = client
	c.state.Activation = ActivationActive
	c.state.LastError = ""
	slog.Info("Generation activated")
	return nil
}

// GoTo は段階を移動します。戻る方向は常に許可され、進む方向は前提を満たす場合だけ許可されます。
func (c *Controller) GoTo(step domain.Step) error {
	if !step.Valid() {
		return fmt.Errorf("unknown step %q: %w", step, ErrPrecondition)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if step == c.state.Step || step.Before(c.state.Step) {
		c.state.Step = step
		return nil
	}
	if c.state.Brand == nil {
		return fmt.Errorf("define the brand first: %w", ErrPrecondition)
	}
	switch step {
	case domain.StepGeneration, domain.StepReview:
		if len(c.state.Posts) == 0 && !c.state.CampaignRunning {
			return fmt.Errorf("run a campaign first: %w", ErrPrecondition)
		}
	}
	c.state.Step = step
	return nil
}

// DefineBrand はブランドを推論して保存します。
func (c *Controller) DefineBrand(ctx context.Context, in orchestrator.BrandInput) (domain.BrandIdentity, error) {
	if err := c.beginLoading(); err != nil {
		return domain.BrandIdentity{}, err
	}
	brand, err := c.orchestrator.DefineBrand(ctx, in)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if err != nil {
		c.recordFailure(err, MsgInferenceFailed)
		return domain.BrandIdentity{}, translate(err)
	}
	c.state.Brand = &brand
	c.state.LastError = ""
	return brand.Clone(), nil
}

// SetBrand は推論結果を使わずにブランドを直接設定します。
func (c *Controller) SetBrand(brand domain.BrandIdentity) error {
	if err := brand.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrPrecondition)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b := brand.Clone()
	c.state.Brand = &b
	return nil
}

// RunCampaign はキャンペーンを生成します。進行は State に逐次反映されます。
func (c *Controller) RunCampaign(ctx context.Context, goal string, platforms []string) ([]domain.SocialPost, error) {
	if err := c.beginLoading(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.state.CampaignRunning = true
	var brand *domain.BrandIdentity
	if c.state.Brand != nil {
		b := c.state.Brand.Clone()
		brand = &b
	}
	c.mu.Unlock()

	res, err := c.orchestrator.RunCampaign(ctx, orchestrator.CampaignRequest{Goal: goal, Platforms: platforms, Brand: brand}, campaignSink{c: c})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	c.state.CampaignRunning = false
	if err != nil {
		c.recordFailure(err, MsgCampaignFailed)
		return nil, translate(err)
	}
	c.state.LastError = ""
	return domain.Posts(res.Posts).Clone(), nil
}

// DeletePost は投稿を一覧から削除します。詳細ビューで開いていれば閉じます。
func (c *Controller) DeletePost(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	posts, ok := c.state.Posts.Remove(id)
	if !ok {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	c.state.Posts = posts
	if c.state.FocusedID == id {
		c.state.FocusedID = ""
		c.state.RefinementInput = ""
	}
	return nil
}

// Focus は詳細ビューで投稿を開きます。
func (c *Controller) Focus(id string) (domain.SocialPost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.state.Posts.Find(id)
	if !ok {
		return domain.SocialPost{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if c.state.FocusedID != id {
		c.state.RefinementInput = ""
	}
	c.state.FocusedID = id
	return p, nil
}

// Unfocus は詳細ビューを閉じます。実行中の操作は取り消されず、完了時に ID で反映されます。
func (c *Controller) Unfocus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.FocusedID = ""
	c.state.RefinementInput = ""
}

// EditCaption はキャプションを直接書き換えます。
func (c *Controller) EditCaption(id, caption string) (domain.SocialPost, error) {
	return c.edit(id, func(p *domain.SocialPost) { p.Caption = caption })
}

// EditImagePrompt は画像プロンプトを直接書き換えます。画像は再生成しません。
func (c *Controller) EditImagePrompt(id, prompt string) (domain.SocialPost, error) {
	return c.edit(id, func(p *domain.SocialPost) { p.ImagePrompt = prompt })
}

// EditOverlay はオーバーレイ文字列とスタイルを書き換えます。
func (c *Controller) EditOverlay(id, text string, cfg domain.OverlayConfig) (domain.SocialPost, error) {
	if cfg.Position != "" && !cfg.Position.Valid() {
		return domain.SocialPost{}, fmt.Errorf("unknown overlay position %q: %w", cfg.Position, ErrPrecondition)
	}
	return c.edit(id, func(p *domain.SocialPost) {
		p.OverlayText = text
		p.OverlayConfig = cfg.WithDefaults()
	})
}

func (c *Controller) edit(id string, fn func(p *domain.SocialPost)) (domain.SocialPost, error) {
	p, ok := stateStore{c: c}.UpdatePost(id, fn)
	if !ok {
		return domain.SocialPost{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// SetRefinementInput は改稿指示の入力欄を更新します。
func (c *Controller) SetRefinementInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.RefinementInput = text
}

// RefineText は指示文で投稿を改稿します。instruction が空なら入力欄の値を使い、成功時だけ入力欄を空にします。
func (c *Controller) RefineText(ctx context.Context, id, instruction string) (domain.SocialPost, error) {
	c.mu.Lock()
	if strings.TrimSpace(instruction) == "" {
		instruction = c.state.RefinementInput
	}
	c.mu.Unlock()

	return c.runPostAction(ctx, id, "refine", MsgRefinementFailed, func() (domain.SocialPost, error) {
		p, err := c.refiner.RefineText(ctx, id, instruction)
		if err == nil {
			c.mu.Lock()
			c.state.RefinementInput = ""
			c.mu.Unlock()
		}
		return p, err
	})
}

// RegenerateImage は現在の画像プロンプトで画像を作り直します。
func (c *Controller) RegenerateImage(ctx context.Context, id string) (domain.SocialPost, error) {
	return c.runPostAction(ctx, id, "regenerate", MsgRegenerationFailed, func() (domain.SocialPost, error) {
		return c.refiner.RegenerateImage(ctx, id)
	})
}

// SynthesizeVideo は動画を生成して添付します。既に動画があれば何もしません。
func (c *Controller) SynthesizeVideo(ctx context.Context, id string) (domain.SocialPost, error) {
	return c.runPostAction(ctx, id, "video", MsgVideoFailed, func() (domain.SocialPost, error) {
		return c.refiner.SynthesizeVideo(ctx, id)
	})
}

func (c *Controller) runPostAction(ctx context.Context, id, action, failure string, fn func() (domain.SocialPost, error)) (domain.SocialPost, error) {
	if err := c.requireActive(); err != nil {
		return domain.SocialPost{}, err
	}

	p, err := fn()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if !errors.Is(err, refine.ErrBusy) {
			c.recordFailure(err, failure)
		}
		slog.WarnContext(ctx, "Post action failed", "action", action, "post_id", id, "error", err)
		return domain.SocialPost{}, translate(err)
	}
	c.state.LastError = ""
	return p, nil
}

// SendChat はチャットに発言します。失敗時も履歴には2件追記されます。
func (c *Controller) SendChat(ctx context.Context, text string) (domain.ChatMessage, error) {
	if err := c.requireActive(); err != nil {
		return domain.ChatMessage{}, err
	}
	c.setChatPending(true)
	defer c.setChatPending(false)

	msg, err := c.chat.Send(ctx, text)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			return domain.ChatMessage{}, fmt.Errorf("%v: %w", err, ErrPrecondition)
		}
		c.mu.Lock()
		c.recordFailure(err, "")
		c.mu.Unlock()
		return msg, translate(err)
	}
	return msg, nil
}

// ChatMessages はチャット履歴のコピーを返します。
func (c *Controller) ChatMessages() []domain.ChatMessage {
	return c.chat.Messages()
}

// ToggleChat はチャットパネルの開閉を切り替え、新しい状態を返します。
func (c *Controller) ToggleChat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ChatOpen = !c.state.ChatOpen
	return c.state.ChatOpen
}

// Render は投稿の画像とオーバーレイを合成します。
func (c *Controller) Render(ctx context.Context, id string) (*image.RGBA, error) {
	c.mu.Lock()
	p, ok := c.state.Posts.Find(id)
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return c.compositor.Render(ctx, p.ImageURL, p.OverlayText, p.OverlayConfig)
}

// ClearError は最後の失敗メッセージを消します。
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LastError = ""
}

func (c *Controller) setChatPending(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ChatPending = v
}

func (c *Controller) requireActive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Activation != ActivationActive {
		return ErrNotActivated
	}
	return nil
}

// beginLoading はブランド推論とキャンペーン生成の同時実行を防ぎます。
func (c *Controller) beginLoading() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Activation != ActivationActive {
		return ErrNotActivated
	}
	if c.state.Loading {
		return ErrBusy
	}
	c.state.Loading = true
	return nil
}

// recordFailure は c.mu を保持した状態で呼び出します。
func (c *Controller) recordFailure(err error, message string) {
	switch {
	case errors.Is(err, orchestrator.ErrPrecondition), errors.Is(err, refine.ErrPrecondition), errors.Is(err, refine.ErrNotFound):
		return
	case errors.Is(err, ErrNotActivated):
		return
	case genclient.IsUnauthorized(err):
		c.state.LastError = MsgUnauthorized
	case message != "":
		c.state.LastError = message
	}
}

// translate はコンポーネントのエラーを本パッケージの分類に写します。元のエラーはチェーンに残ります。
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, orchestrator.ErrPrecondition), errors.Is(err, refine.ErrPrecondition):
		return fmt.Errorf("%w: %w", ErrPrecondition, err)
	case errors.Is(err, refine.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, refine.ErrBusy):
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}
	return err
}
