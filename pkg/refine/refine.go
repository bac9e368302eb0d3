package refine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
)

var (
	// ErrBusy は同じ投稿に対する操作が既に実行中の場合に返されます。
	ErrBusy = errors.New("an action is already running for this post")
	// ErrNotFound は対象の投稿が存在しない、または処理中に削除された場合に返されます。
	ErrNotFound = errors.New("post not found")
	// ErrPrecondition は入力不足で操作を開始できない場合に返されます。
	ErrPrecondition = errors.New("precondition not met")
)

// Store は投稿とブランドの保持先です。UpdatePost は ID で投稿を探し、
// 見つかった場合だけ fn で書き換えて結果を返します。
type Store interface {
	Post(id string) (domain.SocialPost, bool)
	Brand() (domain.BrandIdentity, bool)
	UpdatePost(id string, fn func(p *domain.SocialPost)) (domain.SocialPost, bool)
}

// Controller は1件の投稿に対する改稿・画像再生成・動画生成を実行します。
// 同一投稿への操作は同時に1つまでです。
type Controller struct {
	client genclient.Client
	store  Store

	mu   sync.Mutex
	busy map[string]string
}

// New は Controller を初期化します。
func New(client genclient.Client, store Store) (*Controller, error) {
	if client == nil {
		return nil, fmt.Errorf("genclient.Client は必須です")
	}
	if store == nil {
		return nil, fmt.Errorf("Store は必須です")
	}
	return &Controller{client: client, store: store, busy: make(map[string]string)}, nil
}

// Busy は投稿で実行中の操作名を返します。
func (c *Controller) Busy(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	action, ok := c.busy[id]
	return action, ok
}

func (c *Controller) acquire(id, action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if running, ok := c.busy[id]; ok {
		return fmt.Errorf("%s is running: %w", running, ErrBusy)
	}
	c.busy[id] = action
	return nil
}

func (c *Controller) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, id)
}

// load は操作開始時点の投稿とブランドを取得します。
func (c *Controller) load(id string) (domain.SocialPost, domain.BrandIdentity, error) {
	post, ok := c.store.Post(id)
	if !ok {
		return domain.SocialPost{}, domain.BrandIdentity{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	brand, ok := c.store.Brand()
	if !ok {
		return domain.SocialPost{}, domain.BrandIdentity{}, fmt.Errorf("brand identity is not defined: %w", ErrPrecondition)
	}
	return post, brand, nil
}

// RefineText は指示文で改稿し、新しい画像プロンプトで画像も作り直します。
// 両方の生成が成功した場合だけ、キャプション・画像プロンプト・理由・画像を ID で反映します。
func (c *Controller) RefineText(ctx context.Context, id, instruction string) (domain.SocialPost, error) {
	if strings.TrimSpace(instruction) == "" {
		return domain.SocialPost{}, fmt.Errorf("refinement instruction is empty: %w", ErrPrecondition)
	}
	if err := c.acquire(id, "refine"); err != nil {
		return domain.SocialPost{}, err
	}
	defer c.release(id)

	post, brand, err := c.load(id)
	if err != nil {
		return domain.SocialPost{}, err
	}

	refined, err := c.client.RefinePostContent(ctx, post, instruction, brand)
	if err != nil {
		return domain.SocialPost{}, fmt.Errorf("改稿に失敗しました: %w", err)
	}
	imageURL, err := c.client.GenerateImageForPost(ctx, refined.ImagePrompt, brand)
	if err != nil {
		return domain.SocialPost{}, fmt.Errorf("改稿後の画像生成に失敗しました: %w", err)
	}

	updated, ok := c.store.UpdatePost(id, func(p *domain.SocialPost) {
		*p = refined.Apply(*p)
		p.ImageURL = imageURL
		p.Error = ""
	})
	if !ok {
		return domain.SocialPost{}, fmt.Errorf("post %s was removed during refinement: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Post refined", "post_id", id, "platform", updated.Platform)
	return updated, nil
}

// RegenerateImage は現在の画像プロンプト（手動編集を含む）で画像だけを作り直します。
func (c *Controller) RegenerateImage(ctx context.Context, id string) (domain.SocialPost, error) {
	if err := c.acquire(id, "regenerate"); err != nil {
		return domain.SocialPost{}, err
	}
	defer c.release(id)

	post, brand, err := c.load(id)
	if err != nil {
		return domain.SocialPost{}, err
	}

	imageURL, err := c.client.GenerateImageForPost(ctx, post.ImagePrompt, brand)
	if err != nil {
		return domain.SocialPost{}, fmt.Errorf("画像の再生成に失敗しました: %w", err)
	}

	updated, ok := c.store.UpdatePost(id, func(p *domain.SocialPost) {
		p.ImageURL = imageURL
		p.Error = ""
	})
	if !ok {
		return domain.SocialPost{}, fmt.Errorf("post %s was removed during regeneration: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Post image regenerated", "post_id", id)
	return updated, nil
}

// SynthesizeVideo は画像プロンプトから動画を生成して添付します。
// 既に動画がある場合は何も呼び出さずに現在の投稿を返します。
func (c *Controller) SynthesizeVideo(ctx context.Context, id string) (domain.SocialPost, error) {
	if err := c.acquire(id, "video"); err != nil {
		return domain.SocialPost{}, err
	}
	defer c.release(id)

	post, ok := c.store.Post(id)
	if !ok {
		return domain.SocialPost{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if post.VideoURL != "" {
		slog.DebugContext(ctx, "Video already attached, skipping", "post_id", id)
		return post, nil
	}

	videoURL, err := c.client.GenerateVideoForPost(ctx, post.ImagePrompt)
	if err != nil {
		return domain.SocialPost{}, fmt.Errorf("動画生成に失敗しました: %w", err)
	}

	updated, ok := c.store.UpdatePost(id, func(p *domain.SocialPost) {
		if p.VideoURL == "" {
			p.VideoURL = videoURL
		}
	})
	if !ok {
		return domain.SocialPost{}, fmt.Errorf("post %s was removed during video generation: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Post video attached", "post_id", id)
	return updated, nil
}
