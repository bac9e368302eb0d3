package app

import (
	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/orchestrator"
	"github.com/shouni/go-postcraft-kit/pkg/refine"
)

// campaignSink はキャンペーンの進行を State に反映します。
type campaignSink struct {
	c *Controller
}

var _ orchestrator.Sink = campaignSink{}

func (s campaignSink) EnterGeneration(intent domain.CampaignIntent) {
	s.c.SetIntent(intent)
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.state.Step = domain.StepGeneration
}

func (s campaignSink) PostsDrafted(posts []domain.SocialPost) {
	s.c.ReplacePosts(posts)
}

// PostSettled は画像生成の結果だけを ID で反映します。
// 生成中の手動編集は保持し、削除済みの投稿は復活させません。
func (s campaignSink) PostSettled(post domain.SocialPost) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.mergeImageResult(post)
}

// PostsSettled は全件の結果をまとめて反映します。
func (s campaignSink) PostsSettled(posts []domain.SocialPost) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	for _, p := range posts {
		s.c.mergeImageResult(p)
	}
}

// SetIntent は構成案を保存します。
func (c *Controller) SetIntent(intent domain.CampaignIntent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := intent.Clone()
	c.state.Intent = &i
}

// ReplacePosts は投稿一覧を丸ごと置き換えます。詳細ビューは閉じられます。
func (c *Controller) ReplacePosts(posts []domain.SocialPost) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Posts = domain.Posts(posts).Clone()
	c.state.FocusedID = ""
}

// MergePost は同じ ID の投稿を置き換えます。一覧に無い投稿は追加せず false を返します。
func (c *Controller) MergePost(post domain.SocialPost) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	posts, ok := c.state.Posts.Replace(post.Clone())
	if ok {
		c.state.Posts = posts
	}
	return ok
}

// mergeImageResult は c.mu を保持した状態で呼び出します。
func (c *Controller) mergeImageResult(post domain.SocialPost) {
	i := c.state.Posts.Index(post.ID)
	if i < 0 {
		return
	}
	c.state.Posts[i].ImageURL = post.ImageURL
	c.state.Posts[i].IsGenerating = post.IsGenerating
	c.state.Posts[i].Error = post.Error
}

// stateStore は refine.Store を State の上に実装します。
type stateStore struct {
	c *Controller
}

var _ refine.Store = stateStore{}

func (s stateStore) Post(id string) (domain.SocialPost, bool) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.state.Posts.Find(id)
}

func (s stateStore) Brand() (domain.BrandIdentity, bool) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.state.Brand == nil {
		return domain.BrandIdentity{}, false
	}
	return s.c.state.Brand.Clone(), true
}

func (s stateStore) UpdatePost(id string, fn func(p *domain.SocialPost)) (domain.SocialPost, bool) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	i := s.c.state.Posts.Index(id)
	if i < 0 {
		return domain.SocialPost{}, false
	}
	p := s.c.state.Posts[i].Clone()
	fn(&p)
	s.c.state.Posts[i] = p
	return p.Clone(), true
}
