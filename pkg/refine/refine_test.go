package refine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
	"github.com/shouni/go-postcraft-kit/pkg/genclient/genclienttest"
)

type memStore struct {
	mu    sync.Mutex
	posts domain.Posts
	brand *domain.BrandIdentity
}

func (s *memStore) Post(id string) (domain.SocialPost, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts.Find(id)
}

func (s *memStore) Brand() (domain.BrandIdentity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.brand == nil {
		return domain.BrandIdentity{}, false
	}
	return s.brand.Clone(), true
}

func (s *memStore) UpdatePost(id string, fn func(p *domain.SocialPost)) (domain.SocialPost, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.posts.Index(id)
	if i < 0 {
		return domain.SocialPost{}, false
	}
	fn(&s.posts[i])
	return s.posts[i].Clone(), true
}

func (s *memStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts, _ = s.posts.Remove(id)
}

func newStore() *memStore {
	brand := genclienttest.Brand()
	return &memStore{
		brand: &brand,
		posts: domain.Posts{
			{ID: "a", Platform: domain.PlatformInstagram, Caption: "one", ImagePrompt: "pa", ImageURL: "data:image/png;base64,b2xk"},
			{ID: "b", Platform: domain.PlatformLinkedIn, Caption: "two", ImagePrompt: "pb"},
			{ID: "c", Platform: domain.PlatformFacebook, Caption: "three", ImagePrompt: "pc"},
		},
	}
}

func TestRefineText_MergesByID(t *testing.T) {
	store := newStore()
	fake := &genclienttest.Fake{}
	c, err := New(fake, store)
	require.NoError(t, err)

	updated, err := c.RefineText(context.Background(), "b", "make it punchier")
	require.NoError(t, err)

	assert.Len(t, store.posts, 3)
	assert.Equal(t, "two (make it punchier)", updated.Caption)
	assert.Equal(t, "pb, refined", updated.ImagePrompt)
	assert.NotEmpty(t, updated.ImageURL)
	// 改稿後のプロンプトで画像が生成されていること
	assert.Equal(t, "pb, refined", fake.LastArgs(genclient.OpImage)[0])

	got, _ := store.Post("b")
	assert.Equal(t, updated, got)
	other, _ := store.Post("a")
	assert.Equal(t, "one", other.Caption)
}

func TestRefineText_FailureLeavesStateUntouched(t *testing.T) {
	store := newStore()
	fake := &genclienttest.Fake{
		ImageFunc: func(context.Context, string, domain.BrandIdentity) (string, error) {
			return "", genclienttest.ErrTransport(genclient.OpImage)
		},
	}
	c, _ := New(fake, store)
	before := store.posts.Clone()

	_, err := c.RefineText(context.Background(), "a", "shorter")
	require.Error(t, err)
	assert.Equal(t, before, store.posts)
	_, busy := c.Busy("a")
	assert.False(t, busy)
}

func TestRefineText_Preconditions(t *testing.T) {
	store := newStore()
	c, _ := New(&genclienttest.Fake{}, store)

	_, err := c.RefineText(context.Background(), "a", "  ")
	assert.True(t, errors.Is(err, ErrPrecondition))

	_, err = c.RefineText(context.Background(), "zzz", "x")
	assert.True(t, errors.Is(err, ErrNotFound))

	store.brand = nil
	_, err = c.RegenerateImage(context.Background(), "a")
	assert.True(t, errors.Is(err, ErrPrecondition))
}

func TestRegenerateImage_UsesEditedPrompt(t *testing.T) {
	store := newStore()
	fake := &genclienttest.Fake{}
	c, _ := New(fake, store)

	store.UpdatePost("c", func(p *domain.SocialPost) { p.ImagePrompt = "hand edited" })
	updated, err := c.RegenerateImage(context.Background(), "c")
	require.NoError(t, err)

	assert.Equal(t, "hand edited", fake.LastArgs(genclient.OpImage)[0])
	assert.Equal(t, "three", updated.Caption)
	assert.NotEmpty(t, updated.ImageURL)
}

func TestBusyGuard(t *testing.T) {
	store := newStore()
	started := make(chan struct{})
	release := make(chan struct{})
	fake := &genclienttest.Fake{
		ImageFunc: func(ctx context.Context, _ string, _ domain.BrandIdentity) (string, error) {
			close(started)
			<-release
			return "data:image/png;base64,bmV3", nil
		},
	}
	c, _ := New(fake, store)

	done := make(chan error, 1)
	go func() {
		_, err := c.RegenerateImage(context.Background(), "a")
		done <- err
	}()
	<-started

	_, err := c.RefineText(context.Background(), "a", "again")
	assert.True(t, errors.Is(err, ErrBusy))

	// 別の投稿は並行に操作できること
	_, err = c.SynthesizeVideo(context.Background(), "b")
	assert.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestMergeAfterDeletion(t *testing.T) {
	store := newStore()
	fake := &genclienttest.Fake{}
	fake.ImageFunc = func(context.Context, string, domain.BrandIdentity) (string, error) {
		store.remove("a")
		return "data:image/png;base64,bmV3", nil
	}
	c, _ := New(fake, store)

	_, err := c.RegenerateImage(context.Background(), "a")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Len(t, store.posts, 2)
}

func TestSynthesizeVideo_Idempotent(t *testing.T) {
	store := newStore()
	fake := &genclienttest.Fake{}
	c, _ := New(fake, store)

	first, err := c.SynthesizeVideo(context.Background(), "a")
	require.NoError(t, err)
	require.NotEmpty(t, first.VideoURL)
	assert.Equal(t, 1, fake.Calls(genclient.OpVideo))

	second, err := c.SynthesizeVideo(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, first.VideoURL, second.VideoURL)
	assert.Equal(t, 1, fake.Calls(genclient.OpVideo))
}
