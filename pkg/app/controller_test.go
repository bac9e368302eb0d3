package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-postcraft-kit/pkg/compositor"
	"github.com/shouni/go-postcraft-kit/pkg/config"
	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
	"github.com/shouni/go-postcraft-kit/pkg/genclient/genclienttest"
	"github.com/shouni/go-postcraft-kit/pkg/orchestrator"
)

func newTestController(t *testing.T, fake *genclienttest.Fake, apiKey string) *Controller {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CanvasSize = 100
	comp, err := compositor.New(cfg)
	require.NoError(t, err)

	c, err := New(context.Background(), Args{
		NewClient: func(ctx context.Context, key string) (genclient.Client, error) {
			return fake, nil
		},
		Compositor: comp,
		APIKey:     apiKey,
	})
	require.NoError(t, err)
	return c
}

func withCampaign(t *testing.T, c *Controller) []domain.SocialPost {
	t.Helper()
	_, err := c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "Artisanal coffee roaster, Seattle"})
	require.NoError(t, err)
	posts, err := c.RunCampaign(context.Background(), "Announce new cold brew", []string{domain.PlatformInstagram, domain.PlatformTwitter})
	require.NoError(t, err)
	return posts
}

func TestActivationGating(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "")

	assert.Equal(t, ActivationInactive, c.Snapshot().Activation)
	_, err := c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "x"})
	assert.ErrorIs(t, err, ErrNotActivated)
	_, err = c.SendChat(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotActivated)
	assert.Zero(t, fake.Calls(genclient.OpInferBrand))
	assert.Empty(t, c.ChatMessages())

	require.NoError(t, c.Activate(context.Background(), "key"))
	assert.Equal(t, ActivationActive, c.Snapshot().Activation)
	_, err = c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "x"})
	assert.NoError(t, err)
}

func TestUnauthorizedFlipsActivation(t *testing.T) {
	fake := &genclienttest.Fake{
		InferBrandFunc: func(context.Context, string, string) (domain.BrandIdentity, error) {
			return domain.BrandIdentity{}, genclienttest.ErrUnauthorized(genclient.OpInferBrand)
		},
	}
	c := newTestController(t, fake, "bad-key")

	_, err := c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "x"})
	require.Error(t, err)
	s := c.Snapshot()
	assert.Equal(t, ActivationUnauthorized, s.Activation)
	assert.Equal(t, MsgUnauthorized, s.LastError)

	// 以降の呼び出しはバックエンドに届かない
	_, err = c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "x"})
	assert.ErrorIs(t, err, ErrNotActivated)
	assert.Equal(t, 1, fake.Calls(genclient.OpInferBrand))
}

func TestBrandInferenceEndToEnd(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")

	// ブランドが無い間はキャンペーン段階へ進めない
	assert.ErrorIs(t, c.GoTo(domain.StepCampaign), ErrPrecondition)

	brand, err := c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "Artisanal coffee roaster, Seattle"})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls(genclient.OpInferBrand))
	assert.Equal(t, "Artisanal coffee roaster, Seattle\n", fake.LastArgs(genclient.OpInferBrand)[0])
	assert.NoError(t, brand.Validate())

	require.NoError(t, c.GoTo(domain.StepCampaign))
	assert.Equal(t, domain.StepCampaign, c.Snapshot().Step)
	assert.ErrorIs(t, c.GoTo(domain.StepGeneration), ErrPrecondition)

	// 戻る方向は常に許可
	require.NoError(t, c.GoTo(domain.StepBrand))
}

func TestBrandInferenceFailureMessage(t *testing.T) {
	fake := &genclienttest.Fake{
		InferBrandFunc: func(context.Context, string, string) (domain.BrandIdentity, error) {
			return domain.BrandIdentity{}, genclienttest.ErrTransport(genclient.OpInferBrand)
		},
	}
	c := newTestController(t, fake, "key")

	_, err := c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "x"})
	require.Error(t, err)
	s := c.Snapshot()
	assert.Equal(t, MsgInferenceFailed, s.LastError)
	assert.Nil(t, s.Brand)
	assert.False(t, s.Loading)
}

func TestCampaignEndToEnd(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")

	posts := withCampaign(t, c)
	require.Len(t, posts, 2)

	s := c.Snapshot()
	assert.Equal(t, domain.StepGeneration, s.Step)
	require.NotNil(t, s.Intent)
	require.Len(t, s.Posts, 2)
	assert.Equal(t, domain.PlatformInstagram, s.Posts[0].Platform)
	assert.Equal(t, domain.PlatformTwitter, s.Posts[1].Platform)
	for _, p := range s.Posts {
		assert.False(t, p.IsGenerating)
		assert.NotEmpty(t, p.ImageURL)
	}
	assert.Equal(t, 2, fake.Calls(genclient.OpImage))
}

func TestCampaignStructureFailureStaysOnCampaign(t *testing.T) {
	fake := &genclienttest.Fake{
		CampaignFunc: func(context.Context, string, domain.BrandIdentity, []string) (domain.CampaignIntent, error) {
			return domain.CampaignIntent{}, &genclient.GenerationError{Op: genclient.OpCampaign, Kind: genclient.KindQuota}
		},
	}
	c := newTestController(t, fake, "key")
	_, err := c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "x"})
	require.NoError(t, err)
	require.NoError(t, c.GoTo(domain.StepCampaign))

	_, err = c.RunCampaign(context.Background(), "goal", []string{domain.PlatformLinkedIn})
	require.Error(t, err)
	s := c.Snapshot()
	assert.Equal(t, domain.StepCampaign, s.Step)
	assert.Equal(t, MsgCampaignFailed, s.LastError)
	assert.Empty(t, s.Posts)
}

func TestRefineKeepsFocusAndListInSync(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")
	posts := withCampaign(t, c)
	id := posts[1].ID

	_, err := c.Focus(id)
	require.NoError(t, err)
	c.SetRefinementInput("more playful")

	updated, err := c.RefineText(context.Background(), id, "")
	require.NoError(t, err)
	assert.Contains(t, updated.Caption, "more playful")

	s := c.Snapshot()
	require.NotNil(t, s.Focused)
	assert.Equal(t, updated, *s.Focused)
	assert.Equal(t, updated, s.Posts[1])
	assert.Len(t, s.Posts, 2)
	assert.Empty(t, s.RefinementInput)
	assert.Empty(t, s.Pending)
}

func TestRefineFailureKeepsInstruction(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")
	posts := withCampaign(t, c)
	fake.RefineFunc = func(context.Context, domain.SocialPost, string, domain.BrandIdentity) (domain.Refinement, error) {
		return domain.Refinement{}, genclienttest.ErrTransport(genclient.OpRefine)
	}

	_, err := c.Focus(posts[0].ID)
	require.NoError(t, err)
	c.SetRefinementInput("shorter")
	_, err = c.RefineText(context.Background(), posts[0].ID, "")
	require.Error(t, err)

	s := c.Snapshot()
	assert.Equal(t, "shorter", s.RefinementInput)
	assert.Equal(t, MsgRefinementFailed, s.LastError)
	assert.Equal(t, posts[0].Caption, s.Posts[0].Caption)
}

func TestRefineMergesAfterUnfocus(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")
	posts := withCampaign(t, c)
	id := posts[0].ID

	_, err := c.Focus(id)
	require.NoError(t, err)
	fake.ImageFunc = func(context.Context, string, domain.BrandIdentity) (string, error) {
		// 結果が届く前に詳細ビューが閉じられる
		c.Unfocus()
		return "data:image/png;base64,bmV3", nil
	}

	updated, err := c.RegenerateImage(context.Background(), id)
	require.NoError(t, err)
	s := c.Snapshot()
	assert.Nil(t, s.Focused)
	assert.Equal(t, "data:image/png;base64,bmV3", s.Posts[0].ImageURL)
	assert.Equal(t, updated.ImageURL, s.Posts[0].ImageURL)
}

func TestVideoFailureMessage(t *testing.T) {
	fake := &genclienttest.Fake{
		VideoFunc: func(context.Context, string) (string, error) {
			return "", genclienttest.ErrTransport(genclient.OpVideo)
		},
	}
	c := newTestController(t, fake, "key")
	posts := withCampaign(t, c)

	_, err := c.SynthesizeVideo(context.Background(), posts[0].ID)
	require.Error(t, err)
	assert.Equal(t, MsgVideoFailed, c.Snapshot().LastError)
	assert.Empty(t, c.Snapshot().Posts[0].VideoURL)
}

func TestEditsAndDelete(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")
	posts := withCampaign(t, c)

	_, err := c.EditCaption(posts[0].ID, "hand written")
	require.NoError(t, err)
	_, err = c.EditImagePrompt(posts[0].ID, "latte art close-up")
	require.NoError(t, err)
	_, err = c.EditOverlay(posts[0].ID, "fresh", domain.OverlayConfig{Position: domain.PositionTop})
	require.NoError(t, err)
	_, err = c.EditOverlay(posts[0].ID, "fresh", domain.OverlayConfig{Position: "diagonal"})
	assert.ErrorIs(t, err, ErrPrecondition)

	s := c.Snapshot()
	assert.Equal(t, "hand written", s.Posts[0].Caption)
	assert.Equal(t, "latte art close-up", s.Posts[0].ImagePrompt)
	assert.Equal(t, domain.PositionTop, s.Posts[0].OverlayConfig.Position)
	assert.Equal(t, domain.DefaultOverlayFontSize, s.Posts[0].OverlayConfig.FontSize)

	_, err = c.Focus(posts[0].ID)
	require.NoError(t, err)
	require.NoError(t, c.DeletePost(posts[0].ID))
	s = c.Snapshot()
	assert.Len(t, s.Posts, 1)
	assert.Empty(t, s.FocusedID)
	assert.ErrorIs(t, c.DeletePost(posts[0].ID), ErrNotFound)
}

func TestChatThroughController(t *testing.T) {
	fake := &genclienttest.Fake{
		ChatFunc: func(context.Context, string, []domain.ChatMessage) (domain.ChatReply, error) {
			return domain.ChatReply{}, errors.New("boom")
		},
	}
	c := newTestController(t, fake, "key")

	assert.True(t, c.ToggleChat())
	_, err := c.SendChat(context.Background(), "hello")
	require.Error(t, err)
	s := c.Snapshot()
	assert.True(t, s.ChatOpen)
	assert.False(t, s.ChatPending)
	require.Len(t, s.ChatMessages, 2)
	assert.Equal(t, domain.RoleUser, s.ChatMessages[0].Role)
	assert.Equal(t, domain.RoleAgent, s.ChatMessages[1].Role)
}

func TestRender(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")
	posts := withCampaign(t, c)

	// 既定の偽画像は PNG シグネチャのみなのでデコードできない
	img, err := c.Render(context.Background(), posts[0].ID)
	require.NotNil(t, img)
	assert.ErrorIs(t, err, compositor.ErrImageUnavailable)
	assert.Equal(t, 100, img.Bounds().Dx())

	_, err = c.Render(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMergePostKeepsLength(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")
	c.ReplacePosts([]domain.SocialPost{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	assert.True(t, c.MergePost(domain.SocialPost{ID: "b", Caption: "new"}))
	assert.False(t, c.MergePost(domain.SocialPost{ID: "zzz"}))

	require.NoError(t, c.DeletePost("c"))
	assert.False(t, c.MergePost(domain.SocialPost{ID: "c", Caption: "late"}))

	s := c.Snapshot()
	require.Len(t, s.Posts, 2)
	assert.Equal(t, "new", s.Posts[1].Caption)
}

func TestCampaignSinkPreservesEditsDuringGeneration(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")
	_, err := c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "x"})
	require.NoError(t, err)

	fake.ImageFunc = func(context.Context, string, domain.BrandIdentity) (string, error) {
		// 画像生成中に利用者がキャプションを編集する
		_, _ = c.EditCaption("post-1", "edited while drawing")
		return "data:image/png;base64,AA==", nil
	}
	_, err = c.RunCampaign(context.Background(), "goal", []string{domain.PlatformFacebook})
	require.NoError(t, err)

	s := c.Snapshot()
	require.Len(t, s.Posts, 1)
	assert.Equal(t, "edited while drawing", s.Posts[0].Caption)
	assert.Equal(t, "data:image/png;base64,AA==", s.Posts[0].ImageURL)
}

func TestGoToRequiresBrandWhileInferenceRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fake := &genclienttest.Fake{
		InferBrandFunc: func(context.Context, string, string) (domain.BrandIdentity, error) {
			close(started)
			<-release
			return genclienttest.Brand(), nil
		},
	}
	c := newTestController(t, fake, "key")

	done := make(chan error, 1)
	go func() {
		_, err := c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "x"})
		done <- err
	}()
	<-started

	// 推論中でもブランドが無ければ先へ進めない
	require.True(t, c.Snapshot().Loading)
	assert.ErrorIs(t, c.GoTo(domain.StepReview), ErrPrecondition)
	assert.ErrorIs(t, c.GoTo(domain.StepGeneration), ErrPrecondition)
	assert.ErrorIs(t, c.GoTo(domain.StepCampaign), ErrPrecondition)
	assert.Equal(t, domain.StepBrand, c.Snapshot().Step)

	close(release)
	require.NoError(t, <-done)
	assert.NoError(t, c.GoTo(domain.StepCampaign))
}

func TestGoToGenerationWhileCampaignRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")
	_, err := c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "x"})
	require.NoError(t, err)
	fake.CampaignFunc = func(context.Context, string, domain.BrandIdentity, []string) (domain.CampaignIntent, error) {
		close(started)
		<-release
		return domain.CampaignIntent{}, genclienttest.ErrTransport(genclient.OpCampaign)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.RunCampaign(context.Background(), "goal", []string{domain.PlatformLinkedIn})
		done <- err
	}()
	<-started

	require.True(t, c.Snapshot().CampaignRunning)
	assert.NoError(t, c.GoTo(domain.StepGeneration))

	close(release)
	require.Error(t, <-done)
	s := c.Snapshot()
	assert.False(t, s.CampaignRunning)
	assert.False(t, s.Loading)
}

func TestPendingSurvivesRejectedDuplicate(t *testing.T) {
	fake := &genclienttest.Fake{}
	c := newTestController(t, fake, "key")
	posts := withCampaign(t, c)
	id := posts[0].ID

	started := make(chan struct{})
	release := make(chan struct{})
	fake.ImageFunc = func(context.Context, string, domain.BrandIdentity) (string, error) {
		close(started)
		<-release
		return "data:image/png;base64,bmV3", nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.RegenerateImage(context.Background(), id)
		done <- err
	}()
	<-started

	_, err := c.RegenerateImage(context.Background(), id)
	assert.ErrorIs(t, err, ErrBusy)

	// 拒否された側は実行中の表示を消さない
	s := c.Snapshot()
	assert.Equal(t, map[string]string{id: "regenerate"}, s.Pending)
	assert.Empty(t, s.LastError)

	close(release)
	require.NoError(t, <-done)
	assert.Empty(t, c.Snapshot().Pending)
}
