package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/gemini-image-kit/ports"
	"github.com/shouni/go-gemini-client/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/shouni/go-postcraft-kit/pkg/app"
	"github.com/shouni/go-postcraft-kit/pkg/config"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
	"github.com/shouni/go-postcraft-kit/pkg/genclient/genclienttest"
	"github.com/shouni/go-postcraft-kit/pkg/orchestrator"
)

// stubBackend は固定のブランド JSON を返すバックエンドです。
type stubBackend struct {
	models []string
}

func (b *stubBackend) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	b.models = append(b.models, model)
	body := `{"name":"Ember","voice":"warm","colors":["#000000"],"tone":"calm","style":"film"}`
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(body, genai.RoleModel)}},
	}, nil
}

func (b *stubBackend) GenerateVideos(ctx context.Context, model, prompt string, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBackend) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBackend) DownloadVideo(ctx context.Context, video *genai.GeneratedVideo) ([]byte, error) {
	return nil, errors.New("not implemented")
}

// stubImages は固定の PNG 署名を返す画像生成器です。
type stubImages struct {
	models []string
}

func (s *stubImages) ExecuteRequest(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ports.ImageResponse, error) {
	s.models = append(s.models, model)
	return &ports.ImageResponse{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png"}, nil
}

func newTestManager(t *testing.T, backend genclient.Backend) (*Manager, *[]string) {
	t.Helper()
	m, keys, _ := newTestManagerWithImages(t, backend)
	return m, keys
}

func newTestManagerWithImages(t *testing.T, backend genclient.Backend) (*Manager, *[]string, *stubImages) {
	t.Helper()
	var keys []string
	images := &stubImages{}
	m, err := New(ManagerArgs{
		Config: config.Config{GeminiModel: "test-model", CanvasSize: 64},
		NewBackend: func(ctx context.Context, apiKey, baseURL string) (genclient.Backend, error) {
			keys = append(keys, apiKey)
			return backend, nil
		},
		NewImageExecutor: func(ctx context.Context, apiKey string, cfg config.Config) (genclient.ImageExecutor, error) {
			keys = append(keys, apiKey)
			return images, nil
		},
	})
	require.NoError(t, err)
	return m, &keys, images
}

func TestNew_FillsDefaults(t *testing.T) {
	m, _ := newTestManager(t, &stubBackend{})
	cfg := m.Config()
	assert.Equal(t, "test-model", cfg.GeminiModel)
	assert.Equal(t, config.DefaultImageModel, cfg.ImageModel)
	assert.Equal(t, 64, m.Compositor().CanvasSize())
}

func TestBuildClient_RequiresKey(t *testing.T) {
	m, keys := newTestManager(t, &stubBackend{})
	_, err := m.BuildClient(context.Background(), "")
	assert.Error(t, err)
	assert.Empty(t, *keys)
}

func TestBuildController_InactiveWithoutKey(t *testing.T) {
	m, keys := newTestManager(t, &stubBackend{})
	c, err := m.BuildController(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, app.ActivationInactive, c.Snapshot().Activation)
	assert.Empty(t, *keys)
}

func TestBuildController_WiresBackend(t *testing.T) {
	backend := &stubBackend{}
	m, keys, _ := newTestManagerWithImages(t, backend)
	c, err := m.BuildController(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, []string{"secret", "secret"}, *keys)

	brand, err := c.DefineBrand(context.Background(), orchestrator.BrandInput{Context: "Artisanal coffee roaster, Seattle"})
	require.NoError(t, err)
	assert.Equal(t, "Ember", brand.Name)
	assert.Equal(t, []string{"test-model"}, backend.models)
}

func TestBuildClient_RoutesImagesThroughExecutor(t *testing.T) {
	backend := &stubBackend{}
	m, _, images := newTestManagerWithImages(t, backend)
	client, err := m.BuildClient(context.Background(), "secret")
	require.NoError(t, err)

	uri, err := client.GenerateImageForPost(context.Background(), "a latte", genclienttest.Brand())
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw==", uri)
	assert.Equal(t, []string{config.DefaultImageModel}, images.models)
	assert.Empty(t, backend.models)
}

func TestBuildClient_ImageExecutorFailure(t *testing.T) {
	m, err := New(ManagerArgs{
		NewBackend: func(ctx context.Context, apiKey, baseURL string) (genclient.Backend, error) {
			return &stubBackend{}, nil
		},
		NewImageExecutor: func(ctx context.Context, apiKey string, cfg config.Config) (genclient.ImageExecutor, error) {
			return nil, errors.New("boom")
		},
	})
	require.NoError(t, err)
	_, err = m.BuildClient(context.Background(), "secret")
	assert.Error(t, err)
}
