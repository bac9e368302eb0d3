package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-postcraft-kit/pkg/app"
	"github.com/shouni/go-postcraft-kit/pkg/compositor"
	"github.com/shouni/go-postcraft-kit/pkg/config"
	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
	"github.com/shouni/go-postcraft-kit/pkg/genclient/genclienttest"
)

func newTestServer(t *testing.T, fake *genclienttest.Fake, apiKey string) http.Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CanvasSize = 64
	comp, err := compositor.New(cfg)
	require.NoError(t, err)

	c, err := app.New(context.Background(), app.Args{
		NewClient: func(context.Context, string) (genclient.Client, error) {
			return fake, nil
		},
		Compositor: comp,
		APIKey:     apiKey,
	})
	require.NoError(t, err)

	s, err := New(c)
	require.NoError(t, err)
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) app.State {
	t.Helper()
	var s app.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func TestInactiveRequestsAreUnauthorized(t *testing.T) {
	fake := &genclienttest.Fake{}
	h := newTestServer(t, fake, "")

	rec := do(t, h, http.MethodPost, "/api/brand", brandRequest{Context: "coffee"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, fake.Calls(genclient.OpInferBrand))

	rec = do(t, h, http.MethodPost, "/api/activate", activateRequest{APIKey: "key"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.ActivationActive, decodeState(t, rec).Activation)

	rec = do(t, h, http.MethodPost, "/api/brand", brandRequest{Context: "coffee"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCampaignFlow(t *testing.T) {
	fake := &genclienttest.Fake{}
	h := newTestServer(t, fake, "key")

	rec := do(t, h, http.MethodPost, "/api/step", stepRequest{Step: domain.StepCampaign})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/brand", brandRequest{Context: "Artisanal coffee roaster, Seattle"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/step", stepRequest{Step: domain.StepCampaign})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/campaign", campaignRequest{Goal: "Announce cold brew", Platforms: []string{domain.PlatformInstagram, domain.PlatformFacebook}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/state", nil)
	s := decodeState(t, rec)
	assert.Equal(t, domain.StepGeneration, s.Step)
	require.Len(t, s.Posts, 2)
	id := s.Posts[0].ID

	caption := "edited"
	rec = do(t, h, http.MethodPatch, "/api/posts/"+id, editRequest{Caption: &caption})
	require.Equal(t, http.StatusOK, rec.Code)
	var post domain.SocialPost
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, "edited", post.Caption)

	rec = do(t, h, http.MethodPost, "/api/posts/"+id+"/refine", refineRequest{Instruction: "shorter"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, "edited (shorter)", post.Caption)

	rec = do(t, h, http.MethodDelete, "/api/posts/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/posts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderReturnsImage(t *testing.T) {
	fake := &genclienttest.Fake{}
	h := newTestServer(t, fake, "key")
	do(t, h, http.MethodPost, "/api/brand", brandRequest{Context: "coffee"})
	do(t, h, http.MethodPost, "/api/campaign", campaignRequest{Goal: "goal", Platforms: []string{domain.PlatformLinkedIn}})
	s := decodeState(t, do(t, h, http.MethodGet, "/api/state", nil))
	require.Len(t, s.Posts, 1)

	rec := do(t, h, http.MethodGet, "/api/posts/"+s.Posts[0].ID+"/render", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Postcraft-Image-Error"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	rec = do(t, h, http.MethodGet, "/api/posts/"+s.Posts[0].ID+"/render?format=gif", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpoints(t *testing.T) {
	fake := &genclienttest.Fake{}
	h := newTestServer(t, fake, "key")

	rec := do(t, h, http.MethodPost, "/api/chat", chatRequest{Message: "ideas?"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/chat", nil)
	var body struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Messages, 2)
	assert.Len(t, body.Messages[1].Sources, 1)

	rec = do(t, h, http.MethodPost, "/api/chat", chatRequest{Message: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/chat/toggle", nil)
	assert.JSONEq(t, `{"open":true}`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"precondition", app.ErrPrecondition, http.StatusBadRequest},
		{"not found", app.ErrNotFound, http.StatusNotFound},
		{"busy", app.ErrBusy, http.StatusConflict},
		{"not activated", app.ErrNotActivated, http.StatusUnauthorized},
		{"malformed", &genclient.GenerationError{Kind: genclient.KindMalformed}, http.StatusBadGateway},
		{"quota", &genclient.GenerationError{Kind: genclient.KindQuota}, http.StatusServiceUnavailable},
		{"transport", genclienttest.ErrTransport(genclient.OpImage), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &genclienttest.Fake{}, "")
	rec := do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorBodyAndClearError(t *testing.T) {
	fake := &genclienttest.Fake{
		InferBrandFunc: func(context.Context, string, string) (domain.BrandIdentity, error) {
			return domain.BrandIdentity{}, genclienttest.ErrTransport(genclient.OpInferBrand)
		},
	}
	h := newTestServer(t, fake, "key")

	rec := do(t, h, http.MethodPost, "/api/brand", brandRequest{Context: "coffee"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Error     string `json:"error"`
		Retryable bool   `json:"retryable"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	assert.True(t, body.Retryable)

	s := decodeState(t, do(t, h, http.MethodGet, "/api/state", nil))
	assert.Equal(t, app.MsgInferenceFailed, s.LastError)

	rec = do(t, h, http.MethodDelete, "/api/error", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	s = decodeState(t, do(t, h, http.MethodGet, "/api/state", nil))
	assert.Empty(t, s.LastError)
}

func TestSetBrand(t *testing.T) {
	h := newTestServer(t, &genclienttest.Fake{}, "key")

	rec := do(t, h, http.MethodPut, "/api/brand", domain.BrandIdentity{Name: "Ember"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `false`, mustField(t, rec, "retryable"))

	rec = do(t, h, http.MethodPut, "/api/brand", genclienttest.Brand())
	require.Equal(t, http.StatusOK, rec.Code)
	s := decodeState(t, rec)
	require.NotNil(t, s.Brand)
	assert.Equal(t, "Ember Roasters", s.Brand.Name)

	rec = do(t, h, http.MethodPost, "/api/step", stepRequest{Step: domain.StepCampaign})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func mustField(t *testing.T, rec *httptest.ResponseRecorder, key string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	raw, ok := m[key]
	require.True(t, ok, "field %s is missing", key)
	return string(raw)
}
