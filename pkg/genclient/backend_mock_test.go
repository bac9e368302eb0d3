package genclient

import (
	"context"

	"github.com/shouni/gemini-image-kit/ports"
	"github.com/shouni/go-gemini-client/gemini"
	"github.com/stretchr/testify/mock"
	"google.golang.org/genai"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	resp, _ := args.Get(0).(*genai.GenerateContentResponse)
	return resp, args.Error(1)
}

func (m *mockBackend) GenerateVideos(ctx context.Context, model, prompt string, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	args := m.Called(ctx, model, prompt, config)
	op, _ := args.Get(0).(*genai.GenerateVideosOperation)
	return op, args.Error(1)
}

func (m *mockBackend) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	args := m.Called(ctx, op)
	next, _ := args.Get(0).(*genai.GenerateVideosOperation)
	return next, args.Error(1)
}

func (m *mockBackend) DownloadVideo(ctx context.Context, video *genai.GeneratedVideo) ([]byte, error) {
	args := m.Called(ctx, video)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type mockImageExecutor struct {
	mock.Mock
}

func (m *mockImageExecutor) ExecuteRequest(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ports.ImageResponse, error) {
	args := m.Called(ctx, model, parts, opts)
	resp, _ := args.Get(0).(*ports.ImageResponse)
	return resp, args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}
