package genclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/shouni/go-postcraft-kit/pkg/asset"
	"github.com/shouni/go-postcraft-kit/pkg/prompts"
)

// ErrVideoTimeout はポーリング上限に達しても動画生成が完了しなかった場合に返されます。
var ErrVideoTimeout = errors.New("video generation did not complete within the poll limit")

// GenerateVideoForPost は動画生成を投入し、完了まで一定間隔でポーリングします。
// 完了した動画はダウンロードして data URI で返し、ダウンロードできない場合はリモート URI を返します。
func (c *GeminiClient) GenerateVideoForPost(ctx context.Context, prompt string) (uri string, err error) {
	start := time.Now()
	defer func() { observe(OpVideo, start, err) }()

	text, err := c.prompts.Build(prompts.ModeVideo, prompts.TemplateData{ImagePrompt: prompt})
	if err != nil {
		return "", newError(OpVideo, KindMalformed, err)
	}

	op, gerr := c.backend.GenerateVideos(ctx, c.cfg.VideoModel, text, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    "16:9",
	})
	if gerr != nil {
		err = classify(OpVideo, gerr)
		return "", err
	}

	logger := slog.With("operation", OpVideo, "model", c.cfg.VideoModel)
	for poll := 0; op != nil && !op.Done; poll++ {
		if poll >= c.cfg.VideoMaxPolls {
			err = newError(OpVideo, KindTransport, fmt.Errorf("%w (%d polls)", ErrVideoTimeout, poll))
			return "", err
		}
		if serr := c.sleep(ctx, c.cfg.VideoPollInterval); serr != nil {
			err = classify(OpVideo, serr)
			return "", err
		}
		logger.Debug("Polling video operation", "name", op.Name, "poll", poll+1)
		op, gerr = c.backend.GetVideosOperation(ctx, op)
		if gerr != nil {
			err = classify(OpVideo, gerr)
			return "", err
		}
	}

	if op == nil {
		err = newError(OpVideo, KindEmpty, errors.New("video operation vanished"))
		return "", err
	}
	if len(op.Error) > 0 {
		err = newError(OpVideo, KindTransport, fmt.Errorf("video operation failed: %v", op.Error["message"]))
		return "", err
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0] == nil || op.Response.GeneratedVideos[0].Video == nil {
		err = newError(OpVideo, KindEmpty, errors.New("video operation finished without a video"))
		return "", err
	}

	generated := op.Response.GeneratedVideos[0]
	if len(generated.Video.VideoBytes) > 0 {
		return asset.EncodeDataURI(videoMime(generated.Video), generated.Video.VideoBytes), nil
	}

	data, derr := c.backend.DownloadVideo(ctx, generated)
	if derr != nil || len(data) == 0 {
		if generated.Video.URI != "" {
			logger.Warn("Video download unavailable, returning remote reference", "error", derr)
			return generated.Video.URI, nil
		}
		if derr == nil {
			derr = errors.New("downloaded video is empty")
		}
		err = classify(OpVideo, derr)
		return "", err
	}
	logger.Info("Video generated", "bytes", len(data), "elapsed", time.Since(start))
	return asset.EncodeDataURI(videoMime(generated.Video), data), nil
}

func videoMime(v *genai.Video) string {
	if v != nil && v.MIMEType != "" {
		return v.MIMEType
	}
	return asset.MimeMP4
}
