package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-postcraft-kit/pkg/app"
	"github.com/shouni/go-postcraft-kit/pkg/compositor"
	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/orchestrator"
)

type activateRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
}

type brandRequest struct {
	Context   string `json:"context"`
	Links     string `json:"links"`
	AssetData string `json:"assetData"`
}

type stepRequest struct {
	Step domain.Step `json:"step" binding:"required"`
}

type campaignRequest struct {
	Goal      string   `json:"goal"`
	Platforms []string `json:"platforms"`
}

// editRequest は指定された項目だけを書き換えるのだ。
type editRequest struct {
	Caption       *string               `json:"caption"`
	ImagePrompt   *string               `json:"imagePrompt"`
	OverlayText   *string               `json:"overlayText"`
	OverlayConfig *domain.OverlayConfig `json:"overlayConfig"`
}

type refineRequest struct {
	Instruction string `json:"instruction"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

func (s *Server) activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.controller.Activate(c.Request.Context(), req.APIKey); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

func (s *Server) defineBrand(c *gin.Context) {
	var req brandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	brand, err := s.controller.DefineBrand(c.Request.Context(), orchestrator.BrandInput{
		Context:   req.Context,
		Links:     req.Links,
		AssetData: req.AssetData,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, brand)
}

// setBrand は推論を通さずに手で整えたブランドを保存するのだ。
func (s *Server) setBrand(c *gin.Context) {
	var brand domain.BrandIdentity
	if err := c.ShouldBindJSON(&brand); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.controller.SetBrand(brand); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

func (s *Server) clearError(c *gin.Context) {
	s.controller.ClearError()
	c.Status(http.StatusNoContent)
}

func (s *Server) goTo(c *gin.Context) {
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.controller.GoTo(req.Step); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

func (s *Server) runCampaign(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	posts, err := s.controller.RunCampaign(c.Request.Context(), req.Goal, req.Platforms)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) deletePost(c *gin.Context) {
	if err := s.controller.DeletePost(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) focus(c *gin.Context) {
	post, err := s.controller.Focus(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) unfocus(c *gin.Context) {
	s.controller.Unfocus()
	c.Status(http.StatusNoContent)
}

func (s *Server) editPost(c *gin.Context) {
	id := c.Param("id")
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var (
		post domain.SocialPost
		err  error
	)
	if req.Caption != nil {
		if post, err = s.controller.EditCaption(id, *req.Caption); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.ImagePrompt != nil {
		if post, err = s.controller.EditImagePrompt(id, *req.ImagePrompt); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.OverlayText != nil || req.OverlayConfig != nil {
		current, ok := s.controller.Snapshot().Posts.Find(id)
		if !ok {
			writeError(c, app.ErrNotFound)
			return
		}
		text, cfg := current.OverlayText, current.OverlayConfig
		if req.OverlayText != nil {
			text = *req.OverlayText
		}
		if req.OverlayConfig != nil {
			cfg = *req.OverlayConfig
		}
		if post, err = s.controller.EditOverlay(id, text, cfg); err != nil {
			writeError(c, err)
			return
		}
	}
	if post.ID == "" {
		found, ok := s.controller.Snapshot().Posts.Find(id)
		if !ok {
			writeError(c, app.ErrNotFound)
			return
		}
		post = found
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) refine(c *gin.Context) {
	var req refineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	post, err := s.controller.RefineText(c.Request.Context(), c.Param("id"), req.Instruction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) regenerate(c *gin.Context) {
	post, err := s.controller.RegenerateImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) video(c *gin.Context) {
	post, err := s.controller.SynthesizeVideo(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// render は合成画像を返すのだ。元画像が読めない場合もプレースホルダーを返し、ヘッダーで知らせるのだ。
func (s *Server) render(c *gin.Context) {
	format := c.DefaultQuery("format", compositor.FormatPNG)
	img, err := s.controller.Render(c.Request.Context(), c.Param("id"))
	if err != nil && !errors.Is(err, compositor.ErrImageUnavailable) {
		writeError(c, err)
		return
	}
	if err != nil {
		c.Header("X-Postcraft-Image-Error", err.Error())
	}

	var buf bytes.Buffer
	if encErr := compositor.Encode(&buf, img, format); encErr != nil {
		badRequest(c, encErr)
		return
	}
	c.Data(http.StatusOK, compositor.ContentType(format), buf.Bytes())
}

func (s *Server) chatTranscript(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": s.controller.ChatMessages()})
}

func (s *Server) sendChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply, err := s.controller.SendChat(c.Request.Context(), req.Message)
	if err != nil {
		_ = c.Error(err)
		body := gin.H{"error": err.Error()}
		if reply.Text != "" {
			body["reply"] = reply
		}
		c.AbortWithStatusJSON(statusFor(err), body)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) toggleChat(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"open": s.controller.ToggleChat()})
}
