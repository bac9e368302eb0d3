package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shouni/go-postcraft-kit/pkg/app"
)

const shutdownTimeout = 5 * time.Second

// Server は Controller を HTTP API として公開するのだ。
type Server struct {
	controller *app.Controller
	router     *gin.Engine
}

// New はルーティング済みの Server を作るのだ。
func New(controller *app.Controller) (*Server, error) {
	if controller == nil {
		return nil, fmt.Errorf("Controller は必須です")
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	s := &Server{controller: controller, router: router}
	s.registerRoutes()
	return s, nil
}

// Handler はテストや埋め込み用に http.Handler を返すのだ。
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	api.GET("/state", s.getState)
	api.POST("/activate", s.activate)
	api.POST("/brand", s.defineBrand)
	api.PUT("/brand", s.setBrand)
	api.DELETE("/error", s.clearError)
	api.POST("/step", s.goTo)
	api.POST("/campaign", s.runCampaign)

	api.DELETE("/focus", s.unfocus)
	posts := api.Group("/posts/:id")
	posts.PATCH("", s.editPost)
	posts.DELETE("", s.deletePost)
	posts.POST("/focus", s.focus)
	posts.POST("/refine", s.refine)
	posts.POST("/regenerate", s.regenerate)
	posts.POST("/video", s.video)
	posts.GET("/render", s.render)

	api.GET("/chat", s.chatTranscript)
	api.POST("/chat", s.sendChat)
	api.POST("/chat/toggle", s.toggleChat)
}

// Run は addr で待ち受け、ctx が終わると穏やかに停止するのだ。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTPサーバーの起動に失敗しました: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗しました: %w", err)
	}
	return nil
}
