package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-postcraft-kit/pkg/app"
	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
)

// statusFor はエラーを HTTP ステータスに写すのだ。
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrPrecondition), errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, app.ErrNotActivated), genclient.IsUnauthorized(err):
		return http.StatusUnauthorized
	}
	switch genclient.KindOf(err) {
	case genclient.KindMalformed, genclient.KindEmpty:
		return http.StatusBadGateway
	}
	return http.StatusServiceUnavailable
}

// writeError はエラーを JSON で返し、ログ用に gin のエラーとして記録するのだ。
// retryable は同じ操作をやり直せば成功し得る場合に true なのだ。
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"error":     err.Error(),
		"retryable": genclient.IsRetryable(err),
	})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
}
