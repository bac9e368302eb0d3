package genclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Kind は生成失敗の分類です。
type Kind string

const (
	// KindTransport は通信失敗やサーバー側エラーです。
	KindTransport Kind = "transport"
	// KindQuota は利用上限やレート制限による拒否です。
	KindQuota Kind = "quota"
	// KindUnauthorized は API キーの欠落・失効・権限不足です。
	KindUnauthorized Kind = "unauthorized"
	// KindMalformed は応答を解析できない、またはスキーマに適合しない場合です。
	KindMalformed Kind = "malformed"
	// KindEmpty は応答に期待した成果物（画像・動画・テキスト）が含まれない場合です。
	KindEmpty Kind = "empty"
)

// GenerationError は Client の全操作が返すエラー型です。
type GenerationError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsRetryable は同じ入力で再試行すれば成功し得るかを返します。
func (e *GenerationError) IsRetryable() bool {
	switch e.Kind {
	case KindTransport, KindQuota, KindEmpty:
		return true
	}
	return false
}

// IsUnauthorized は資格情報の問題による失敗かを返します。
func (e *GenerationError) IsUnauthorized() bool {
	return e.Kind == KindUnauthorized
}

// KindOf はエラーチェーンから Kind を取り出します。GenerationError でなければ空文字を返します。
func KindOf(err error) Kind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return ""
}

// IsUnauthorized はエラーチェーンに資格情報の失敗が含まれるかを返します。
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// IsRetryable はエラーチェーンに再試行で解決し得る失敗が含まれるかを返します。
func IsRetryable(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.IsRetryable()
}

func newError(op string, kind Kind, err error) *GenerationError {
	return &GenerationError{Op: op, Kind: kind, Err: err}
}

// classify はバックエンドのエラーを GenerationError に変換します。
func classify(op string, err error) *GenerationError {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newError(op, kindFromAPIError(apiErr), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return newError(op, kindFromAPIError(*apiErrPtr), err)
	}

	return newError(op, KindTransport, err)
}

func kindFromAPIError(apiErr genai.APIError) Kind {
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindQuota
	case http.StatusBadRequest:
		// Gemini API は無効なキーを 400 INVALID_ARGUMENT で返します
		msg := strings.ToLower(apiErr.Message)
		if strings.Contains(msg, "api key") || strings.Contains(msg, "api_key") {
			return KindUnauthorized
		}
		return KindTransport
	}
	if strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED") {
		return KindQuota
	}
	if strings.EqualFold(apiErr.Status, "UNAUTHENTICATED") || strings.EqualFold(apiErr.Status, "PERMISSION_DENIED") {
		return KindUnauthorized
	}
	return KindTransport
}
