package asset

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	// MimePNG は生成画像およびロゴの既定 MIME タイプです。
	MimePNG = "image/png"
	// MimeMP4 は生成動画の MIME タイプです。
	MimeMP4 = "video/mp4"

	dataURIPrefix = "data:"
	base64Marker  = ";base64,"
)

// ErrNotDataURI は文字列が base64 の data URI として解釈できない場合に返されます。
var ErrNotDataURI = errors.New("not a base64 data URI")

// IsDataURI は参照が data: スキームかどうかを返します。
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, dataURIPrefix)
}

// EncodeDataURI はバイト列を base64 の data URI に変換します。
func EncodeDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = MimePNG
	}
	return dataURIPrefix + mimeType + base64Marker + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI は data URI を MIME タイプとデコード済みバイト列に分解します。
// MIME タイプが省略されている場合は image/png として扱います。
func ParseDataURI(uri string) (string, []byte, error) {
	if !IsDataURI(uri) {
		return "", nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, dataURIPrefix), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, ErrNotDataURI
	}

	mimeType := strings.TrimSuffix(header, ";base64")
	if mimeType == "" {
		mimeType = MimePNG
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		// ブラウザ由来の URI はパディングを欠くことがあります
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(payload), "="))
		if err != nil {
			return "", nil, fmt.Errorf("data URI の base64 デコードに失敗しました: %w", err)
		}
	}
	return mimeType, data, nil
}
