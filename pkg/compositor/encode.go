package compositor

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// 書き出し形式
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWEBP = "webp"
)

// ContentType は書き出し形式に対応する MIME タイプを返します。
func ContentType(format string) string {
	switch normalizeFormat(format) {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWEBP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Encode は合成済み画像を指定形式で書き出します。形式が空なら PNG です。
func Encode(w io.Writer, img image.Image, format string) error {
	switch normalizeFormat(format) {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case FormatWEBP:
		opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 85)
		if err != nil {
			return err
		}
		return webp.Encode(w, img, opts)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func normalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatPNG:
		return FormatPNG
	case "jpg", FormatJPEG:
		return FormatJPEG
	default:
		return f
	}
}
