package compositor

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
)

const (
	// DesignUnit はオーバーレイのフォントサイズを指定する基準キャンバス幅です。
	DesignUnit = 400.0
	// EdgePadding は上下配置時のキャンバス端からの余白です。
	EdgePadding = 80.0
	// BackgroundPadX は背景帯の左右の余白です。
	BackgroundPadX = 30.0
	// BackgroundPadY は背景帯の上下の余白の合計です。
	BackgroundPadY = 30.0
)

var (
	darkBackground  = color.NRGBA{R: 0, G: 0, B: 0, A: 204}
	lightBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 230}
)

// MeasureFunc は指定フォントサイズでの文字列の描画幅を返します。
type MeasureFunc func(text string, fontSize float64) float64

// Layout はオーバーレイの配置計算結果です。
type Layout struct {
	Text       string
	FontSize   float64
	CenterX    float64
	AnchorY    float64
	TextWidth  float64
	Background image.Rectangle
	HasBox     bool
	TextColor  color.NRGBA
	BoxColor   color.NRGBA
}

// ComputeLayout はキャンバスサイズと設定からオーバーレイの配置を計算します。
// 描画を伴わないため、配置規則の検証にも使えます。
func ComputeLayout(canvas int, text string, cfg domain.OverlayConfig, measure MeasureFunc) Layout {
	cfg = cfg.WithDefaults()
	size := float64(canvas)
	fontSize := cfg.FontSize * size / DesignUnit

	var anchorY float64
	switch cfg.Position {
	case domain.PositionTop:
		anchorY = EdgePadding + fontSize/2
	case domain.PositionBottom:
		anchorY = size - EdgePadding - fontSize/2
	default:
		anchorY = size / 2
	}

	upper := strings.ToUpper(text)
	var width float64
	if measure != nil {
		width = measure(upper, fontSize)
	}

	l := Layout{
		Text:      upper,
		FontSize:  fontSize,
		CenterX:   size / 2,
		AnchorY:   anchorY,
		TextWidth: width,
		HasBox:    cfg.ShowBackground && upper != "",
		TextColor: parseColor(cfg.Color),
		BoxColor:  BackgroundFor(cfg.Color),
	}
	if l.HasBox {
		l.Background = image.Rect(
			int(size/2-width/2-BackgroundPadX),
			int(anchorY-fontSize/2-BackgroundPadY/2),
			int(size/2+width/2+BackgroundPadX),
			int(anchorY+fontSize/2+BackgroundPadY/2),
		)
	}
	return l
}

// BackgroundFor は文字色に対してコントラストを確保する背景色を返します。
// 白文字なら半透明の黒、それ以外なら半透明の白です。
func BackgroundFor(textColor string) color.NRGBA {
	if isWhite(textColor) {
		return darkBackground
	}
	return lightBackground
}

func isWhite(c string) bool {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case "#ffffff", "#fff", "white":
		return true
	}
	return false
}

// parseColor は #RGB / #RRGGBB / white / black を解釈します。解釈できなければ白です。
func parseColor(c string) color.NRGBA {
	s := strings.ToLower(strings.TrimSpace(c))
	switch s {
	case "white", "":
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	case "black":
		return color.NRGBA{A: 255}
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
