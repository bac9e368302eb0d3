package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/shouni/go-http-kit/httpkit"

	"github.com/shouni/go-postcraft-kit/pkg/config"
	"github.com/shouni/go-postcraft-kit/pkg/domain"
)

// ErrImageUnavailable は参照画像を取得・デコードできなかった場合に返されます。
// その場合も Render はエラー表示用のプレースホルダーを返します。
var ErrImageUnavailable = errors.New("source image unavailable")

var (
	emptyPlaceholder = color.RGBA{R: 241, G: 245, B: 249, A: 255}
	errorPlaceholder = color.RGBA{R: 254, G: 226, B: 226, A: 255}
)

// Compositor は生成画像とオーバーレイ文字列を正方形キャンバスに合成します。
type Compositor struct {
	canvas int
	font   *opentype.Font
	loader *sourceLoader
}

// Option は Compositor の生成オプションです。
type Option func(*Compositor)

// WithFetcher は http(s) 参照の取得に使うクライアントを差し替えます。
func WithFetcher(f Fetcher) Option {
	return func(c *Compositor) {
		if f != nil {
			c.loader.fetcher = f
		}
	}
}

// New は Compositor を初期化します。http(s) 参照は既定で SSRF 検証付きの httpkit.Client で取得します。
func New(cfg config.Config, opts ...Option) (*Compositor, error) {
	cfg = cfg.WithDefaults()
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("フォントの読み込みに失敗しました: %w", err)
	}
	c := &Compositor{
		canvas: cfg.CanvasSize,
		font:   f,
		loader: newSourceLoader(httpkit.New(cfg.FetchTimeout), cfg.ImageCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CanvasSize は出力キャンバスの一辺の長さです。
func (c *Compositor) CanvasSize() int {
	return c.canvas
}

func (c *Compositor) layout(text string, cfg domain.OverlayConfig) (Layout, font.Face, error) {
	var (
		face    font.Face
		faceErr error
	)
	l := ComputeLayout(c.canvas, text, cfg, func(s string, size float64) float64 {
		face, faceErr = c.newFace(size)
		if faceErr != nil {
			return 0
		}
		return float64(font.MeasureString(face, s)) / 64
	})
	return l, face, faceErr
}

// Render は参照画像をキャンバス全体に敷き詰め、オーバーレイを重ねた画像を返します。
// 参照が空ならオーバーレイも描かずプレースホルダーのみ、読み込めなければエラー表示のプレースホルダーと
// ErrImageUnavailable を返します。呼び出しごとに最初から描画し直します。
func (c *Compositor) Render(ctx context.Context, imageRef, overlayText string, cfg domain.OverlayConfig) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, c.canvas, c.canvas))

	if imageRef == "" {
		fill(dst, emptyPlaceholder)
		return dst, nil
	}

	src, err := c.loader.Load(ctx, imageRef)
	if err != nil {
		slog.Warn("Failed to load source image", "error", err)
		fill(dst, errorPlaceholder)
		return dst, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}

	drawCover(dst, src)
	if err := c.drawOverlay(dst, overlayText, cfg); err != nil {
		return dst, err
	}
	return dst, nil
}

// drawCover は縦横比を保ったまま中央をトリミングしてキャンバス全体を覆います。
func drawCover(dst *image.RGBA, src image.Image) {
	sb := src.Bounds()
	db := dst.Bounds()
	if sb.Empty() {
		return
	}

	srcRect := sb
	srcRatio := float64(sb.Dx()) / float64(sb.Dy())
	dstRatio := float64(db.Dx()) / float64(db.Dy())
	if srcRatio > dstRatio {
		w := int(float64(sb.Dy()) * dstRatio)
		x0 := sb.Min.X + (sb.Dx()-w)/2
		srcRect = image.Rect(x0, sb.Min.Y, x0+w, sb.Max.Y)
	} else if srcRatio < dstRatio {
		h := int(float64(sb.Dx()) / dstRatio)
		y0 := sb.Min.Y + (sb.Dy()-h)/2
		srcRect = image.Rect(sb.Min.X, y0, sb.Max.X, y0+h)
	}

	draw.CatmullRom.Scale(dst, db, src, srcRect, draw.Src, nil)
}

func (c *Compositor) drawOverlay(dst *image.RGBA, text string, cfg domain.OverlayConfig) error {
	if text == "" {
		return nil
	}
	l, face, err := c.layout(text, cfg)
	if err != nil {
		return err
	}
	defer face.Close()

	if l.HasBox {
		draw.Draw(dst, l.Background, image.NewUniform(l.BoxColor), image.Point{}, draw.Over)
	}

	// AnchorY を文字の縦中心に合わせたベースライン
	m := face.Metrics()
	baseline := l.AnchorY + (float64(m.Ascent)-float64(m.Descent))/64/2
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(l.TextColor),
		Face: face,
		Dot:  fixed.P(int(l.CenterX-l.TextWidth/2), int(baseline)),
	}
	d.DrawString(l.Text)
	return nil
}

// newFace は描画ごとにフェイスを生成します。フェイスは並行利用できません。
func (c *Compositor) newFace(size float64) (font.Face, error) {
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("フォントフェイスの生成に失敗しました: %w", err)
	}
	return f, nil
}

func fill(dst *image.RGBA, col color.Color) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}
