package domain

import (
	"strings"

	"github.com/google/uuid"
)

// OverlayPosition はオーバーレイ文字列の縦方向の配置です。
type OverlayPosition string

const (
	PositionTop    OverlayPosition = "top"
	PositionMiddle OverlayPosition = "middle"
	PositionBottom OverlayPosition = "bottom"
)

// Valid は既知の配置かどうかを返します。
func (p OverlayPosition) Valid() bool {
	switch p {
	case PositionTop, PositionMiddle, PositionBottom:
		return true
	}
	return false
}

const (
	// DefaultOverlayFontSize は 400 単位のデザイン基準でのフォントサイズです。
	DefaultOverlayFontSize = 40.0
	// DefaultOverlayColor はオーバーレイ文字色の既定値です。
	DefaultOverlayColor = "#FFFFFF"
)

// OverlayConfig は画像に重ねる見出しのスタイルです。
type OverlayConfig struct {
	Position       OverlayPosition `json:"position"`
	Color          string          `json:"color"`
	FontSize       float64         `json:"fontSize"`
	ShowBackground bool            `json:"showBackground"`
}

// WithDefaults は未設定の項目を既定値で埋めたコピーを返します。
func (o OverlayConfig) WithDefaults() OverlayConfig {
	if !o.Position.Valid() {
		o.Position = PositionMiddle
	}
	if strings.TrimSpace(o.Color) == "" {
		o.Color = DefaultOverlayColor
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultOverlayFontSize
	}
	return o
}

// SocialPost はレビュー単位となる1件の投稿ドラフトです。
// ID は一覧と詳細ビューを結ぶキーで、再生成を跨いで変わりません。
type SocialPost struct {
	ID            string        `json:"id"`
	Platform      string        `json:"platform"`
	Caption       string        `json:"caption"`
	ImagePrompt   string        `json:"imagePrompt"`
	Reasoning     string        `json:"reasoning"`
	SuggestedTags []string      `json:"suggestedTags"`
	OverlayText   string        `json:"overlayText"`
	OverlayConfig OverlayConfig `json:"overlayConfig"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	VideoURL      string        `json:"videoUrl,omitempty"`
	IsGenerating  bool          `json:"isGenerating,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// Clone はスライスを含めてコピーを返します。
func (p SocialPost) Clone() SocialPost {
	c := p
	c.SuggestedTags = append([]string(nil), p.SuggestedTags...)
	return c
}

// Refinement は指示文による改稿結果です。画像には触れません。
type Refinement struct {
	Caption     string `json:"caption"`
	ImagePrompt string `json:"imagePrompt"`
	Reasoning   string `json:"reasoning"`
}

// Apply は改稿結果を投稿に反映したコピーを返します。
func (r Refinement) Apply(p SocialPost) SocialPost {
	p = p.Clone()
	p.Caption = r.Caption
	p.ImagePrompt = r.ImagePrompt
	p.Reasoning = r.Reasoning
	return p
}

// Posts は投稿コレクションです。書き込みはすべて ID 単位で行います。
type Posts []SocialPost

// Index は id に一致する要素の位置を返します。見つからなければ -1 です。
func (ps Posts) Index(id string) int {
	for i := range ps {
		if ps[i].ID == id {
			return i
		}
	}
	return -1
}

// Find は id に一致する投稿のコピーを返します。
func (ps Posts) Find(id string) (SocialPost, bool) {
	if i := ps.Index(id); i >= 0 {
		return ps[i].Clone(), true
	}
	return SocialPost{}, false
}

// Replace は同じ ID の要素を置き換えた新しいコレクションを返します。
// 該当がなければ変更せずに false を返します。長さは変わりません。
func (ps Posts) Replace(p SocialPost) (Posts, bool) {
	i := ps.Index(p.ID)
	if i < 0 {
		return ps, false
	}
	out := ps.Clone()
	out[i] = p.Clone()
	return out, true
}

// Remove は id の要素を取り除いた新しいコレクションを返します。
func (ps Posts) Remove(id string) (Posts, bool) {
	i := ps.Index(id)
	if i < 0 {
		return ps, false
	}
	out := make(Posts, 0, len(ps)-1)
	out = append(out, ps[:i]...)
	out = append(out, ps[i+1:]...)
	return out.Clone(), true
}

// Clone はディープコピーを返します。
func (ps Posts) Clone() Posts {
	if ps == nil {
		return nil
	}
	out := make(Posts, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

// EnsureUniqueIDs は空や重複した ID を UUID で置き換えます。
// バックエンドが返す ID は信用できないため、結合キーとして使う前に必ず通します。
func (ps Posts) EnsureUniqueIDs() Posts {
	seen := make(map[string]struct{}, len(ps))
	out := ps.Clone()
	for i := range out {
		id := strings.TrimSpace(out[i].ID)
		if _, dup := seen[id]; id == "" || dup {
			id = uuid.NewString()
		}
		seen[id] = struct{}{}
		out[i].ID = id
	}
	return out
}
