package app

import (
	"github.com/shouni/go-postcraft-kit/pkg/domain"
)

// Activation は資格情報の状態です。
type Activation string

const (
	// ActivationInactive は API キーが未設定の状態です。
	ActivationInactive Activation = "inactive"
	// ActivationUnauthorized はキーがバックエンドに拒否された状態です。
	ActivationUnauthorized Activation = "unauthorized"
	// ActivationActive は生成操作を受け付ける状態です。
	ActivationActive Activation = "active"
)

// 利用者に表示する失敗メッセージです。
const (
	MsgInferenceFailed    = "Inference failed. Please check your network connection or try again later."
	MsgCampaignFailed     = "Campaign setup failed. Check your API usage limits."
	MsgRefinementFailed   = "Refinement failed. Try again."
	MsgRegenerationFailed = "Image regeneration failed."
	MsgVideoFailed        = "Video generation failed."
	MsgUnauthorized       = "The API key was rejected. Please activate with a valid key."
)

// State はアプリケーションの唯一の集約です。Snapshot で取得した値は呼び出し側が自由に扱えます。
type State struct {
	Step       domain.Step            `json:"step"`
	Activation Activation             `json:"activation"`
	Brand      *domain.BrandIdentity  `json:"brand,omitempty"`
	Intent     *domain.CampaignIntent `json:"intent,omitempty"`
	Posts      domain.Posts           `json:"posts"`

	// FocusedID は詳細ビューで開いている投稿です。Focused は Posts から解決した値です。
	FocusedID string             `json:"focusedId,omitempty"`
	Focused   *domain.SocialPost `json:"focused,omitempty"`

	Loading bool `json:"loading"`
	// CampaignRunning はキャンペーン生成の実行中だけ true です。Loading はブランド推論中も立ちます。
	CampaignRunning bool `json:"campaignRunning"`
	// Pending は投稿 ID ごとの実行中の操作名です。Snapshot 時に refine.Controller から導出します。
	Pending         map[string]string `json:"pending,omitempty"`
	RefinementInput string            `json:"refinementInput"`

	ChatOpen     bool                 `json:"chatOpen"`
	ChatPending  bool                 `json:"chatPending"`
	ChatMessages []domain.ChatMessage `json:"chatMessages"`

	LastError string `json:"lastError,omitempty"`
}

func (s State) clone() State {
	out := s
	if s.Brand != nil {
		b := s.Brand.Clone()
		out.Brand = &b
	}
	if s.Intent != nil {
		i := s.Intent.Clone()
		out.Intent = &i
	}
	out.Posts = s.Posts.Clone()
	if out.Posts == nil {
		out.Posts = domain.Posts{}
	}
	out.Focused = nil
	if p, ok := out.Posts.Find(s.FocusedID); ok {
		out.Focused = &p
	}
	out.Pending = nil
	out.ChatMessages = nil
	return out
}
