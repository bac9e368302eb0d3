package domain

// Role はチャット発言者の種別です。
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Source は根拠付き回答の引用元です。
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ChatMessage は戦略チャットの1発言です。作成後に変更されることはありません。
type ChatMessage struct {
	Role    Role     `json:"role"`
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// ChatReply はエージェントからの応答です。Sources は空の場合もあります。
type ChatReply struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}
