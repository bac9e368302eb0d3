package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
	"github.com/shouni/go-postcraft-kit/pkg/genclient"
)

const (
	// FallbackReply は応答が空だった場合にエージェント発言として記録される文言です。
	FallbackReply = "I'm sorry, I couldn't process that."
	// FailureReply は呼び出しに失敗した場合にエージェント発言として記録される文言です。
	FailureReply = "Service connection failed. Please ensure your environment is correctly configured."
)

// ErrEmptyMessage は空のメッセージが送信された場合に返されます。
var ErrEmptyMessage = errors.New("chat message is empty")

// Session は追記専用の戦略チャット履歴です。
// 送信は1件ずつ直列に処理され、履歴への追記は常に利用者発言→エージェント発言の順になります。
type Session struct {
	ID string

	client genclient.Client

	// send は往復全体を直列化し、mu は履歴の読み書きを保護します。
	send     sync.Mutex
	mu       sync.RWMutex
	messages []domain.ChatMessage
}

// NewSession は新しいチャットセッションを開始します。
func NewSession(client genclient.Client) (*Session, error) {
	if client == nil {
		return nil, fmt.Errorf("genclient.Client は必須です")
	}
	return &Session{ID: uuid.NewString(), client: client}, nil
}

// Send は利用者の発言を追記し、エージェントの応答を追記して返します。
// 失敗時も固定の文言をエージェント発言として追記し、そのメッセージと元のエラーを返します。
func (s *Session) Send(ctx context.Context, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}

	s.send.Lock()
	defer s.send.Unlock()

	history := s.Messages()
	s.append(domain.ChatMessage{Role: domain.RoleUser, Text: text})

	reply, err := s.client.ChatWithAgent(ctx, text, history)
	if err != nil {
		slog.ErrorContext(ctx, "Chat exchange failed", "session_id", s.ID, "error", err)
		msg := domain.ChatMessage{Role: domain.RoleAgent, Text: FailureReply}
		s.append(msg)
		return msg, fmt.Errorf("チャットの送信に失敗しました: %w", err)
	}

	msg := domain.ChatMessage{Role: domain.RoleAgent, Text: reply.Text, Sources: reply.Sources}
	if strings.TrimSpace(msg.Text) == "" {
		msg.Text = FallbackReply
	}
	s.append(msg)
	return msg, nil
}

// Messages は履歴のコピーを返します。
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChatMessage, len(s.messages))
	for i, m := range s.messages {
		m.Sources = append([]domain.Source(nil), m.Sources...)
		out[i] = m
	}
	return out
}

func (s *Session) append(m domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}
