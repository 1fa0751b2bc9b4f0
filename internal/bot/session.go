package bot

import (
	"context"

	"github.com/google/uuid"
)

// Roles of transcript messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Greeting opens every new session.
const Greeting = "Hi! Ich bin KarlA 🙂 Was möchtest du über Tiere oder Pflanzen wissen?"

// Message is one transcript entry.
type Message struct {
	Role    string
	Content string
}

// Session carries the per-conversation state. The bot itself stays stateless;
// the caller owns the session and passes it into Converse.
type Session struct {
	ID       uuid.UUID
	Messages []Message
}

// NewSession creates a session opened with the assistant greeting.
func NewSession() *Session {
	return &Session{
		ID:       uuid.New(),
		Messages: []Message{{Role: RoleAssistant, Content: Greeting}},
	}
}

// Converse answers one user message and records both sides in the session
// transcript.
func (b *Bot) Converse(ctx context.Context, s *Session, userText string) (string, error) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: userText})
	reply, err := b.Answer(ctx, userText)
	if err != nil {
		return "", err
	}
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}
