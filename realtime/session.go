package realtime

import (
	"sync"

	"github.com/Sahilattar8786/khidmah-mvp/models"
)

// Notifier delivers a local notification for a message that arrived from the
// other side of a chat. Fire and forget.
type Notifier interface {
	Notify(recipientID, title, body string, data map[string]interface{})
}

// NopNotifier drops notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(string, string, string, map[string]interface{}) {}

const notificationPreviewLimit = 50

// MessageSession mirrors one chat's message subscription into state a
// connection can read back: on every push the snapshot is replaced wholesale
// and any previous error is cleared. It also owns the new-message
// notification heuristic: when the count grows and the newest sender is not
// the session's identity, the delta is assumed to be exactly the newest
// element. That assumption holds because messages are only ever removed by
// whole-chat deletion.
type MessageSession struct {
	chatID   string
	identity string
	notifier Notifier

	mu        sync.Mutex
	messages  []models.Message
	lastErr   string
	prevCount int
}

// NewMessageSession creates a session for identity on chatID.
func NewMessageSession(chatID, identity string, notifier Notifier) *MessageSession {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MessageSession{chatID: chatID, identity: identity, notifier: notifier}
}

// Apply consumes one subscription push.
func (s *MessageSession) Apply(messages []models.Message) {
	s.mu.Lock()
	s.messages = messages
	s.lastErr = ""
	grew := len(messages) > s.prevCount
	s.prevCount = len(messages)
	s.mu.Unlock()

	if !grew || len(messages) == 0 {
		return
	}
	latest := messages[len(messages)-1]
	if latest.SenderID == s.identity {
		return
	}
	body := latest.Text
	if runes := []rune(body); len(runes) > notificationPreviewLimit {
		body = string(runes[:notificationPreviewLimit]) + "..."
	}
	s.notifier.Notify(s.identity, "New message", body, map[string]interface{}{"chatId": s.chatID})
}

// Fail records a subscription error without touching the mirrored snapshot.
func (s *MessageSession) Fail(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// Snapshot returns the mirrored messages and the last error, if any.
func (s *MessageSession) Snapshot() ([]models.Message, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages, s.lastErr
}
