package realtime_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/Sahilattar8786/khidmah-mvp/models"
	"github.com/Sahilattar8786/khidmah-mvp/realtime"
)

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) Notify(recipientID, title, body string, data map[string]interface{}) {
	n.calls = append(n.calls, body)
}

func TestMessageSession_NotifiesOnForeignMessage(t *testing.T) {
	notifier := &recordingNotifier{}
	s := realtime.NewMessageSession("chat-1", "me", notifier)

	s.Apply([]models.Message{{SenderID: "them", Text: "salaam"}})

	assert.Equal(t, []string{"salaam"}, notifier.calls)
}

func TestMessageSession_OwnMessageIsSilent(t *testing.T) {
	notifier := &recordingNotifier{}
	s := realtime.NewMessageSession("chat-1", "me", notifier)

	s.Apply([]models.Message{{SenderID: "me", Text: "salaam"}})

	assert.Empty(t, notifier.calls)
}

func TestMessageSession_ShrinkingSnapshotIsSilent(t *testing.T) {
	notifier := &recordingNotifier{}
	s := realtime.NewMessageSession("chat-1", "me", notifier)

	s.Apply([]models.Message{
		{SenderID: "them", Text: "one"},
		{SenderID: "them", Text: "two"},
	})
	notifier.calls = nil

	// whole-chat deletion empties the log; no notification for that
	s.Apply([]models.Message{})
	assert.Empty(t, notifier.calls)

	// same size, no growth, no notification
	s.Apply([]models.Message{})
	assert.Empty(t, notifier.calls)
}

func TestMessageSession_LongPreviewIsTruncated(t *testing.T) {
	notifier := &recordingNotifier{}
	s := realtime.NewMessageSession("chat-1", "me", notifier)

	s.Apply([]models.Message{{SenderID: "them", Text: strings.Repeat("x", 200)}})

	assert.Len(t, notifier.calls, 1)
	assert.Equal(t, strings.Repeat("x", 50)+"...", notifier.calls[0])
}

func TestMessageSession_TruncationKeepsRunesIntact(t *testing.T) {
	notifier := &recordingNotifier{}
	s := realtime.NewMessageSession("chat-1", "me", notifier)

	// 60 multibyte characters; a byte cut at 50 would land mid-rune
	s.Apply([]models.Message{{SenderID: "them", Text: strings.Repeat("س", 60)}})

	assert.Len(t, notifier.calls, 1)
	assert.True(t, utf8.ValidString(notifier.calls[0]))
	assert.Equal(t, strings.Repeat("س", 50)+"...", notifier.calls[0])
}

func TestMessageSession_SnapshotReplacedWholesale(t *testing.T) {
	s := realtime.NewMessageSession("chat-1", "me", nil)

	s.Apply([]models.Message{{SenderID: "them", Text: "one"}, {SenderID: "them", Text: "two"}})
	s.Apply([]models.Message{{SenderID: "them", Text: "three"}})

	messages, lastErr := s.Snapshot()
	assert.Len(t, messages, 1)
	assert.Equal(t, "three", messages[0].Text)
	assert.Empty(t, lastErr)
}

func TestMessageSession_FailKeepsSnapshot(t *testing.T) {
	s := realtime.NewMessageSession("chat-1", "me", nil)

	s.Apply([]models.Message{{SenderID: "them", Text: "one"}})
	s.Fail("subscription read failed")

	messages, lastErr := s.Snapshot()
	assert.Len(t, messages, 1)
	assert.Equal(t, "subscription read failed", lastErr)

	// the next successful push clears the error
	s.Apply([]models.Message{{SenderID: "them", Text: "one"}})
	_, lastErr = s.Snapshot()
	assert.Empty(t, lastErr)
}
