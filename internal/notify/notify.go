// Package notify tells the site owner about visitor conversations.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/korgalidze/persona-chat/internal/conversation"
)

// Notification is a snapshot of one conversation worth reporting.
type Notification struct {
	SessionID  string
	VisitorIP  string
	UserAgent  string
	Messages   []conversation.Message
	RecordLink string
	SentAt     time.Time
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// TextSender delivers free-form reports such as the daily digest.
type TextSender interface {
	SendText(ctx context.Context, subject, body string) error
}

// ShouldNotify throttles notifications to one per completed question and
// answer pair: it fires only when the post-append message count is even.
func ShouldNotify(messageCount int) bool {
	return messageCount > 0 && messageCount%2 == 0
}

func Subject(n Notification) string {
	return fmt.Sprintf("AI Assistant: conversation from %s (%d messages)", n.VisitorIP, len(n.Messages))
}

// Body renders the plain-text transcript followed by the record link.
func Body(n Notification) string {
	var b strings.Builder
	b.WriteString("New activity in a conversation with your AI Assistant!\n\n")
	fmt.Fprintf(&b, "Conversation ID: %s\n", n.SessionID)
	fmt.Fprintf(&b, "Timestamp: %s\n", n.SentAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Visitor IP: %s\n", n.VisitorIP)
	fmt.Fprintf(&b, "User agent: %s\n", n.UserAgent)
	fmt.Fprintf(&b, "Messages: %d\n", len(n.Messages))

	for _, m := range n.Messages {
		speaker := "Visitor"
		if m.Role == "assistant" {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "\n[%s] %s:\n%s\n", m.Timestamp.UTC().Format("15:04:05"), speaker, m.Content)
	}

	b.WriteString("\n---\n")
	if n.RecordLink != "" {
		fmt.Fprintf(&b, "View the full record: %s\n", n.RecordLink)
	}
	return b.String()
}

// RecordLink expands {region}, {table} and {id} in tmpl. Without a template
// it falls back to a plain description of where the record lives.
func RecordLink(tmpl, region, table, sessionID string) string {
	if tmpl == "" {
		return fmt.Sprintf("table %s, key %s", table, sessionID)
	}
	return strings.NewReplacer("{region}", region, "{table}", table, "{id}", sessionID).Replace(tmpl)
}

// Noop drops every notification.
type Noop struct{}

func (Noop) Notify(context.Context, Notification) error { return nil }

func (Noop) SendText(context.Context, string, string) error { return nil }
