package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailNotifier sends notifications through the Gmail API on behalf of the
// account that owns the refresh token.
type GmailNotifier struct {
	svc  *gmail.Service
	from string
	to   string
}

func NewGmailNotifier(ctx context.Context, clientID, clientSecret, refreshToken, from, to string) (*GmailNotifier, error) {
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}
	httpClient := oauth2.NewClient(ctx, config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}))

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &GmailNotifier{svc: svc, from: from, to: to}, nil
}

func (g *GmailNotifier) Notify(ctx context.Context, n Notification) error {
	return g.SendText(ctx, Subject(n), Body(n))
}

func (g *GmailNotifier) SendText(ctx context.Context, subject, body string) error {
	raw := buildMessage(g.from, g.to, subject, body)
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

// buildMessage renders a minimal RFC 5322 plain-text message.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
