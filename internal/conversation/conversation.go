// Package conversation persists per-session message histories.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/korgalidze/persona-chat/internal/llm"
)

var ErrNotFound = errors.New("conversation not found")

// Precision is the finest time resolution every backend can store. BSON
// datetimes keep milliseconds only.
const Precision = time.Millisecond

var errEmptySessionID = errors.New("save conversation: empty session id")

// Message is one immutable turn of a conversation.
type Message struct {
	Role      string    `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Record is the durable state of one session, stored and replaced as a whole.
type Record struct {
	SessionID    string    `json:"session_id" bson:"_id"`
	VisitorIP    string    `json:"visitor_ip" bson:"visitor_ip"`
	UserAgent    string    `json:"user_agent" bson:"user_agent"`
	Messages     []Message `json:"messages" bson:"messages"`
	MessageCount int       `json:"message_count" bson:"message_count"`
	CreatedAt    time.Time `json:"timestamp" bson:"timestamp"`
	UpdatedAt    time.Time `json:"last_updated" bson:"last_updated"`
	// ExpiresAt is the retention deadline in epoch seconds.
	ExpiresAt int64 `json:"ttl" bson:"ttl"`
	// ExpiresAtTime mirrors ExpiresAt for the MongoDB TTL index, which only
	// understands dates.
	ExpiresAtTime time.Time `json:"-" bson:"expires_at"`
}

// Expired reports whether the retention deadline has passed at now.
func (r Record) Expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.Unix() >= r.ExpiresAt
}

// Store is a durable key-value store of conversation records keyed by
// session id. Save replaces the whole record; concurrent writers for the same
// session race and the last one wins.
type Store interface {
	Load(ctx context.Context, sessionID string) (Record, error)
	Save(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Since(ctx context.Context, t time.Time) ([]Record, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// LoadOrNew returns the stored record of a session, or an empty record for a
// session seen for the first time. Only real lookup failures are errors.
func LoadOrNew(ctx context.Context, s Store, sessionID string) (Record, error) {
	rec, err := s.Load(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return Record{SessionID: sessionID}, nil
	}
	if err != nil {
		return Record{SessionID: sessionID}, fmt.Errorf("load conversation %s: %w", sessionID, err)
	}
	return rec, nil
}

// stamp fills the bookkeeping attributes written on every save and rounds
// every timestamp down to Precision so that a load returns what was saved.
func stamp(rec *Record, now time.Time, retention time.Duration) {
	now = now.Truncate(Precision)
	if rec.Messages != nil {
		msgs := make([]Message, len(rec.Messages))
		for i, m := range rec.Messages {
			m.Timestamp = m.Timestamp.Truncate(Precision)
			msgs[i] = m
		}
		rec.Messages = msgs
	}
	rec.CreatedAt = rec.CreatedAt.Truncate(Precision)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.MessageCount = len(rec.Messages)
	deadline := now.Add(retention)
	rec.ExpiresAt = deadline.Unix()
	rec.ExpiresAtTime = deadline
}

// ToLLM converts stored turns into completion messages.
func ToLLM(msgs []Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
