package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.Save(ctx, Record{}))

	msgs := sampleMessages(now)
	require.NoError(t, s.Save(ctx, Record{SessionID: "a", Messages: msgs}))
	now = now.Add(time.Minute)
	require.NoError(t, s.Save(ctx, Record{SessionID: "b", Messages: msgs[:1]}))

	rec, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, msgs, rec.Messages)
	assert.Equal(t, 2, rec.MessageCount)

	// Ensure copy semantics (modifying returned slice does not affect internal state)
	rec.Messages[0].Content = "mutated"
	again, _ := s.Load(ctx, "a")
	assert.Equal(t, "What do you do?", again.Messages[0].Content)

	recent, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].SessionID)

	since, err := s.Since(ctx, now)
	require.NoError(t, err)
	assert.Len(t, since, 1)

	now = now.Add(time.Hour)
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
