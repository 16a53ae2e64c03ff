package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startMongo runs a throwaway MongoDB and returns its connection URI.
func startMongo(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate mongo container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func TestMongoStore(t *testing.T) {
	uri := startMongo(t)
	ctx := context.Background()

	// base carries sub-millisecond digits on purpose; they must not survive a save.
	base := time.Now().UTC().Truncate(time.Second).Add(123456789 * time.Nanosecond)

	open := func(t *testing.T, now *time.Time) *MongoStore {
		t.Helper()
		s, err := NewMongoStore(ctx, uri, "persona_chat_test", strings.ReplaceAll(t.Name(), "/", "_"), retention)
		require.NoError(t, err)
		s.now = func() time.Time { return *now }
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("round trip", func(t *testing.T) {
		now := base
		s := open(t, &now)

		msgs := sampleMessages(base.Add(-time.Minute))
		require.NoError(t, s.Save(ctx, Record{SessionID: "abc", VisitorIP: "203.0.113.7", UserAgent: "curl/8", Messages: msgs}))

		rec, err := s.Load(ctx, "abc")
		require.NoError(t, err)

		want := []Message{
			{Role: msgs[0].Role, Content: msgs[0].Content, Timestamp: msgs[0].Timestamp.Truncate(time.Millisecond)},
			{Role: msgs[1].Role, Content: msgs[1].Content, Timestamp: msgs[1].Timestamp.Truncate(time.Millisecond)},
		}
		assert.Equal(t, want, rec.Messages)
		assert.Equal(t, "203.0.113.7", rec.VisitorIP)
		assert.Equal(t, "curl/8", rec.UserAgent)
		assert.Equal(t, 2, rec.MessageCount)
		assert.Equal(t, base.Truncate(time.Millisecond), rec.CreatedAt)
		assert.Equal(t, base.Truncate(time.Millisecond), rec.UpdatedAt)

		// A second save of the loaded record must not change it.
		require.NoError(t, s.Save(ctx, rec))
		again, err := s.Load(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, rec, again)
	})

	t.Run("missing", func(t *testing.T) {
		now := base
		s := open(t, &now)
		_, err := s.Load(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("recent and since", func(t *testing.T) {
		now := base
		s := open(t, &now)
		for i, id := range []string{"a", "b", "c"} {
			now = base.Add(time.Duration(i) * time.Minute)
			require.NoError(t, s.Save(ctx, Record{SessionID: id, Messages: sampleMessages(now)}))
		}

		recent, err := s.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "c", recent[0].SessionID)
		assert.Equal(t, "b", recent[1].SessionID)

		since, err := s.Since(ctx, base.Add(30*time.Second))
		require.NoError(t, err)
		ids := make([]string, 0, len(since))
		for _, r := range since {
			ids = append(ids, r.SessionID)
		}
		assert.ElementsMatch(t, []string{"b", "c"}, ids)
	})

	t.Run("expiry", func(t *testing.T) {
		now := base
		s := open(t, &now)
		require.NoError(t, s.Save(ctx, Record{SessionID: "old", Messages: sampleMessages(base)}))

		now = base.Add(retention + time.Hour)
		_, err := s.Load(ctx, "old")
		assert.ErrorIs(t, err, ErrNotFound, "expired record must not be served before the TTL monitor runs")

		n, err := s.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = s.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("ttl index", func(t *testing.T) {
		now := base
		s := open(t, &now)

		specs, err := s.coll.Indexes().ListSpecifications(ctx)
		require.NoError(t, err)

		var ttl *int32
		for _, spec := range specs {
			if spec.Name == "expires_at_1" {
				ttl = spec.ExpireAfterSeconds
			}
		}
		require.NotNil(t, ttl, "expires_at index must be a TTL index")
		assert.Equal(t, int32(0), *ttl)
	})
}
