package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, StoreBolt, cfg.StoreDriver)
	assert.Equal(t, "ai-assistant-conversations", cfg.ConversationsTable)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 90*24*time.Hour, cfg.ConversationRetention)
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, NotifyNone, cfg.NotifyDriver)
	assert.Len(t, cfg.PersonaDocuments, 3)
	assert.False(t, cfg.ExposeConversations)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("CONVERSATIONS_TABLE", "chats")
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("PERSONA_DOCUMENTS", "a.md,Bio=b.md")
	t.Setenv("SESSION_MAX_AGE", "1h")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "chats", cfg.ConversationsTable)
	assert.Equal(t, "eu-central-1", cfg.Region)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, []string{"a.md", "Bio=b.md"}, cfg.PersonaDocuments)
	assert.Equal(t, time.Hour, cfg.SessionMaxAge)
}

func TestNew_RejectsUnknownDrivers(t *testing.T) {
	cases := map[string]string{
		"LLM_PROVIDER":  "llama",
		"STORE_DRIVER":  "dynamo",
		"NOTIFY_DRIVER": "pigeon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestValidate_NotifierRequirements(t *testing.T) {
	t.Setenv("NOTIFY_DRIVER", "gmail")
	_, err := New()
	assert.ErrorContains(t, err, "NOTIFY_RECIPIENT")

	t.Setenv("NOTIFY_RECIPIENT", "owner@example.com")
	_, err = New()
	assert.NoError(t, err)
}
