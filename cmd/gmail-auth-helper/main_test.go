package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
)

func TestParseGoogleCredentials(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   string
	}{
		{name: "direct", data: `{"client_id":"direct-id","client_secret":"s"}`, id: "direct-id"},
		{name: "installed", data: `{"installed":{"client_id":"desktop-id","client_secret":"s","redirect_uris":["http://localhost"]}}`, id: "desktop-id"},
		{name: "web", data: `{"web":{"client_id":"web-id","client_secret":"s"}}`, id: "web-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parseGoogleCredentials([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.id, c.ClientID)
		})
	}

	_, err := parseGoogleCredentials([]byte(`{"other":{}}`))
	assert.Error(t, err)
	_, err = parseGoogleCredentials([]byte(`not json`))
	assert.Error(t, err)
}

func TestOAuthConfig(t *testing.T) {
	cfg := oauthConfig(&OAuth2Credentials{ClientID: "id", ClientSecret: "s"})
	assert.Equal(t, "http://localhost", cfg.RedirectURL)
	assert.Equal(t, []string{gmail.GmailSendScope}, cfg.Scopes)

	cfg = oauthConfig(&OAuth2Credentials{ClientID: "id", RedirectURIs: []string{"http://localhost:8085"}})
	assert.Equal(t, "http://localhost:8085", cfg.RedirectURL)
}
