// Command gmail-auth-helper obtains the refresh token the Gmail notifier
// needs. It prints the values to put into .env.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// OAuth2Credentials is the client section of a Google OAuth client file.
type OAuth2Credentials struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
}

// GoogleCredentialsFile is credentials.json as downloaded from Google Cloud Console.
type GoogleCredentialsFile struct {
	Installed *OAuth2Credentials `json:"installed,omitempty"`
	Web       *OAuth2Credentials `json:"web,omitempty"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: gmail-auth-helper <credentials.json>")
	}

	credentialsData, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read credentials file: %v", err)
	}

	credentials, err := parseGoogleCredentials(credentialsData)
	if err != nil {
		log.Fatalf("Failed to parse credentials: %v", err)
	}

	config := oauthConfig(credentials)
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	fmt.Printf("Gmail OAuth2 Authorization Helper\n")
	fmt.Printf("=================================\n")
	fmt.Printf("1. Open this URL in your browser:\n")
	fmt.Printf("   %s\n\n", authURL)
	fmt.Printf("2. Authorize the application to send mail\n")
	fmt.Printf("3. Copy the \"code\" parameter from the redirect URL and enter it below\n\n")
	fmt.Printf("Authorization code: ")

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		log.Fatalf("Failed to read authorization code: %v", err)
	}

	token, err := config.Exchange(context.Background(), authCode)
	if err != nil {
		log.Fatalf("Failed to exchange code for token: %v", err)
	}
	if token.RefreshToken == "" {
		log.Fatal("Google did not return a refresh token; revoke the app's access and run again")
	}

	fmt.Printf("\nAdd these to your .env file:\n\n")
	fmt.Printf("NOTIFY_DRIVER=gmail\n")
	fmt.Printf("GMAIL_CLIENT_ID='%s'\n", credentials.ClientID)
	fmt.Printf("GMAIL_CLIENT_SECRET='%s'\n", credentials.ClientSecret)
	fmt.Printf("GMAIL_REFRESH_TOKEN='%s'\n", token.RefreshToken)
}

func oauthConfig(c *OAuth2Credentials) *oauth2.Config {
	redirect := "http://localhost"
	if len(c.RedirectURIs) > 0 {
		redirect = c.RedirectURIs[0]
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}
}

// parseGoogleCredentials accepts either a bare client object or the
// installed/web wrapped file from Google Cloud Console.
func parseGoogleCredentials(credentialsData []byte) (*OAuth2Credentials, error) {
	var direct OAuth2Credentials
	if err := json.Unmarshal(credentialsData, &direct); err == nil {
		if direct.ClientID != "" && direct.ClientSecret != "" {
			return &direct, nil
		}
	}

	var googleFile GoogleCredentialsFile
	if err := json.Unmarshal(credentialsData, &googleFile); err != nil {
		return nil, fmt.Errorf("failed to parse credentials as Google format: %w", err)
	}
	if googleFile.Installed != nil {
		return googleFile.Installed, nil
	}
	if googleFile.Web != nil {
		return googleFile.Web, nil
	}

	return nil, fmt.Errorf("no valid credentials found in JSON - expected 'installed' or 'web' section")
}
