package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization Code
// flow.
//
// FLOW, END TO END:
//  1. The gateway redirects the browser to Google's consent page.
//  2. Google calls back with a short-lived code.
//  3. Exchange trades the code for Google's token response — server-to-server,
//     using the client secret, so nothing sensitive touches the browser.
//  4. The response's ID token (a signed assertion of who the user is) is
//     forwarded to the Rootz API's google-login endpoint, which verifies it
//     and answers with its own credential + profile.
//
// Note the division of labour: Google proves WHO, the Rootz API decides the
// account. This gateway just carries the assertion between them.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider creates a GoogleProvider with the given OAuth client
// credentials. callbackURL must exactly match an authorized redirect URI of
// the Google Cloud OAuth client.
//
// Scopes: "openid" and "email" are what the upstream needs to mint an
// account; "profile" adds the display name and avatar for first sign-ins.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// Configured reports whether OAuth client credentials were provided.
// When false, the Google routes are not registered and sign-in falls back to
// email/password only.
func (p *GoogleProvider) Configured() bool {
	return p.config.ClientID != "" && p.config.ClientSecret != ""
}

// AuthURL returns the Google consent-page URL for the given CSRF state.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the Google ID token.
//
// The ID token rides along in the token response's extra fields — it is the
// piece the upstream google-login endpoint wants, the access token itself is
// of no use to us.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (string, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", fmt.Errorf("auth: Google token response has no id_token")
	}

	return idToken, nil
}
