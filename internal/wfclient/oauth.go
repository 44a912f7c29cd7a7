package wfclient

import (
	"fmt"
	"net/url"
)

// AuthorizeConfig describes the external OAuth authorisation page.
type AuthorizeConfig struct {
	URL         string
	ClientID    string
	RedirectURI string
	Scope       string
}

// AuthorizeURL builds the link a user opens to obtain an authorisation code.
func AuthorizeURL(cfg AuthorizeConfig, state string) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse authorize url: %w", err)
	}
	q := u.Query()
	q.Set("type", "authorization_code")
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", cfg.Scope)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
