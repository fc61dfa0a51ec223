// Package auth provides LeakIX API key authentication.
package auth

import "net/http"

// HeaderAPIKey is the request header carrying the LeakIX API key.
const HeaderAPIKey = "api-key"

// Credentials holds the LeakIX API key. Anonymous access is allowed, so a
// nil or empty Credentials value leaves requests untouched.
type Credentials struct {
	APIKey string
}

// Apply adds the api-key header to an HTTP request when a key is configured.
func (c *Credentials) Apply(req *http.Request) {
	if !c.Valid() {
		return
	}
	req.Header.Set(HeaderAPIKey, c.APIKey)
}

// Valid reports whether an API key is configured.
func (c *Credentials) Valid() bool {
	return c != nil && c.APIKey != ""
}
