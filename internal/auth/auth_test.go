package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentials_Apply(t *testing.T) {
	t.Run("sets api-key header", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "https://leakix.net/search", nil)
		creds := &Credentials{APIKey: "secret"}

		creds.Apply(req)

		assert.Equal(t, "secret", req.Header.Get(HeaderAPIKey))
	})

	t.Run("empty key leaves request untouched", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "https://leakix.net/search", nil)
		creds := &Credentials{}

		creds.Apply(req)

		_, ok := req.Header[http.CanonicalHeaderKey(HeaderAPIKey)]
		assert.False(t, ok)
	})

	t.Run("nil credentials", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "https://leakix.net/search", nil)
		var creds *Credentials

		assert.NotPanics(t, func() { creds.Apply(req) })
		assert.Empty(t, req.Header.Get(HeaderAPIKey))
	})
}

func TestCredentials_Valid(t *testing.T) {
	var nilCreds *Credentials
	assert.False(t, nilCreds.Valid())
	assert.False(t, (&Credentials{}).Valid())
	assert.True(t, (&Credentials{APIKey: "k"}).Valid())
}
