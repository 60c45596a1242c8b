package auth

import "crypto/subtle"

// Authenticator checks API keys for the admin endpoints against a static set.
type Authenticator struct {
	keys [][]byte
}

func NewAuthenticator(apiKeys []string) *Authenticator {
	a := &Authenticator{}
	for _, k := range apiKeys {
		if k != "" {
			a.keys = append(a.keys, []byte(k))
		}
	}
	return a
}

// Enabled reports whether any key is configured. Without keys the admin
// endpoints are open.
func (a *Authenticator) Enabled() bool {
	return len(a.keys) > 0
}

func (a *Authenticator) Validate(apiKey string) bool {
	candidate := []byte(apiKey)
	ok := 0
	for _, k := range a.keys {
		ok |= subtle.ConstantTimeCompare(candidate, k)
	}
	return ok == 1
}
