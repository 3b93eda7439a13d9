// Package identity answers who the current viewer is.
package identity

import "strings"

// Provider reports the current viewer. A guest has no credential.
type Provider interface {
	IsAuthenticated() bool
	Username() string
	Credential() (string, bool)
}

// Static is a Provider backed by fixed values, normally read from config.
// A viewer is authenticated when both fields are non-blank.
type Static struct {
	Name  string
	Token string
}

// IsAuthenticated implements Provider.
func (s Static) IsAuthenticated() bool {
	return strings.TrimSpace(s.Name) != "" && strings.TrimSpace(s.Token) != ""
}

// Username implements Provider. Guests are named "guest".
func (s Static) Username() string {
	if n := strings.TrimSpace(s.Name); n != "" {
		return n
	}
	return "guest"
}

// Credential implements Provider.
func (s Static) Credential() (string, bool) {
	if !s.IsAuthenticated() {
		return "", false
	}
	return strings.TrimSpace(s.Token), true
}

// DisplayName returns "you" for the current viewer's own name and name
// otherwise, for lists of co-viewers.
func DisplayName(p Provider, name string) string {
	if p != nil && strings.EqualFold(strings.TrimSpace(name), p.Username()) {
		return "you"
	}
	return name
}
