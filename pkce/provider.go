package pkce

import (
	"fmt"
	"strings"
)

// Provider names an OAuth identity provider.
type Provider string

// Supported providers.
const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
	ProviderOkta   Provider = "okta"
)

// Providers lists every supported provider.
var Providers = []Provider{ProviderGoogle, ProviderGitHub, ProviderOkta}

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// ParseProvider accepts a provider name in any case.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("pkce: unknown provider %q", s)
	}
	return p, nil
}
