package domain

import "strings"

// Provider is the authentication source an Identity belongs to.
type Provider string

const (
	ProviderLocal  Provider = "LOCAL"
	ProviderGoogle Provider = "GOOGLE"
	ProviderKakao  Provider = "KAKAO"
	ProviderNaver  Provider = "NAVER"
)

// SocialProviders lists the external OAuth2 providers in a stable order.
var SocialProviders = []Provider{ProviderGoogle, ProviderKakao, ProviderNaver}

// ParseProvider converts a tag such as "kakao" or "KAKAO" into a Provider.
func ParseProvider(tag string) (Provider, bool) {
	p := Provider(strings.ToUpper(strings.TrimSpace(tag)))
	switch p {
	case ProviderLocal, ProviderGoogle, ProviderKakao, ProviderNaver:
		return p, true
	}
	return "", false
}

// IsSocial reports whether p is an external OAuth2 provider.
func (p Provider) IsSocial() bool {
	return p == ProviderGoogle || p == ProviderKakao || p == ProviderNaver
}

// Lower returns the lowercase tag used in URLs and placeholder emails.
func (p Provider) Lower() string {
	return strings.ToLower(string(p))
}
