package domain

// SocialProfile is the canonical shape every provider payload is normalized into.
type SocialProfile struct {
	Provider  Provider
	SubjectID string
	Email     string
	Nickname  string
	AvatarURL *string
}

// LoginContext carries request metadata recorded with a login.
type LoginContext struct {
	ClientIP  string
	UserAgent string
}
