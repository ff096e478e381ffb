package auth

import "github.com/angelmondragon/campusmarket-client/pkg/auth/session"

// LoginRequest carries either a provider credential (an OAuth id token) or
// an email/password pair. Both are forwarded to the backend untouched.
type LoginRequest struct {
	Provider   string `json:"provider,omitempty"`
	Credential string `json:"credential,omitempty"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Password   string `json:"password,omitempty"`
}

func (r LoginRequest) hasCredential() bool {
	return r.Credential != "" || (r.Email != "" && r.Password != "")
}

// LoginResponse is the identity the backend issues.
type LoginResponse struct {
	Token       string     `json:"token"`
	AccessToken string     `json:"access_token"`
	User        profileDTO `json:"user"`
}

func (r LoginResponse) token() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

type profileDTO struct {
	ID          string  `json:"id" validate:"required"`
	Email       string  `json:"email"`
	DisplayName string  `json:"displayName"`
	DisplaySnk  string  `json:"display_name"`
	Role        string  `json:"role"`
	Campus      *string `json:"campus,omitempty"`
}

func (p profileDTO) toProfile() session.Profile {
	name := p.DisplayName
	if name == "" {
		name = p.DisplaySnk
	}
	return session.Profile{ID: p.ID, Email: p.Email, DisplayName: name, Role: p.Role, Campus: p.Campus}
}
