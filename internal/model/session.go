package model

import "time"

// SessionView is the client-visible projection of a session. It is derived
// entirely from signed token claims; no store lookup happens on the way.
type SessionView struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	AccessToken string    `json:"accessToken,omitempty"`
	IsAdmin     bool      `json:"isAdmin"`
	Expires     time.Time `json:"expires"`
}

// SignInResponse is returned by the sign-in endpoints: where to navigate next
// and the session the cookie now carries.
type SignInResponse struct {
	URL     string      `json:"url"`
	Session SessionView `json:"session"`
}
