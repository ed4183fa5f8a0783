package domain

import "time"

// User is a listener account backed by a Spotify identity.
// The Spotify user ID doubles as the primary key everywhere events
// and surveys reference a user.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`

	// OAuth tokens from the authorization-code flow. Filter from API
	// responses - clients only ever receive the access token via the
	// login redirect.
	AccessToken    string    `json:"access_token,omitempty"`
	RefreshToken   string    `json:"refresh_token,omitempty"`
	TokenExpiresAt time.Time `json:"token_expires_at,omitempty"`

	HasSurvey bool      `json:"hasSurvey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Name returns the display name, falling back to the user ID.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}
