package spotify

import (
	"context"
	"fmt"

	spotifyapi "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// UserProfile is the subset of the Spotify profile the server keeps.
type UserProfile struct {
	ID          string
	DisplayName string
	Email       string
}

// AuthURL builds the Spotify authorize URL for the login redirect.
func (c *Client) AuthURL(state string) string {
	return c.auth.AuthURL(state)
}

// Exchange trades an authorization code for an OAuth token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.auth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return token, nil
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context, token *oauth2.Token) (*UserProfile, error) {
	client := spotifyapi.New(c.auth.Client(ctx, token))

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	return &UserProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}, nil
}
