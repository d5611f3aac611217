package provider

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	ErrMissingAuthCode = errors.New("missing authorization code")
	ErrMissingSubject  = errors.New("provider returned no subject")
)

// ProfileName is the structured name a provider may return.
type ProfileName struct {
	GivenName  string
	FamilyName string
}

// RawProfile is the identity payload returned by a social login exchange.
// Name is nil when the provider sent no structured name.
type RawProfile struct {
	Provider    string
	ID          string
	DisplayName string
	Name        *ProfileName
	Emails      []string
	Photos      []string
}

// GoogleOAuthConfig holds the OAuth client registration.
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type GoogleOAuthProvider struct {
	config *oauth2.Config
}

func NewGoogleOAuthProvider(cfg GoogleOAuthConfig) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				googleoauth2.UserinfoEmailScope,
				googleoauth2.UserinfoProfileScope,
			},
		},
	}
}

// AuthCodeURL returns the consent page URL carrying state.
func (p *GoogleOAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the user's Google profile.
func (p *GoogleOAuthProvider) Exchange(ctx context.Context, code string) (*RawProfile, error) {
	if code == "" {
		return nil, ErrMissingAuthCode
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	service, err := googleoauth2.NewService(ctx, option.WithTokenSource(p.config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	return profileFromUserinfo(info)
}

func profileFromUserinfo(info *googleoauth2.Userinfo) (*RawProfile, error) {
	if info == nil || info.Id == "" {
		return nil, ErrMissingSubject
	}

	profile := &RawProfile{
		Provider:    "google",
		ID:          info.Id,
		DisplayName: info.Name,
	}

	if info.GivenName != "" || info.FamilyName != "" {
		profile.Name = &ProfileName{
			GivenName:  info.GivenName,
			FamilyName: info.FamilyName,
		}
	}
	if info.Email != "" {
		profile.Emails = []string{info.Email}
	}
	if info.Picture != "" {
		profile.Photos = []string{info.Picture}
	}

	return profile, nil
}
