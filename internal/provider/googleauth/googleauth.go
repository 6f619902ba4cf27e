// Package googleauth validates Google ID tokens for the social sign-in path.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/panuwatch/authsession/internal/model"
)

var ErrInvalidAudience = errors.New("invalid google audience")

// Verifier checks Google-issued ID tokens against the tokeninfo endpoint and
// resolves the user's profile information.
type Verifier struct {
	clientID   string
	httpClient *http.Client
}

// New creates a Verifier bound to the given OAuth client ID.
func New(clientID string) *Verifier {
	return &Verifier{
		clientID:   clientID,
		httpClient: &http.Client{},
	}
}

// Verify validates the ID token, checks its audience, and returns the
// identity it asserts.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*model.Identity, error) {
	tokenInfo, err := v.validateIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	identity := &model.Identity{
		UID:   tokenInfo.UserId,
		Email: tokenInfo.Email,
	}

	// Tokeninfo carries no display fields; best effort from userinfo.
	if userInfo, err := v.userInfo(ctx, idToken); err == nil {
		if userInfo.Name != "" {
			name := userInfo.Name
			identity.DisplayName = &name
		}
		if userInfo.Picture != "" {
			picture := userInfo.Picture
			identity.PhotoURL = &picture
		}
	}

	return identity, nil
}

func (v *Verifier) validateIDToken(ctx context.Context, idToken string) (*oauth2.Tokeninfo, error) {
	oauth2Service, err := oauth2.NewService(ctx, option.WithHTTPClient(v.httpClient))
	if err != nil {
		return nil, err
	}

	tokenInfoCall := oauth2Service.Tokeninfo()
	tokenInfoCall.IdToken(idToken)
	tokenInfo, err := tokenInfoCall.Do()
	if err != nil {
		return nil, err
	}

	if tokenInfo.Audience != v.clientID {
		return nil, ErrInvalidAudience
	}

	return tokenInfo, nil
}

func (v *Verifier) userInfo(ctx context.Context, idToken string) (*oauth2.Userinfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v1/userinfo", nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+idToken)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("status code is not OK")
	}

	var userInfo oauth2.Userinfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}

	return &userInfo, nil
}
