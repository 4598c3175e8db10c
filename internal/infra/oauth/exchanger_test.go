package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/config"
	"gatehouse/internal/domain/entity"
	"gatehouse/internal/errors"
)

type upstream struct {
	tokenStatus    int
	tokenBody      string
	userinfoStatus int
	userinfoBody   string
	userinfoDelay  time.Duration

	lastTokenForm url.Values
	lastAuth      string
}

func (u *upstream) start(t *testing.T) *entity.OAuthProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		u.lastTokenForm = r.PostForm
		w.WriteHeader(u.tokenStatus)
		_, _ = w.Write([]byte(u.tokenBody))
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		u.lastAuth = r.Header.Get("Authorization")
		if u.userinfoDelay > 0 {
			time.Sleep(u.userinfoDelay)
		}
		w.WriteHeader(u.userinfoStatus)
		_, _ = w.Write([]byte(u.userinfoBody))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &entity.OAuthProvider{
		Name:         "github",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     server.URL + "/token",
		InfoURL:      server.URL + "/userinfo",
	}
}

func TestExchanger_ExternalID(t *testing.T) {
	up := &upstream{
		tokenStatus:    http.StatusOK,
		tokenBody:      `{"access_token":"upstream-token"}`,
		userinfoStatus: http.StatusOK,
		userinfoBody:   `{"id":12345,"login":"octocat"}`,
	}
	provider := up.start(t)

	id, err := NewExchanger(nil).ExternalID(context.Background(), provider, "the-code", "https://app.example.com/cb")
	require.NoError(t, err)
	assert.Equal(t, "12345", id)

	// The code exchange is a standard authorization_code grant.
	assert.Equal(t, "authorization_code", up.lastTokenForm.Get("grant_type"))
	assert.Equal(t, "the-code", up.lastTokenForm.Get("code"))
	assert.Equal(t, "client-id", up.lastTokenForm.Get("client_id"))
	assert.Equal(t, "client-secret", up.lastTokenForm.Get("client_secret"))
	assert.Equal(t, "https://app.example.com/cb", up.lastTokenForm.Get("redirect_uri"))

	// The userinfo fetch carries the upstream access token.
	assert.Equal(t, "Bearer upstream-token", up.lastAuth)
}

func TestExchanger_PropertyPath(t *testing.T) {
	up := &upstream{
		tokenStatus:    http.StatusOK,
		tokenBody:      `{"access_token":"upstream-token"}`,
		userinfoStatus: http.StatusOK,
		userinfoBody:   `{"data":{"user":{"sub":"abc-123"}}}`,
	}
	provider := up.start(t)
	provider.InfoIDProperty = "data.user.sub"

	id, err := NewExchanger(nil).ExternalID(context.Background(), provider, "code", "uri")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

func TestExchanger_MissingProperty(t *testing.T) {
	up := &upstream{
		tokenStatus:    http.StatusOK,
		tokenBody:      `{"access_token":"upstream-token"}`,
		userinfoStatus: http.StatusOK,
		userinfoBody:   `{"login":"octocat"}`,
	}
	provider := up.start(t)
	provider.InfoIDProperty = "sub"

	_, err := NewExchanger(nil).ExternalID(context.Background(), provider, "code", "uri")
	assert.True(t, errors.Is(err, ErrUserInfoFailed))
}

func TestExchanger_TokenEndpointRejection(t *testing.T) {
	up := &upstream{
		tokenStatus: http.StatusBadRequest,
		tokenBody:   `{"error":"invalid_grant"}`,
	}
	provider := up.start(t)

	_, err := NewExchanger(nil).ExternalID(context.Background(), provider, "bad-code", "uri")
	assert.True(t, errors.Is(err, ErrCodeExchangeFailed))
}

func TestExchanger_UserInfoRejection(t *testing.T) {
	up := &upstream{
		tokenStatus:    http.StatusOK,
		tokenBody:      `{"access_token":"upstream-token"}`,
		userinfoStatus: http.StatusForbidden,
		userinfoBody:   `{}`,
	}
	provider := up.start(t)

	_, err := NewExchanger(nil).ExternalID(context.Background(), provider, "code", "uri")
	assert.True(t, errors.Is(err, ErrUserInfoFailed))
}

func TestExchanger_UpstreamTimeout(t *testing.T) {
	up := &upstream{
		tokenStatus:    http.StatusOK,
		tokenBody:      `{"access_token":"upstream-token"}`,
		userinfoStatus: http.StatusOK,
		userinfoBody:   `{"id":1}`,
		userinfoDelay:  200 * time.Millisecond,
	}
	provider := up.start(t)

	cfg := &config.Config{OAuth: &config.OAuthConfig{UpstreamTimeout: 20 * time.Millisecond}}
	_, err := NewExchanger(cfg).ExternalID(context.Background(), provider, "code", "uri")
	// A timeout surfaces the same way as an upstream rejection.
	assert.True(t, errors.Is(err, ErrUserInfoFailed))
}
