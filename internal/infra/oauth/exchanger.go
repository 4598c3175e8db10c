// Package oauth implements the outbound half of external OAuth2
// authentication: exchanging an authorization code with an upstream identity
// provider and resolving the external account id from its userinfo endpoint.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gatehouse/config"
	"gatehouse/internal/domain/entity"
	"gatehouse/internal/errors"
)

const defaultUpstreamTimeout = 5 * time.Second

// Exchange failures. Upstream response bodies are never attached to these
// errors so they cannot leak into client-facing messages.
var (
	// ErrCodeExchangeFailed is returned when the upstream token endpoint rejects the code.
	ErrCodeExchangeFailed = errors.New("could not exchange code for access token")
	// ErrUserInfoFailed is returned when the upstream userinfo endpoint cannot be read.
	ErrUserInfoFailed = errors.New("could not get user information from provider")
)

// Exchanger resolves an authorization code to an external account id against
// one upstream provider. Implemented over plain HTTP with a bounded
// per-request budget; a timeout surfaces the same way as a non-2xx response.
type Exchanger struct {
	client  *http.Client
	timeout time.Duration
}

// NewExchanger is the constructor for Exchanger.
func NewExchanger(cfg *config.Config) *Exchanger {
	timeout := defaultUpstreamTimeout
	if cfg != nil && cfg.OAuth != nil && cfg.OAuth.UpstreamTimeout > 0 {
		timeout = cfg.OAuth.UpstreamTimeout
	}

	return &Exchanger{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// ExternalID exchanges the code at the provider's token endpoint, fetches the
// userinfo document with the resulting access token and extracts the external
// account id via the provider's configured property path.
func (e *Exchanger) ExternalID(ctx context.Context, provider *entity.OAuthProvider, code, redirectURI string) (string, error) {
	accessToken, err := e.exchangeCode(ctx, provider, code, redirectURI)
	if err != nil {
		return "", err
	}

	info, err := e.fetchUserInfo(ctx, provider, accessToken)
	if err != nil {
		return "", err
	}

	property := provider.InfoIDProperty
	if property == "" {
		property = "id"
	}
	id, ok := lookupPath(info, property)
	if !ok {
		return "", errors.Wrapf(ErrUserInfoFailed, "property %q absent from userinfo", property)
	}

	return id, nil
}

func (e *Exchanger) exchangeCode(ctx context.Context, provider *entity.OAuthProvider, code, redirectURI string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	form := url.Values{
		"client_id":     {provider.ClientID},
		"client_secret": {provider.ClientSecret},
		"redirect_uri":  {redirectURI},
		"grant_type":    {"authorization_code"},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", errors.Wrap(ErrCodeExchangeFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Wrapf(ErrCodeExchangeFailed, "upstream status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", errors.Wrap(ErrCodeExchangeFailed, "decode token response")
	}
	if body.AccessToken == "" {
		return "", errors.Wrap(ErrCodeExchangeFailed, "empty access token")
	}

	return body.AccessToken, nil
}

func (e *Exchanger) fetchUserInfo(ctx context.Context, provider *entity.OAuthProvider, accessToken string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.InfoURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build userinfo request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrUserInfoFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(ErrUserInfoFailed, "upstream status %d", resp.StatusCode)
	}

	var info map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, errors.Wrap(ErrUserInfoFailed, "decode userinfo response")
	}

	return info, nil
}

// lookupPath walks a dot-separated property path through nested JSON objects
// and renders the leaf as a string. Numeric ids are common (GitHub), so
// numbers are formatted without an exponent.
func lookupPath(doc map[string]any, path string) (string, bool) {
	var current any = doc
	for _, segment := range strings.Split(path, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current, ok = object[segment]
		if !ok {
			return "", false
		}
	}

	switch v := current.(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return formatNumber(v), true
	default:
		return "", false
	}
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}

	return fmt.Sprintf("%v", v)
}
