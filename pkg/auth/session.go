// Package auth manages bearer-token authentication against the Typo API.
package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ajitpratap0/tap-typo/pkg/clients"
	"github.com/ajitpratap0/tap-typo/pkg/errors"
	"github.com/ajitpratap0/tap-typo/pkg/metrics"
)

// Credentials identify the caller to the token endpoint.
type Credentials struct {
	APIKey    string
	APISecret string
}

type tokenRequest struct {
	APIKey string `json:"apikey"`
	Secret string `json:"secret"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Session holds the current bearer token and performs authenticated GETs.
// It is not safe for concurrent use; the tap syncs one stream at a time.
type Session struct {
	baseURL string
	creds   Credentials
	client  clients.Requester
	logger  *zap.Logger
	token   *oauth2.Token
}

// NewSession creates a session for the API rooted at baseURL.
func NewSession(baseURL string, creds Credentials, client clients.Requester, logger *zap.Logger) *Session {
	return &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		client:  client,
		logger:  logger.With(zap.String("component", "auth")),
	}
}

// Token returns the cached token, requesting one if none is held.
func (s *Session) Token(ctx context.Context) (*oauth2.Token, error) {
	if s.token.Valid() {
		return s.token, nil
	}
	return s.requestToken(ctx, "initial")
}

// Invalidate drops the cached token.
func (s *Session) Invalidate() {
	s.token = nil
}

// requestToken POSTs the credentials to /token. Any status other than 200
// is an authentication error carrying the remote message.
func (s *Session) requestToken(ctx context.Context, reason string) (*oauth2.Token, error) {
	metrics.TokenRequests.WithLabelValues(reason).Inc()
	s.logger.Debug("requesting token", zap.String("reason", reason))

	resp, err := s.client.Do(ctx, &clients.Request{
		Method: http.MethodPost,
		URL:    s.baseURL + "/token",
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   tokenRequest{APIKey: s.creds.APIKey, Secret: s.creds.APISecret},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "token request failed")
	}

	if resp.StatusCode != http.StatusOK {
		message := resp.Message()
		s.logger.Error("token request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("remote_message", message))
		return nil, errors.Newf(errors.ErrorTypeAuthentication, "token request rejected with status %d: %s", resp.StatusCode, message).
			WithDetail(errors.DetailStatusCode, resp.StatusCode).
			WithDetail(errors.DetailMessage, message)
	}

	var body tokenResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.Token == "" {
		return nil, errors.New(errors.ErrorTypeAuthentication, "token response did not contain a token")
	}

	s.token = &oauth2.Token{AccessToken: body.Token, TokenType: "Bearer"}
	return s.token, nil
}

// Get performs an authenticated GET. A 401 response triggers exactly one
// token refresh and one retry; the retry's response is returned as-is.
func (s *Session) Get(ctx context.Context, target string, params url.Values) (*clients.Response, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.get(ctx, token, target, params)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	s.logger.Info("token rejected, re-authenticating", zap.String("url", target))
	s.Invalidate()
	token, err = s.requestToken(ctx, "refresh")
	if err != nil {
		return nil, err
	}
	return s.get(ctx, token, target, params)
}

func (s *Session) get(ctx context.Context, token *oauth2.Token, target string, params url.Values) (*clients.Response, error) {
	return s.client.Do(ctx, &clients.Request{
		Method: http.MethodGet,
		URL:    target,
		Params: params,
		Header: http.Header{"Authorization": []string{token.Type() + " " + token.AccessToken}},
	})
}

// URL joins path onto the session's base URL.
func (s *Session) URL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}
