package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoreach/autoreach/internal/models"
	"github.com/autoreach/autoreach/internal/oauth"
	"github.com/autoreach/autoreach/internal/twitter"
)

type stubProvider struct{}

func (stubProvider) RequestToken(ctx context.Context, callbackURL string) (string, string, error) {
	return "req-token", "req-secret", nil
}

func (stubProvider) AuthorizationURL(requestToken string) string {
	return "https://api.twitter.com/oauth/authorize?oauth_token=" + requestToken
}

func (stubProvider) AccessToken(ctx context.Context, token, secret, verifier string) (*twitter.AccessCredentials, error) {
	return &twitter.AccessCredentials{
		AccessToken:       "access-token",
		AccessTokenSecret: "access-secret",
		UserID:            "12345",
		ScreenName:        "alice",
	}, nil
}

type stubPendingStore struct {
	secrets map[string]string
}

func (s *stubPendingStore) Put(ctx context.Context, userID int, token, secret string) error {
	s.secrets[token] = secret
	return nil
}

func (s *stubPendingStore) Consume(ctx context.Context, token string) (string, error) {
	secret, ok := s.secrets[token]
	if !ok {
		return "", oauth.ErrSecretExpired
	}
	delete(s.secrets, token)
	return secret, nil
}

type stubLinkageStore struct {
	accounts map[int]*models.TwitterAccount
}

func (s *stubLinkageStore) Upsert(ctx context.Context, userID int, creds *twitter.AccessCredentials) (*models.TwitterAccount, error) {
	account := &models.TwitterAccount{
		UserID:          userID,
		TwitterUserID:   creds.UserID,
		TwitterUsername: creds.ScreenName,
	}
	s.accounts[userID] = account
	return account, nil
}

func (s *stubLinkageStore) Get(ctx context.Context, userID int) (*models.TwitterAccount, error) {
	return s.accounts[userID], nil
}

func (s *stubLinkageStore) Credentials(ctx context.Context, userID int) (*twitter.AccessCredentials, error) {
	return nil, nil
}

func (s *stubLinkageStore) Delete(ctx context.Context, userID int) error {
	delete(s.accounts, userID)
	return nil
}

func newHandlerTestFlow() (*oauth.Flow, *stubLinkageStore) {
	linkages := &stubLinkageStore{accounts: make(map[int]*models.TwitterAccount)}
	pending := &stubPendingStore{secrets: make(map[string]string)}
	flow := oauth.NewFlow(stubProvider{}, pending, linkages, "https://app.example/auth/twitter/callback")
	return flow, linkages
}

func withUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, user))
}

func TestHandleTwitterConnect(t *testing.T) {
	flow, _ := newHandlerTestFlow()
	handler := HandleTwitterConnect(flow)

	req := withUser(httptest.NewRequest("POST", "/api/twitter/connect", nil), &models.User{ID: 7})
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConnectResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "https://api.twitter.com/oauth/authorize?oauth_token=req-token", resp.AuthorizationURL)
}

func TestHandleTwitterCallbackWithoutSession(t *testing.T) {
	flow, _ := newHandlerTestFlow()
	handler := HandleTwitterCallback(nil, "jwt-secret", flow)

	req := httptest.NewRequest("GET", "/api/twitter/callback?oauth_token=req-token&oauth_verifier=v", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	// The result is always renderable JSON, never a bare 401
	require.Equal(t, http.StatusOK, rec.Code)

	var result oauth.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, oauth.StatusError, result.Status)
	assert.Equal(t, oauth.ErrUnauthenticated.Error(), result.Message)
	assert.Equal(t, oauth.RedirectHome, result.Redirect)
	assert.Equal(t, oauth.ErrorRedirectDelay.Milliseconds(), result.RedirectDelayMS)
}

func TestHandleTwitterStatus(t *testing.T) {
	_, linkages := newHandlerTestFlow()
	linkages.accounts[7] = &models.TwitterAccount{
		UserID:          7,
		TwitterUserID:   "12345",
		TwitterUsername: "alice",
	}
	handler := HandleTwitterStatus(linkages)

	req := withUser(httptest.NewRequest("GET", "/api/twitter/status", nil), &models.User{ID: 7})
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TwitterStatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Connected)
	assert.Equal(t, "alice", resp.TwitterUsername)
}

func TestHandleTwitterStatusNotConnected(t *testing.T) {
	_, linkages := newHandlerTestFlow()
	handler := HandleTwitterStatus(linkages)

	req := withUser(httptest.NewRequest("GET", "/api/twitter/status", nil), &models.User{ID: 7})
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TwitterStatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Connected)
	assert.Empty(t, resp.TwitterUsername)
}

func TestHandleTwitterDisconnect(t *testing.T) {
	_, linkages := newHandlerTestFlow()
	linkages.accounts[7] = &models.TwitterAccount{UserID: 7, TwitterUsername: "alice"}
	handler := HandleTwitterDisconnect(linkages)

	req := withUser(httptest.NewRequest("DELETE", "/api/twitter/disconnect", nil), &models.User{ID: 7})
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, linkages.accounts[7])
}
