package oauth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoreach/autoreach/internal/models"
	"github.com/autoreach/autoreach/internal/twitter"
)

type fakeProvider struct {
	requestTokenCalls int
	accessTokenCalls  int

	lastCallbackURL string
	lastToken       string
	lastSecret      string
	lastVerifier    string

	requestTokenErr error
	accessTokenErr  error
	creds           *twitter.AccessCredentials
}

func (p *fakeProvider) RequestToken(ctx context.Context, callbackURL string) (string, string, error) {
	p.requestTokenCalls++
	p.lastCallbackURL = callbackURL
	if p.requestTokenErr != nil {
		return "", "", p.requestTokenErr
	}
	return "req-token", "req-secret", nil
}

func (p *fakeProvider) AuthorizationURL(requestToken string) string {
	return "https://provider.example/authorize?oauth_token=" + requestToken
}

func (p *fakeProvider) AccessToken(ctx context.Context, token, secret, verifier string) (*twitter.AccessCredentials, error) {
	p.accessTokenCalls++
	p.lastToken = token
	p.lastSecret = secret
	p.lastVerifier = verifier
	if p.accessTokenErr != nil {
		return nil, p.accessTokenErr
	}
	if p.creds != nil {
		return p.creds, nil
	}
	return &twitter.AccessCredentials{
		AccessToken:       "access-token",
		AccessTokenSecret: "access-secret",
		UserID:            "12345",
		ScreenName:        "alice",
	}, nil
}

// memoryPendingStore is a consume-once in-memory PendingStore
type memoryPendingStore struct {
	secrets      map[string]string
	consumeCalls int
}

func newMemoryPendingStore() *memoryPendingStore {
	return &memoryPendingStore{secrets: make(map[string]string)}
}

func (s *memoryPendingStore) Put(ctx context.Context, userID int, token, secret string) error {
	s.secrets[token] = secret
	return nil
}

func (s *memoryPendingStore) Consume(ctx context.Context, token string) (string, error) {
	s.consumeCalls++
	secret, ok := s.secrets[token]
	if !ok {
		return "", ErrSecretExpired
	}
	delete(s.secrets, token)
	return secret, nil
}

type fakeLinkageStore struct {
	upsertErr error
	accounts  map[int]*models.TwitterAccount
}

func newFakeLinkageStore() *fakeLinkageStore {
	return &fakeLinkageStore{accounts: make(map[int]*models.TwitterAccount)}
}

func (s *fakeLinkageStore) Upsert(ctx context.Context, userID int, creds *twitter.AccessCredentials) (*models.TwitterAccount, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	account := &models.TwitterAccount{
		UserID:          userID,
		TwitterUserID:   creds.UserID,
		TwitterUsername: creds.ScreenName,
	}
	s.accounts[userID] = account
	return account, nil
}

func (s *fakeLinkageStore) Get(ctx context.Context, userID int) (*models.TwitterAccount, error) {
	return s.accounts[userID], nil
}

func (s *fakeLinkageStore) Credentials(ctx context.Context, userID int) (*twitter.AccessCredentials, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeLinkageStore) Delete(ctx context.Context, userID int) error {
	delete(s.accounts, userID)
	return nil
}

func newTestFlow() (*Flow, *fakeProvider, *memoryPendingStore, *fakeLinkageStore) {
	provider := &fakeProvider{}
	pending := newMemoryPendingStore()
	linkages := newFakeLinkageStore()
	flow := NewFlow(provider, pending, linkages, "https://app.example/auth/twitter/callback")
	return flow, provider, pending, linkages
}

func testUser() *models.User {
	return &models.User{ID: 7, Username: "alice"}
}

func TestInitiateRequiresUser(t *testing.T) {
	flow, provider, _, _ := newTestFlow()

	_, err := flow.Initiate(context.Background(), nil)

	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 0, provider.requestTokenCalls, "no provider call without a session")
}

func TestInitiateStoresSecretAndReturnsConsentURL(t *testing.T) {
	flow, provider, pending, _ := newTestFlow()

	consentURL, err := flow.Initiate(context.Background(), testUser())

	require.NoError(t, err)
	assert.Equal(t, "https://provider.example/authorize?oauth_token=req-token", consentURL)
	assert.Equal(t, "https://app.example/auth/twitter/callback", provider.lastCallbackURL)
	assert.Equal(t, "req-secret", pending.secrets["req-token"])
}

func TestInitiateProviderFailure(t *testing.T) {
	flow, provider, pending, _ := newTestFlow()
	provider.requestTokenErr = errors.New("rate limited")

	_, err := flow.Initiate(context.Background(), testUser())

	require.Error(t, err)
	assert.Empty(t, pending.secrets, "no secret stored on provider failure")
}

func TestCallbackWithoutSession(t *testing.T) {
	flow, provider, pending, _ := newTestFlow()
	pending.secrets["req-token"] = "req-secret"

	result := flow.HandleCallback(context.Background(), nil, CallbackParams{
		Token:    "req-token",
		Verifier: "verifier",
	})

	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, ErrUnauthenticated)
	assert.Equal(t, RedirectHome, result.Redirect)
	assert.Equal(t, 0, provider.accessTokenCalls, "no exchange without a session")
	assert.Equal(t, 0, pending.consumeCalls, "secret untouched without a session")
}

func TestCallbackDeniedWinsOverWellFormedParams(t *testing.T) {
	flow, provider, pending, _ := newTestFlow()
	pending.secrets["req-token"] = "req-secret"

	// Denial with token and verifier present: the denial still wins
	result := flow.HandleCallback(context.Background(), testUser(), CallbackParams{
		Token:    "req-token",
		Verifier: "verifier",
		Denied:   "req-token",
	})

	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, ErrDenied)
	assert.Equal(t, RedirectSettings, result.Redirect)
	assert.Equal(t, 0, provider.accessTokenCalls)
	assert.Equal(t, 0, pending.consumeCalls, "denial short-circuits before the secret is read")
	assert.Contains(t, pending.secrets, "req-token", "secret left in place on denial")
}

func TestCallbackMissingParams(t *testing.T) {
	cases := []struct {
		name   string
		params CallbackParams
	}{
		{"no token", CallbackParams{Verifier: "verifier"}},
		{"no verifier", CallbackParams{Token: "req-token"}},
		{"neither", CallbackParams{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flow, provider, pending, _ := newTestFlow()
			pending.secrets["req-token"] = "req-secret"

			result := flow.HandleCallback(context.Background(), testUser(), tc.params)

			assert.Equal(t, StatusError, result.Status)
			assert.ErrorIs(t, result.Err, ErrMalformedCallback)
			assert.Equal(t, 0, provider.accessTokenCalls)
		})
	}
}

func TestCallbackSecretExpired(t *testing.T) {
	flow, provider, _, _ := newTestFlow()

	result := flow.HandleCallback(context.Background(), testUser(), CallbackParams{
		Token:    "unknown-token",
		Verifier: "verifier",
	})

	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, ErrSecretExpired)
	assert.Equal(t, 0, provider.accessTokenCalls, "no exchange without the secret")
}

type wrappingPendingStore struct {
	err error
}

func (s *wrappingPendingStore) Put(ctx context.Context, userID int, token, secret string) error {
	return nil
}

func (s *wrappingPendingStore) Consume(ctx context.Context, token string) (string, error) {
	return "", s.err
}

func TestCallbackSecretExpiredWrapped(t *testing.T) {
	// A store may wrap the sentinel; rule 4 must still match it
	provider := &fakeProvider{}
	pending := &wrappingPendingStore{err: fmt.Errorf("redis: %w", ErrSecretExpired)}
	flow := NewFlow(provider, pending, newFakeLinkageStore(), "https://app.example/auth/twitter/callback")

	result := flow.HandleCallback(context.Background(), testUser(), CallbackParams{
		Token:    "req-token",
		Verifier: "verifier",
	})

	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, ErrSecretExpired)
	assert.Equal(t, 0, provider.accessTokenCalls)
}

func TestCallbackSuccess(t *testing.T) {
	flow, provider, pending, linkages := newTestFlow()
	ctx := context.Background()
	user := testUser()

	_, err := flow.Initiate(ctx, user)
	require.NoError(t, err)

	result := flow.HandleCallback(ctx, user, CallbackParams{
		Token:    "req-token",
		Verifier: "verifier",
	})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "alice", result.TwitterUsername)
	assert.Equal(t, RedirectSettings, result.Redirect)
	assert.Equal(t, SuccessRedirectDelay.Milliseconds(), result.RedirectDelayMS)
	assert.NoError(t, result.Err)

	// Exchange ran exactly once, signed with the stored secret
	assert.Equal(t, 1, provider.accessTokenCalls)
	assert.Equal(t, "req-token", provider.lastToken)
	assert.Equal(t, "req-secret", provider.lastSecret)
	assert.Equal(t, "verifier", provider.lastVerifier)

	// Secret is gone and the linkage is durable
	assert.Empty(t, pending.secrets)
	account := linkages.accounts[user.ID]
	require.NotNil(t, account)
	assert.Equal(t, "alice", account.TwitterUsername)
	assert.Equal(t, "12345", account.TwitterUserID)
}

func TestCallbackReplayAfterSuccess(t *testing.T) {
	flow, provider, _, _ := newTestFlow()
	ctx := context.Background()
	user := testUser()

	_, err := flow.Initiate(ctx, user)
	require.NoError(t, err)

	params := CallbackParams{Token: "req-token", Verifier: "verifier"}

	first := flow.HandleCallback(ctx, user, params)
	require.Equal(t, StatusSuccess, first.Status)

	second := flow.HandleCallback(ctx, user, params)

	assert.Equal(t, StatusError, second.Status)
	assert.ErrorIs(t, second.Err, ErrSecretExpired)
	assert.Equal(t, 1, provider.accessTokenCalls, "replay must not reach the provider")
}

func TestCallbackExchangeFailure(t *testing.T) {
	flow, provider, pending, linkages := newTestFlow()
	ctx := context.Background()
	user := testUser()
	provider.accessTokenErr = errors.New("invalid verifier")

	_, err := flow.Initiate(ctx, user)
	require.NoError(t, err)

	result := flow.HandleCallback(ctx, user, CallbackParams{
		Token:    "req-token",
		Verifier: "bad-verifier",
	})

	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, ErrExchangeFailed)
	assert.Contains(t, result.Message, "invalid verifier")
	assert.Equal(t, ErrorRedirectDelay.Milliseconds(), result.RedirectDelayMS)

	assert.Nil(t, linkages.accounts[user.ID], "no linkage on exchange failure")
	assert.Empty(t, pending.secrets, "secret consumed even when the exchange fails")
}

func TestCallbackPersistenceFailure(t *testing.T) {
	flow, _, pending, linkages := newTestFlow()
	ctx := context.Background()
	user := testUser()
	linkages.upsertErr = fmt.Errorf("%w: connection reset", ErrPersistenceFailed)

	_, err := flow.Initiate(ctx, user)
	require.NoError(t, err)

	result := flow.HandleCallback(ctx, user, CallbackParams{
		Token:    "req-token",
		Verifier: "verifier",
	})

	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, ErrPersistenceFailed)
	assert.Empty(t, pending.secrets, "secret stays consumed on persist failure")
}

func TestRelinkReplacesPriorLinkage(t *testing.T) {
	flow, provider, _, linkages := newTestFlow()
	ctx := context.Background()
	user := testUser()

	_, err := flow.Initiate(ctx, user)
	require.NoError(t, err)
	first := flow.HandleCallback(ctx, user, CallbackParams{Token: "req-token", Verifier: "v1"})
	require.Equal(t, StatusSuccess, first.Status)

	provider.creds = &twitter.AccessCredentials{
		AccessToken:       "other-token",
		AccessTokenSecret: "other-secret",
		UserID:            "67890",
		ScreenName:        "bob",
	}

	_, err = flow.Initiate(ctx, user)
	require.NoError(t, err)
	second := flow.HandleCallback(ctx, user, CallbackParams{Token: "req-token", Verifier: "v2"})
	require.Equal(t, StatusSuccess, second.Status)

	account := linkages.accounts[user.ID]
	require.NotNil(t, account)
	assert.Equal(t, "bob", account.TwitterUsername)
	assert.Equal(t, "67890", account.TwitterUserID)
}
