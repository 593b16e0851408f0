// Package oauth implements the Twitter account linking flow: request
// token issuance, the consent redirect, and the callback exchange that
// turns a verifier into durable access credentials. The redirect splits
// the flow into two executions that coordinate only through the
// consume-once pending store.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/autoreach/autoreach/internal/models"
	"github.com/autoreach/autoreach/internal/twitter"
)

// Provider is the subset of the Twitter client the flow drives
type Provider interface {
	RequestToken(ctx context.Context, callbackURL string) (token, secret string, err error)
	AuthorizationURL(requestToken string) string
	AccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (*twitter.AccessCredentials, error)
}

// CallbackParams are the query parameters of the provider redirect
type CallbackParams struct {
	Token    string // oauth_token
	Verifier string // oauth_verifier
	Denied   string // set when the user declined at the consent screen
}

// Flow orchestrates the linking protocol
type Flow struct {
	provider    Provider
	pending     PendingStore
	linkages    LinkageStore
	callbackURL string
}

// NewFlow creates a Flow
func NewFlow(provider Provider, pending PendingStore, linkages LinkageStore, callbackURL string) *Flow {
	return &Flow{
		provider:    provider,
		pending:     pending,
		linkages:    linkages,
		callbackURL: callbackURL,
	}
}

// Initiate obtains a request token pair from the provider, stores the
// secret half keyed by the public token, and returns the consent URL.
// Requires an authenticated user; no provider call is made otherwise.
func (f *Flow) Initiate(ctx context.Context, user *models.User) (string, error) {
	if user == nil {
		return "", ErrUnauthenticated
	}

	token, secret, err := f.provider.RequestToken(ctx, f.callbackURL)
	if err != nil {
		return "", fmt.Errorf("failed to obtain request token: %w", err)
	}

	if err := f.pending.Put(ctx, user.ID, token, secret); err != nil {
		return "", fmt.Errorf("failed to store pending request: %w", err)
	}

	log.Printf("OAuth: Initiated linking flow for user %d", user.ID)
	return f.provider.AuthorizationURL(token), nil
}

// HandleCallback runs the callback state machine. The rules are strictly
// ordered and the first match wins: session check, explicit denial,
// parameter presence, secret lookup, then the exchange itself. The
// pending secret is consumed before the exchange, so it is cleared on
// success and on every exchange failure alike.
func (f *Flow) HandleCallback(ctx context.Context, user *models.User, params CallbackParams) *Result {
	// Rule 1: session must still be valid
	if user == nil {
		return errorResult(ErrUnauthenticated, RedirectHome)
	}

	// Rule 2: explicit denial wins over everything else, including
	// well-formed token parameters. No secret read, no provider call.
	if params.Denied != "" {
		log.Printf("OAuth: User %d denied authorization", user.ID)
		return errorResult(ErrDenied, RedirectSettings)
	}

	// Rule 3: both parameters must be present
	if params.Token == "" || params.Verifier == "" {
		return errorResult(ErrMalformedCallback, RedirectSettings)
	}

	// Rule 4: the secret must still be held. Consuming it here makes
	// the exchange at-most-once per request token.
	secret, err := f.pending.Consume(ctx, params.Token)
	if err != nil {
		if !errors.Is(err, ErrSecretExpired) {
			log.Printf("OAuth: Pending store lookup failed for user %d: %v", user.ID, err)
			err = ErrSecretExpired
		}
		return errorResult(err, RedirectSettings)
	}

	// Rule 5: exchange the verifier for durable credentials
	creds, err := f.provider.AccessToken(ctx, params.Token, secret, params.Verifier)
	if err != nil {
		log.Printf("OAuth: Token exchange failed for user %d: %v", user.ID, err)
		return errorResult(fmt.Errorf("%w: %v", ErrExchangeFailed, err), RedirectSettings)
	}

	account, err := f.linkages.Upsert(ctx, user.ID, creds)
	if err != nil {
		log.Printf("OAuth: Linkage persist failed for user %d: %v", user.ID, err)
		return errorResult(err, RedirectSettings)
	}

	log.Printf("OAuth: User %d linked Twitter account @%s", user.ID, account.TwitterUsername)
	return successResult(account.TwitterUsername)
}
