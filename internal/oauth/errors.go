package oauth

import "errors"

// Flow errors. Every failure is terminal for the current linking attempt
// and leaves no partial state; the user can restart the flow after any of
// them. ErrPersistenceFailed is special: the provider exchange already
// succeeded, so the linkage store retries before this surfaces.
var (
	// ErrUnauthenticated means the platform session was missing or
	// invalid at initiation or callback time
	ErrUnauthenticated = errors.New("must be logged in")

	// ErrDenied means the user declined authorization at the provider
	ErrDenied = errors.New("authorization denied")

	// ErrMalformedCallback means the provider redirect was missing the
	// oauth_token or oauth_verifier parameter
	ErrMalformedCallback = errors.New("missing OAuth parameters")

	// ErrSecretExpired means the request token secret was expired,
	// already consumed, or never stored
	ErrSecretExpired = errors.New("token secret not found, restart the flow")

	// ErrExchangeFailed means the provider rejected or errored the
	// access token exchange
	ErrExchangeFailed = errors.New("provider token exchange failed")

	// ErrPersistenceFailed means the linkage write failed after a
	// successful exchange
	ErrPersistenceFailed = errors.New("failed to save linked account")
)
