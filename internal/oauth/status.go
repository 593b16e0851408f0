package oauth

import "time"

// FlowStatus is the state of a linking attempt as seen by the dashboard.
// Loading is the only initial state; Success and Error are terminal and
// a flow never returns to Loading.
type FlowStatus string

const (
	StatusLoading FlowStatus = "loading"
	StatusSuccess FlowStatus = "success"
	StatusError   FlowStatus = "error"
)

// Redirect destinations after a terminal state
const (
	RedirectSettings = "settings"
	RedirectHome     = "home"
)

// Redirect delays. Short on success, longer on error so the message can
// be read. The frontend owns the timer and cancels it on teardown.
const (
	SuccessRedirectDelay = 2 * time.Second
	ErrorRedirectDelay   = 5 * time.Second
)

// Result is the terminal outcome of a callback
type Result struct {
	Status          FlowStatus    `json:"status"`
	Message         string        `json:"message"`
	TwitterUsername string        `json:"twitter_username,omitempty"`
	Redirect        string        `json:"redirect"`
	RedirectDelay   time.Duration `json:"-"`
	RedirectDelayMS int64         `json:"redirect_delay_ms"`

	// Err carries the flow sentinel for callers that branch on the
	// failure class; it is not serialized
	Err error `json:"-"`
}

func successResult(username string) *Result {
	return &Result{
		Status:          StatusSuccess,
		Message:         "Twitter account connected successfully",
		TwitterUsername: username,
		Redirect:        RedirectSettings,
		RedirectDelay:   SuccessRedirectDelay,
		RedirectDelayMS: SuccessRedirectDelay.Milliseconds(),
	}
}

func errorResult(err error, redirect string) *Result {
	return &Result{
		Status:          StatusError,
		Message:         err.Error(),
		Redirect:        redirect,
		RedirectDelay:   ErrorRedirectDelay,
		RedirectDelayMS: ErrorRedirectDelay.Milliseconds(),
		Err:             err,
	}
}
