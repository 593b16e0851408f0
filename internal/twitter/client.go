package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/autoreach/autoreach/internal/config"
)

// Client talks to the Twitter API using OAuth 1.0a user context
type Client struct {
	signer     *signer
	httpClient *http.Client

	// Endpoint roots, overridable in tests
	oauthBaseURL string
	apiBaseURL   string
}

// AccessCredentials is the durable credential pair returned by the
// access-token exchange, plus the identity fields Twitter includes
type AccessCredentials struct {
	AccessToken       string
	AccessTokenSecret string
	UserID            string
	ScreenName        string
}

// TweetMetrics holds public engagement counts for a single tweet
type TweetMetrics struct {
	TweetID     string
	Likes       int
	Retweets    int
	Replies     int
	Quotes      int
	Impressions int
}

// UserProfile holds public account info and follower counts
type UserProfile struct {
	ID             string
	Username       string
	Name           string
	FollowersCount int
	FollowingCount int
	TweetCount     int
}

// NewClient creates a Twitter API client
func NewClient(cfg *config.TwitterConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("Twitter integration is not enabled")
	}

	return &Client{
		signer: newSigner(cfg.ConsumerKey, cfg.ConsumerSecret),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		oauthBaseURL: "https://api.twitter.com",
		apiBaseURL:   "https://api.twitter.com/2",
	}, nil
}

// RequestToken obtains a temporary credential pair from Twitter and
// confirms the callback was accepted
func (c *Client) RequestToken(ctx context.Context, callbackURL string) (token, secret string, err error) {
	endpoint := c.oauthBaseURL + "/oauth/request_token"

	extra := url.Values{}
	extra.Set("oauth_callback", callbackURL)

	body, err := c.doOAuth(ctx, endpoint, "", extra)
	if err != nil {
		return "", "", err
	}

	values, err := url.ParseQuery(body)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse request token response: %w", err)
	}

	if values.Get("oauth_callback_confirmed") != "true" {
		return "", "", fmt.Errorf("provider did not confirm the callback URL")
	}

	token = values.Get("oauth_token")
	secret = values.Get("oauth_token_secret")
	if token == "" || secret == "" {
		return "", "", fmt.Errorf("request token response missing credentials")
	}

	return token, secret, nil
}

// AuthorizationURL returns the consent screen URL for a request token
func (c *Client) AuthorizationURL(requestToken string) string {
	params := url.Values{}
	params.Set("oauth_token", requestToken)
	return c.oauthBaseURL + "/oauth/authorize?" + params.Encode()
}

// AccessToken exchanges a verified request token for durable access
// credentials. The request token secret signs the exchange and is not
// needed afterwards.
func (c *Client) AccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (*AccessCredentials, error) {
	endpoint := c.oauthBaseURL + "/oauth/access_token"

	extra := url.Values{}
	extra.Set("oauth_token", requestToken)
	extra.Set("oauth_verifier", verifier)

	body, err := c.doOAuth(ctx, endpoint, requestSecret, extra)
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token response: %w", err)
	}

	creds := &AccessCredentials{
		AccessToken:       values.Get("oauth_token"),
		AccessTokenSecret: values.Get("oauth_token_secret"),
		UserID:            values.Get("user_id"),
		ScreenName:        values.Get("screen_name"),
	}

	if creds.AccessToken == "" || creds.AccessTokenSecret == "" {
		return nil, fmt.Errorf("access token response missing credentials")
	}

	return creds, nil
}

// doOAuth performs a signed POST against an OAuth 1.0a endpoint and
// returns the form-encoded response body
func (c *Client) doOAuth(ctx context.Context, endpoint, tokenSecret string, extra url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}
	req.Header.Set("Authorization", c.signer.AuthorizationHeader("POST", endpoint, tokenSecret, extra, nil))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OAuth request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return string(body), nil
}

// PostTweet posts a tweet on behalf of the linked account
func (c *Client) PostTweet(ctx context.Context, creds *AccessCredentials, text string) (string, error) {
	endpoint := c.apiBaseURL + "/tweets"

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("failed to encode tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("failed to create tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.signRequest(req, creds, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tweet request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("tweet request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode tweet response: %w", err)
	}

	if result.Data.ID == "" {
		return "", fmt.Errorf("tweet response missing id")
	}

	return result.Data.ID, nil
}

// GetMe fetches the authenticated account's profile
func (c *Client) GetMe(ctx context.Context, creds *AccessCredentials) (*UserProfile, error) {
	endpoint := c.apiBaseURL + "/users/me"
	query := url.Values{}
	query.Set("user.fields", "public_metrics")

	return c.getProfile(ctx, creds, endpoint, query)
}

// GetUserByUsername fetches a public profile by handle
func (c *Client) GetUserByUsername(ctx context.Context, creds *AccessCredentials, username string) (*UserProfile, error) {
	endpoint := c.apiBaseURL + "/users/by/username/" + url.PathEscape(username)
	query := url.Values{}
	query.Set("user.fields", "public_metrics")

	return c.getProfile(ctx, creds, endpoint, query)
}

func (c *Client) getProfile(ctx context.Context, creds *AccessCredentials, endpoint string, query url.Values) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	c.signRequest(req, creds, query)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("user request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Data struct {
			ID            string `json:"id"`
			Username      string `json:"username"`
			Name          string `json:"name"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
				FollowingCount int `json:"following_count"`
				TweetCount     int `json:"tweet_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}

	return &UserProfile{
		ID:             result.Data.ID,
		Username:       result.Data.Username,
		Name:           result.Data.Name,
		FollowersCount: result.Data.PublicMetrics.FollowersCount,
		FollowingCount: result.Data.PublicMetrics.FollowingCount,
		TweetCount:     result.Data.PublicMetrics.TweetCount,
	}, nil
}

// GetTweetMetrics fetches public engagement counts for a tweet
func (c *Client) GetTweetMetrics(ctx context.Context, creds *AccessCredentials, tweetID string) (*TweetMetrics, error) {
	endpoint := c.apiBaseURL + "/tweets/" + url.PathEscape(tweetID)
	query := url.Values{}
	query.Set("tweet.fields", "public_metrics")

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics request: %w", err)
	}
	c.signRequest(req, creds, query)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metrics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("metrics request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Data struct {
			ID            string `json:"id"`
			PublicMetrics struct {
				LikeCount       int `json:"like_count"`
				RetweetCount    int `json:"retweet_count"`
				ReplyCount      int `json:"reply_count"`
				QuoteCount      int `json:"quote_count"`
				ImpressionCount int `json:"impression_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode metrics response: %w", err)
	}

	return &TweetMetrics{
		TweetID:     result.Data.ID,
		Likes:       result.Data.PublicMetrics.LikeCount,
		Retweets:    result.Data.PublicMetrics.RetweetCount,
		Replies:     result.Data.PublicMetrics.ReplyCount,
		Quotes:      result.Data.PublicMetrics.QuoteCount,
		Impressions: result.Data.PublicMetrics.ImpressionCount,
	}, nil
}

func (c *Client) signRequest(req *http.Request, creds *AccessCredentials, query url.Values) {
	extra := url.Values{}
	extra.Set("oauth_token", creds.AccessToken)

	base := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path
	req.Header.Set("Authorization", c.signer.AuthorizationHeader(req.Method, base, creds.AccessTokenSecret, extra, query))
}
