package twitter

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// signer produces OAuth 1.0a Authorization headers (RFC 5849, HMAC-SHA1)
type signer struct {
	consumerKey    string
	consumerSecret string

	// Overridable for deterministic tests
	nonce     func() string
	timestamp func() string
}

func newSigner(consumerKey, consumerSecret string) *signer {
	return &signer{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		nonce:          generateNonce,
		timestamp: func() string {
			return fmt.Sprintf("%d", time.Now().Unix())
		},
	}
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "=")
}

// AuthorizationHeader builds the OAuth header for a request. extra holds
// protocol parameters beyond the standard set (oauth_callback,
// oauth_token, oauth_verifier). query holds request query parameters that
// must be folded into the signature base string.
func (s *signer) AuthorizationHeader(method, rawURL, tokenSecret string, extra, query url.Values) string {
	oauthParams := url.Values{}
	oauthParams.Set("oauth_consumer_key", s.consumerKey)
	oauthParams.Set("oauth_nonce", s.nonce())
	oauthParams.Set("oauth_signature_method", "HMAC-SHA1")
	oauthParams.Set("oauth_timestamp", s.timestamp())
	oauthParams.Set("oauth_version", "1.0")
	for k, vs := range extra {
		for _, v := range vs {
			oauthParams.Set(k, v)
		}
	}

	signature := s.sign(method, rawURL, tokenSecret, oauthParams, query)
	oauthParams.Set("oauth_signature", signature)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", percentEncode(k), percentEncode(oauthParams.Get(k))))
	}

	return "OAuth " + strings.Join(pairs, ", ")
}

func (s *signer) sign(method, rawURL, tokenSecret string, oauthParams, query url.Values) string {
	// Collect all parameters that participate in the signature
	all := url.Values{}
	for k, vs := range oauthParams {
		for _, v := range vs {
			all.Add(k, v)
		}
	}
	for k, vs := range query {
		for _, v := range vs {
			all.Add(k, v)
		}
	}

	base := signatureBase(method, rawURL, all)
	key := percentEncode(s.consumerSecret) + "&" + percentEncode(tokenSecret)

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signatureBase(method, rawURL string, params url.Values) string {
	encoded := make([]string, 0, len(params))
	for k, vs := range params {
		for _, v := range vs {
			encoded = append(encoded, percentEncode(k)+"="+percentEncode(v))
		}
	}
	sort.Strings(encoded)

	return strings.ToUpper(method) + "&" +
		percentEncode(rawURL) + "&" +
		percentEncode(strings.Join(encoded, "&"))
}

// percentEncode implements the strict RFC 3986 encoding OAuth 1.0a
// requires; url.QueryEscape differs on spaces and tildes
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
