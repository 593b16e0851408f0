package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/models"
	"github.com/autoreach/autoreach/internal/oauth"
)

// ConnectResponse carries the provider consent URL
type ConnectResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

// HandleTwitterConnect initiates the account linking flow
func HandleTwitterConnect(flow *oauth.Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		authURL, err := flow.Initiate(r.Context(), user)
		if err != nil {
			log.Println("Twitter: Failed to initiate linking flow:", err)
			http.Error(w, "Failed to start Twitter authorization", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ConnectResponse{AuthorizationURL: authURL})
	}
}

// HandleTwitterCallback processes the provider redirect. The route sits
// outside the auth group so an expired session still yields a flow
// result the frontend can render, not a bare 401.
func HandleTwitterCallback(db *gorm.DB, jwtSecret string, flow *oauth.Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := resolveUser(r, jwtSecret, db)

		params := oauth.CallbackParams{
			Token:    r.URL.Query().Get("oauth_token"),
			Verifier: r.URL.Query().Get("oauth_verifier"),
			Denied:   r.URL.Query().Get("denied"),
		}

		result := flow.HandleCallback(r.Context(), user, params)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// TwitterStatusResponse reports whether a Twitter account is linked
type TwitterStatusResponse struct {
	Connected       bool   `json:"connected"`
	TwitterUsername string `json:"twitter_username,omitempty"`
	TwitterUserID   string `json:"twitter_user_id,omitempty"`
}

// HandleTwitterStatus returns the current linkage state
func HandleTwitterStatus(linkages oauth.LinkageStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		account, err := linkages.Get(r.Context(), user.ID)
		if err != nil {
			log.Println("Twitter: Failed to load linkage:", err)
			http.Error(w, "Failed to load Twitter status", http.StatusInternalServerError)
			return
		}

		resp := TwitterStatusResponse{}
		if account != nil {
			resp.Connected = true
			resp.TwitterUsername = account.TwitterUsername
			resp.TwitterUserID = account.TwitterUserID
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// HandleTwitterDisconnect removes the linkage. Provider credentials are
// not revoked at Twitter; the user can revoke the app from their
// account settings.
func HandleTwitterDisconnect(linkages oauth.LinkageStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		if err := linkages.Delete(r.Context(), user.ID); err != nil {
			log.Println("Twitter: Failed to delete linkage:", err)
			http.Error(w, "Failed to disconnect Twitter account", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": "Twitter account disconnected successfully"}`))
	}
}

// resolveUser loads the user from a bearer token if one is present and
// valid; returns nil otherwise
func resolveUser(r *http.Request, jwtSecret string, db *gorm.DB) *models.User {
	authHeader := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" || tokenString == authHeader {
		return nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	uid, ok := claims["user_id"].(float64)
	if !ok {
		return nil
	}

	var user models.User
	if err := db.Where("id = ?", int(uid)).First(&user).Error; err != nil {
		return nil
	}
	return &user
}
