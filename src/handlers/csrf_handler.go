package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/username/cryptofolio/backend/src/config"
	"github.com/username/cryptofolio/backend/src/logger"
)

const csrfCookieName = "_csrf_token"

// GetCSRFToken issues a fresh double-submit token: the same signed value is
// set as an HttpOnly cookie and returned in the body/header for the client to
// echo back in X-CSRF-Token on state-changing requests.
func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := newCSRFToken(config.Cfg.CSRFAuthKey)

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   false, // set to true behind HTTPS
		MaxAge:   3600,
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-CSRF-Token", token)
	json.NewEncoder(w).Encode(map[string]string{
		"csrfToken": token,
	})
}

// newCSRFToken returns "<random>.<hmac>" so the middleware can verify the
// token was issued by this server before trusting the double-submit pair.
func newCSRFToken(authKey []byte) string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logger.L.Error("Error generating random bytes for CSRF token", "error", err)
		b = []byte(fmt.Sprintf("%032d", time.Now().UnixNano()))
	}
	mac := hmac.New(sha256.New, authKey)
	mac.Write(b)
	return base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func validCSRFToken(authKey []byte, token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, authKey)
	mac.Write(raw)
	return hmac.Equal(sig, mac.Sum(nil))
}

// CSRFMiddleware validates the double-submit pair on every state-changing
// request: the X-CSRF-Token header must match the CSRF cookie and carry a
// valid signature under authKey.
func CSRFMiddleware(authKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Preflights and safe reads skip validation; the token endpoint
			// itself is a GET.
			if r.Method == http.MethodOptions || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if headerToken != "" && err == nil &&
				hmac.Equal([]byte(headerToken), []byte(cookie.Value)) &&
				validCSRFToken(authKey, headerToken) {
				next.ServeHTTP(w, r)
				return
			}

			logger.L.Warn("CSRF validation failed", "method", r.Method, "path", r.URL.Path, "hasHeaderToken", headerToken != "", "cookieErr", err)
			http.Error(w, "CSRF token validation failed", http.StatusForbidden)
		})
	}
}
