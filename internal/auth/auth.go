// Package auth verifies interactive sessions against Stack Auth and checks
// the shared secret on scheduled calls.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/fpang/lora-autoposter/internal/metrics"
)

// DefaultStackAPIURL is the hosted Stack Auth API.
const DefaultStackAPIURL = "https://api.stack-auth.com"

// Session token locations.
const (
	AccessTokenHeader = "x-stack-access-token"
	AccessTokenCookie = "stack-access"
)

const (
	verifyTimeout   = 10 * time.Second
	sessionCacheTTL = time.Minute
)

// User is the subset of a Stack Auth user this service reads.
type User struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	PrimaryEmail string `json:"primary_email"`
}

// StackVerifier resolves a request's session token to a Stack Auth user
// with the server key. Accepted tokens are cached briefly.
type StackVerifier struct {
	httpClient *http.Client
	baseURL    string
	projectID  string
	secretKey  string
	sessions   *cache.Cache
}

// NewStackVerifier creates a verifier. An empty baseURL uses DefaultStackAPIURL.
func NewStackVerifier(baseURL, projectID, secretKey string) *StackVerifier {
	if baseURL == "" {
		baseURL = DefaultStackAPIURL
	}
	return &StackVerifier{
		httpClient: &http.Client{Timeout: verifyTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		projectID:  projectID,
		secretKey:  secretKey,
		sessions:   cache.New(sessionCacheTTL, 5*time.Minute),
	}
}

// Verify returns the signed-in user for r or a *ValidationError.
func (v *StackVerifier) Verify(ctx context.Context, r *http.Request) (*User, error) {
	if v.projectID == "" || v.secretKey == "" {
		return nil, &ValidationError{Type: ErrTypeNotConfigured, Message: "session auth is not configured"}
	}
	token := AccessToken(r)
	if token == "" {
		return nil, &ValidationError{Type: ErrTypeNoToken, Message: "no session token"}
	}

	key := tokenKey(token)
	if cached, ok := v.sessions.Get(key); ok {
		return cached.(*User), nil
	}

	start := time.Now()
	user, err := v.fetchUser(ctx, token)
	result := "success"
	if err != nil {
		result = "unknown"
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			result = vErr.Type.String()
		}
	}
	metrics.New(metrics.Namespace).
		Dimension("Result", result).
		Duration(metrics.SessionVerifyMs, time.Since(start)).
		Count(metrics.SessionVerifyResult).
		Flush()
	if err != nil {
		log.Debug().Err(err).Str("result", result).Msg("Session rejected")
		return nil, err
	}

	v.sessions.Set(key, user, cache.DefaultExpiration)
	log.Debug().Str("userId", user.ID).Dur("duration", time.Since(start)).Msg("Session verified")
	return user, nil
}

func (v *StackVerifier) fetchUser(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/api/v1/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build Stack Auth request: %w", err)
	}
	req.Header.Set("x-stack-access-type", "server")
	req.Header.Set("x-stack-project-id", v.projectID)
	req.Header.Set("x-stack-secret-server-key", v.secretKey)
	req.Header.Set(AccessTokenHeader, token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, &ValidationError{Type: ErrTypeNetworkError, Message: "Stack Auth unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, &ValidationError{Type: ErrTypeNetworkError, Message: "read Stack Auth response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, string(body))
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, &ValidationError{Type: ErrTypeUnknown, Message: "decode Stack Auth user", Err: err}
	}
	if user.ID == "" {
		return nil, &ValidationError{Type: ErrTypeInvalidToken, Message: "Stack Auth returned no user"}
	}
	return &user, nil
}

// AccessToken extracts the session token from the x-stack-access-token
// header, a Bearer Authorization header, or the stack-access cookie.
// The cookie may hold the token itself or a JSON array whose last element
// is the access token.
func AccessToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(AccessTokenHeader)); t != "" {
		return t
	}
	if t := bearerToken(r.Header.Get("Authorization")); t != "" {
		return t
	}
	raw := cookieValue(r, AccessTokenCookie)
	if strings.HasPrefix(raw, "[") {
		var parts []string
		if json.Unmarshal([]byte(raw), &parts) == nil && len(parts) > 0 {
			return strings.TrimSpace(parts[len(parts)-1])
		}
	}
	return raw
}

// cookieValue reads name from the raw Cookie headers. http.Request.Cookie
// drops values containing quotes, which rules out the JSON-array form.
// Percent-encoded values are decoded.
func cookieValue(r *http.Request, name string) string {
	for _, line := range r.Header.Values("Cookie") {
		for _, part := range strings.Split(line, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
			if !ok || k != name {
				continue
			}
			if decoded, err := url.PathUnescape(v); err == nil {
				v = decoded
			}
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var bearerPrefix = regexp.MustCompile(`(?i)^Bearer\s+`)

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if !bearerPrefix.MatchString(header) {
		return ""
	}
	return strings.TrimSpace(bearerPrefix.ReplaceAllString(header, ""))
}

// CronAuthorized reports whether r may trigger a scheduled cycle. An empty
// secret allows every caller. Otherwise the Authorization header, with any
// case-insensitive "Bearer " prefix removed, must equal secret.
func CronAuthorized(r *http.Request, secret string) bool {
	if secret == "" {
		return true
	}
	got := bearerPrefix.ReplaceAllString(strings.TrimSpace(r.Header.Get("Authorization")), "")
	return subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
