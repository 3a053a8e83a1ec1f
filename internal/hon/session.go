package hon

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/s-dimaio/JavahOn-sub000/internal/command"
)

// expirySkew treats tokens about to expire as already expired.
const expirySkew = 30 * time.Second

// Session holds the cloud tokens attached to every request.
//
// Thread Safety: All methods are safe for concurrent use.
type Session struct {
	mu           sync.RWMutex
	idToken      string
	cognitoToken string
	now          func() time.Time
}

// NewSession creates a session from raw tokens. Either may be empty.
func NewSession(idToken, cognitoToken string) *Session {
	return &Session{idToken: idToken, cognitoToken: cognitoToken, now: time.Now}
}

// SetTokens replaces both tokens.
func (s *Session) SetTokens(idToken, cognitoToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idToken = idToken
	s.cognitoToken = cognitoToken
}

// Expiry returns the exp claim of the id token.
//
// The token signature is not verified; the cloud does that. The second
// return value is false when the token is empty, is not a JWT, or has no
// exp claim.
func (s *Session) Expiry() (time.Time, bool) {
	s.mu.RLock()
	raw := s.idToken
	s.mu.RUnlock()
	return tokenExpiry(raw)
}

func tokenExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Check reports whether the session can authenticate a request.
//
// Returns:
//   - error: wraps command.ErrMissingCredentials when the id token is
//     empty or expired; nil otherwise. Opaque (non-JWT) tokens pass.
func (s *Session) Check() error {
	if s == nil {
		return fmt.Errorf("%w: no session", command.ErrMissingCredentials)
	}
	s.mu.RLock()
	raw := s.idToken
	s.mu.RUnlock()

	if raw == "" {
		return fmt.Errorf("%w: id token not set", command.ErrMissingCredentials)
	}
	if exp, ok := tokenExpiry(raw); ok && !s.now().Add(expirySkew).Before(exp) {
		return fmt.Errorf("%w: id token expired at %s", command.ErrMissingCredentials, exp.UTC().Format(time.RFC3339))
	}
	return nil
}

// apply sets the authentication headers on req.
func (s *Session) apply(req *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req.Header.Set("id-token", s.idToken)
	if s.cognitoToken != "" {
		req.Header.Set("cognito-token", s.cognitoToken)
	}
}
