package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Middleware authenticates operator requests by session cookie, bearer token or API key
type Middleware struct {
	tokens     *TokenIssuer
	apiKey     string
	cookieName string
	logger     *zap.Logger
}

func NewMiddleware(tokens *TokenIssuer, apiKey, cookieName string, logger *zap.Logger) *Middleware {
	if cookieName == "" {
		cookieName = "adminAuth"
	}
	return &Middleware{
		tokens:     tokens,
		apiKey:     apiKey,
		cookieName: cookieName,
		logger:     logger,
	}
}

// CookieName is the session cookie set on login
func (m *Middleware) CookieName() string {
	return m.cookieName
}

// Authenticate rejects requests without a valid operator credential
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		admin, err := m.identify(r)
		if err != nil || admin == nil {
			m.logger.Warn("admin authentication failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("auth_type", string(admin.AuthType)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithAdminContext(r.Context(), admin)))
	})
}

// Identify returns the operator of the request, or nil when unauthenticated
func (m *Middleware) Identify(r *http.Request) *AdminContext {
	admin, err := m.identify(r)
	if err != nil {
		return nil
	}
	return admin
}

func (m *Middleware) identify(r *http.Request) (*AdminContext, error) {
	if key := r.Header.Get("x-api-key"); key != "" {
		if !m.validateAPIKey(key) {
			return nil, ErrInvalidToken
		}
		return &AdminContext{Subject: "api", AuthType: AuthTypeAPIKey}, nil
	}

	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return nil, ErrInvalidToken
		}
		admin, err := m.tokens.Validate(parts[1])
		if err != nil {
			return nil, err
		}
		admin.AuthType = AuthTypeBearer
		return admin, nil
	}

	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		admin, err := m.tokens.Validate(cookie.Value)
		if err != nil {
			return nil, err
		}
		admin.AuthType = AuthTypeCookie
		return admin, nil
	}

	return nil, nil
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}
