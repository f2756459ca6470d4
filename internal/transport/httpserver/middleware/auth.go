package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"menu-app-go/internal/auth"
	"menu-app-go/internal/domain/access"
	userdomain "menu-app-go/internal/domain/user"
	"menu-app-go/pkg/logger"
)

type contextKey int

const callerKey contextKey = iota

// UserLookup verifies Basic credentials and reloads token subjects.
type UserLookup interface {
	Authenticate(ctx context.Context, username, password string) (*userdomain.User, error)
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
}

type Auth struct {
	tokens *auth.Issuer
	users  UserLookup
	log    logger.Logger
}

func NewAuth(tokens *auth.Issuer, users UserLookup, log logger.Logger) *Auth {
	return &Auth{tokens: tokens, users: users, log: log}
}

// Identify resolves the Authorization header into a caller. Requests without
// credentials continue as anonymous; bad credentials are rejected.
func (a *Auth) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), access.Anonymous())))
			return
		}

		caller, err := a.resolve(r, header)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, userdomain.ErrInvalidCredentials) {
				a.log.InternalError("auth: resolve caller failed", err)
				writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
				return
			}
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RequireUser rejects anonymous callers. It must run after Identify.
func (a *Auth) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CallerFromContext(r.Context()).Authenticated() {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) resolve(r *http.Request, header string) (access.Caller, error) {
	if token, ok := bearerToken(header); ok {
		identity, err := a.tokens.Validate(token)
		if err != nil {
			return access.Caller{}, err
		}
		// Flags come from the stored user so demotions apply to live tokens.
		user, err := a.users.GetByID(r.Context(), identity.UserID)
		if err != nil {
			if errors.Is(err, userdomain.ErrUserNotFound) {
				return access.Caller{}, auth.ErrInvalidToken
			}
			return access.Caller{}, err
		}
		return access.User(user.ID, user.Username, user.IsStaff, user.IsSuperuser), nil
	}

	if username, password, ok := r.BasicAuth(); ok {
		user, err := a.users.Authenticate(r.Context(), username, password)
		if err != nil {
			return access.Caller{}, err
		}
		return access.User(user.ID, user.Username, user.IsStaff, user.IsSuperuser), nil
	}

	return access.Caller{}, auth.ErrInvalidToken
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithCaller(ctx context.Context, caller access.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns Anonymous when no caller was attached.
func CallerFromContext(ctx context.Context) access.Caller {
	caller, ok := ctx.Value(callerKey).(access.Caller)
	if !ok {
		return access.Anonymous()
	}
	return caller
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
