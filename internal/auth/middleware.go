package auth

import (
	"context"
	"net/http"

	"github.com/sakif/gamestock/internal/model"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the identity value.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth is the session guard: it reads the token cookie, verifies it,
// and stores the resulting identity in the request context. A missing or
// invalid token ends the request with 401 — the handler never runs.
//
// The guard is a pure function of the incoming request: no storage access,
// no mutation. Whatever the token says, goes (see the package comment for
// the stale-identity tradeoff).
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractIdentity(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is the authorization policy for the privileged action set:
// inventory mutations and uploads. It must run after RequireAuth; an
// authenticated non-admin gets 403 and the handler never runs.
//
// There are exactly two roles, and admin is the only privileged one, so the
// policy is a single equality check rather than a role-set lookup.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				// RequireAuth was not in the chain — treat as unauthenticated
				// rather than leaking a 403 to an anonymous caller.
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}
			if id.Role != model.RoleAdmin {
				http.Error(w, `{"error":"forbidden","message":"admin access required"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithIdentity returns a context carrying id, exactly as RequireAuth
// stores it after verifying a token.
func ContextWithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated identity set by RequireAuth.
// The second return is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok && id.ID > 0
}

// CanModifyProfile reports whether id may modify targetUserID's profile.
// Users edit only their own profile; role is irrelevant — admins get no
// special access to other accounts.
func CanModifyProfile(id model.Identity, targetUserID int64) bool {
	return id.ID == targetUserID
}

// extractIdentity reads the session cookie and verifies it.
func extractIdentity(r *http.Request, tokens *TokenService) (model.Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie — anonymous request
		return model.Identity{}, err
	}

	return tokens.Verify(cookie.Value)
}
