package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/auth"
	"github.com/sakif/gamestock/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler owns the session lifecycle: password login, registration,
// logout, the current-user endpoint, and the optional GitHub OAuth flow.
type AuthHandler struct {
	service *service.AuthService
	github  *auth.GitHubProvider // nil when OAuth is not configured
	logger  *slog.Logger
	// secureCookies marks session cookies HTTPS-only. Off in local dev.
	secureCookies bool
}

func NewAuthHandler(
	svc *service.AuthService,
	github *auth.GitHubProvider,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		service:       svc,
		github:        github,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and sets the session cookie.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"user":    res.Identity,
	})
}

// HandleRegister creates a staff account. The new user still has to log in;
// registration does not start a session, matching the login page flow.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Register(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleLogout clears the session cookie. Stateless JWTs cannot be revoked
// server-side; the token stays valid until expiry but the browser no longer
// sends it.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleCurrentUser returns the identity behind the session cookie, with the
// account's stored profile fields.
//
// HTTP: GET /api/auth/user (RequireAuth)
func (h *AuthHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.service.CurrentUser(r.Context(), ident.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleGitHubLogin starts the OAuth flow. A random state value goes into a
// short-lived cookie and must come back unchanged on the callback.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: verify state, exchange the
// code, find-or-create the account, set the session cookie.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback rejected", slog.String("reason", "state mismatch"))
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	// State is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/login?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	res, err := h.service.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("oauth login failed",
			slog.Int64("github_id", ghUser.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, res.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
