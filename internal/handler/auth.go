package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mindwellhq/mindwell/internal/handler/views"
	appI18n "github.com/mindwellhq/mindwell/internal/i18n"
	"github.com/mindwellhq/mindwell/internal/model"
)

const (
	sessionCookieName = "mindwell_session"
	csrfCookieName    = "csrf_token"

	minPasswordLength = 6
)

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func (h *Handler) setCSRFCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: false,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" || r.Method == "HEAD" {
			token, err := generateCSRFToken()
			if err != nil {
				slog.Error("failed to generate CSRF token", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			h.setCSRFCookie(w, token)
			ctx := model.ContextWithCSRFToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			slog.Warn("CSRF cookie missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		formToken := r.FormValue("csrf_token")
		if formToken == "" {
			slog.Warn("CSRF form token missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		if len(formToken) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
			slog.Warn("CSRF token mismatch")
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		token, err := generateCSRFToken()
		if err != nil {
			slog.Error("failed to generate CSRF token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		h.setCSRFCookie(w, token)

		ctx := model.ContextWithCSRFToken(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromRequest resolves the session cookie to a live auth session,
// or nil when the request is anonymous.
func (h *Handler) sessionFromRequest(r *http.Request) *model.AuthSession {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := h.store.GetAuthSession(cookie.Value)
	if err != nil {
		slog.Error("failed to get auth session", "error", err)
		return nil
	}
	return sess
}

// requireAuth is middleware that checks for a valid session cookie.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := h.sessionFromRequest(r)
		if sess == nil {
			h.redirectToLogin(w, r)
			return
		}

		user, err := h.store.GetUserByID(sess.UserID)
		if err != nil || user == nil {
			h.redirectToLogin(w, r)
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		ctx = model.ContextWithSession(ctx, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireConsent redirects to the consent page until the user has
// accepted. The session caches the flag; a stale false is refreshed
// from the store so acceptance in another tab is picked up.
func (h *Handler) requireConsent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := model.SessionFromContext(r.Context())
		if sess == nil {
			h.redirectToLogin(w, r)
			return
		}
		if sess.ConsentAccepted {
			next.ServeHTTP(w, r)
			return
		}

		user := model.UserFromContext(r.Context())
		if user != nil && user.ConsentAccepted {
			if err := h.store.SetSessionConsent(sess.ID, true); err != nil {
				slog.Error("failed to update session consent", "error", err)
			}
			sess.ConsentAccepted = true
			next.ServeHTTP(w, r)
			return
		}

		http.Redirect(w, r, h.path("/consent"), http.StatusSeeOther)
	})
}

// redirectIfAuthenticated sends logged-in users straight to the dashboard.
func (h *Handler) redirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := h.sessionFromRequest(r); sess != nil {
			http.Redirect(w, r, h.path("/dashboard"), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
		return
	}
	http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
}

// isAPIRequest distinguishes the JSON/upload endpoints from page and
// form requests, which expect redirects instead of status codes.
func isAPIRequest(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/json") ||
		strings.HasPrefix(ct, "multipart/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, "login", views.AuthPage{Page: h.page(r, "Login")})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.renderLoginError(w, r, appI18n.T(r.Context(), "LoginFieldsRequired"))
		return
	}

	user, err := h.store.GetUserByEmail(email)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		h.renderLoginError(w, r, appI18n.T(r.Context(), "LoginError"))
		return
	}
	if user == nil {
		h.renderLoginError(w, r, appI18n.T(r.Context(), "LoginError"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		h.renderLoginError(w, r, appI18n.T(r.Context(), "LoginError"))
		return
	}

	h.startSession(w, r, user)
}

func (h *Handler) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, "signup", views.AuthPage{Page: h.page(r, "Sign Up")})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	ageStr := strings.TrimSpace(r.FormValue("age"))
	gender := strings.TrimSpace(r.FormValue("gender"))

	if name == "" || email == "" || password == "" || ageStr == "" || gender == "" {
		h.renderSignupError(w, r, appI18n.T(r.Context(), "SignupFieldsRequired"))
		return
	}
	if len(password) < minPasswordLength {
		h.renderSignupError(w, r, appI18n.T(r.Context(), "PasswordTooShort"))
		return
	}
	age, err := strconv.Atoi(ageStr)
	if err != nil || age <= 0 {
		h.renderSignupError(w, r, appI18n.T(r.Context(), "SignupFieldsRequired"))
		return
	}

	existing, err := h.store.GetUserByEmail(email)
	if err != nil {
		slog.Error("failed to check email", "error", err)
		h.renderSignupError(w, r, appI18n.T(r.Context(), "GenericError"))
		return
	}
	if existing != nil {
		h.renderSignupError(w, r, appI18n.T(r.Context(), "EmailTaken"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		h.renderSignupError(w, r, appI18n.T(r.Context(), "GenericError"))
		return
	}

	user := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Age:          age,
		Gender:       gender,
	}
	id, err := h.store.CreateUser(user)
	if err != nil {
		slog.Error("failed to create user", "error", err)
		h.renderSignupError(w, r, appI18n.T(r.Context(), "GenericError"))
		return
	}
	user.ID = id

	h.startSession(w, r, &user)
}

// startSession issues a session cookie and routes the user to the
// consent page or the dashboard depending on their consent state.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *model.User) {
	consented := user.ConsentAccepted
	token, err := h.store.CreateAuthSession(user.ID, user.Name, consented)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})

	if consented {
		http.Redirect(w, r, h.path("/dashboard"), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.path("/consent"), http.StatusSeeOther)
}

func (h *Handler) handleConsentPage(w http.ResponseWriter, r *http.Request) {
	sess := model.SessionFromContext(r.Context())
	user := model.UserFromContext(r.Context())
	if sess != nil && !sess.ConsentAccepted && user != nil && user.ConsentAccepted {
		// Accepted in another session; refresh the cached flag.
		if err := h.store.SetSessionConsent(sess.ID, true); err != nil {
			slog.Error("failed to update session consent", "error", err)
		}
		sess.ConsentAccepted = true
	}
	if sess != nil && sess.ConsentAccepted {
		http.Redirect(w, r, h.path("/dashboard"), http.StatusSeeOther)
		return
	}
	renderPage(w, "consent", views.ConsentPage{
		Page:   h.page(r, appI18n.T(r.Context(), "ConsentTitle")),
		Body:   appI18n.T(r.Context(), "ConsentBody"),
		Accept: appI18n.T(r.Context(), "ConsentAccept"),
	})
}

func (h *Handler) handleConsentAccept(w http.ResponseWriter, r *http.Request) {
	sess := model.SessionFromContext(r.Context())
	if sess == nil {
		h.redirectToLogin(w, r)
		return
	}

	if err := h.store.AcceptConsent(sess.UserID); err != nil {
		slog.Error("failed to record consent", "error", err)
		http.Redirect(w, r, h.path("/consent"), http.StatusSeeOther)
		return
	}
	if err := h.store.SetSessionConsent(sess.ID, true); err != nil {
		slog.Error("failed to update session consent", "error", err)
	}

	http.Redirect(w, r, h.path("/dashboard"), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.store.DeleteAuthSession(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	if err := views.Render(w, "login", views.AuthPage{Page: h.page(r, "Login"), Error: msg}); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) renderSignupError(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	if err := views.Render(w, "signup", views.AuthPage{Page: h.page(r, "Sign Up"), Error: msg}); err != nil {
		slog.Error("render error", "error", err)
	}
}
