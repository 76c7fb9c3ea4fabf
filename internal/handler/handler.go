package handler

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindwellhq/mindwell/internal/catalog"
	"github.com/mindwellhq/mindwell/internal/handler/views"
	appI18n "github.com/mindwellhq/mindwell/internal/i18n"
	"github.com/mindwellhq/mindwell/internal/model"
	"github.com/mindwellhq/mindwell/internal/store"
	"github.com/mindwellhq/mindwell/internal/upload"
	"github.com/mindwellhq/mindwell/internal/workflow"
)

//go:embed static
var staticFS embed.FS

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	workflow *workflow.Controller
	catalog  *catalog.Catalog
	uploads  upload.Dir
	config   model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, c *catalog.Catalog, cfg model.ServerConfig) *Handler {
	return &Handler{
		store:    s,
		workflow: workflow.New(s, c),
		catalog:  c,
		uploads:  upload.Dir{Root: cfg.UploadDir},
		config:   cfg,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	staticRoot, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix(h.config.BasePath+"/static/",
		http.FileServer(http.FS(staticRoot))))

	r.Get("/", h.handleIndex)
	r.Get("/logout", h.handleLogout)

	// HTML form routes carry the CSRF double-submit cookie.
	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)

		r.With(h.redirectIfAuthenticated).Get("/login", h.handleLoginPage)
		r.With(h.redirectIfAuthenticated).Post("/login", h.handleLogin)
		r.With(h.redirectIfAuthenticated).Get("/signup", h.handleSignupPage)
		r.With(h.redirectIfAuthenticated).Post("/signup", h.handleSignup)

		r.With(h.requireAuth).Get("/consent", h.handleConsentPage)
		r.With(h.requireAuth).Post("/consent/accept", h.handleConsentAccept)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth, h.requireConsent)

		r.Get("/dashboard", h.handleDashboard)

		r.Route("/test", func(r chi.Router) {
			r.Get("/select", h.handleTestSelect)
			r.Get("/mcq/{testType}", h.handleMCQPage)
			r.Post("/mcq", h.handleMCQSubmit)
			r.Post("/skip-mcq", h.handleMCQSkip)
			r.Get("/subjective/{testID}", h.handleSubjectivePage)
			r.Post("/upload-video", h.handleUploadVideo)
			r.Post("/complete-subjective", h.handleCompleteSubjective)
			r.Get("/results/{testID}", h.handleResults)
		})
	})

	r.NotFound(h.handleNotFound)
}

// BasePathMiddleware stores the configured base path in the request
// context so templates can build absolute links.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// path prefixes a route with the configured base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

// page assembles the shared chrome for a request.
func (h *Handler) page(r *http.Request, title string) views.Page {
	p := views.Page{
		Title:     title,
		BasePath:  h.config.BasePath,
		CSRFToken: model.CSRFTokenFromContext(r.Context()),
	}
	if sess := model.SessionFromContext(r.Context()); sess != nil {
		p.IsAuthenticated = true
		p.UserName = sess.UserName
	}
	return p
}

func renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Render(w, name, data); err != nil {
		slog.Error("render error", "page", name, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json", "error", err)
	}
}

// writeServiceError maps a workflow error onto an API response.
func writeServiceError(w http.ResponseWriter, err error) {
	se, ok := workflow.AsServiceError(err)
	if !ok {
		slog.Error("unexpected error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Something went wrong"})
		return
	}
	switch se.Code {
	case workflow.ErrorInvalid:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": se.Message})
	case workflow.ErrorForbidden:
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Unauthorized"})
	case workflow.ErrorNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": se.Message})
	case workflow.ErrorUpload:
		slog.Error("upload failed", "error", se.Unwrap())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": se.Message})
	default:
		slog.Error("request failed", "code", se.Code, "error", se.Unwrap())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Something went wrong"})
	}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if sess := h.sessionFromRequest(r); sess != nil {
		http.Redirect(w, r, h.path("/dashboard"), http.StatusSeeOther)
		return
	}
	renderPage(w, "index", struct{ Page views.Page }{h.page(r, appI18n.T(r.Context(), "AppTitle"))})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	renderPage(w, "error", views.ErrorPage{
		Page:    h.page(r, "Not Found"),
		Heading: "404 - Page Not Found",
		Message: "The page you are looking for does not exist.",
	})
}
