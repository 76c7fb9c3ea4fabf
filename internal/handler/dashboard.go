package handler

import (
	"log/slog"
	"net/http"

	"github.com/mindwellhq/mindwell/internal/handler/views"
	appI18n "github.com/mindwellhq/mindwell/internal/i18n"
	"github.com/mindwellhq/mindwell/internal/model"
)

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	attempts, err := h.workflow.RecentAttempts(user.ID)
	if err != nil {
		// The dashboard still renders with an empty history rather
		// than turning a listing failure into an error page.
		slog.Error("failed to list attempts", "user_id", user.ID, "error", err)
		attempts = nil
	}

	renderPage(w, "dashboard", views.DashboardPage{
		Page:     h.page(r, "Dashboard"),
		Greeting: appI18n.Td(r.Context(), "DashboardGreeting", map[string]any{"Name": user.Name}),
		Attempts: attempts,
	})
}
