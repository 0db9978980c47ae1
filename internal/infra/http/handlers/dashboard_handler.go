package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type DashboardHandler struct {
	UC     *usecase.GetDashboardUseCase
	Logger *zap.Logger
}

func NewDashboardHandler(uc *usecase.GetDashboardUseCase, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{UC: uc, Logger: logger}
}

// Get (GET /dashboard)
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOr401(w, r)
	if !ok {
		return
	}

	stats, err := h.UC.Execute(r.Context(), owner)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
