package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type BoardHandler struct {
	Boards *usecase.BoardRegistry
	Logger *zap.Logger
}

func NewBoardHandler(boards *usecase.BoardRegistry, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{Boards: boards, Logger: logger}
}

type MoveStageRequest struct {
	Stage string `json:"stage"`
}

type MoveStageResponse struct {
	Lead    *entity.Lead `json:"lead"`
	Changed bool         `json:"changed"`
}

// ReconciledResponse is sent when the store rejected a move; Columns is the
// freshly fetched board (empty if that fetch failed too).
type ReconciledResponse struct {
	ErrorResponse
	Columns []usecase.BoardColumn `json:"columns"`
}

// Get (GET /board)
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOr401(w, r)
	if !ok {
		return
	}

	cols, err := h.Boards.For(owner).Load(r.Context())
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

// MoveStage (PATCH /leads/{id}/stage)
func (h *BoardHandler) MoveStage(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOr401(w, r)
	if !ok {
		return
	}

	var req MoveStageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	stage, valid := entity.ParseStage(strings.TrimSpace(req.Stage))
	if !valid {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeInvalidStage,
			"stage must be one of: "+strings.Join(entity.StageLabels(), ", "))
		return
	}

	board := h.Boards.For(owner)
	res, err := board.Move(r.Context(), chi.URLParam(r, "id"), stage)
	if err != nil {
		var se *usecase.StoreError
		if res.Reconciled && errors.As(err, &se) {
			middleware.RecordStageMove("reconciled")
			middleware.RecordStoreError(se.Op)
			h.Logger.Warn("stage move reconciled",
				zap.String("owner_id", owner), zap.Error(err))
			_, body := errorStatus(err)
			writeJSON(w, http.StatusBadGateway, ReconciledResponse{
				ErrorResponse: body,
				Columns:       board.Columns(),
			})
			return
		}
		writeUseCaseError(w, h.Logger, err)
		return
	}

	if res.Changed {
		middleware.RecordStageMove("ok")
	}
	writeJSON(w, http.StatusOK, MoveStageResponse{Lead: res.Lead, Changed: res.Changed})
}
