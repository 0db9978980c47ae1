package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type LeadHandler struct {
	ListUC   *usecase.ListLeadsUseCase
	CreateUC *usecase.CreateLeadUseCase
	UpdateUC *usecase.UpdateLeadUseCase
	DeleteUC *usecase.DeleteLeadUseCase
	SeedUC   *usecase.SeedSamplesUseCase
	Boards   *usecase.BoardRegistry
	Logger   *zap.Logger
}

func NewLeadHandler(
	list *usecase.ListLeadsUseCase,
	create *usecase.CreateLeadUseCase,
	update *usecase.UpdateLeadUseCase,
	del *usecase.DeleteLeadUseCase,
	seed *usecase.SeedSamplesUseCase,
	boards *usecase.BoardRegistry,
	logger *zap.Logger,
) *LeadHandler {
	return &LeadHandler{
		ListUC:   list,
		CreateUC: create,
		UpdateUC: update,
		DeleteUC: del,
		SeedUC:   seed,
		Boards:   boards,
		Logger:   logger,
	}
}

// List (GET /leads)
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOr401(w, r)
	if !ok {
		return
	}

	leads, err := h.ListUC.Execute(r.Context(), owner)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

// Create (POST /leads)
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOr401(w, r)
	if !ok {
		return
	}

	var input usecase.LeadInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.CreateUC.Execute(r.Context(), owner, input)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	h.Boards.Invalidate(owner)
	writeJSON(w, http.StatusCreated, out.Lead)
}

// Update (PUT /leads/{id})
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOr401(w, r)
	if !ok {
		return
	}

	var input usecase.LeadInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if err := h.UpdateUC.Execute(r.Context(), owner, chi.URLParam(r, "id"), input); err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	h.Boards.Invalidate(owner)
	w.WriteHeader(http.StatusNoContent)
}

// Delete (DELETE /leads/{id})
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOr401(w, r)
	if !ok {
		return
	}

	if err := h.DeleteUC.Execute(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	h.Boards.Invalidate(owner)
	w.WriteHeader(http.StatusNoContent)
}

// SeedSamples (POST /leads/samples)
func (h *LeadHandler) SeedSamples(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOr401(w, r)
	if !ok {
		return
	}

	n, err := h.SeedUC.Execute(r.Context(), owner)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	h.Boards.Invalidate(owner)
	writeJSON(w, http.StatusCreated, map[string]int{"inserted": n})
}
