package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type ImportHandler struct {
	Sessions *usecase.ImportSessionStore
	Importer *usecase.ImportLeadsUseCase
	Boards   *usecase.BoardRegistry
	MaxBytes int64
	Logger   *zap.Logger
	now      func() time.Time
}

func NewImportHandler(
	sessions *usecase.ImportSessionStore,
	importer *usecase.ImportLeadsUseCase,
	boards *usecase.BoardRegistry,
	maxBytes int64,
	logger *zap.Logger,
) *ImportHandler {
	return &ImportHandler{
		Sessions: sessions,
		Importer: importer,
		Boards:   boards,
		MaxBytes: maxBytes,
		Logger:   logger,
		now:      time.Now,
	}
}

// Template (GET /imports/template)
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+usecase.TemplateFileName+`"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, usecase.LeadsTemplateCSV)
}

// Upload (POST /imports) takes a raw CSV body or a multipart "file" field,
// parses it and opens a session in the preview step.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOr401(w, r)
	if !ok {
		return
	}

	text, err := h.readUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	session := h.Sessions.Create(owner)
	if err := session.Parse(text, h.now()); err != nil {
		h.Sessions.Remove(session.ID)
		writeUseCaseError(w, h.Logger, err)
		return
	}

	view := session.View()
	h.Logger.Info("import parsed",
		zap.String("owner_id", owner),
		zap.String("session_id", session.ID),
		zap.Int("valid", view.Valid),
		zap.Int("invalid", view.Invalid))
	writeJSON(w, http.StatusCreated, view)
}

func (h *ImportHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
			return "", err
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return "", errors.New(`multipart upload must carry a "file" field`)
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// writeUploadError answers 413 when the body hit MaxBytes, 400 otherwise.
func writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeErrorResponse(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "import file is too large")
		return
	}
	writeErrorResponse(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
}

func (h *ImportHandler) session(w http.ResponseWriter, r *http.Request) (*usecase.ImportSession, bool) {
	owner, ok := ownerOr401(w, r)
	if !ok {
		return nil, false
	}
	s, err := h.Sessions.Get(owner, chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return nil, false
	}
	return s, true
}

// Get (GET /imports/{id})
func (h *ImportHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// Commit (POST /imports/{id}/commit)
func (h *ImportHandler) Commit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := s.Commit(r.Context(), h.Importer, h.now())
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	middleware.RecordImport(res.Inserted, res.Rejected)
	h.Boards.Invalidate(s.OwnerID)
	writeJSON(w, http.StatusOK, res)
}

// Back (POST /imports/{id}/back)
func (h *ImportHandler) Back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Back(h.now()); err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// Cancel (DELETE /imports/{id})
func (h *ImportHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Cancel(h.now()); err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	h.Sessions.Remove(s.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Reupload (PUT /imports/{id}) parses a new file into a session that was sent
// back to the upload step.
func (h *ImportHandler) Reupload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	text, err := h.readUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	if err := s.Parse(text, h.now()); err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}
