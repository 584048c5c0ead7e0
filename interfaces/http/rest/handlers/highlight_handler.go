package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/application/services"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	"github.com/kyle-mirich/church-fathers-reader/pkg/common"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
	"github.com/kyle-mirich/church-fathers-reader/pkg/utils"
)

// HighlightHandler handles highlight-related HTTP requests
type HighlightHandler struct {
	highlights *services.HighlightService
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewHighlightHandler creates a new highlight handler
func NewHighlightHandler(highlights *services.HighlightService, errors *pkgerrors.ErrorHandler, logger *zap.Logger) *HighlightHandler {
	return &HighlightHandler{
		highlights: highlights,
		errors:     errors,
		logger:     logger,
	}
}

// CreateHighlightRequest represents the request body for creating a
// highlight. The anchor is mandatory and arrives flattened.
type CreateHighlightRequest struct {
	WorkTitle    string `json:"workTitle" validate:"required,max=300"`
	PartTitle    string `json:"partTitle,omitempty" validate:"max=300"`
	ChapterTitle string `json:"chapterTitle" validate:"required,max=300"`
	anchor.Anchor
	Color  string `json:"color,omitempty"`
	NoteID string `json:"noteId,omitempty"`
}

// UpdateHighlightRequest represents the request body for updating a
// highlight. Only color and the note reference are mutable; an explicit
// empty noteId detaches the note.
type UpdateHighlightRequest struct {
	Color  *string `json:"color,omitempty"`
	NoteID *string `json:"noteId,omitempty"`
}

// CreateHighlight handles POST /api/v1/highlights
func (h *HighlightHandler) CreateHighlight(w http.ResponseWriter, r *http.Request) {
	var req CreateHighlightRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	input := services.CreateHighlightInput{
		WorkTitle:    req.WorkTitle,
		PartTitle:    req.PartTitle,
		ChapterTitle: req.ChapterTitle,
		Anchor:       req.Anchor,
		Color:        req.Color,
		NoteID:       req.NoteID,
	}

	highlight, err := h.highlights.CreateHighlight(r.Context(), userID, input)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, toHighlightResponse(highlight))
}

// GetHighlight handles GET /api/v1/highlights/{highlightID}
func (h *HighlightHandler) GetHighlight(w http.ResponseWriter, r *http.Request) {
	highlightID := chi.URLParam(r, "highlightID")
	if highlightID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("highlight ID is required"))
		return
	}

	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	highlight, err := h.highlights.GetHighlight(r.Context(), userID, highlightID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toHighlightResponse(highlight))
}

// ListHighlights handles GET /api/v1/highlights
func (h *HighlightHandler) ListHighlights(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	filter := ports.Filter{
		WorkTitle:    r.URL.Query().Get("workTitle"),
		ChapterTitle: r.URL.Query().Get("chapterTitle"),
	}

	highlights, err := h.highlights.ListHighlights(r.Context(), userID, filter)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"highlights": toHighlightResponses(highlights),
		"count":      len(highlights),
	})
}

// UpdateHighlight handles PUT /api/v1/highlights/{highlightID}
func (h *HighlightHandler) UpdateHighlight(w http.ResponseWriter, r *http.Request) {
	highlightID := chi.URLParam(r, "highlightID")
	if highlightID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("highlight ID is required"))
		return
	}

	var req UpdateHighlightRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	input := services.UpdateHighlightInput{
		Color:  req.Color,
		NoteID: req.NoteID,
	}

	highlight, err := h.highlights.UpdateHighlight(r.Context(), userID, highlightID, input)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toHighlightResponse(highlight))
}

// DeleteHighlight handles DELETE /api/v1/highlights/{highlightID}
func (h *HighlightHandler) DeleteHighlight(w http.ResponseWriter, r *http.Request) {
	highlightID := chi.URLParam(r, "highlightID")
	if highlightID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("highlight ID is required"))
		return
	}

	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	if err := h.highlights.DeleteHighlight(r.Context(), userID, highlightID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
