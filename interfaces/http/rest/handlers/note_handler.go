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

// maxBodyBytes caps request bodies across all annotation endpoints.
const maxBodyBytes = 1 << 20

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	notes  *services.NoteService
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(notes *services.NoteService, errors *pkgerrors.ErrorHandler, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{
		notes:  notes,
		errors: errors,
		logger: logger,
	}
}

// CreateNoteRequest represents the request body for creating a note. The
// anchor fields arrive flattened alongside the note's own fields; an empty
// selectedText means the note has no anchor.
type CreateNoteRequest struct {
	WorkTitle    string `json:"workTitle" validate:"required,max=300"`
	PartTitle    string `json:"partTitle,omitempty" validate:"max=300"`
	ChapterTitle string `json:"chapterTitle" validate:"required,max=300"`
	Title        string `json:"title,omitempty" validate:"max=300"`
	Content      string `json:"content" validate:"required"`
	NoteType     string `json:"noteType,omitempty"`
	anchor.Anchor
	Tags     []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
	IsPublic bool     `json:"isPublic,omitempty"`
}

// UpdateNoteRequest represents the request body for updating a note. Nil
// fields are left untouched.
type UpdateNoteRequest struct {
	Title    *string        `json:"title,omitempty" validate:"omitempty,max=300"`
	Content  *string        `json:"content,omitempty"`
	NoteType *string        `json:"noteType,omitempty"`
	Tags     []string       `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
	IsPublic *bool          `json:"isPublic,omitempty"`
	Anchor   *anchor.Anchor `json:"anchor,omitempty"`
}

// CreateNote handles POST /api/v1/notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
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

	input := services.CreateNoteInput{
		WorkTitle:    req.WorkTitle,
		PartTitle:    req.PartTitle,
		ChapterTitle: req.ChapterTitle,
		Title:        req.Title,
		Content:      req.Content,
		NoteType:     req.NoteType,
		Anchor:       requestAnchor(req.Anchor),
		Tags:         req.Tags,
		IsPublic:     req.IsPublic,
	}

	note, err := h.notes.CreateNote(r.Context(), userID, input)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, toNoteResponse(note))
}

// GetNote handles GET /api/v1/notes/{noteID}
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	if noteID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("note ID is required"))
		return
	}

	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	note, err := h.notes.GetNote(r.Context(), userID, noteID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toNoteResponse(note))
}

// ListNotes handles GET /api/v1/notes
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	filter := ports.Filter{
		WorkTitle:    r.URL.Query().Get("workTitle"),
		ChapterTitle: r.URL.Query().Get("chapterTitle"),
	}

	notes, err := h.notes.ListNotes(r.Context(), userID, filter)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"notes": toNoteResponses(notes),
		"count": len(notes),
	})
}

// UpdateNote handles PUT /api/v1/notes/{noteID}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	if noteID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("note ID is required"))
		return
	}

	var req UpdateNoteRequest
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

	input := services.UpdateNoteInput{
		Title:    req.Title,
		Content:  req.Content,
		NoteType: req.NoteType,
		Tags:     req.Tags,
		IsPublic: req.IsPublic,
		Anchor:   req.Anchor,
	}

	note, err := h.notes.UpdateNote(r.Context(), userID, noteID, input)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toNoteResponse(note))
}

// DeleteNote handles DELETE /api/v1/notes/{noteID}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	if noteID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("note ID is required"))
		return
	}

	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	if err := h.notes.DeleteNote(r.Context(), userID, noteID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestAnchor lifts the flattened anchor fields out of a request body. An
// empty selectedText means no anchor was sent.
func requestAnchor(a anchor.Anchor) *anchor.Anchor {
	if a.Text == "" {
		return nil
	}
	return &a
}
