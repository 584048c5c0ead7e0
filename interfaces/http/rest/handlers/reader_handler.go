package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/application/services"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/content"
	"github.com/kyle-mirich/church-fathers-reader/domain/services/highlighting"
	infcontent "github.com/kyle-mirich/church-fathers-reader/infrastructure/content"
	"github.com/kyle-mirich/church-fathers-reader/pkg/common"
	"github.com/kyle-mirich/church-fathers-reader/pkg/dom"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// ReaderHandler serves the reading corpus: the full library listing and
// individual chapters with footnote links injected and, on request, the
// caller's stored highlights painted server-side.
type ReaderHandler struct {
	provider   *infcontent.Provider
	highlights *services.HighlightService
	renderer   *highlighting.Renderer
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func NewReaderHandler(provider *infcontent.Provider, highlights *services.HighlightService, renderer *highlighting.Renderer, errors *pkgerrors.ErrorHandler, logger *zap.Logger) *ReaderHandler {
	return &ReaderHandler{
		provider:   provider,
		highlights: highlights,
		renderer:   renderer,
		errors:     errors,
		logger:     logger,
	}
}

// ChapterResponse is the wire form of one rendered chapter.
type ChapterResponse struct {
	WorkTitle    string             `json:"workTitle"`
	PartTitle    string             `json:"partTitle,omitempty"`
	ChapterTitle string             `json:"chapterTitle"`
	ChapterID    string             `json:"chapterId"`
	ContentHTML  string             `json:"contentHtml"`
	Footnotes    []content.Footnote `json:"footnotes"`
}

// GetLibrary handles GET /api/v1/reader-data
func (h *ReaderHandler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.provider.Library())
}

// GetChapter handles GET /api/v1/reader-data/chapters/{chapterID}. With
// ?decorate=true the caller's highlights for the chapter are applied to the
// returned markup.
func (h *ReaderHandler) GetChapter(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "chapterID")
	if chapterID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("chapter ID is required"))
		return
	}

	workTitle, partTitle, chapter := h.provider.FindChapter(chapterID)
	if chapter == nil {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("chapter"))
		return
	}

	contentHTML := content.InjectFootnoteLinks(chapter.ContentHTML)

	if r.URL.Query().Get("decorate") == "true" {
		decorated, err := h.decorate(r, chapterID, workTitle, chapter.ChapterTitle, contentHTML)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		contentHTML = decorated
	}

	common.RespondJSON(w, http.StatusOK, ChapterResponse{
		WorkTitle:    workTitle,
		PartTitle:    partTitle,
		ChapterTitle: chapter.ChapterTitle,
		ChapterID:    chapterID,
		ContentHTML:  contentHTML,
		Footnotes:    chapter.Footnotes,
	})
}

func (h *ReaderHandler) decorate(r *http.Request, chapterID, workTitle, chapterTitle, contentHTML string) (string, error) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		return "", pkgerrors.NewUnauthorizedError("")
	}

	stored, err := h.highlights.ListHighlights(r.Context(), userID, ports.Filter{
		WorkTitle:    workTitle,
		ChapterTitle: chapterTitle,
	})
	if err != nil {
		return "", err
	}
	if len(stored) == 0 {
		return contentHTML, nil
	}

	container, err := dom.ParseFragment(contentHTML)
	if err != nil {
		return "", pkgerrors.NewInternalError("chapter markup failed to parse").WithCause(err)
	}
	dom.SetAttr(container, "id", chapterID)

	applied := h.renderer.ApplyAll(container, stored)
	h.logger.Debug("chapter decorated",
		zap.String("chapterId", chapterID),
		zap.Int("stored", len(stored)),
		zap.Int("applied", applied),
	)

	var b strings.Builder
	if err := dom.RenderChildren(&b, container); err != nil {
		return "", pkgerrors.NewInternalError("chapter markup failed to render").WithCause(err)
	}
	return b.String(), nil
}
