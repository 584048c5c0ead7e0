package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kyle-mirich/church-fathers-reader/application/services"
	"github.com/kyle-mirich/church-fathers-reader/domain/services/highlighting"
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/config"
	infcontent "github.com/kyle-mirich/church-fathers-reader/infrastructure/content"
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/persistence/memory"
	"github.com/kyle-mirich/church-fathers-reader/interfaces/http/rest/handlers"
	"github.com/kyle-mirich/church-fathers-reader/interfaces/http/rest/middleware"
	"github.com/kyle-mirich/church-fathers-reader/pkg/auth"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

const testLibraryJSON = `{
  "works": [
    {
      "work_title": "Confessions",
      "parts": [
        {
          "part_title": "Book I",
          "chapters": [
            {
              "chapter_title": "Chapter 1",
              "content_html": "<p>Thou hast made us for Thyself, and our heart is restless until it repose in Thee.<sup class=\"footnote-ref\" data-note-id=\"1\">1</sup></p>",
              "footnotes": [{"id": 1, "text": "Augustine opens with the famous invocation."}]
            }
          ]
        }
      ]
    }
  ]
}`

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)

	libPath := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(libPath, []byte(testLibraryJSON), 0o644))
	provider, err := infcontent.NewProvider(libPath, logger)
	require.NoError(t, err)
	t.Cleanup(provider.Close)

	noteRepo := memory.NewNoteRepository()
	highlightRepo := memory.NewHighlightRepository()
	noteSvc := services.NewNoteService(noteRepo, highlightRepo, logger)
	highlightSvc := services.NewHighlightService(highlightRepo, noteRepo, logger)
	renderer := highlighting.NewRenderer(logger)
	errHandler := pkgerrors.NewErrorHandler(logger, false)

	validator := auth.NewTokenValidator("test-secret", "church-fathers-reader")
	authenticator := middleware.NewAuthenticator(
		validator,
		true,
		auth.NewTokenBucketLimiter(1000, time.Millisecond),
		auth.NewTokenBucketLimiter(1000, time.Millisecond),
		logger,
	)

	cfg := &config.Config{EnableCORS: false}
	router := NewRouter(
		cfg,
		authenticator,
		handlers.NewNoteHandler(noteSvc, errHandler, logger),
		handlers.NewHighlightHandler(highlightSvc, errHandler, logger),
		handlers.NewReaderHandler(provider, highlightSvc, renderer, errHandler, logger),
		logger,
	)
	return router.Setup()
}

func doRequest(t *testing.T, h http.Handler, method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeData unwraps the data envelope of a successful response.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	return data
}

func sampleNoteBody() map[string]interface{} {
	return map[string]interface{}{
		"workTitle":    "Confessions",
		"partTitle":    "Book I",
		"chapterTitle": "Chapter 1",
		"title":        "Restless heart",
		"content":      "The restlessness is the argument.",
		"noteType":     "INSIGHT",
		"tags":         []string{"theology"},
	}
}

func sampleHighlightBody() map[string]interface{} {
	return map[string]interface{}{
		"workTitle":      "Confessions",
		"partTitle":      "Book I",
		"chapterTitle":   "Chapter 1",
		"selectedText":   "our heart is restless",
		"selectionStart": 35,
		"selectionEnd":   56,
		"elementId":      "confessions-book-i-chapter-1",
		"xpath":          "/p",
		"color":          "YELLOW",
	}
}

func TestRequestsWithoutIdentityAreRejected(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpointsAreOpen(t *testing.T) {
	h := newTestHandler(t)

	for _, path := range []string{"/health", "/ready"} {
		rec := doRequest(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestNoteLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/notes", "reader-1", sampleNoteBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData(t, rec)
	noteID, _ := created["id"].(string)
	require.NotEmpty(t, noteID)
	assert.Equal(t, "reader-1", created["userId"])
	assert.Equal(t, "INSIGHT", created["noteType"])

	rec = doRequest(t, h, http.MethodGet, "/api/v1/notes/"+noteID, "reader-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeData(t, rec)
	assert.Equal(t, "Restless heart", got["title"])

	rec = doRequest(t, h, http.MethodPut, "/api/v1/notes/"+noteID, "reader-1", map[string]interface{}{
		"content": "Sharpened the thought.",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeData(t, rec)
	assert.Equal(t, "Sharpened the thought.", updated["content"])
	assert.Equal(t, "Restless heart", updated["title"])

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/notes/"+noteID, "reader-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/notes/"+noteID, "reader-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNoteOwnershipBoundaries(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/notes", "reader-1", sampleNoteBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	noteID := decodeData(t, rec)["id"].(string)

	// A private note under another identity reads as forbidden, not absent.
	rec = doRequest(t, h, http.MethodGet, "/api/v1/notes/"+noteID, "reader-2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/notes/"+noteID, "reader-2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Flipping the note public opens reads to strangers.
	rec = doRequest(t, h, http.MethodPut, "/api/v1/notes/"+noteID, "reader-1", map[string]interface{}{
		"isPublic": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/notes/"+noteID, "reader-2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNoteValidationFailures(t *testing.T) {
	h := newTestHandler(t)

	body := sampleNoteBody()
	delete(body, "content")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/notes", "reader-1", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = sampleNoteBody()
	body["noteType"] = "RANT"
	rec = doRequest(t, h, http.MethodPost, "/api/v1/notes", "reader-1", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListNotesIsOwnerScoped(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/notes", "reader-1", sampleNoteBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doRequest(t, h, http.MethodPost, "/api/v1/notes", "reader-2", sampleNoteBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/notes?workTitle=Confessions", "reader-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, float64(1), data["count"])
}

func TestHighlightLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/highlights", "reader-1", sampleHighlightBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData(t, rec)
	highlightID := created["id"].(string)
	assert.Equal(t, "our heart is restless", created["selectedText"])
	assert.Equal(t, "YELLOW", created["color"])

	rec = doRequest(t, h, http.MethodPut, "/api/v1/highlights/"+highlightID, "reader-1", map[string]interface{}{
		"color": "GREEN",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GREEN", decodeData(t, rec)["color"])

	rec = doRequest(t, h, http.MethodPut, "/api/v1/highlights/"+highlightID, "reader-2", map[string]interface{}{
		"color": "BLUE",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/highlights/"+highlightID, "reader-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/highlights/"+highlightID, "reader-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHighlightRejectsDanglingNoteReference(t *testing.T) {
	h := newTestHandler(t)

	body := sampleHighlightBody()
	body["noteId"] = "no-such-note"
	rec := doRequest(t, h, http.MethodPost, "/api/v1/highlights", "reader-1", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHighlightRequiresAnchor(t *testing.T) {
	h := newTestHandler(t)

	body := sampleHighlightBody()
	delete(body, "selectedText")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/highlights", "reader-1", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReaderDataServesLibrary(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/reader-data", "reader-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	works, ok := data["works"].([]interface{})
	require.True(t, ok)
	require.Len(t, works, 1)
}

func TestGetChapterInjectsFootnoteLinks(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/reader-data/chapters/confessions-book-i-chapter-1", "reader-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	contentHTML := data["contentHtml"].(string)
	assert.Contains(t, contentHTML, `class="footnote-link"`)
	assert.NotContains(t, contentHTML, `class="footnote-ref"`)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/reader-data/chapters/no-such-chapter", "reader-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetChapterDecoratesStoredHighlights(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/highlights", "reader-1", sampleHighlightBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	highlightID := decodeData(t, rec)["id"].(string)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/reader-data/chapters/confessions-book-i-chapter-1?decorate=true", "reader-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	contentHTML := decodeData(t, rec)["contentHtml"].(string)
	assert.Contains(t, contentHTML, `data-highlight-id="`+highlightID+`"`)
	assert.True(t, strings.Contains(contentHTML, ">our heart is restless</mark>"))

	// Another reader sees clean markup.
	rec = doRequest(t, h, http.MethodGet, "/api/v1/reader-data/chapters/confessions-book-i-chapter-1?decorate=true", "reader-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decodeData(t, rec)["contentHtml"].(string), "data-highlight-id")
}

func TestBearerTokenIdentity(t *testing.T) {
	h := newTestHandler(t)

	validator := auth.NewTokenValidator("test-secret", "church-fathers-reader")
	token, err := validator.Issue("reader-jwt", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
