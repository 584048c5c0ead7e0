package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	"github.com/kyle-mirich/church-fathers-reader/domain/services/anchoring"
	"github.com/kyle-mirich/church-fathers-reader/domain/services/highlighting"
	"github.com/kyle-mirich/church-fathers-reader/pkg/dom"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// SessionState names the phases of an annotation session.
type SessionState int

const (
	// StateIdle means no selection is held.
	StateIdle SessionState = iota
	// StateSelectionActive means a captured anchor is pending and the user
	// can turn it into a highlight or start composing a note.
	StateSelectionActive
	// StateComposingNote means a note editor is open over the pending
	// anchor. Selection changes are ignored until composition ends.
	StateComposingNote
)

func (s SessionState) String() string {
	switch s {
	case StateSelectionActive:
		return "SELECTION_ACTIVE"
	case StateComposingNote:
		return "COMPOSING_NOTE"
	default:
		return "IDLE"
	}
}

const defaultSettleDelay = 300 * time.Millisecond

// SessionCoordinator drives one reader's annotation session. It owns the
// session state machine, debounces the stream of raw selection events into
// settled captures, and sequences the two-phase save: the store write
// happens first, and the highlight is painted only after the write
// succeeded, so the rendering never shows a highlight that does not exist.
//
// Every chapter entry and every explicit clear mints a fresh scope token.
// Async results carry the token they started under; a result whose token no
// longer matches is dropped, so a save that raced a navigation cannot paint
// into the wrong chapter.
type SessionCoordinator struct {
	mu sync.Mutex

	ownerID     string
	state       SessionState
	scope       string
	pending     *anchor.Anchor
	container   *html.Node
	location    annotation.Location
	settleDelay time.Duration
	settleTimer *time.Timer

	notes      *NoteService
	highlights *HighlightService
	renderer   *highlighting.Renderer
	logger     *zap.Logger
}

type SessionOption func(*SessionCoordinator)

// WithSettleDelay overrides the selection settle debounce. Zero makes
// selection changes settle synchronously.
func WithSettleDelay(d time.Duration) SessionOption {
	return func(c *SessionCoordinator) { c.settleDelay = d }
}

func NewSessionCoordinator(ownerID string, notes *NoteService, highlights *HighlightService, renderer *highlighting.Renderer, logger *zap.Logger, opts ...SessionOption) *SessionCoordinator {
	c := &SessionCoordinator{
		ownerID:     ownerID,
		state:       StateIdle,
		scope:       uuid.NewString(),
		settleDelay: defaultSettleDelay,
		notes:       notes,
		highlights:  highlights,
		renderer:    renderer,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SessionCoordinator) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PendingAnchor returns a copy of the settled anchor, or nil outside
// SELECTION_ACTIVE and COMPOSING_NOTE.
func (c *SessionCoordinator) PendingAnchor() *anchor.Anchor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	cp := *c.pending
	return &cp
}

// EnterChapter points the session at a freshly rendered chapter and paints
// the owner's stored highlights for that location into it. Any selection or
// composition in progress is discarded, and in-flight saves from the
// previous chapter are invalidated by the scope change.
func (c *SessionCoordinator) EnterChapter(ctx context.Context, container *html.Node, loc annotation.Location) error {
	c.mu.Lock()
	c.cancelSettleLocked()
	c.state = StateIdle
	c.pending = nil
	c.container = container
	c.location = loc
	c.scope = uuid.NewString()
	scope := c.scope
	c.mu.Unlock()

	stored, err := c.highlights.ListHighlights(ctx, c.ownerID, ports.Filter{
		WorkTitle:    loc.WorkTitle,
		ChapterTitle: loc.ChapterTitle,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scope != scope {
		// The session moved on while the listing was in flight.
		return nil
	}
	applied := c.renderer.ApplyAll(container, stored)
	c.logger.Debug("chapter highlights painted",
		zap.String("chapter", loc.ChapterTitle),
		zap.Int("stored", len(stored)),
		zap.Int("applied", applied),
	)
	return nil
}

// SelectionChanged feeds a raw selection event into the settle gate. The
// capture runs only after the selection has been stable for the settle
// delay; intermediate selections from a drag in progress never reach the
// state machine. Events arriving during note composition are dropped.
func (c *SessionCoordinator) SelectionChanged(sel dom.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateComposingNote || c.container == nil {
		return
	}
	c.cancelSettleLocked()

	if c.settleDelay == 0 {
		c.settleLocked(sel)
		return
	}
	scope := c.scope
	c.settleTimer = time.AfterFunc(c.settleDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.scope != scope || c.state == StateComposingNote {
			return
		}
		c.settleLocked(sel)
	})
}

func (c *SessionCoordinator) settleLocked(sel dom.Selection) {
	anc, err := anchoring.Capture(c.container, sel)
	if err != nil {
		c.logger.Warn("selection capture failed", zap.Error(err))
		anc = nil
	}
	if anc == nil {
		c.state = StateIdle
		c.pending = nil
		return
	}
	c.state = StateSelectionActive
	c.pending = anc
}

// ClearSelection drops the pending anchor and invalidates in-flight work.
func (c *SessionCoordinator) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelSettleLocked()
	c.state = StateIdle
	c.pending = nil
	c.scope = uuid.NewString()
}

// BeginNote opens note composition over the pending selection.
func (c *SessionCoordinator) BeginNote() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSelectionActive {
		return pkgerrors.NewConflictError("no active selection to annotate")
	}
	c.state = StateComposingNote
	return nil
}

// CancelNote abandons composition and returns to the held selection.
func (c *SessionCoordinator) CancelNote() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateComposingNote {
		c.state = StateSelectionActive
	}
}

// SaveHighlight persists the pending selection as a highlight and, once the
// write has succeeded, paints it into the chapter. If the session changed
// scope while the write was in flight the highlight is still persisted but
// nothing is painted.
func (c *SessionCoordinator) SaveHighlight(ctx context.Context, color string) (*annotation.Highlight, error) {
	c.mu.Lock()
	if c.state != StateSelectionActive {
		c.mu.Unlock()
		return nil, pkgerrors.NewConflictError("no active selection to highlight")
	}
	anc := *c.pending
	loc := c.location
	scope := c.scope
	c.mu.Unlock()

	h, err := c.highlights.CreateHighlight(ctx, c.ownerID, CreateHighlightInput{
		WorkTitle:    loc.WorkTitle,
		PartTitle:    loc.PartTitle,
		ChapterTitle: loc.ChapterTitle,
		Anchor:       anc,
		Color:        color,
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scope != scope {
		c.logger.Debug("highlight saved after scope change, not painting",
			zap.String("highlightId", h.ID()),
		)
		return h, nil
	}
	c.renderer.Apply(c.container, h)
	c.state = StateIdle
	c.pending = nil
	return h, nil
}

// SaveNote persists the composed note, carrying the pending anchor, and
// closes the composition. The location fields of the input are filled from
// the session.
func (c *SessionCoordinator) SaveNote(ctx context.Context, input CreateNoteInput) (*annotation.Note, error) {
	c.mu.Lock()
	if c.state != StateComposingNote {
		c.mu.Unlock()
		return nil, pkgerrors.NewConflictError("no note composition in progress")
	}
	anc := *c.pending
	loc := c.location
	scope := c.scope
	c.mu.Unlock()

	input.WorkTitle = loc.WorkTitle
	input.PartTitle = loc.PartTitle
	input.ChapterTitle = loc.ChapterTitle
	input.Anchor = &anc

	note, err := c.notes.CreateNote(ctx, c.ownerID, input)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scope == scope {
		c.state = StateIdle
		c.pending = nil
	}
	return note, nil
}

// RemoveHighlight deletes a stored highlight and strips its marker from the
// current chapter if it is painted there.
func (c *SessionCoordinator) RemoveHighlight(ctx context.Context, highlightID string) error {
	if err := c.highlights.DeleteHighlight(ctx, c.ownerID, highlightID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.container != nil {
		c.renderer.Remove(c.container, highlightID)
	}
	return nil
}

func (c *SessionCoordinator) cancelSettleLocked() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
}
