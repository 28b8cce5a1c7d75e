// Package command implements the mutating operations of the store. Every
// command follows one template: rebuild state fresh from the full op log,
// validate preconditions (existence, role) against it, compute derived
// defaults, and append exactly one op. There is no cached state between
// calls and no locking; concurrent callers race between rebuild and append
// by design, and the loser surfaces as a validation error or a same-seq
// conflict rather than a silent overwrite.
package command

import (
	"fmt"

	"github.com/gitkan/gitkan/internal/ident"
	"github.com/gitkan/gitkan/internal/op"
	"github.com/gitkan/gitkan/internal/oplog"
	"github.com/gitkan/gitkan/internal/state"
)

// positionSpacing is the default gap between ordering keys, leaving room for
// caller-computed midpoints between neighbors.
const positionSpacing = 1000

// Engine is the command layer over one repository's op log.
type Engine struct {
	store *oplog.Store
}

// New returns a command engine for the given store.
func New(store *oplog.Store) *Engine {
	return &Engine{store: store}
}

// Store exposes the underlying op log, for watchers and feeds.
func (e *Engine) Store() *oplog.Store { return e.store }

// Rebuild replays the entire op log into fresh state.
func (e *Engine) Rebuild() (state.Result, error) {
	ops, err := e.store.LoadAll()
	if err != nil {
		return state.Result{}, err
	}
	return state.Rebuild(ops, e.store.Marker().DefaultWorkspaceID), nil
}

// CreateBoard creates a board; the creating actor becomes its first editor
// during replay.
func (e *Engine) CreateBoard(actorID, title string) (op.Op, error) {
	if title == "" {
		return op.Op{}, fmt.Errorf("%w: board title is empty", ErrInvalidArgument)
	}
	return e.store.Append(actorID, &op.BoardCreated{BoardID: ident.NewID(), Title: title})
}

// RenameBoard sets a board's title.
func (e *Engine) RenameBoard(actorID, boardID, title string) (op.Op, error) {
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	b, err := e.requireBoard(st.State, boardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	return e.store.Append(actorID, &op.BoardRenamed{BoardID: b.ID, Title: title})
}

// CreateList creates a list on a board. A zero position means "place at the
// end": max sibling position + 1000, or 1000 on an empty board.
func (e *Engine) CreateList(actorID, boardID, title string, position int64) (op.Op, error) {
	if position < 0 {
		return op.Op{}, fmt.Errorf("%w: negative position %d", ErrInvalidArgument, position)
	}
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	b, err := e.requireBoard(st.State, boardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	if position == 0 {
		position = nextListPosition(st.State, b)
	}
	return e.store.Append(actorID, &op.ListCreated{
		ListID:   ident.NewID(),
		BoardID:  b.ID,
		Title:    title,
		Position: position,
	})
}

// RenameList sets a list's title.
func (e *Engine) RenameList(actorID, listID, title string) (op.Op, error) {
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	l, err := e.requireList(st.State, listID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	return e.store.Append(actorID, &op.ListRenamed{ListID: l.ID, Title: title})
}

// MoveList changes a list's position within its board. A zero position
// places it at the end.
func (e *Engine) MoveList(actorID, listID string, position int64) (op.Op, error) {
	if position < 0 {
		return op.Op{}, fmt.Errorf("%w: negative position %d", ErrInvalidArgument, position)
	}
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	l, err := e.requireList(st.State, listID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	if position == 0 {
		position = nextListPosition(st.State, st.State.Boards[l.BoardID])
	}
	return e.store.Append(actorID, &op.ListMoved{ListID: l.ID, Position: position})
}

// CardDraft carries the caller-supplied fields for CreateCard.
type CardDraft struct {
	Title       string
	Description string
	Labels      []string
	Position    int64 // 0 = place at end of list
	DueDate     *string
}

// CreateCard creates a card on a list.
func (e *Engine) CreateCard(actorID, listID string, draft CardDraft) (op.Op, error) {
	if draft.Title == "" {
		return op.Op{}, fmt.Errorf("%w: card title is empty", ErrInvalidArgument)
	}
	if draft.Position < 0 {
		return op.Op{}, fmt.Errorf("%w: negative position %d", ErrInvalidArgument, draft.Position)
	}
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	l, err := e.requireList(st.State, listID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	pos := draft.Position
	if pos == 0 {
		pos = nextCardPosition(st.State, l)
	}
	return e.store.Append(actorID, &op.CardCreated{
		CardID:      ident.NewID(),
		ListID:      l.ID,
		BoardID:     l.BoardID,
		Title:       draft.Title,
		Description: draft.Description,
		Labels:      draft.Labels,
		Position:    pos,
		DueDate:     draft.DueDate,
	})
}

// MoveCard moves a card to a list on the same board. A zero position places
// it at the end of the destination list. Moves across boards fail with
// ErrCrossBoardMove and append nothing.
func (e *Engine) MoveCard(actorID, cardID, destListID string, position int64) (op.Op, error) {
	if position < 0 {
		return op.Op{}, fmt.Errorf("%w: negative position %d", ErrInvalidArgument, position)
	}
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	c, ok := st.State.Cards[cardID]
	if !ok {
		return op.Op{}, fmt.Errorf("%w: card %s", ErrNotFound, cardID)
	}
	dest, ok := st.State.Lists[destListID]
	if !ok {
		return op.Op{}, fmt.Errorf("%w: list %s", ErrNotFound, destListID)
	}
	if dest.BoardID != c.BoardID {
		return op.Op{}, fmt.Errorf("%w: card %s is on board %s, list %s is on board %s",
			ErrCrossBoardMove, c.ID, c.BoardID, dest.ID, dest.BoardID)
	}
	if err := e.assertCanEdit(st.State, c.BoardID, actorID); err != nil {
		return op.Op{}, err
	}
	if position == 0 {
		position = nextCardPosition(st.State, dest)
	}
	return e.store.Append(actorID, &op.CardMoved{CardID: c.ID, ListID: dest.ID, Position: position})
}

// CardPatch carries the partial update for UpdateCard. Nil fields are left
// unchanged; DueDate distinguishes unchanged, cleared, and set.
type CardPatch struct {
	Title       *string
	Description *string
	Labels      *[]string
	DueDate     op.DueDatePatch
}

// UpdateCard applies a partial update to a card.
func (e *Engine) UpdateCard(actorID, cardID string, patch CardPatch) (op.Op, error) {
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	c, err := e.requireCard(st.State, cardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	return e.store.Append(actorID, &op.CardUpdated{
		CardID:      c.ID,
		Title:       patch.Title,
		Description: patch.Description,
		Labels:      patch.Labels,
		DueDate:     patch.DueDate,
	})
}

// ArchiveCard flags a card archived.
func (e *Engine) ArchiveCard(actorID, cardID string) (op.Op, error) {
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	c, err := e.requireCard(st.State, cardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	return e.store.Append(actorID, &op.CardArchived{CardID: c.ID})
}

// AddComment appends a comment to a card.
func (e *Engine) AddComment(actorID, cardID, body string) (op.Op, error) {
	if body == "" {
		return op.Op{}, fmt.Errorf("%w: comment body is empty", ErrInvalidArgument)
	}
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	c, err := e.requireCard(st.State, cardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	return e.store.Append(actorID, &op.CommentAdded{
		CommentID: ident.NewID(),
		CardID:    c.ID,
		Body:      body,
	})
}

// AddChecklistItem adds an item to a card's checklist. A zero position
// places it at the end.
func (e *Engine) AddChecklistItem(actorID, cardID, text string, position int64) (op.Op, error) {
	if text == "" {
		return op.Op{}, fmt.Errorf("%w: checklist item text is empty", ErrInvalidArgument)
	}
	if position < 0 {
		return op.Op{}, fmt.Errorf("%w: negative position %d", ErrInvalidArgument, position)
	}
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	c, err := e.requireCard(st.State, cardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	if position == 0 {
		position = nextChecklistPosition(c)
	}
	return e.store.Append(actorID, &op.ChecklistItemAdded{
		ItemID:   ident.NewID(),
		CardID:   c.ID,
		Text:     text,
		Position: position,
	})
}

// ToggleChecklistItem sets an item's done flag to the given value.
func (e *Engine) ToggleChecklistItem(actorID, cardID, itemID string, done bool) (op.Op, error) {
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	c, err := e.requireCard(st.State, cardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	if err := requireChecklistItem(c, itemID); err != nil {
		return op.Op{}, err
	}
	return e.store.Append(actorID, &op.ChecklistItemToggled{ItemID: itemID, CardID: c.ID, Done: done})
}

// RenameChecklistItem sets an item's text.
func (e *Engine) RenameChecklistItem(actorID, cardID, itemID, text string) (op.Op, error) {
	if text == "" {
		return op.Op{}, fmt.Errorf("%w: checklist item text is empty", ErrInvalidArgument)
	}
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	c, err := e.requireCard(st.State, cardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	if err := requireChecklistItem(c, itemID); err != nil {
		return op.Op{}, err
	}
	return e.store.Append(actorID, &op.ChecklistItemRenamed{ItemID: itemID, CardID: c.ID, Text: text})
}

// RemoveChecklistItem removes an item from a card's checklist.
func (e *Engine) RemoveChecklistItem(actorID, cardID, itemID string) (op.Op, error) {
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	c, err := e.requireCard(st.State, cardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	if err := requireChecklistItem(c, itemID); err != nil {
		return op.Op{}, err
	}
	return e.store.Append(actorID, &op.ChecklistItemRemoved{ItemID: itemID, CardID: c.ID})
}

// AddMember grants an actor a role on a board. If the membership already
// exists the call fails fast with ErrAlreadyExists and no op is written.
func (e *Engine) AddMember(actorID, boardID, memberID, role string) (op.Op, error) {
	if err := validRole(role); err != nil {
		return op.Op{}, err
	}
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	b, err := e.requireBoard(st.State, boardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	if _, has := b.Members[memberID]; has {
		return op.Op{}, fmt.Errorf("%w: %s is already a member of board %s", ErrAlreadyExists, memberID, b.ID)
	}
	return e.store.Append(actorID, &op.MemberAdded{BoardID: b.ID, MemberID: memberID, Role: role})
}

// ChangeMemberRole changes an existing membership's role.
func (e *Engine) ChangeMemberRole(actorID, boardID, memberID, role string) (op.Op, error) {
	if err := validRole(role); err != nil {
		return op.Op{}, err
	}
	st, err := e.Rebuild()
	if err != nil {
		return op.Op{}, err
	}
	b, err := e.requireBoard(st.State, boardID, actorID)
	if err != nil {
		return op.Op{}, err
	}
	if _, has := b.Members[memberID]; !has {
		return op.Op{}, fmt.Errorf("%w: %s has no membership on board %s", ErrNotFound, memberID, b.ID)
	}
	return e.store.Append(actorID, &op.MemberRoleChanged{BoardID: b.ID, MemberID: memberID, Role: role})
}

// assertCanEdit enforces the role check with the bootstrap rule: a board
// with no membership records is editable by any actor; once any membership
// exists the actor must hold the editor role.
func (e *Engine) assertCanEdit(st *state.State, boardID, actorID string) error {
	b, ok := st.Boards[boardID]
	if !ok {
		return fmt.Errorf("%w: board %s", ErrNotFound, boardID)
	}
	if !b.CanEdit(actorID) {
		return fmt.Errorf("%w: %s cannot edit board %s", ErrPermissionDenied, actorID, boardID)
	}
	return nil
}

func (e *Engine) requireBoard(st *state.State, boardID, actorID string) (*state.Board, error) {
	b, ok := st.Boards[boardID]
	if !ok {
		return nil, fmt.Errorf("%w: board %s", ErrNotFound, boardID)
	}
	if err := e.assertCanEdit(st, boardID, actorID); err != nil {
		return nil, err
	}
	return b, nil
}

func (e *Engine) requireList(st *state.State, listID, actorID string) (*state.List, error) {
	l, ok := st.Lists[listID]
	if !ok {
		return nil, fmt.Errorf("%w: list %s", ErrNotFound, listID)
	}
	if err := e.assertCanEdit(st, l.BoardID, actorID); err != nil {
		return nil, err
	}
	return l, nil
}

func (e *Engine) requireCard(st *state.State, cardID, actorID string) (*state.Card, error) {
	c, ok := st.Cards[cardID]
	if !ok {
		return nil, fmt.Errorf("%w: card %s", ErrNotFound, cardID)
	}
	if err := e.assertCanEdit(st, c.BoardID, actorID); err != nil {
		return nil, err
	}
	return c, nil
}

func requireChecklistItem(c *state.Card, itemID string) error {
	for _, item := range c.Checklist {
		if item.ID == itemID {
			return nil
		}
	}
	return fmt.Errorf("%w: checklist item %s on card %s", ErrNotFound, itemID, c.ID)
}

func validRole(role string) error {
	if role != state.RoleEditor && role != state.RoleViewer {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, role)
	}
	return nil
}

// nextListPosition returns max sibling position + spacing, or the spacing
// itself for an empty board.
func nextListPosition(st *state.State, b *state.Board) int64 {
	var max int64
	for _, id := range b.ListIDs {
		if l := st.Lists[id]; l.Position > max {
			max = l.Position
		}
	}
	return max + positionSpacing
}

// nextCardPosition returns max sibling position + spacing, or the spacing
// itself for an empty list.
func nextCardPosition(st *state.State, l *state.List) int64 {
	var max int64
	for _, id := range l.CardIDs {
		if c := st.Cards[id]; c.Position > max {
			max = c.Position
		}
	}
	return max + positionSpacing
}

// nextChecklistPosition returns max item position + spacing, or the spacing
// itself for an empty checklist.
func nextChecklistPosition(c *state.Card) int64 {
	var max int64
	for _, item := range c.Checklist {
		if item.Position > max {
			max = item.Position
		}
	}
	return max + positionSpacing
}
