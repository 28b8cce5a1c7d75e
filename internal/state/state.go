// Package state holds the materialized state model and the replay engine
// that folds the op log into it. State is entirely derived: it has no
// independent identity, and deleting it and rebuilding from the log must be
// observably identical. Entities live in an arena of id-keyed maps, with
// parent→child relationships stored as ordered id lists resorted by
// (position, id) after every mutation.
package state

import (
	"sort"
	"time"
)

// Role values for board memberships.
const (
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// State is the output of one replay: a pure function of the op sequence.
type State struct {
	Workspace Workspace         `json:"workspace"`
	Boards    map[string]*Board `json:"boards"`
	Lists     map[string]*List  `json:"lists"`
	Cards     map[string]*Card  `json:"cards"`
}

// Workspace is the root container. Its id comes from the repo format marker.
type Workspace struct {
	ID       string   `json:"id"`
	BoardIDs []string `json:"boardIds"`
}

// Board groups lists and carries the membership table (actor → role).
type Board struct {
	ID      string            `json:"id"`
	Title   string            `json:"title"`
	ListIDs []string          `json:"listIds"`
	Members map[string]string `json:"members"`
}

// List orders cards on a board.
type List struct {
	ID       string   `json:"id"`
	BoardID  string   `json:"boardId"`
	Title    string   `json:"title"`
	Position int64    `json:"position"`
	CardIDs  []string `json:"cardIds"`
}

// Card belongs to exactly one list at a time. Archive is a flag, not a
// delete; archived cards stay in place but are excluded from search.
type Card struct {
	ID          string          `json:"id"`
	ListID      string          `json:"listId"`
	BoardID     string          `json:"boardId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Labels      []string        `json:"labels"`
	Position    int64           `json:"position"`
	DueDate     *string         `json:"dueDate,omitempty"`
	Archived    bool            `json:"archived"`
	Checklist   []ChecklistItem `json:"checklist"`
	Comments    []Comment       `json:"comments"`
}

// ChecklistItem is one entry in a card's checklist, ordered by (position, id).
type ChecklistItem struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Done     bool   `json:"done"`
	Position int64  `json:"position"`
}

// Comment is one comment on a card, in fold order.
type Comment struct {
	ID      string    `json:"id"`
	Body    string    `json:"body"`
	ActorID string    `json:"actorId"`
	TS      time.Time `json:"ts"`
}

// newState returns empty state seeded with the default workspace.
func newState(workspaceID string) *State {
	return &State{
		Workspace: Workspace{ID: workspaceID},
		Boards:    make(map[string]*Board),
		Lists:     make(map[string]*List),
		Cards:     make(map[string]*Card),
	}
}

// resortLists reorders a board's listIds by (position, id).
func (s *State) resortLists(b *Board) {
	sort.SliceStable(b.ListIDs, func(i, j int) bool {
		li, lj := s.Lists[b.ListIDs[i]], s.Lists[b.ListIDs[j]]
		if li.Position != lj.Position {
			return li.Position < lj.Position
		}
		return li.ID < lj.ID
	})
}

// resortCards reorders a list's cardIds by (position, id).
func (s *State) resortCards(l *List) {
	sort.SliceStable(l.CardIDs, func(i, j int) bool {
		ci, cj := s.Cards[l.CardIDs[i]], s.Cards[l.CardIDs[j]]
		if ci.Position != cj.Position {
			return ci.Position < cj.Position
		}
		return ci.ID < cj.ID
	})
}

// resortChecklist reorders a card's checklist by (position, id).
func resortChecklist(c *Card) {
	sort.SliceStable(c.Checklist, func(i, j int) bool {
		if c.Checklist[i].Position != c.Checklist[j].Position {
			return c.Checklist[i].Position < c.Checklist[j].Position
		}
		return c.Checklist[i].ID < c.Checklist[j].ID
	})
}

// removeCardID drops id from a list's cardIds.
func removeCardID(l *List, id string) {
	for i, cid := range l.CardIDs {
		if cid == id {
			l.CardIDs = append(l.CardIDs[:i], l.CardIDs[i+1:]...)
			return
		}
	}
}

// CanEdit reports whether actorID may mutate the board. Bootstrap rule: a
// board with no membership records at all is editable by every actor (the
// git remote's ACLs are the real boundary); once any membership exists the
// actor must hold the editor role.
func (b *Board) CanEdit(actorID string) bool {
	if len(b.Members) == 0 {
		return true
	}
	return b.Members[actorID] == RoleEditor
}
