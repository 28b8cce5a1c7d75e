package op

import "encoding/json"

// Payload is the tagged union of per-type op payloads. Each variant reports
// its discriminator via Kind and the field writes it performs via writes,
// which conflict detection groups by (entityType, entityId, field).
type Payload interface {
	// Kind returns the op type this payload belongs to.
	Kind() Type
	// writes lists the (entity, field, value) triples this op writes.
	writes() []Write
}

// Entity type tags used in writes and conflict records.
const (
	EntityBoard         = "board"
	EntityList          = "list"
	EntityCard          = "card"
	EntityComment       = "comment"
	EntityChecklistItem = "checklistItem"
	EntityMembership    = "membership"
)

// BoardCreated creates a new board in the default workspace. The creating
// actor becomes the board's first editor during replay.
type BoardCreated struct {
	BoardID string `json:"boardId"`
	Title   string `json:"title"`
}

func (p *BoardCreated) Kind() Type { return TypeBoardCreated }
func (p *BoardCreated) writes() []Write {
	return []Write{{EntityBoard, p.BoardID, "title", p.Title}}
}

// BoardRenamed sets a board's title.
type BoardRenamed struct {
	BoardID string `json:"boardId"`
	Title   string `json:"title"`
}

func (p *BoardRenamed) Kind() Type { return TypeBoardRenamed }
func (p *BoardRenamed) writes() []Write {
	return []Write{{EntityBoard, p.BoardID, "title", p.Title}}
}

// ListCreated creates a list on a board at the given position.
type ListCreated struct {
	ListID   string `json:"listId"`
	BoardID  string `json:"boardId"`
	Title    string `json:"title"`
	Position int64  `json:"position"`
}

func (p *ListCreated) Kind() Type { return TypeListCreated }
func (p *ListCreated) writes() []Write {
	return []Write{
		{EntityList, p.ListID, "title", p.Title},
		{EntityList, p.ListID, "position", p.Position},
		{EntityList, p.ListID, "boardId", p.BoardID},
	}
}

// ListRenamed sets a list's title.
type ListRenamed struct {
	ListID string `json:"listId"`
	Title  string `json:"title"`
}

func (p *ListRenamed) Kind() Type { return TypeListRenamed }
func (p *ListRenamed) writes() []Write {
	return []Write{{EntityList, p.ListID, "title", p.Title}}
}

// ListMoved changes a list's ordering position within its board.
type ListMoved struct {
	ListID   string `json:"listId"`
	Position int64  `json:"position"`
}

func (p *ListMoved) Kind() Type { return TypeListMoved }
func (p *ListMoved) writes() []Write {
	return []Write{{EntityList, p.ListID, "position", p.Position}}
}

// CardCreated creates a card on a list.
type CardCreated struct {
	CardID      string   `json:"cardId"`
	ListID      string   `json:"listId"`
	BoardID     string   `json:"boardId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
	Position    int64    `json:"position"`
	DueDate     *string  `json:"dueDate,omitempty"`
}

func (p *CardCreated) Kind() Type { return TypeCardCreated }
func (p *CardCreated) writes() []Write {
	ws := []Write{
		{EntityCard, p.CardID, "title", p.Title},
		{EntityCard, p.CardID, "description", p.Description},
		{EntityCard, p.CardID, "labels", p.Labels},
		{EntityCard, p.CardID, "listId", p.ListID},
		{EntityCard, p.CardID, "position", p.Position},
	}
	if p.DueDate != nil {
		ws = append(ws, Write{EntityCard, p.CardID, "dueDate", *p.DueDate})
	}
	return ws
}

// CardMoved moves a card to a list at a position. Both fields change
// atomically in the same fold step; cross-board moves are rejected by the
// command layer before an op is ever written.
type CardMoved struct {
	CardID   string `json:"cardId"`
	ListID   string `json:"listId"`
	Position int64  `json:"position"`
}

func (p *CardMoved) Kind() Type { return TypeCardMoved }
func (p *CardMoved) writes() []Write {
	return []Write{
		{EntityCard, p.CardID, "listId", p.ListID},
		{EntityCard, p.CardID, "position", p.Position},
	}
}

// CardUpdated is a partial update: nil pointer fields mean "leave unchanged".
// DueDate is tri-state: absent leaves the due date alone, an explicit JSON
// null clears it, and a value sets it.
type CardUpdated struct {
	CardID      string
	Title       *string
	Description *string
	Labels      *[]string
	DueDate     DueDatePatch
}

func (p *CardUpdated) Kind() Type { return TypeCardUpdated }
func (p *CardUpdated) writes() []Write {
	var ws []Write
	if p.Title != nil {
		ws = append(ws, Write{EntityCard, p.CardID, "title", *p.Title})
	}
	if p.Description != nil {
		ws = append(ws, Write{EntityCard, p.CardID, "description", *p.Description})
	}
	if p.Labels != nil {
		ws = append(ws, Write{EntityCard, p.CardID, "labels", *p.Labels})
	}
	if p.DueDate.Present() {
		ws = append(ws, Write{EntityCard, p.CardID, "dueDate", p.DueDate.value})
	}
	return ws
}

// cardUpdatedWire mirrors CardUpdated for JSON, with DueDate kept raw so key
// presence can be distinguished from an explicit null.
type cardUpdatedWire struct {
	CardID      string          `json:"cardId"`
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Labels      *[]string       `json:"labels,omitempty"`
	DueDate     json.RawMessage `json:"dueDate,omitempty"`
}

// MarshalJSON emits only the fields the update actually carries.
func (p *CardUpdated) MarshalJSON() ([]byte, error) {
	w := cardUpdatedWire{
		CardID:      p.CardID,
		Title:       p.Title,
		Description: p.Description,
		Labels:      p.Labels,
	}
	if p.DueDate.Present() {
		if p.DueDate.value == nil {
			w.DueDate = json.RawMessage("null")
		} else {
			raw, err := json.Marshal(*p.DueDate.value)
			if err != nil {
				return nil, err
			}
			w.DueDate = raw
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores the tri-state dueDate from key presence.
func (p *CardUpdated) UnmarshalJSON(data []byte) error {
	var w cardUpdatedWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.CardID = w.CardID
	p.Title = w.Title
	p.Description = w.Description
	p.Labels = w.Labels
	p.DueDate = DueDatePatch{}
	if w.DueDate != nil {
		if string(w.DueDate) == "null" {
			p.DueDate = ClearDueDate()
		} else {
			var s string
			if err := json.Unmarshal(w.DueDate, &s); err != nil {
				return err
			}
			p.DueDate = SetDueDate(s)
		}
	}
	return nil
}

// DueDatePatch is the tri-state due date carried by CardUpdated.
// The zero value means "leave unchanged".
type DueDatePatch struct {
	present bool
	value   *string
}

// SetDueDate returns a patch that sets the due date to v.
func SetDueDate(v string) DueDatePatch {
	return DueDatePatch{present: true, value: &v}
}

// ClearDueDate returns a patch that explicitly clears the due date.
func ClearDueDate() DueDatePatch {
	return DueDatePatch{present: true}
}

// Present reports whether the patch changes the due date at all.
func (d DueDatePatch) Present() bool { return d.present }

// Value returns the new due date and whether one is being set; when Present
// and ok is false the patch clears the due date.
func (d DueDatePatch) Value() (v string, ok bool) {
	if d.value == nil {
		return "", false
	}
	return *d.value, true
}

// CardArchived marks a card archived. Archive is a flag, not a delete: the
// card remains in replayed state but is excluded from search and listings.
type CardArchived struct {
	CardID string `json:"cardId"`
}

func (p *CardArchived) Kind() Type { return TypeCardArchived }
func (p *CardArchived) writes() []Write {
	return []Write{{EntityCard, p.CardID, "archived", true}}
}

// CommentAdded appends a comment to a card.
type CommentAdded struct {
	CommentID string `json:"commentId"`
	CardID    string `json:"cardId"`
	Body      string `json:"body"`
}

func (p *CommentAdded) Kind() Type { return TypeCommentAdded }
func (p *CommentAdded) writes() []Write {
	return []Write{{EntityComment, p.CommentID, "body", p.Body}}
}

// ChecklistItemAdded adds an item to a card's checklist.
type ChecklistItemAdded struct {
	ItemID   string `json:"itemId"`
	CardID   string `json:"cardId"`
	Text     string `json:"text"`
	Position int64  `json:"position"`
}

func (p *ChecklistItemAdded) Kind() Type { return TypeChecklistItemAdded }
func (p *ChecklistItemAdded) writes() []Write {
	return []Write{
		{EntityChecklistItem, p.ItemID, "text", p.Text},
		{EntityChecklistItem, p.ItemID, "position", p.Position},
	}
}

// ChecklistItemToggled sets an item's done flag. The payload carries the
// target value rather than a flip so replay stays idempotent.
type ChecklistItemToggled struct {
	ItemID string `json:"itemId"`
	CardID string `json:"cardId"`
	Done   bool   `json:"done"`
}

func (p *ChecklistItemToggled) Kind() Type { return TypeChecklistItemToggled }
func (p *ChecklistItemToggled) writes() []Write {
	return []Write{{EntityChecklistItem, p.ItemID, "done", p.Done}}
}

// ChecklistItemRenamed sets an item's text.
type ChecklistItemRenamed struct {
	ItemID string `json:"itemId"`
	CardID string `json:"cardId"`
	Text   string `json:"text"`
}

func (p *ChecklistItemRenamed) Kind() Type { return TypeChecklistItemRenamed }
func (p *ChecklistItemRenamed) writes() []Write {
	return []Write{{EntityChecklistItem, p.ItemID, "text", p.Text}}
}

// ChecklistItemRemoved removes an item from a card's checklist.
type ChecklistItemRemoved struct {
	ItemID string `json:"itemId"`
	CardID string `json:"cardId"`
}

func (p *ChecklistItemRemoved) Kind() Type { return TypeChecklistItemRemoved }
func (p *ChecklistItemRemoved) writes() []Write {
	return []Write{{EntityChecklistItem, p.ItemID, "removed", true}}
}

// MemberAdded grants an actor a role on a board.
type MemberAdded struct {
	BoardID  string `json:"boardId"`
	MemberID string `json:"memberId"`
	Role     string `json:"role"`
}

func (p *MemberAdded) Kind() Type { return TypeMemberAdded }
func (p *MemberAdded) writes() []Write {
	return []Write{{EntityMembership, p.BoardID + ":" + p.MemberID, "role", p.Role}}
}

// MemberRoleChanged changes an existing membership's role.
type MemberRoleChanged struct {
	BoardID  string `json:"boardId"`
	MemberID string `json:"memberId"`
	Role     string `json:"role"`
}

func (p *MemberRoleChanged) Kind() Type { return TypeMemberRoleChanged }
func (p *MemberRoleChanged) writes() []Write {
	return []Write{{EntityMembership, p.BoardID + ":" + p.MemberID, "role", p.Role}}
}
