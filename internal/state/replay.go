package state

import (
	"sort"

	"github.com/gitkan/gitkan/internal/op"
)

// Result is the output of one full rebuild.
type Result struct {
	State             *State
	AppliedThroughSeq int64
	Conflicts         []Conflict
}

// Rebuild folds the op log into materialized state. It is a pure function of
// the op sequence: running it twice over the same log yields identical state
// and conflicts, byte for byte.
//
// The ops are sorted into the canonical total order (seq ascending, opId
// ascending), partitioned into maximal same-seq groups, and each group is
// processed detect-then-apply: conflict detection sees the group's full set
// of candidate writes before any of them lands, then every op in the group
// is applied in opId order. An op whose referenced entity does not exist is
// a defensive no-op, tolerating partial histories; unknown op types never
// reach this point (they fail envelope decoding at the format boundary).
func Rebuild(ops []op.Op, workspaceID string) Result {
	ordered := make([]op.Op, len(ops))
	copy(ordered, ops)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Seq != ordered[j].Seq {
			return ordered[i].Seq < ordered[j].Seq
		}
		return ordered[i].ID < ordered[j].ID
	})

	res := Result{State: newState(workspaceID)}
	for start := 0; start < len(ordered); {
		end := start
		for end < len(ordered) && ordered[end].Seq == ordered[start].Seq {
			end++
		}
		group := ordered[start:end]

		res.Conflicts = append(res.Conflicts, detectConflicts(group)...)
		for _, o := range group {
			res.State.apply(o)
			if o.Seq > res.AppliedThroughSeq {
				res.AppliedThroughSeq = o.Seq
			}
		}
		start = end
	}
	return res
}

// apply folds one op into the state. Every rule is idempotent-if-reapplied
// and defensive against missing referents.
func (s *State) apply(o op.Op) {
	switch p := o.Payload.(type) {
	case *op.BoardCreated:
		b, ok := s.Boards[p.BoardID]
		if !ok {
			b = &Board{ID: p.BoardID, Title: p.Title, Members: make(map[string]string)}
			s.Boards[p.BoardID] = b
			s.Workspace.BoardIDs = append(s.Workspace.BoardIDs, p.BoardID)
			sort.Strings(s.Workspace.BoardIDs)
		}
		if _, has := b.Members[o.ActorID]; !has {
			b.Members[o.ActorID] = RoleEditor
		}

	case *op.BoardRenamed:
		if b, ok := s.Boards[p.BoardID]; ok {
			b.Title = p.Title
		}

	case *op.ListCreated:
		b, ok := s.Boards[p.BoardID]
		if !ok {
			return
		}
		if _, exists := s.Lists[p.ListID]; exists {
			return
		}
		s.Lists[p.ListID] = &List{
			ID:       p.ListID,
			BoardID:  p.BoardID,
			Title:    p.Title,
			Position: p.Position,
		}
		b.ListIDs = append(b.ListIDs, p.ListID)
		s.resortLists(b)

	case *op.ListRenamed:
		if l, ok := s.Lists[p.ListID]; ok {
			l.Title = p.Title
		}

	case *op.ListMoved:
		l, ok := s.Lists[p.ListID]
		if !ok {
			return
		}
		l.Position = p.Position
		if b, ok := s.Boards[l.BoardID]; ok {
			s.resortLists(b)
		}

	case *op.CardCreated:
		l, ok := s.Lists[p.ListID]
		if !ok {
			return
		}
		if _, exists := s.Cards[p.CardID]; exists {
			return
		}
		s.Cards[p.CardID] = &Card{
			ID:          p.CardID,
			ListID:      p.ListID,
			BoardID:     l.BoardID,
			Title:       p.Title,
			Description: p.Description,
			Labels:      p.Labels,
			Position:    p.Position,
			DueDate:     p.DueDate,
		}
		l.CardIDs = append(l.CardIDs, p.CardID)
		s.resortCards(l)

	case *op.CardMoved:
		c, ok := s.Cards[p.CardID]
		if !ok {
			return
		}
		dest, ok := s.Lists[p.ListID]
		if !ok {
			return
		}
		if src, ok := s.Lists[c.ListID]; ok && c.ListID != p.ListID {
			removeCardID(src, c.ID)
		}
		// listId and position change in the same fold step.
		alreadyThere := c.ListID == p.ListID
		c.ListID = dest.ID
		c.BoardID = dest.BoardID
		c.Position = p.Position
		if !alreadyThere {
			dest.CardIDs = append(dest.CardIDs, c.ID)
		}
		s.resortCards(dest)

	case *op.CardUpdated:
		c, ok := s.Cards[p.CardID]
		if !ok {
			return
		}
		if p.Title != nil {
			c.Title = *p.Title
		}
		if p.Description != nil {
			c.Description = *p.Description
		}
		if p.Labels != nil {
			c.Labels = *p.Labels
		}
		if p.DueDate.Present() {
			if v, ok := p.DueDate.Value(); ok {
				c.DueDate = &v
			} else {
				c.DueDate = nil
			}
		}

	case *op.CardArchived:
		if c, ok := s.Cards[p.CardID]; ok {
			c.Archived = true
		}

	case *op.CommentAdded:
		c, ok := s.Cards[p.CardID]
		if !ok {
			return
		}
		for _, existing := range c.Comments {
			if existing.ID == p.CommentID {
				return
			}
		}
		c.Comments = append(c.Comments, Comment{
			ID:      p.CommentID,
			Body:    p.Body,
			ActorID: o.ActorID,
			TS:      o.TS.UTC(),
		})

	case *op.ChecklistItemAdded:
		c, ok := s.Cards[p.CardID]
		if !ok {
			return
		}
		for _, item := range c.Checklist {
			if item.ID == p.ItemID {
				return
			}
		}
		c.Checklist = append(c.Checklist, ChecklistItem{
			ID:       p.ItemID,
			Text:     p.Text,
			Position: p.Position,
		})
		resortChecklist(c)

	case *op.ChecklistItemToggled:
		if c, ok := s.Cards[p.CardID]; ok {
			for i := range c.Checklist {
				if c.Checklist[i].ID == p.ItemID {
					c.Checklist[i].Done = p.Done
					return
				}
			}
		}

	case *op.ChecklistItemRenamed:
		if c, ok := s.Cards[p.CardID]; ok {
			for i := range c.Checklist {
				if c.Checklist[i].ID == p.ItemID {
					c.Checklist[i].Text = p.Text
					return
				}
			}
		}

	case *op.ChecklistItemRemoved:
		if c, ok := s.Cards[p.CardID]; ok {
			for i := range c.Checklist {
				if c.Checklist[i].ID == p.ItemID {
					c.Checklist = append(c.Checklist[:i], c.Checklist[i+1:]...)
					return
				}
			}
		}

	case *op.MemberAdded:
		if b, ok := s.Boards[p.BoardID]; ok {
			if _, has := b.Members[p.MemberID]; !has {
				b.Members[p.MemberID] = p.Role
			}
		}

	case *op.MemberRoleChanged:
		if b, ok := s.Boards[p.BoardID]; ok {
			if _, has := b.Members[p.MemberID]; has {
				b.Members[p.MemberID] = p.Role
			}
		}
	}
}
