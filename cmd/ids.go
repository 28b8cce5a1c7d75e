package cmd

import "github.com/gitkan/gitkan/internal/op"

// Helpers extracting the created entity's id from an appended op, so create
// commands can print the id the caller will use next.

func boardIDOf(o op.Op) string {
	if p, ok := o.Payload.(*op.BoardCreated); ok {
		return p.BoardID
	}
	return ""
}

func listIDOf(o op.Op) string {
	if p, ok := o.Payload.(*op.ListCreated); ok {
		return p.ListID
	}
	return ""
}

func cardIDOf(o op.Op) string {
	if p, ok := o.Payload.(*op.CardCreated); ok {
		return p.CardID
	}
	return ""
}

func checklistItemIDOf(o op.Op) string {
	if p, ok := o.Payload.(*op.ChecklistItemAdded); ok {
		return p.ItemID
	}
	return ""
}
