// Package search provides an on-demand tokenized scan over replayed state.
// Nothing is indexed or persisted; every query walks the current state.
package search

import (
	"sort"
	"strings"

	"github.com/gitkan/gitkan/internal/state"
)

// Match is one card matching a query.
type Match struct {
	CardID  string
	ListID  string
	BoardID string
	Title   string
}

// Cards returns the non-archived cards whose text matches every token of
// the query. The query is split on whitespace and lower-cased; a card
// matches when each token is a substring of its lower-cased title,
// description, and labels concatenated. Ordering is fully deterministic,
// (boardId, listId, position, cardId) ascending, never relevance-scored,
// so callers can assert exact output order.
func Cards(st *state.State, query string) []Match {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	type ranked struct {
		Match
		position int64
	}
	var hits []ranked
	for _, c := range st.Cards {
		if c.Archived {
			continue
		}
		haystack := strings.ToLower(c.Title + " " + c.Description + " " + strings.Join(c.Labels, " "))
		if !matchesAll(haystack, tokens) {
			continue
		}
		hits = append(hits, ranked{
			Match:    Match{CardID: c.ID, ListID: c.ListID, BoardID: c.BoardID, Title: c.Title},
			position: c.Position,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.BoardID != b.BoardID {
			return a.BoardID < b.BoardID
		}
		if a.ListID != b.ListID {
			return a.ListID < b.ListID
		}
		if a.position != b.position {
			return a.position < b.position
		}
		return a.CardID < b.CardID
	})

	out := make([]Match, len(hits))
	for i, h := range hits {
		out[i] = h.Match
	}
	return out
}

func matchesAll(haystack string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}
