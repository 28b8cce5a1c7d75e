package hooks

import (
	"github.com/gitkan/gitkan/internal/op"
	"github.com/gitkan/gitkan/internal/oplog"
	"github.com/gitkan/gitkan/internal/watch"
)

// Feed gives external consumers read access to the op stream without
// exposing the store's write side.
type Feed struct {
	store *oplog.Store
}

// NewFeed returns a feed over the given store.
func NewFeed(store *oplog.Store) *Feed {
	return &Feed{store: store}
}

// LoadOps returns the entire log in canonical order.
func (f *Feed) LoadOps() ([]op.Op, error) {
	return f.store.LoadAll()
}

// ListOpsSince returns ops with seq greater than cursorSeq, in canonical
// order.
func (f *Feed) ListOpsSince(cursorSeq int64) ([]op.Op, error) {
	return f.store.LoadSince(cursorSeq)
}

// SubscribeOps delivers new ops past cursorSeq to onOps until the returned
// subscription is closed.
func (f *Feed) SubscribeOps(cursorSeq int64, onOps func([]op.Op)) (*watch.Subscription, error) {
	return watch.Subscribe(f.store, cursorSeq, onOps)
}
