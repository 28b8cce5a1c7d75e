// Package watch delivers newly appended ops to long-lived readers without
// full rescans. A subscription owns its own fsnotify handle on the ops
// directory, debounces event bursts into one scan, and invokes the callback
// with ops past its cursor. Consumers re-derive state themselves; the
// callback carries ops, not state.
package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gitkan/gitkan/internal/op"
	"github.com/gitkan/gitkan/internal/oplog"
)

// debounce is the settle window: rapid-fire filesystem events within it are
// coalesced into a single scan.
const debounce = 50 * time.Millisecond

// Subscription is one active watch over a repo's ops directory. Close it to
// stop watching; no callbacks are delivered after Close returns.
type Subscription struct {
	store  *oplog.Store
	cursor int64
	onOps  func([]op.Op)

	watcher *fsnotify.Watcher
	quit    chan struct{}
	done    chan struct{}
}

// Subscribe starts watching the store's ops directory and calls onOps with
// every batch of ops whose seq exceeds cursorSeq. One catch-up scan runs
// immediately, so ops written between an earlier read and subscribe time are
// not lost. All deliveries happen on a single goroutine; flushes never
// overlap.
func Subscribe(store *oplog.Store, cursorSeq int64, onOps func([]op.Op)) (*Subscription, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	if err := fw.Add(store.Dir()); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch: watch %s: %w", store.Dir(), err)
	}

	s := &Subscription{
		store:   store,
		cursor:  cursorSeq,
		onOps:   onOps,
		watcher: fw,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

// Close stops the subscription and releases the filesystem watch handle.
// It blocks until the delivery goroutine has exited.
func (s *Subscription) Close() {
	close(s.quit)
	s.watcher.Close()
	<-s.done
}

func (s *Subscription) loop() {
	defer close(s.done)

	// Catch-up scan: anything appended before the watch was established.
	s.flush()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-s.quit:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !isOpFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				if armed && !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounce)
				armed = true
			}

		case <-timer.C:
			armed = false
			s.flush()

		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next settle rescans anyway.
		}
	}
}

// flush scans for ops past the cursor and delivers them. The cursor only
// advances on a successful, non-empty scan.
func (s *Subscription) flush() {
	ops, err := s.store.LoadSince(s.cursor)
	if err != nil || len(ops) == 0 {
		return
	}
	s.cursor = ops[len(ops)-1].Seq
	s.onOps(ops)
}

// isOpFile filters out temp files and anything that is not an op record.
func isOpFile(name string) bool {
	return strings.HasSuffix(name, ".json")
}
