// ABOUTME: Size-bounded TTL window answering "have we seen this key recently?"
// ABOUTME: Used by the poller to log a repeating fetch error once per window

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key  string
	seen time.Time
}

// Window remembers keys for a fixed TTL, holding at most maxSize keys.
// Expired keys are dropped lazily on access, so no background goroutine is
// needed. Safe for concurrent use.
type Window struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	keys    map[string]*list.Element
	order   *list.List // oldest at front
	now     func() time.Time
}

// New creates a window. A non-positive maxSize is treated as 1.
func New(ttl time.Duration, maxSize int) *Window {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Window{
		ttl:     ttl,
		maxSize: maxSize,
		keys:    make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// CheckAndMark reports whether key was already seen within the TTL. A key
// that was not seen is marked. A key that was seen keeps its original mark,
// so a steady stream of repeats still surfaces once per TTL.
func (w *Window) CheckAndMark(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.expireLocked()
	if _, ok := w.keys[key]; ok {
		return true
	}

	if w.order.Len() >= w.maxSize {
		w.removeLocked(w.order.Front())
	}
	w.keys[key] = w.order.PushBack(&entry{key: key, seen: w.now()})
	return false
}

// Reset drops every key.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.keys = make(map[string]*list.Element)
	w.order.Init()
}

// Len returns the number of live keys.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.expireLocked()
	return w.order.Len()
}

// expireLocked drops expired keys from the front. Entries are in mark order
// and marks are never refreshed, so the front is always the oldest.
func (w *Window) expireLocked() {
	now := w.now()
	for el := w.order.Front(); el != nil; el = w.order.Front() {
		if now.Sub(el.Value.(*entry).seen) < w.ttl {
			return
		}
		w.removeLocked(el)
	}
}

func (w *Window) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	delete(w.keys, el.Value.(*entry).key)
	w.order.Remove(el)
}
