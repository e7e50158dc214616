package store

import "sync"

// watcher fans out change signals to subscribers. Each subscriber gets a
// buffered channel of size one, so signals coalesce instead of queueing:
// a subscriber that is busy re-querying will see at most one pending
// signal and re-query once more, always landing on current state.
type watcher struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	nextID int
	closed bool
}

func newWatcher() *watcher {
	return &watcher{subs: make(map[int]chan struct{})}
}

// subscribe registers a new listener and returns its channel plus a
// cancel func that unregisters it.
func (w *watcher) subscribe() (<-chan struct{}, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	ch := make(chan struct{}, 1)
	if w.closed {
		close(ch)
		return ch, func() {}
	}
	w.subs[id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if _, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// notify signals all subscribers without blocking. A full channel means a
// signal is already pending for that subscriber and the new one coalesces
// into it.
func (w *watcher) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// closeAll closes every subscriber channel. Used on store shutdown.
func (w *watcher) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	for id, ch := range w.subs {
		delete(w.subs, id)
		close(ch)
	}
}
