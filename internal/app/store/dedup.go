package store

// dedupWindow remembers the most recent event keys in insertion order and
// forgets the oldest once full. A size of zero disables deduplication.
type dedupWindow struct {
	keys []string
	next int
	set  map[string]struct{}
}

func newDedupWindow(size int) *dedupWindow {
	if size <= 0 {
		return &dedupWindow{}
	}
	return &dedupWindow{
		keys: make([]string, 0, size),
		set:  make(map[string]struct{}, size),
	}
}

func (w *dedupWindow) seen(key string) bool {
	_, ok := w.set[key]
	return ok
}

func (w *dedupWindow) remember(key string) {
	if cap(w.keys) == 0 {
		return
	}
	if _, ok := w.set[key]; ok {
		return
	}

	if len(w.keys) < cap(w.keys) {
		w.keys = append(w.keys, key)
	} else {
		delete(w.set, w.keys[w.next])
		w.keys[w.next] = key
		w.next = (w.next + 1) % len(w.keys)
	}
	w.set[key] = struct{}{}
}

func (w *dedupWindow) len() int {
	return len(w.set)
}
