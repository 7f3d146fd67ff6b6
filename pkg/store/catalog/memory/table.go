package memory

// table is one entity collection of the store with a transactional overlay.
//
// Committed rows live in base. A write transaction records puts in staged
// and deletions in removed; reads consult the overlay first. commit folds the
// overlay into base. Rows are cloned on the way in and out so callers never
// alias stored values.
type table[T any] struct {
	base    map[string]*T
	staged  map[string]*T
	removed map[string]struct{}
	clone   func(*T) *T
}

func newTable[T any](clone func(*T) *T) *table[T] {
	return &table[T]{base: make(map[string]*T), clone: clone}
}

// begin returns a view of t with an empty overlay sharing the committed rows.
func (t *table[T]) begin() *table[T] {
	return &table[T]{
		base:    t.base,
		staged:  make(map[string]*T),
		removed: make(map[string]struct{}),
		clone:   t.clone,
	}
}

func (t *table[T]) get(id string) (*T, bool) {
	if _, gone := t.removed[id]; gone {
		return nil, false
	}
	if v, ok := t.staged[id]; ok {
		return t.clone(v), true
	}
	if v, ok := t.base[id]; ok {
		return t.clone(v), true
	}
	return nil, false
}

func (t *table[T]) put(id string, v *T) {
	delete(t.removed, id)
	t.staged[id] = t.clone(v)
}

func (t *table[T]) del(id string) bool {
	if _, ok := t.get(id); !ok {
		return false
	}
	delete(t.staged, id)
	t.removed[id] = struct{}{}
	return true
}

// scan calls fn for every visible row. Returned rows are clones.
func (t *table[T]) scan(fn func(*T)) {
	for id, v := range t.base {
		if _, gone := t.removed[id]; gone {
			continue
		}
		if _, over := t.staged[id]; over {
			continue
		}
		fn(t.clone(v))
	}
	for _, v := range t.staged {
		fn(t.clone(v))
	}
}

// commit applies the overlay to the shared committed rows.
func (t *table[T]) commit() {
	for id := range t.removed {
		delete(t.base, id)
	}
	for id, v := range t.staged {
		t.base[id] = v
	}
}
