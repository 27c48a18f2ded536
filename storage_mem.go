package nestfile

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"sync"
)

type memStorage struct {
	mu     sync.Mutex
	cond   *sync.Cond
	root   *memGroup
	closed bool
	writer bool
}

// newMemStorage returns a transient in-memory storage intended for tests.
func newMemStorage() *memStorage {
	s := &memStorage{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("storage closed")
	}
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			return nil, fmt.Errorf("storage closed")
		}
		s.writer = true
	}

	// Snapshot the entire tree for transactional isolation (simplicity over efficiency).
	return &memTx{
		writable: writable,
		base:     s,
		root:     s.root.clone(),
	}, nil
}

func (s *memStorage) Path() string { return ":memory:" }

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.root = nil
	if s.cond != nil {
		s.cond.Broadcast()
	}
	return nil
}

type memTx struct {
	base     *memStorage
	writable bool
	root     *memGroup
	closed   bool
}

func (tx *memTx) closeLocked() {
	if tx.closed {
		return
	}
	tx.closed = true
	if tx.writable {
		tx.base.writer = false
		tx.base.cond.Broadcast()
	}
}

func (tx *memTx) Root() (storageGroup, error) {
	if tx.closed {
		panic("tx is closed")
	}
	if tx.root == nil {
		if !tx.writable {
			return nil, nil
		}
		tx.root = &memGroup{}
	}
	return memGroupHandle{tx: tx, g: tx.root}, nil
}

func (tx *memTx) Reset() error {
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	tx.root = nil
	return nil
}

func (tx *memTx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	if tx.base.closed {
		tx.closeLocked()
		return fmt.Errorf("storage closed")
	}
	tx.base.root = tx.root
	tx.closeLocked()
	return nil
}

func (tx *memTx) Rollback() error {
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	tx.closeLocked()
	return nil
}

func (tx *memTx) Size() int64 { return 0 }

type memGroup struct {
	items []memEntry // sorted by name
	attrs []byte
}

type memEntry struct {
	name  []byte
	rec   []byte
	group *memGroup
}

func (g *memGroup) clone() *memGroup {
	if g == nil {
		return nil
	}
	out := &memGroup{
		items: make([]memEntry, len(g.items)),
		attrs: slices.Clone(g.attrs),
	}
	for i, e := range g.items {
		out.items[i] = memEntry{
			name:  slices.Clone(e.name),
			rec:   slices.Clone(e.rec),
			group: e.group.clone(),
		}
	}
	return out
}

type memGroupHandle struct {
	tx *memTx
	g  *memGroup
}

func (h memGroupHandle) find(name []byte) (idx int, ok bool) {
	items := h.g.items
	i := sort.Search(len(items), func(i int) bool {
		return bytes.Compare(items[i].name, name) >= 0
	})
	if i < len(items) && bytes.Equal(items[i].name, name) {
		return i, true
	}
	return i, false
}

func (h memGroupHandle) Group(name []byte) storageGroup {
	i, ok := h.find(name)
	if !ok || h.g.items[i].group == nil {
		return nil
	}
	return memGroupHandle{tx: h.tx, g: h.g.items[i].group}
}

func (h memGroupHandle) CreateGroup(name []byte) (storageGroup, error) {
	if !h.tx.writable {
		return nil, fmt.Errorf("tx not writable")
	}
	i, ok := h.find(name)
	if ok {
		if h.g.items[i].group == nil {
			return nil, errEntryKind
		}
		return memGroupHandle{tx: h.tx, g: h.g.items[i].group}, nil
	}
	g := &memGroup{}
	h.g.items = slices.Insert(h.g.items, i, memEntry{name: slices.Clone(name), group: g})
	return memGroupHandle{tx: h.tx, g: g}, nil
}

func (h memGroupHandle) Get(name []byte) []byte {
	i, ok := h.find(name)
	if !ok {
		return nil
	}
	return h.g.items[i].rec
}

func (h memGroupHandle) Put(name, rec []byte) error {
	if !h.tx.writable {
		return fmt.Errorf("tx not writable")
	}
	i, ok := h.find(name)
	if ok {
		if h.g.items[i].group != nil {
			return errEntryKind
		}
		h.g.items[i].rec = slices.Clone(rec)
		return nil
	}
	h.g.items = slices.Insert(h.g.items, i, memEntry{name: slices.Clone(name), rec: slices.Clone(rec)})
	return nil
}

func (h memGroupHandle) Delete(name []byte) error {
	if !h.tx.writable {
		return fmt.Errorf("tx not writable")
	}
	i, ok := h.find(name)
	if !ok {
		return nil
	}
	h.g.items = slices.Delete(h.g.items, i, i+1)
	return nil
}

func (h memGroupHandle) Cursor() storageCursor {
	return &memCursor{g: h.g, pos: -1}
}

func (h memGroupHandle) Attrs() []byte { return h.g.attrs }

func (h memGroupHandle) SetAttrs(data []byte) error {
	if !h.tx.writable {
		return fmt.Errorf("tx not writable")
	}
	h.g.attrs = slices.Clone(data)
	return nil
}

func (h memGroupHandle) Stats() bucketStats {
	var s bucketStats
	h.g.addStats(&s)
	s.LeafAlloc = s.LeafInuse
	return s
}

func (g *memGroup) addStats(s *bucketStats) {
	s.LeafInuse += int64(len(g.attrs))
	for _, e := range g.items {
		s.LeafInuse += int64(len(e.name) + len(e.rec))
		if e.group != nil {
			s.BucketN++
			e.group.addStats(s)
		} else {
			s.KeyN++
		}
	}
}

type memCursor struct {
	g   *memGroup
	pos int
}

func (c *memCursor) current() ([]byte, []byte) {
	if c.pos < 0 || c.pos >= len(c.g.items) {
		return nil, nil
	}
	e := c.g.items[c.pos]
	return e.name, e.rec
}

func (c *memCursor) First() ([]byte, []byte) {
	c.pos = 0
	return c.current()
}

func (c *memCursor) Next() ([]byte, []byte) {
	c.pos++
	return c.current()
}
