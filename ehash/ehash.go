// Package ehash implements a chained hash table keyed by integer handles.
//
// Buckets are singly linked through Entry.next, the same way navmesh tiles are
// chained in a position lookup. The bucket count is taken from a fixed prime
// sequence and grows by one size class whenever the number of entries exceeds
// the number of buckets.
package ehash

// Key is any integer type that can serve as an opaque handle.
type Key interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

var hashSizes = [...]int{
	1, 3, 5, 11, 17, 37, 67, 131, 257, 521,
	1031, 2053, 4099, 8209, 16411, 32771, 65537, 131101, 262147, 524309,
	1048583, 2097169, 4194319, 8388617, 16777259, 33554467, 67108879, 134217757, 268435459,
}

// Entry is one key/value node of a bucket chain.
type Entry[K Key, V any] struct {
	next  *Entry[K, V]
	Key   K
	Value V
}

// Table maps handles to values. It is not safe for concurrent use.
type Table[K Key, V any] struct {
	buckets    []*Entry[K, V]
	numEntries int
	curSizeIdx int
	mods       int // bumped on every structural change, checked by iterators
}

// New returns a table pre-sized for about estimated entries.
func New[K Key, V any](estimated int) *Table[K, V] {
	t := &Table[K, V]{}
	for t.curSizeIdx < len(hashSizes)-1 && hashSizes[t.curSizeIdx] < estimated {
		t.curSizeIdx++
	}
	t.buckets = make([]*Entry[K, V], hashSizes[t.curSizeIdx])
	return t
}

func (t *Table[K, V]) hash(key K) int {
	return int(uint64(key) % uint64(len(t.buckets)))
}

// Len returns the number of entries.
func (t *Table[K, V]) Len() int { return t.numEntries }

// BucketCount returns the current number of buckets.
func (t *Table[K, V]) BucketCount() int { return len(t.buckets) }

// SizeClass returns the index of the current bucket count in the size sequence.
func (t *Table[K, V]) SizeClass() int { return t.curSizeIdx }

// Insert adds a new entry. Existing entries with the same key are kept; the
// newest one shadows them for Lookup.
func (t *Table[K, V]) Insert(key K, value V) *Entry[K, V] {
	e := &Entry[K, V]{Key: key, Value: value}
	t.InsertEntry(e)
	return e
}

// InsertEntry links an entry previously detached with UnlinkAt, possibly from
// another table.
func (t *Table[K, V]) InsertEntry(e *Entry[K, V]) {
	h := t.hash(e.Key)
	e.next = t.buckets[h]
	t.buckets[h] = e
	t.numEntries++
	t.mods++

	if t.numEntries > len(t.buckets) && t.curSizeIdx < len(hashSizes)-1 {
		t.grow()
	}
}

func (t *Table[K, V]) grow() {
	old := t.buckets
	t.curSizeIdx++
	t.buckets = make([]*Entry[K, V], hashSizes[t.curSizeIdx])
	// Append at the tail so duplicate keys keep their shadowing order.
	tails := make([]*Entry[K, V], len(t.buckets))
	for _, e := range old {
		for e != nil {
			next := e.next
			h := t.hash(e.Key)
			e.next = nil
			if tails[h] == nil {
				t.buckets[h] = e
			} else {
				tails[h].next = e
			}
			tails[h] = e
			e = next
		}
	}
}

// Lookup returns the value stored under key.
func (t *Table[K, V]) Lookup(key K) (value V, ok bool) {
	for e := t.buckets[t.hash(key)]; e != nil; e = e.next {
		if e.Key == key {
			return e.Value, true
		}
	}
	return value, false
}

// LookupWithPrev returns the entry for key together with the slot that links
// to it, so the entry can be detached in O(1) with UnlinkAt. Both are nil when
// the key is absent.
func (t *Table[K, V]) LookupWithPrev(key K) (entry *Entry[K, V], prev **Entry[K, V]) {
	prev = &t.buckets[t.hash(key)]
	for e := *prev; e != nil; e = e.next {
		if e.Key == key {
			return e, prev
		}
		prev = &e.next
	}
	return nil, nil
}

// LookupWithPrevFunc is LookupWithPrev restricted to entries whose value
// satisfies match. It finds a specific entry among several sharing a key.
func (t *Table[K, V]) LookupWithPrevFunc(key K, match func(V) bool) (entry *Entry[K, V], prev **Entry[K, V]) {
	prev = &t.buckets[t.hash(key)]
	for e := *prev; e != nil; e = e.next {
		if e.Key == key && match(e.Value) {
			return e, prev
		}
		prev = &e.next
	}
	return nil, nil
}

// UnlinkAt detaches the entry linked from prev and returns it. The slot must
// come from LookupWithPrev on this table with no mutation in between.
func (t *Table[K, V]) UnlinkAt(prev **Entry[K, V]) *Entry[K, V] {
	e := *prev
	*prev = e.next
	e.next = nil
	t.numEntries--
	t.mods++
	return e
}

// Remove deletes the newest entry stored under key.
func (t *Table[K, V]) Remove(key K) (value V, ok bool) {
	e, prev := t.LookupWithPrev(key)
	if e == nil {
		return value, false
	}
	t.UnlinkAt(prev)
	return e.Value, true
}

// Free empties the table, calling fn for every entry when fn is not nil.
func (t *Table[K, V]) Free(fn func(key K, value V)) {
	if fn != nil {
		for _, e := range t.buckets {
			for ; e != nil; e = e.next {
				fn(e.Key, e.Value)
			}
		}
	}
	clear(t.buckets)
	t.numEntries = 0
	t.mods++
}

// Each calls fn for every entry in bucket order. fn must not mutate the table.
func (t *Table[K, V]) Each(fn func(key K, value V)) {
	it := t.Iterator()
	for it.Next() {
		fn(it.Key(), it.Value())
	}
}

// Values collects every value in bucket order.
func (t *Table[K, V]) Values() []V {
	res := make([]V, 0, t.numEntries)
	t.Each(func(_ K, v V) { res = append(res, v) })
	return res
}

// Iterator walks the buckets in order.
type Iterator[K Key, V any] struct {
	t      *Table[K, V]
	bucket int
	cur    *Entry[K, V]
	mods   int
}

// Iterator returns an iterator positioned before the first entry.
func (t *Table[K, V]) Iterator() *Iterator[K, V] {
	return &Iterator[K, V]{t: t, bucket: -1, mods: t.mods}
}

// Next advances to the next entry and reports whether there is one. It panics
// when the table was mutated since the iterator was created.
func (it *Iterator[K, V]) Next() bool {
	if it.mods != it.t.mods {
		panic("ehash: table modified during iteration")
	}
	if it.cur != nil {
		it.cur = it.cur.next
	}
	for it.cur == nil {
		it.bucket++
		if it.bucket >= len(it.t.buckets) {
			return false
		}
		it.cur = it.t.buckets[it.bucket]
	}
	return true
}

func (it *Iterator[K, V]) Key() K   { return it.cur.Key }
func (it *Iterator[K, V]) Value() V { return it.cur.Value }
