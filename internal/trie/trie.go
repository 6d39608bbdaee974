// Package trie implements a multi-valued prefix tree over byte keys with exact
// and single-substitution lookup.
//
// Nodes live in one slice and refer to their children by index; node 0 is the
// root. Nodes are never removed individually, only by Reset.
package trie

type edge struct {
	label byte
	node  int32
}

type node[V any] struct {
	children []edge // at most one edge per label, in insertion order
	values   []V
}

// Trie maps keys to the ordered list of values inserted under them.
// It is not safe for concurrent mutation; concurrent lookups are fine once
// inserts have stopped.
type Trie[V any] struct {
	nodes []node[V]
	size  int
}

// New returns an empty trie.
func New[V any]() *Trie[V] {
	t := &Trie[V]{}
	t.Reset()
	return t
}

// Reset discards every key and value.
func (t *Trie[V]) Reset() {
	t.nodes = []node[V]{{}}
	t.size = 0
}

// Len returns the number of inserted values.
func (t *Trie[V]) Len() int { return t.size }

// nodeCount returns the number of nodes, root included.
func (t *Trie[V]) nodeCount() int { return len(t.nodes) }

func (t *Trie[V]) child(n int32, label byte) (int32, bool) {
	for _, e := range t.nodes[n].children {
		if e.label == label {
			return e.node, true
		}
	}
	return 0, false
}

// Insert appends value to the list stored under key. Empty keys are ignored.
func (t *Trie[V]) Insert(key string, value V) {
	if len(key) == 0 {
		return
	}
	cur := int32(0)
	for i := 0; i < len(key); i++ {
		next, ok := t.child(cur, key[i])
		if !ok {
			t.nodes = append(t.nodes, node[V]{})
			next = int32(len(t.nodes) - 1)
			t.nodes[cur].children = append(t.nodes[cur].children, edge{label: key[i], node: next})
		}
		cur = next
	}
	t.nodes[cur].values = append(t.nodes[cur].values, value)
	t.size++
}

// Find dispatches to FindExact or FindTolerant.
func (t *Trie[V]) Find(key string, exactOnly bool) []V {
	if exactOnly {
		return t.FindExact(key)
	}
	return t.FindTolerant(key)
}

// FindExact returns a copy of the values stored under key, or nil.
func (t *Trie[V]) FindExact(key string) []V {
	if len(key) == 0 {
		return nil
	}
	return t.appendExact(nil, 0, key)
}

// appendExact walks key from node n and appends the terminal's values to out.
func (t *Trie[V]) appendExact(out []V, n int32, key string) []V {
	for i := 0; i < len(key); i++ {
		next, ok := t.child(n, key[i])
		if !ok {
			return out
		}
		n = next
	}
	return append(out, t.nodes[n].values...)
}

type budget uint8

const (
	noMismatchUsed budget = iota
	mismatchUsed
)

// FindTolerant returns the values of every stored key within Hamming distance
// one of key, where the differing symbol is never the first one. Values are
// grouped by terminal; a value is returned once per terminal that holds it.
func (t *Trie[V]) FindTolerant(key string) []V {
	if len(key) == 0 {
		return nil
	}
	return t.tolerant(nil, 0, key, 0, noMismatchUsed)
}

func (t *Trie[V]) tolerant(out []V, n int32, key string, depth int, state budget) []V {
	last := depth == len(key)-1
	for _, e := range t.nodes[n].children {
		switch {
		case e.label == key[depth]:
			if last {
				out = append(out, t.nodes[e.node].values...)
			} else {
				out = t.tolerant(out, e.node, key, depth+1, state)
			}
		case state == noMismatchUsed && depth > 0:
			// Substitute here; the remaining symbols must match exactly.
			if last {
				out = append(out, t.nodes[e.node].values...)
			} else {
				out = t.tolerant(out, e.node, key, depth+1, mismatchUsed)
			}
		}
	}
	return out
}
