package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/mptdb/pkg/core/hashdb"
	"github.com/nspcc-dev/mptdb/pkg/core/mpt/codec"
	"github.com/nspcc-dev/mptdb/pkg/util"
	"go.uber.org/zap"
)

// TrieDBMut is a mutable trie session over a BackingStore. Changes are kept
// in an in-memory arena until Root commits them. The session holds a
// reference to its latest committed root, so any number of sessions can
// share the store and start from the same root. It's not safe for
// concurrent use.
type TrieDBMut struct {
	db    BackingStore
	codec codec.Codec
	cache *NodeCache
	log   *zap.Logger
	mode  Mode

	arena nodeArena
	// loaded maps digests of nodes fetched in this session to their arena
	// slots.
	loaded    map[util.Uint256]StorageHandle
	root      NodeHandle
	emptyRoot util.Uint256
	// base is the committed root the session holds a reference to (none
	// for the empty root).
	base util.Uint256
	// deathRow holds digests the session has to drop a reference to, it's
	// processed on commit.
	deathRow []util.Uint256
}

// change tracks arena and store updates of a single mutation, they're
// applied only if the mutation succeeds.
type change struct {
	allocated []StorageHandle
	replaced  []StorageHandle
	deathRow  []util.Uint256
}

var (
	_ TrieMut = (*TrieDBMut)(nil)
	_ TrieMut = (*SecTrieDBMut)(nil)
)

// NewTrieDBMut returns an empty trie over db.
func NewTrieDBMut(db BackingStore, cfg Config) *TrieDBMut {
	cfg = cfg.withDefaults()
	emptyRoot := EmptyRoot(db.Hasher(), cfg.Codec)
	return &TrieDBMut{
		db:        db,
		codec:     cfg.Codec,
		cache:     cfg.Cache,
		log:       cfg.Log,
		mode:      cfg.Mode,
		arena:     newNodeArena(),
		loaded:    make(map[util.Uint256]StorageHandle),
		root:      HashHandle(emptyRoot),
		emptyRoot: emptyRoot,
		base:      emptyRoot,
	}
}

// NewTrieDBMutFromExisting returns a trie over db starting at the committed
// root and takes a reference to it. MissingNodeError is returned if db has
// no such root.
func NewTrieDBMutFromExisting(db BackingStore, root util.Uint256, cfg Config) (*TrieDBMut, error) {
	t := NewTrieDBMut(db, cfg)
	if root == t.emptyRoot {
		return t, nil
	}
	if err := db.Reference(root); err != nil {
		if errors.Is(err, hashdb.ErrNotFound) {
			return nil, &MissingNodeError{Hash: root, Err: err}
		}
		return nil, fmt.Errorf("failed to reference root %s: %w", root.StringBE(), err)
	}
	t.root = HashHandle(root)
	t.base = root
	if _, err := t.resolve(t.root); err != nil {
		return nil, errors.Join(err, db.Remove(root))
	}
	return t, nil
}

// EmptyRoot returns the digest of an empty trie.
func (t *TrieDBMut) EmptyRoot() util.Uint256 {
	return t.emptyRoot
}

// IsEmpty implements TrieMut interface.
func (t *TrieDBMut) IsEmpty() bool {
	h, ok := t.root.Hash()
	return ok && h == t.emptyRoot
}

// Get implements TrieMut interface.
func (t *TrieDBMut) Get(key []byte) ([]byte, error) {
	return lookup(t.root, NewNibbleSlice(key), t.resolve)
}

// Contains implements TrieMut interface.
func (t *TrieDBMut) Contains(key []byte) (bool, error) {
	v, err := t.Get(key)
	return v != nil, err
}

// Insert implements TrieMut interface.
func (t *TrieDBMut) Insert(key, value []byte) error {
	if len(value) == 0 {
		return t.Remove(key)
	}
	var c change
	h, changed, err := t.insertAt(t.root, NewNibbleSlice(key), value, &c)
	return t.apply(h, changed, err, &c)
}

// Remove implements TrieMut interface.
func (t *TrieDBMut) Remove(key []byte) error {
	var c change
	h, changed, err := t.removeAt(t.root, NewNibbleSlice(key), &c)
	if err == nil && changed && h.IsAbsent() {
		h = HashHandle(t.emptyRoot)
	}
	return t.apply(h, changed, err, &c)
}

// apply finishes mutation making root the new root on success and dropping
// all nodes it created otherwise.
func (t *TrieDBMut) apply(root NodeHandle, changed bool, err error, c *change) error {
	if err != nil {
		for _, h := range c.allocated {
			t.arena.destroy(h)
		}
		return err
	}
	if !changed {
		return nil
	}
	for _, h := range c.replaced {
		t.arena.destroy(h)
	}
	t.deathRow = append(t.deathRow, c.deathRow...)
	t.root = root
	return nil
}

// resolve returns the node behind h. Committed nodes are fetched once per
// session and kept in the arena.
func (t *TrieDBMut) resolve(h NodeHandle) (Node, error) {
	if idx, ok := h.InMemory(); ok {
		return t.arena.get(idx), nil
	}
	d, _ := h.Hash()
	if d == t.emptyRoot {
		return EmptyNode{}, nil
	}
	if idx, ok := t.loaded[d]; ok {
		return t.arena.get(idx), nil
	}
	n, err := fetchNode(t.db, t.codec, t.cache, d)
	if err != nil {
		return nil, err
	}
	t.loaded[d] = t.arena.alloc(cachedStored{n: n, hash: d})
	return n, nil
}

// alloc puts n into the arena as a dirty node.
func (t *TrieDBMut) alloc(n Node, c *change) NodeHandle {
	idx := t.arena.alloc(newStored{n: n})
	c.allocated = append(c.allocated, idx)
	return InMemory(idx)
}

// replace marks the node behind h as no longer referenced by the trie.
// Committed nodes are released along with the root holding them, only the
// ones written by a failed commit and still held by the session need a
// separate release.
func (t *TrieDBMut) replace(h NodeHandle, c *change) {
	idx, ok := h.InMemory()
	if !ok {
		return
	}
	c.replaced = append(c.replaced, idx)
	if w, ok := t.arena.stored(idx).(writtenStored); ok && w.held {
		c.deathRow = append(c.deathRow, w.hash)
	}
}

func (t *TrieDBMut) newLeaf(key NibbleSlice, value []byte, c *change) NodeHandle {
	return t.alloc(LeafNode{Key: key.Clone(), Value: bytes.Clone(value)}, c)
}

// insertAt puts value at path into the subtrie h. It returns the handle of
// the new subtrie and whether anything was changed.
func (t *TrieDBMut) insertAt(h NodeHandle, path NibbleSlice, value []byte, c *change) (NodeHandle, bool, error) {
	if h.IsAbsent() {
		return t.newLeaf(path, value, c), true, nil
	}
	n, err := t.resolve(h)
	if err != nil {
		return h, false, err
	}
	switch n := n.(type) {
	case EmptyNode:
		return t.newLeaf(path, value, c), true, nil
	case LeafNode:
		res, changed := t.insertIntoLeaf(h, n, path, value, c)
		return res, changed, nil
	case ExtensionNode:
		return t.insertIntoExtension(h, n, path, value, c)
	case BranchNode:
		return t.insertIntoBranch(h, n, path, value, c)
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}

func (t *TrieDBMut) insertIntoLeaf(h NodeHandle, n LeafNode, path NibbleSlice, value []byte, c *change) (NodeHandle, bool) {
	if n.Key.Equal(path) {
		if bytes.Equal(n.Value, value) {
			return h, false
		}
		t.replace(h, c)
		return t.alloc(LeafNode{Key: n.Key, Value: bytes.Clone(value)}, c), true
	}

	t.replace(h, c)
	cp := n.Key.CommonPrefix(path)
	var b BranchNode
	if cp == n.Key.Len() {
		b.Value = n.Value
	} else {
		b.Children[n.Key.At(cp)] = t.alloc(LeafNode{Key: n.Key.Mid(cp + 1), Value: n.Value}, c)
	}
	t.putIntoNewBranch(&b, path.Mid(cp), value, c)
	return t.wrapBranch(path.Left(cp), b, c), true
}

func (t *TrieDBMut) insertIntoExtension(h NodeHandle, n ExtensionNode, path NibbleSlice, value []byte, c *change) (NodeHandle, bool, error) {
	cp := n.Key.CommonPrefix(path)
	if cp == n.Key.Len() {
		child, changed, err := t.insertAt(n.Child, path.Mid(cp), value, c)
		if err != nil || !changed {
			return h, false, err
		}
		t.replace(h, c)
		return t.alloc(ExtensionNode{Key: n.Key, Child: child}, c), true, nil
	}

	t.replace(h, c)
	var b BranchNode
	if rest := n.Key.Mid(cp + 1); rest.IsEmpty() {
		b.Children[n.Key.At(cp)] = n.Child
	} else {
		b.Children[n.Key.At(cp)] = t.alloc(ExtensionNode{Key: rest, Child: n.Child}, c)
	}
	t.putIntoNewBranch(&b, path.Mid(cp), value, c)
	return t.wrapBranch(path.Left(cp), b, c), true, nil
}

func (t *TrieDBMut) insertIntoBranch(h NodeHandle, n BranchNode, path NibbleSlice, value []byte, c *change) (NodeHandle, bool, error) {
	if path.IsEmpty() {
		if bytes.Equal(n.Value, value) {
			return h, false, nil
		}
		n.Value = bytes.Clone(value)
	} else {
		i := path.At(0)
		child, changed, err := t.insertAt(n.Children[i], path.Mid(1), value, c)
		if err != nil || !changed {
			return h, false, err
		}
		n.Children[i] = child
	}
	t.replace(h, c)
	return t.alloc(n, c), true, nil
}

// putIntoNewBranch puts value at path into a branch being built by split.
func (t *TrieDBMut) putIntoNewBranch(b *BranchNode, path NibbleSlice, value []byte, c *change) {
	if path.IsEmpty() {
		b.Value = bytes.Clone(value)
		return
	}
	b.Children[path.At(0)] = t.newLeaf(path.Mid(1), value, c)
}

// wrapBranch stores b putting it behind an extension with key if it's not empty.
func (t *TrieDBMut) wrapBranch(key NibbleSlice, b BranchNode, c *change) NodeHandle {
	h := t.alloc(b, c)
	if key.IsEmpty() {
		return h
	}
	return t.alloc(ExtensionNode{Key: key.Clone(), Child: h}, c)
}

// removeAt deletes path from the subtrie h. It returns the handle of the new
// subtrie (absent if nothing is left) and whether anything was changed.
func (t *TrieDBMut) removeAt(h NodeHandle, path NibbleSlice, c *change) (NodeHandle, bool, error) {
	if h.IsAbsent() {
		return h, false, nil
	}
	n, err := t.resolve(h)
	if err != nil {
		return h, false, err
	}
	switch n := n.(type) {
	case EmptyNode:
		return h, false, nil
	case LeafNode:
		if !n.Key.Equal(path) {
			return h, false, nil
		}
		t.replace(h, c)
		return NodeHandle{}, true, nil
	case ExtensionNode:
		if !path.StartsWith(n.Key) {
			return h, false, nil
		}
		child, changed, err := t.removeAt(n.Child, path.Mid(n.Key.Len()), c)
		if err != nil || !changed {
			return h, false, err
		}
		t.replace(h, c)
		if child.IsAbsent() {
			return child, true, nil
		}
		nh, err := t.prependKey(n.Key, child, c)
		return nh, err == nil, err
	case BranchNode:
		if path.IsEmpty() {
			if len(n.Value) == 0 {
				return h, false, nil
			}
			n.Value = nil
		} else {
			i := path.At(0)
			child, changed, err := t.removeAt(n.Children[i], path.Mid(1), c)
			if err != nil || !changed {
				return h, false, err
			}
			n.Children[i] = child
		}
		t.replace(h, c)
		nh, err := t.collapseBranch(n, c)
		return nh, err == nil, err
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}

// collapseBranch stores b restructuring it if it has less than two entries.
func (t *TrieDBMut) collapseBranch(b BranchNode, c *change) (NodeHandle, error) {
	count, last := b.childrenCount()
	switch {
	case count == 0 && len(b.Value) == 0:
		return NodeHandle{}, nil
	case count == 0:
		return t.alloc(LeafNode{Key: NibbleSlice{}, Value: b.Value}, c), nil
	case count == 1 && len(b.Value) == 0:
		return t.prependKey(singleNibble(last), b.Children[last], c)
	default:
		return t.alloc(b, c), nil
	}
}

// prependKey returns a node for the subtrie h moved down by key. Leaves and
// extensions absorb the key, branches are put behind an extension.
func (t *TrieDBMut) prependKey(key NibbleSlice, h NodeHandle, c *change) (NodeHandle, error) {
	n, err := t.resolve(h)
	if err != nil {
		return h, err
	}
	switch n := n.(type) {
	case LeafNode:
		t.replace(h, c)
		return t.alloc(LeafNode{Key: concatNibbles(key, n.Key), Value: n.Value}, c), nil
	case ExtensionNode:
		t.replace(h, c)
		return t.alloc(ExtensionNode{Key: concatNibbles(key, n.Key), Child: n.Child}, c), nil
	case BranchNode:
		return t.alloc(ExtensionNode{Key: key.Clone(), Child: h}, c), nil
	default:
		panic(fmt.Sprintf("unexpected node type %T under a branch", n))
	}
}

// Root implements TrieMut interface. It writes all dirty nodes to the
// BackingStore and moves the session reference to the new root. In
// ModeLatest the previous root is released, so nodes no other root refers
// to are removed.
func (t *TrieDBMut) Root() (util.Uint256, error) {
	var written int
	root, held, err := t.commit(t.root, &written)
	if err != nil {
		return util.Uint256{}, fmt.Errorf("failed to commit trie: %w", err)
	}
	if !held && root == t.base && len(t.deathRow) == 0 {
		return root, nil
	}
	if !held && root != t.base && root != t.emptyRoot {
		if err := t.db.Reference(root); err != nil {
			return util.Uint256{}, fmt.Errorf("failed to reference root %s: %w", root.StringBE(), err)
		}
		held = true
	}
	if held || root != t.base {
		if t.base != t.emptyRoot && (t.base == root || t.mode == ModeLatest) {
			t.deathRow = append(t.deathRow, t.base)
		}
		t.base = root
	}
	t.root = HashHandle(root)
	t.arena = newNodeArena()
	clear(t.loaded)

	released := len(t.deathRow)
	if err := t.release(); err != nil {
		return util.Uint256{}, err
	}

	commits.Inc()
	committedNodes.Add(float64(written))
	releasedRefs.Add(float64(released))
	t.log.Debug("trie committed",
		zap.Stringer("root", root),
		zap.Int("nodes written", written),
		zap.Int("references released", released))
	return root, nil
}

// release drops references from the death row.
func (t *TrieDBMut) release() error {
	for len(t.deathRow) > 0 {
		if err := t.db.Remove(t.deathRow[0]); err != nil {
			return fmt.Errorf("failed to release node %s: %w", t.deathRow[0].StringBE(), err)
		}
		t.deathRow = t.deathRow[1:]
	}
	t.deathRow = nil
	return nil
}

// Close implements TrieMut interface. It drops uncommitted changes along
// with references held for nodes written by a failed Root. In ModeLatest
// the reference to the session root is released too. The session can't be
// used afterwards.
func (t *TrieDBMut) Close() error {
	for _, s := range t.arena.nodes {
		if w, ok := s.(writtenStored); ok && w.held {
			t.deathRow = append(t.deathRow, w.hash)
		}
	}
	if t.base != t.emptyRoot && t.mode == ModeLatest {
		t.deathRow = append(t.deathRow, t.base)
	}
	t.base = t.emptyRoot
	t.root = HashHandle(t.emptyRoot)
	t.arena = newNodeArena()
	clear(t.loaded)
	return t.release()
}

// commit writes the subtrie h to db in post-order and returns its digest.
// Every written node takes references to its children, the references taken
// by writing children themselves are scheduled for release. The second
// result is true if the session holds a reference to the returned node.
func (t *TrieDBMut) commit(h NodeHandle, written *int) (util.Uint256, bool, error) {
	if d, ok := h.Hash(); ok {
		return d, false, nil
	}
	idx, _ := h.InMemory()
	var n Node
	switch s := t.arena.stored(idx).(type) {
	case cachedStored:
		return s.hash, false, nil
	case writtenStored:
		return s.hash, s.held, nil
	case newStored:
		n = s.n
	}

	var (
		refs []util.Uint256
		held []StorageHandle
	)
	child := func(h NodeHandle) (util.Uint256, error) {
		d, ok, err := t.commit(h, written)
		if err != nil {
			return d, err
		}
		if ok {
			i, _ := h.InMemory()
			held = append(held, i)
		}
		refs = append(refs, d)
		return d, nil
	}
	var cn codec.Node
	switch n := n.(type) {
	case LeafNode:
		cn = codec.Leaf{Key: n.Key.ToNibbles(), Value: n.Value}
	case ExtensionNode:
		d, err := child(n.Child)
		if err != nil {
			return util.Uint256{}, false, err
		}
		cn = codec.Extension{Key: n.Key.ToNibbles(), Child: d}
	case BranchNode:
		var b = codec.Branch{Value: n.Value}
		for i := range n.Children {
			if n.Children[i].IsAbsent() {
				continue
			}
			d, err := child(n.Children[i])
			if err != nil {
				return util.Uint256{}, false, err
			}
			b.Children[i] = &d
		}
		cn = b
	default:
		panic(fmt.Sprintf("unexpected dirty node type %T", n))
	}
	d, err := t.db.Insert(t.codec.Encode(cn), refs...)
	if err != nil {
		return util.Uint256{}, false, err
	}
	for _, i := range held {
		w := t.arena.stored(i).(writtenStored)
		w.held = false
		t.arena.set(i, w)
		t.deathRow = append(t.deathRow, w.hash)
	}
	t.arena.set(idx, writtenStored{n: n, hash: d, held: true})
	*written++
	return d, true, nil
}

// Walk calls f for every key-value pair (including uncommitted ones) in
// ascending key order until f returns false.
func (t *TrieDBMut) Walk(f func(key, value []byte) bool) error {
	_, err := walk(t.root, nil, t.resolve, f)
	return err
}
