package purifier

// Node is a single trie node keyed by one normalized rune.
// Each node exclusively owns its children.
type Node struct {
	char     rune
	terminal bool
	children map[rune]*Node
}

func newNode(c rune) *Node {
	return &Node{
		char:     c,
		children: make(map[rune]*Node),
	}
}

// Char returns the rune this node is keyed by. The root returns 0.
func (n *Node) Char() rune {
	return n.char
}

// IsTerminal reports whether an inserted word ends exactly at this node.
func (n *Node) IsTerminal() bool {
	return n.terminal
}

// add returns the child for c, creating it if absent.
func (n *Node) add(c rune) *Node {
	child, ok := n.children[c]
	if !ok {
		child = newNode(c)
		n.children[c] = child
	}
	return child
}

// Trie is a prefix tree of normalized banned words.
//
// A Trie is not safe for concurrent mutation. Concurrent calls to ChildFor
// (and therefore Matcher.Scan) are safe as long as no Insert runs at the
// same time.
type Trie struct {
	root  *Node
	words int
}

// NewTrie returns an empty trie.
func NewTrie() *Trie {
	return &Trie{
		root: newNode(0),
	}
}

// Root returns the root node. It has no character and is never terminal.
func (t *Trie) Root() *Node {
	return t.root
}

// Len returns the number of distinct words stored.
func (t *Trie) Len() int {
	return t.words
}

// Insert normalizes word and adds it to the trie. Words that normalize to
// the empty string are ignored. Inserting the same word twice is a no-op.
func (t *Trie) Insert(word string) {
	key := NormalizeWord(word)
	if len(key) == 0 {
		return
	}

	node := t.root
	for _, c := range key {
		node = node.add(c)
	}
	if !node.terminal {
		node.terminal = true
		t.words++
	}
}

// ChildFor returns the child of node keyed by c, or nil if there is none.
// It never creates nodes.
func (t *Trie) ChildFor(node *Node, c rune) *Node {
	if node == nil {
		return nil
	}
	return node.children[c]
}
