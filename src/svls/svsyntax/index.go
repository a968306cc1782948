package svsyntax

import (
	"sort"

	"github.com/svlsp/svls-core/src/svls/entity"
	svlserrors "github.com/svlsp/svls-core/src/svls/internal/errors"
)

// hintCandidateKinds is the closed set of node kinds the Inlay Hint
// Collector can ever dispatch on.
var hintCandidateKinds = map[NodeKind]bool{
	NodeHierarchyInstantiation: true,
	NodeInvocationExpression:   true,
	NodeMacroUsage:             true,
	NodeClassName:              true,
}

// Index is the Syntax Indexer: a single pre-order walk over one SyntaxTree
// producing tokensInOrder, tokenToParent, and hintCandidates. It is built
// once per tree and is immutable afterward.
type Index struct {
	tree   *SyntaxTree
	buffer entity.BufferId

	tokensInOrder []*entity.Token

	tokenToParent map[*entity.Token]*Node

	// hintCandidates is kept both as a slice, sorted by start offset (for
	// range queries), and as a map for direct lookup.
	hintOrder      []*Node
	hintCandidates map[int]*Node

	// overlaps records TokenOverlapError instances found during
	// construction, logged by the caller but never fatal.
	overlaps []error
}

// NewIndex walks tree and builds the four structures described in the
// Syntax Indexer's contract. buffer restricts tokensInOrder/hintCandidates
// to the tree's primary buffer, per spec.
func NewIndex(tree *SyntaxTree) *Index {
	idx := &Index{
		tree:           tree,
		buffer:         tree.Buffer,
		tokenToParent:  make(map[*entity.Token]*Node),
		hintCandidates: make(map[int]*Node),
	}
	idx.walk(tree.Root, nil)
	idx.patchTrivia(tree.Root)
	sort.Slice(idx.tokensInOrder, func(i, j int) bool {
		return idx.tokensInOrder[i].Range.Start.Offset < idx.tokensInOrder[j].Range.Start.Offset
	})
	sort.Slice(idx.hintOrder, func(i, j int) bool {
		return idx.hintOrder[i].FirstToken().Range.Start.Offset < idx.hintOrder[j].FirstToken().Range.Start.Offset
	})
	idx.checkOverlaps()
	return idx
}

func (idx *Index) walk(n *Node, parent *Node) {
	if n == nil {
		return
	}
	if n.Parent == nil && parent != nil {
		n.Parent = parent
	}
	for _, tok := range n.Tokens {
		if tok.Kind == entity.TokenPlaceholder {
			continue
		}
		if tok.Range.Start.Buffer != idx.buffer {
			continue
		}
		idx.tokensInOrder = append(idx.tokensInOrder, tok)
		idx.tokenToParent[tok] = n
	}
	if hintCandidateKinds[n.Kind] {
		if first := n.FirstToken(); first != nil && first.Range.Start.Buffer == idx.buffer {
			idx.hintOrder = append(idx.hintOrder, n)
			idx.hintCandidates[first.Range.Start.Offset] = n
		}
	}
	for _, c := range n.Children {
		idx.walk(c, n)
	}
	for _, nodes := range n.Extra {
		for _, c := range nodes {
			idx.walk(c, n)
		}
	}
}

// patchTrivia implements step 3 of the Syntax Indexer contract: for each
// directive trivia attached to a token, recurse into the directive's own
// syntax and rewrite its parent pointer to the node the trivia decorates
// (the token's parent), so that scoped lookups inside macro-argument
// expressions resolve against the surrounding context rather than floating
// detached from the tree.
func (idx *Index) patchTrivia(n *Node) {
	if n == nil {
		return
	}
	for _, tok := range n.Tokens {
		decoratedParent, ok := idx.tokenToParent[tok]
		if !ok {
			continue
		}
		for _, trivia := range tok.Trivia {
			if trivia.Kind != entity.TokenDirective {
				continue
			}
			if directiveNode, ok := idx.tokenToParent[trivia]; ok {
				directiveNode.Parent = decoratedParent
			}
		}
	}
	for _, c := range n.Children {
		idx.patchTrivia(c)
	}
}

func (idx *Index) checkOverlaps() {
	for i := 1; i < len(idx.tokensInOrder); i++ {
		prev, cur := idx.tokensInOrder[i-1], idx.tokensInOrder[i]
		if prev.Range.Overlaps(cur.Range) {
			idx.overlaps = append(idx.overlaps, &svlserrors.TokenOverlapError{First: *prev, Second: *cur})
		}
	}
}

// Overlaps returns every TokenOverlapError found during construction, for
// the caller to log. Construction never aborts because of these.
func (idx *Index) Overlaps() []error {
	return idx.overlaps
}

// TokensInOrder returns the primary buffer's tokens sorted by start offset.
func (idx *Index) TokensInOrder() []*entity.Token {
	return idx.tokensInOrder
}

// ParentOf returns the syntax node whose direct children list contains tok,
// after trivia-directive patching.
func (idx *Index) ParentOf(tok *entity.Token) *Node {
	return idx.tokenToParent[tok]
}

// HintCandidates returns hint-candidate nodes in [lo, hi], extended
// backward by one step if the preceding candidate's range crosses lo, per
// spec step 1 of the Inlay Hint Collector.
func (idx *Index) HintCandidates(lo, hi int) []*Node {
	startIdx := sort.Search(len(idx.hintOrder), func(i int) bool {
		return idx.hintOrder[i].FirstToken().Range.Start.Offset >= lo
	})
	if startIdx > 0 {
		prev := idx.hintOrder[startIdx-1]
		if prev.Range.End.Offset > lo {
			startIdx--
		}
	}
	var out []*Node
	for i := startIdx; i < len(idx.hintOrder); i++ {
		n := idx.hintOrder[i]
		start := n.FirstToken().Range.Start.Offset
		if start > hi {
			break
		}
		out = append(out, n)
	}
	return out
}

// TokenIndexBefore returns the largest index i such that
// tokensInOrder[i].start <= loc, or -1 if loc precedes every token or is
// in a different buffer than the index's primary buffer.
func (idx *Index) TokenIndexBefore(loc entity.SourceLocation) int {
	if loc.Buffer != idx.buffer {
		return -1
	}
	i := sort.Search(len(idx.tokensInOrder), func(i int) bool {
		return idx.tokensInOrder[i].Range.Start.Offset > loc.Offset
	})
	return i - 1
}

// GetTokenAt returns the token whose range contains loc exactly, or nil.
func (idx *Index) GetTokenAt(loc entity.SourceLocation) *entity.Token {
	i := idx.TokenIndexBefore(loc)
	if i < 0 {
		return nil
	}
	tok := idx.tokensInOrder[i]
	if tok.Range.Contains(loc) {
		return tok
	}
	return nil
}

func isWordKind(k entity.TokenKind) bool {
	switch k {
	case entity.TokenIdentifier, entity.TokenSystemIdentifier, entity.TokenDirective, entity.TokenMacroUsage:
		return true
	default:
		return false
	}
}

// GetWordTokenAt returns the nearest word-like token whose range contains
// loc. If loc sits exactly at the end boundary of an identifier and the
// next token is not a word, the previous token is returned, since editor
// cursors live between characters rather than on them.
func (idx *Index) GetWordTokenAt(loc entity.SourceLocation) *entity.Token {
	if loc.Buffer != idx.buffer {
		return nil
	}
	n := len(idx.tokensInOrder)
	i := sort.Search(n, func(i int) bool {
		return idx.tokensInOrder[i].Range.Start.Offset >= loc.Offset
	})
	var prev, next *entity.Token
	if i > 0 {
		prev = idx.tokensInOrder[i-1]
	}
	if i < n {
		next = idx.tokensInOrder[i]
	}
	if prev != nil && prev.Range.Contains(loc) && isWordKind(prev.Kind) {
		return prev
	}
	if next != nil && next.Range.Contains(loc) && isWordKind(next.Kind) {
		return next
	}
	if prev != nil && prev.Range.End.Offset == loc.Offset && isWordKind(prev.Kind) {
		if next == nil || !isWordKind(next.Kind) {
			return prev
		}
	}
	return nil
}

// GetSyntaxAt returns the syntax node at loc: if inside a token, its
// parent; if between tokens, the lowest common ancestor of the flanking
// tokens' parent chains; nil at the end of the last token.
func (idx *Index) GetSyntaxAt(loc entity.SourceLocation) *Node {
	if tok := idx.GetTokenAt(loc); tok != nil {
		return idx.tokenToParent[tok]
	}
	i := idx.TokenIndexBefore(loc)
	if i < 0 || i+1 >= len(idx.tokensInOrder) {
		return nil
	}
	left := idx.tokenToParent[idx.tokensInOrder[i]]
	right := idx.tokenToParent[idx.tokensInOrder[i+1]]
	return lowestCommonAncestor(left, right)
}

func ancestorChain(n *Node) []*Node {
	var chain []*Node
	for cur := n; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	return chain
}

func lowestCommonAncestor(a, b *Node) *Node {
	if a == nil || b == nil {
		return nil
	}
	bSet := make(map[*Node]bool)
	for _, n := range ancestorChain(b) {
		bSet[n] = true
	}
	for _, n := range ancestorChain(a) {
		if bSet[n] {
			return n
		}
	}
	return nil
}
