package richtext

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// InlineStyle is an inline formatting toggled over a selection.
type InlineStyle int

const (
	InlineStrong InlineStyle = iota
	InlineEmphasis
)

func (s InlineStyle) atoms() (atom.Atom, atom.Atom) {
	if s == InlineEmphasis {
		return atom.Em, atom.I
	}
	return atom.Strong, atom.B
}

// BlockKind is the kind a block can be reformatted to.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading1
	BlockHeading2
	BlockHeading3
	BlockUnorderedList
	BlockOrderedList
)

func (k BlockKind) atom() atom.Atom {
	switch k {
	case BlockHeading1:
		return atom.H1
	case BlockHeading2:
		return atom.H2
	case BlockHeading3:
		return atom.H3
	case BlockUnorderedList:
		return atom.Ul
	case BlockOrderedList:
		return atom.Ol
	}
	return atom.P
}

type segment struct {
	node       *html.Node
	start, end int
}

// ToggleInlineStyle applies style to the selection, or removes it when the
// whole selection already carries it. With a collapsed selection an empty
// styled element is opened at the caret.
func (s *Surface) ToggleInlineStyle(style InlineStyle) {
	primary, alt := style.atoms()
	defer s.renotify()

	if s.selection.Collapsed() {
		caret := s.ensureCaret()
		if FindAncestor(caret.Node, s.root, primary, alt) != nil {
			return
		}
		el := NewElement(primary)
		t := NewText("")
		el.AppendChild(t)
		s.insertInline(caret, el)
		s.SetCursor(Point{Node: t})
		return
	}

	segments := s.segments()
	if len(segments) == 0 {
		return
	}

	styled := true
	for _, seg := range segments {
		if FindAncestor(seg.node, s.root, primary, alt) == nil {
			styled = false
			break
		}
	}

	if styled {
		for _, seg := range segments {
			if el := FindAncestor(seg.node, s.root, primary, alt); el != nil && el.Parent != nil {
				unwrap(el)
			}
		}
		return
	}

	var first, last *html.Node
	for _, seg := range segments {
		mid := seg.node
		if FindAncestor(mid, s.root, primary, alt) == nil {
			if seg.end < len(mid.Data) {
				splitText(mid, seg.end)
			}
			if seg.start > 0 {
				mid = splitText(mid, seg.start)
			}
			el := NewElement(primary)
			replaceNode(mid, el)
			el.AppendChild(mid)
		} else {
			mid = nil
		}
		if mid == nil {
			continue
		}
		if first == nil {
			first = mid
		}
		last = mid
	}
	if first != nil {
		s.selection = Selection{
			Anchor: Point{Node: first},
			Focus:  Point{Node: last, Offset: len(last.Data)},
		}
	}
}

// SetBlockKind reformats the block holding the caret as a paragraph, a heading
// or a list. Applying the list kind the block already has removes the list.
func (s *Surface) SetBlockKind(kind BlockKind) {
	defer s.renotify()

	caret := s.ensureCaret()
	block := s.blockOf(caret.Node)
	if block == nil {
		return
	}
	target := kind.atom()

	switch kind {
	case BlockUnorderedList, BlockOrderedList:
		if li := FindAncestor(caret.Node, s.root, atom.Li); li != nil {
			list := li.Parent
			if list.DataAtom == target {
				s.unlistItem(li)
			} else {
				setAtom(list, target)
				SetAttr(list, "start", "")
			}
			return
		}
		switch block.DataAtom {
		case atom.Td, atom.Th:
			return
		}
		list := NewElement(target)
		li := NewElement(atom.Li)
		list.AppendChild(li)
		replaceNode(block, list)
		if block.DataAtom == atom.Pre || block.DataAtom == atom.Blockquote {
			li.AppendChild(block)
		} else {
			moveChildren(li, block)
		}
	default:
		switch block.DataAtom {
		case atom.Td, atom.Th:
			return
		case atom.Li:
			if c := soleBlockChild(block); c != nil && (c.DataAtom == atom.P || HeadingLevel(c) > 0) {
				setAtom(c, target)
				return
			}
			el := NewElement(target)
			for c := block.FirstChild; c != nil; {
				next := c.NextSibling
				if !IsBlock(c) {
					block.RemoveChild(c)
					el.AppendChild(c)
				}
				c = next
			}
			block.InsertBefore(el, block.FirstChild)
		case atom.Pre:
			offset := OffsetOf(block, caret)
			el := NewElement(target)
			t := NewText(TextContent(block))
			el.AppendChild(t)
			replaceNode(block, el)
			if offset < 0 {
				offset = 0
			}
			s.selection = Selection{Anchor: Point{Node: t, Offset: offset}, Focus: Point{Node: t, Offset: offset}}
		default:
			setAtom(block, target)
		}
	}
}

// InsertNode inserts n at the caret, replacing the selection. Block nodes split
// the current paragraph; inline nodes split the current text node. The caret
// ends up right after n, which for a trailing block means a fresh empty
// paragraph.
func (s *Surface) InsertNode(n *html.Node) {
	defer s.renotify()

	s.deleteSelection()
	caret := s.selection.Anchor

	if !IsBlock(n) {
		caret = s.ensureCaret()
		s.insertInline(caret, n)
		return
	}

	if caret.IsZero() {
		s.root.AppendChild(n)
	} else {
		block := s.blockOf(caret.Node)
		top := s.topLevel(caret.Node)
		if block != nil && block == top && (block.DataAtom == atom.P || HeadingLevel(block) > 0) {
			text := TextContent(block)
			offset := OffsetOf(block, caret)
			switch {
			case text == "":
				replaceNode(block, n)
			case offset >= len(text):
				s.root.InsertBefore(n, block.NextSibling)
			case offset <= 0:
				s.root.InsertBefore(n, block)
			default:
				right := s.splitBlock(block, caret)
				s.root.InsertBefore(n, right)
			}
		} else if top != nil {
			s.root.InsertBefore(n, top.NextSibling)
		} else {
			s.root.AppendChild(n)
		}
	}

	next := nextElement(n)
	if next == nil || !IsBlock(next) {
		next = NewParagraph()
		n.Parent.InsertBefore(next, n.NextSibling)
	}
	p := firstPoint(next)
	s.selection = Selection{Anchor: p, Focus: p}
}

// InsertTextAtCursor replaces the selection with text and moves the caret after
// it.
func (s *Surface) InsertTextAtCursor(text string) {
	defer s.renotify()

	s.deleteSelection()
	caret := s.ensureCaret()
	t := caret.Node
	t.Data = t.Data[:caret.Offset] + text + t.Data[caret.Offset:]
	p := Point{Node: t, Offset: caret.Offset + len(text)}
	s.selection = Selection{Anchor: p, Focus: p}
}

// renotify announces the current selection again so observers see the state
// after a structural edit.
func (s *Surface) renotify() {
	s.setSelection(s.selection)
}

// ensureCaret returns the caret, creating an empty paragraph to hold it when
// the surface has no text at all.
func (s *Surface) ensureCaret() Point {
	caret := s.selection.Anchor
	if !caret.IsZero() && IsDescendant(caret.Node, s.root) {
		return caret
	}
	if nodes := TextNodes(s.root); len(nodes) > 0 {
		last := nodes[len(nodes)-1]
		p := Point{Node: last, Offset: len(last.Data)}
		s.selection = Selection{Anchor: p, Focus: p}
		return p
	}
	para := NewParagraph()
	s.root.AppendChild(para)
	p := Point{Node: para.FirstChild}
	s.selection = Selection{Anchor: p, Focus: p}
	return p
}

func (s *Surface) insertInline(caret Point, n *html.Node) {
	t := caret.Node
	right := splitText(t, caret.Offset)
	t.Parent.InsertBefore(n, right)
	s.selection = Selection{Anchor: Point{Node: right}, Focus: Point{Node: right}}
}

// segments returns the parts of text nodes covered by the selection.
func (s *Surface) segments() []segment {
	start, end := s.ordered()
	if start.IsZero() || end.IsZero() {
		return nil
	}
	if start.Node == end.Node {
		if start.Offset == end.Offset {
			return nil
		}
		return []segment{{node: start.Node, start: start.Offset, end: end.Offset}}
	}

	var result []segment
	inside := false
	for _, t := range TextNodes(s.root) {
		switch {
		case t == start.Node:
			inside = true
			if start.Offset < len(t.Data) {
				result = append(result, segment{node: t, start: start.Offset, end: len(t.Data)})
			}
		case t == end.Node:
			if end.Offset > 0 {
				result = append(result, segment{node: t, start: 0, end: end.Offset})
			}
			return result
		case inside && t.Data != "":
			result = append(result, segment{node: t, start: 0, end: len(t.Data)})
		}
	}
	return result
}

func (s *Surface) deleteSelection() {
	if s.selection.Collapsed() {
		return
	}
	start, end := s.ordered()
	if start.IsZero() || end.IsZero() {
		return
	}

	if start.Node == end.Node {
		t := start.Node
		t.Data = t.Data[:start.Offset] + t.Data[end.Offset:]
		s.selection = Selection{Anchor: start, Focus: start}
		return
	}

	var middle []*html.Node
	inside := false
	for _, t := range TextNodes(s.root) {
		if t == start.Node {
			inside = true
			continue
		}
		if t == end.Node {
			break
		}
		if inside {
			middle = append(middle, t)
		}
	}

	start.Node.Data = start.Node.Data[:start.Offset]
	end.Node.Data = end.Node.Data[end.Offset:]
	for _, t := range middle {
		t.Data = ""
		s.pruneEmpty(t, start.Node, end.Node)
	}

	// What is left of the last block joins the first one. Lists and tables
	// emptied on the way are dropped with it.
	startBlock, endBlock := s.blockOf(start.Node), s.blockOf(end.Node)
	if startBlock != nil && endBlock != nil && startBlock != endBlock {
		if canJoin(startBlock, endBlock) {
			moveChildren(startBlock, endBlock)
		}
		s.pruneEmpty(endBlock, start.Node)
	}

	s.selection = Selection{Anchor: start, Focus: start}
}

func canJoin(dst, src *html.Node) bool {
	if IsDescendant(dst, src) || IsDescendant(src, dst) {
		return false
	}
	for _, n := range []*html.Node{dst, src} {
		switch n.DataAtom {
		case atom.Td, atom.Th, atom.Pre:
			return false
		}
	}
	return true
}

// pruneEmpty removes n and every ancestor left without text, stopping at
// elements that hold one of the keep nodes. Table cells are never removed
// one by one: an emptied cell only takes its whole table with it, and only
// when the table is empty too.
func (s *Surface) pruneEmpty(n *html.Node, keep ...*html.Node) {
	for n != nil && n != s.root && n.Parent != nil {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Td || n.DataAtom == atom.Th) {
			table := FindAncestor(n, s.root, atom.Table)
			if table == nil {
				return
			}
			n = table
		}
		for _, k := range keep {
			if IsDescendant(k, n) {
				return
			}
		}
		if TextContent(n) != "" || hasEmbedded(n) {
			return
		}
		parent := n.Parent
		parent.RemoveChild(n)
		n = parent
	}
}

// blockOf returns the nearest block holding n. Inline content sitting directly
// under the root is wrapped in a new paragraph first.
func (s *Surface) blockOf(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if block := FindAncestor(n, s.root,
		atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Pre, atom.Td, atom.Th, atom.Div,
	); block != nil {
		return block
	}

	top := s.topLevel(n)
	if top == nil || IsBlock(top) {
		return top
	}
	first, last := top, top
	for first.PrevSibling != nil && !IsBlock(first.PrevSibling) {
		first = first.PrevSibling
	}
	for last.NextSibling != nil && !IsBlock(last.NextSibling) {
		last = last.NextSibling
	}
	p := NewElement(atom.P)
	s.root.InsertBefore(p, first)
	for c := first; c != nil; {
		next := c.NextSibling
		s.root.RemoveChild(c)
		p.AppendChild(c)
		if c == last {
			break
		}
		c = next
	}
	return p
}

// topLevel returns the ancestor of n that is a direct child of the root.
func (s *Surface) topLevel(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Parent == s.root {
			return n
		}
	}
	return nil
}

// splitBlock splits block at p and returns the new right half, which is
// inserted right after block.
func (s *Surface) splitBlock(block *html.Node, p Point) *html.Node {
	cur := splitText(p.Node, p.Offset)
	for parent := cur.Parent; ; parent = parent.Parent {
		shell := &html.Node{
			Type:     parent.Type,
			Data:     parent.Data,
			DataAtom: parent.DataAtom,
			Attr:     append([]html.Attribute(nil), parent.Attr...),
		}
		for c := cur; c != nil; {
			next := c.NextSibling
			parent.RemoveChild(c)
			shell.AppendChild(c)
			c = next
		}
		parent.Parent.InsertBefore(shell, parent.NextSibling)
		if parent == block {
			return shell
		}
		cur = shell
	}
}

// unlistItem turns li back into plain blocks, splitting its list in two when
// li sits in the middle.
func (s *Surface) unlistItem(li *html.Node) {
	list := li.Parent

	var moved []*html.Node
	var run *html.Node
	for c := li.FirstChild; c != nil; {
		next := c.NextSibling
		li.RemoveChild(c)
		if IsBlock(c) {
			run = nil
			moved = append(moved, c)
		} else {
			if run == nil {
				run = NewElement(atom.P)
				moved = append(moved, run)
			}
			run.AppendChild(c)
		}
		c = next
	}

	var tail *html.Node
	if nextElement(li) != nil {
		tail = &html.Node{Type: list.Type, Data: list.Data, DataAtom: list.DataAtom}
		for c := li.NextSibling; c != nil; {
			next := c.NextSibling
			list.RemoveChild(c)
			tail.AppendChild(c)
			c = next
		}
	}
	list.RemoveChild(li)

	anchor := list.NextSibling
	for _, n := range moved {
		list.Parent.InsertBefore(n, anchor)
	}
	if tail != nil {
		list.Parent.InsertBefore(tail, anchor)
	}
	if !hasElementChild(list) {
		list.Parent.RemoveChild(list)
	}
}

// splitText splits t at offset and returns the new node holding the right part.
func splitText(t *html.Node, offset int) *html.Node {
	right := NewText(t.Data[offset:])
	t.Data = t.Data[:offset]
	t.Parent.InsertBefore(right, t.NextSibling)
	return right
}

func unwrap(el *html.Node) {
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		el.Parent.InsertBefore(c, el)
		c = next
	}
	el.Parent.RemoveChild(el)
}

func soleBlockChild(n *html.Node) *html.Node {
	var found *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && isBlank(c.Data):
		case IsBlock(c) && found == nil:
			found = c
		default:
			return nil
		}
	}
	return found
}

// nextElement returns the next sibling of n that is not blank text.
func nextElement(n *html.Node) *html.Node {
	for c := n.NextSibling; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && isBlank(c.Data) {
			continue
		}
		if c.Type == html.CommentNode {
			continue
		}
		return c
	}
	return nil
}

func hasElementChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

func hasEmbedded(n *html.Node) bool {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img, atom.Hr, atom.Input:
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasEmbedded(c) {
			return true
		}
	}
	return false
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
