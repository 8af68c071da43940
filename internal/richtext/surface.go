package richtext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Point addresses a position inside a text node. Offset is a byte offset into
// Node.Data.
type Point struct {
	Node   *html.Node
	Offset int
}

// IsZero reports whether p addresses nothing.
func (p Point) IsZero() bool {
	return p.Node == nil
}

// Selection is the anchor/focus pair of the surface. Anchor is where the
// selection started; it may come after Focus in document order.
type Selection struct {
	Anchor Point
	Focus  Point
}

// Collapsed reports whether the selection is a bare caret.
func (s Selection) Collapsed() bool {
	return s.Anchor == s.Focus
}

// Surface is the editable rich-text region of one document. It is created by
// the synchronizer when entering live mode or switching documents and closed
// when leaving live mode.
type Surface struct {
	root      *html.Node
	focused   bool
	selection Selection
	closed    bool

	changeHandlers    []func()
	selectionHandlers []func()
	blurHandlers      []func()
}

// NewSurface creates an empty, unfocused surface.
func NewSurface() *Surface {
	return &Surface{root: NewRoot()}
}

// Root returns the surface root element.
func (s *Surface) Root() *html.Node {
	return s.root
}

// HTML serializes the surface contents.
func (s *Surface) HTML() string {
	return Render(s.root)
}

// Text returns the text content of the surface.
func (s *Surface) Text() string {
	return TextContent(s.root)
}

// Replace swaps the surface contents for the children of root and moves the
// caret to the start of the document. It does not emit a change event: the
// caller is the one deriving the surface from the buffer.
func (s *Surface) Replace(root *html.Node) {
	fresh := NewRoot()
	if root != nil {
		moveChildren(fresh, root)
	}
	s.root = fresh
	s.setSelection(Selection{Anchor: PointAt(s.root, 0), Focus: PointAt(s.root, 0)})
}

// Focus gives the surface input focus.
func (s *Surface) Focus() {
	s.focused = true
}

// Blur removes input focus and notifies blur handlers.
func (s *Surface) Blur() {
	if !s.focused {
		return
	}
	s.focused = false
	for _, fn := range s.blurHandlers {
		fn()
	}
}

// Focused reports whether the surface holds input focus.
func (s *Surface) Focused() bool {
	return s.focused
}

// OnChange registers fn to run after every content mutation made by user input.
func (s *Surface) OnChange(fn func()) {
	s.changeHandlers = append(s.changeHandlers, fn)
}

// OnSelectionChange registers fn to run whenever the caret or selection moves.
func (s *Surface) OnSelectionChange(fn func()) {
	s.selectionHandlers = append(s.selectionHandlers, fn)
}

// OnBlur registers fn to run when the surface loses focus.
func (s *Surface) OnBlur(fn func()) {
	s.blurHandlers = append(s.blurHandlers, fn)
}

// Close detaches all handlers. A closed surface no longer emits events.
func (s *Surface) Close() {
	s.closed = true
	s.focused = false
	s.changeHandlers = nil
	s.selectionHandlers = nil
	s.blurHandlers = nil
}

// Closed reports whether Close was called.
func (s *Surface) Closed() bool {
	return s.closed
}

// Changed notifies change handlers that the content was mutated.
func (s *Surface) Changed() {
	for _, fn := range s.changeHandlers {
		fn()
	}
}

// Selection returns the current selection.
func (s *Surface) Selection() Selection {
	return s.selection
}

// Select sets the selection from anchor to focus.
func (s *Surface) Select(anchor, focus Point) {
	s.setSelection(Selection{Anchor: anchor, Focus: focus})
}

// SelectOffsets selects by text offsets counted over the whole surface.
func (s *Surface) SelectOffsets(start, end int) {
	s.Select(PointAt(s.root, start), PointAt(s.root, end))
}

// SetCursor collapses the selection to p.
func (s *Surface) SetCursor(p Point) {
	s.setSelection(Selection{Anchor: p, Focus: p})
}

func (s *Surface) setSelection(sel Selection) {
	s.selection = sel
	if s.closed {
		return
	}
	for _, fn := range s.selectionHandlers {
		fn()
	}
}

// ordered returns the selection boundaries in document order.
func (s *Surface) ordered() (Point, Point) {
	a, f := s.selection.Anchor, s.selection.Focus
	if comparePoints(s.root, a, f) > 0 {
		return f, a
	}
	return a, f
}

// SelectedText returns the text covered by the selection.
func (s *Surface) SelectedText() string {
	if s.selection.Collapsed() {
		return ""
	}
	start, end := s.ordered()
	if start.IsZero() || end.IsZero() {
		return ""
	}
	if start.Node == end.Node {
		return start.Node.Data[start.Offset:end.Offset]
	}

	// Crossing into another block reads as a line break.
	var b strings.Builder
	var block *html.Node
	inside := false
	for _, t := range TextNodes(s.root) {
		if t == start.Node {
			inside = true
		}
		if !inside {
			continue
		}
		next := blockAncestor(t, s.root)
		if block != nil && next != block {
			b.WriteByte('\n')
		}
		block = next
		switch t {
		case start.Node:
			b.WriteString(t.Data[start.Offset:])
		case end.Node:
			b.WriteString(t.Data[:end.Offset])
			return b.String()
		default:
			b.WriteString(t.Data)
		}
	}
	return b.String()
}

// blockAncestor returns the nearest block element holding n, or root.
func blockAncestor(n, root *html.Node) *html.Node {
	for p := n.Parent; p != nil && p != root; p = p.Parent {
		if IsBlock(p) {
			return p
		}
	}
	return root
}

// Type simulates native typing: the text replaces the selection and a change
// event is emitted.
func (s *Surface) Type(text string) {
	s.InsertTextAtCursor(text)
	s.Changed()
}

// Enter simulates the Enter key. Inside a code block it inserts a literal
// newline; elsewhere it splits the current block.
func (s *Surface) Enter() {
	caret := s.selection.Anchor
	if FindAncestorOfKind(caret.Node, KindCodeBlock, s.root) != nil {
		s.InsertTextAtCursor("\n")
		s.Changed()
		return
	}

	s.deleteSelection()
	caret = s.selection.Anchor
	if FindAncestor(caret.Node, s.root, atom.Td, atom.Th) != nil {
		s.insertInline(caret, NewElement(atom.Br))
		s.renotify()
		s.Changed()
		return
	}
	block := s.blockOf(caret.Node)
	if block == nil {
		p := NewParagraph()
		s.root.AppendChild(p)
		s.SetCursor(Point{Node: p.FirstChild})
		s.Changed()
		return
	}
	right := s.splitBlock(block, caret)
	if HeadingLevel(right) > 0 {
		setAtom(right, atom.P)
	}
	s.SetCursor(firstPoint(right))
	s.Changed()
}

// PointAt maps a text offset counted over all text under root to a point. An
// offset past the end maps to the end of the last text node.
func PointAt(root *html.Node, offset int) Point {
	nodes := TextNodes(root)
	if len(nodes) == 0 {
		return Point{}
	}
	if offset < 0 {
		offset = 0
	}
	for _, t := range nodes {
		if offset <= len(t.Data) {
			return Point{Node: t, Offset: offset}
		}
		offset -= len(t.Data)
	}
	last := nodes[len(nodes)-1]
	return Point{Node: last, Offset: len(last.Data)}
}

// OffsetOf is the inverse of PointAt. It returns -1 when p is not under root.
func OffsetOf(root *html.Node, p Point) int {
	offset := 0
	for _, t := range TextNodes(root) {
		if t == p.Node {
			return offset + p.Offset
		}
		offset += len(t.Data)
	}
	return -1
}

func comparePoints(root *html.Node, a, b Point) int {
	if a.Node == b.Node {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	}
	oa, ob := OffsetOf(root, a), OffsetOf(root, b)
	switch {
	case oa < ob:
		return -1
	case oa > ob:
		return 1
	}
	return 0
}

func firstPoint(n *html.Node) Point {
	nodes := TextNodes(n)
	if len(nodes) == 0 {
		t := NewText("")
		if n.FirstChild != nil {
			n.InsertBefore(t, n.FirstChild)
		} else {
			n.AppendChild(t)
		}
		return Point{Node: t}
	}
	return Point{Node: nodes[0]}
}

func lastPoint(n *html.Node) Point {
	nodes := TextNodes(n)
	if len(nodes) == 0 {
		t := NewText("")
		n.AppendChild(t)
		return Point{Node: t}
	}
	last := nodes[len(nodes)-1]
	return Point{Node: last, Offset: len(last.Data)}
}
