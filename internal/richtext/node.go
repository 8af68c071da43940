// Package richtext implements the editable rich-text surface used in live mode.
//
// The surface is a tree of golang.org/x/net/html nodes rooted at a <div>. It is
// a disposable projection of the markup buffer: it can always be re-derived by
// rendering the buffer and reduced back to markup by the converter.
package richtext

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind classifies surface nodes by the role they play in the document.
type Kind int

const (
	KindOther Kind = iota
	KindText
	KindParagraph
	KindHeading
	KindList
	KindListItem
	KindBlockquote
	KindCodeBlock
	KindTable
	KindImage
	KindThematicBreak
)

const languageClassPrefix = "language-"

// RootClass marks the surface root element.
const RootClass = "visual-editor"

// KindOf reports the kind of n.
func KindOf(n *html.Node) Kind {
	if n == nil {
		return KindOther
	}
	if n.Type == html.TextNode {
		return KindText
	}
	if n.Type != html.ElementNode {
		return KindOther
	}
	switch n.DataAtom {
	case atom.P:
		return KindParagraph
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return KindHeading
	case atom.Ul, atom.Ol:
		return KindList
	case atom.Li:
		return KindListItem
	case atom.Blockquote:
		return KindBlockquote
	case atom.Pre:
		return KindCodeBlock
	case atom.Table:
		return KindTable
	case atom.Img:
		return KindImage
	case atom.Hr:
		return KindThematicBreak
	}
	return KindOther
}

// IsBlock reports whether n is laid out as a block rather than inline content.
func IsBlock(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Ul, atom.Ol, atom.Li, atom.Blockquote, atom.Pre, atom.Table,
		atom.Thead, atom.Tbody, atom.Tfoot, atom.Tr, atom.Th, atom.Td,
		atom.Hr, atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Details, atom.Summary, atom.Figure, atom.Dl, atom.Dt, atom.Dd:
		return true
	}
	return false
}

// HeadingLevel returns 1-6 for heading elements and 0 otherwise.
func HeadingLevel(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// FindAncestorOfKind walks from n up through its parents and returns the first
// node of the given kind. The walk stops before stop, which is usually the
// surface root. It returns nil when no such ancestor exists.
func FindAncestorOfKind(n *html.Node, kind Kind, stop *html.Node) *html.Node {
	for ; n != nil && n != stop; n = n.Parent {
		if KindOf(n) == kind {
			return n
		}
	}
	return nil
}

// FindAncestor is like FindAncestorOfKind but matches on element atoms.
func FindAncestor(n *html.Node, stop *html.Node, atoms ...atom.Atom) *html.Node {
	for ; n != nil && n != stop; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, a := range atoms {
			if n.DataAtom == a {
				return n
			}
		}
	}
	return nil
}

// IsDescendant reports whether n is ancestor itself or lies below it.
func IsDescendant(n, ancestor *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// TextContent returns the concatenated text of n and its descendants, the same
// way the DOM textContent property does.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(TextContent(c))
	}
	return b.String()
}

// TextNodes returns all text nodes under n in document order.
func TextNodes(n *html.Node) []*html.Node {
	var result []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			result = append(result, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return result
}

// Attr returns the value of the attribute key on n.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets key to val, replacing an existing value. An empty val removes
// the attribute.
func SetAttr(n *html.Node, key, val string) {
	attrs := n.Attr[:0]
	found := false
	for _, a := range n.Attr {
		if a.Key == key {
			if val == "" {
				continue
			}
			a.Val = val
			found = true
		}
		attrs = append(attrs, a)
	}
	if !found && val != "" {
		attrs = append(attrs, html.Attribute{Key: key, Val: val})
	}
	n.Attr = attrs
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

// NewElement creates a detached element node.
func NewElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     a.String(),
		DataAtom: a,
		Attr:     attrs,
	}
}

// NewText creates a detached text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// NewRoot creates an empty surface root element.
func NewRoot() *html.Node {
	return NewElement(atom.Div, html.Attribute{Key: "class", Val: RootClass})
}

// NewParagraph creates a paragraph holding an empty text node, which gives
// the caret somewhere to land, followed by a <br> placeholder.
func NewParagraph() *html.Node {
	p := NewElement(atom.P)
	p.AppendChild(NewText(""))
	p.AppendChild(NewElement(atom.Br))
	return p
}

// NewCodeBlock creates <pre><code class="language-lang">text</code></pre>.
func NewCodeBlock(text, lang string) *html.Node {
	pre := NewElement(atom.Pre)
	code := NewElement(atom.Code)
	if lang != "" {
		SetAttr(code, "class", languageClassPrefix+lang)
	}
	code.AppendChild(NewText(text))
	pre.AppendChild(code)
	return pre
}

// NewTable creates a table with a header row and body rows.
func NewTable(header []string, rows [][]string) *html.Node {
	table := NewElement(atom.Table)
	thead := NewElement(atom.Thead)
	tr := NewElement(atom.Tr)
	for _, cell := range header {
		th := NewElement(atom.Th)
		th.AppendChild(NewText(cell))
		tr.AppendChild(th)
	}
	thead.AppendChild(tr)
	table.AppendChild(thead)

	if len(rows) > 0 {
		tbody := NewElement(atom.Tbody)
		for _, row := range rows {
			tr := NewElement(atom.Tr)
			for _, cell := range row {
				td := NewElement(atom.Td)
				td.AppendChild(NewText(cell))
				tr.AppendChild(td)
			}
			tbody.AppendChild(tr)
		}
		table.AppendChild(tbody)
	}
	return table
}

// NewImage creates an <img> bound to src.
func NewImage(alt, src string) *html.Node {
	return NewElement(
		atom.Img,
		html.Attribute{Key: "src", Val: src},
		html.Attribute{Key: "alt", Val: alt},
	)
}

// CodeElement returns the <code> child of a code block, creating one that
// adopts the block's children if it is missing.
func CodeElement(pre *html.Node) *html.Node {
	if pre == nil {
		return nil
	}
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Code {
			return c
		}
	}
	code := NewElement(atom.Code)
	for c := pre.FirstChild; c != nil; {
		next := c.NextSibling
		pre.RemoveChild(c)
		code.AppendChild(c)
		c = next
	}
	pre.AppendChild(code)
	return code
}

// CodeLanguage returns the language tag declared on a code block, or "" for
// plain text.
func CodeLanguage(pre *html.Node) string {
	if pre == nil {
		return ""
	}
	for _, n := range []*html.Node{codeChild(pre), pre} {
		for _, class := range Classes(n) {
			if lang, ok := strings.CutPrefix(class, languageClassPrefix); ok && lang != "" {
				return lang
			}
		}
	}
	return ""
}

// SetCodeLanguage removes every language class from the code block and applies
// lang. An empty lang leaves the block as plain text.
func SetCodeLanguage(pre *html.Node, lang string) {
	code := CodeElement(pre)
	for _, n := range []*html.Node{pre, code} {
		var kept []string
		for _, class := range Classes(n) {
			if !strings.HasPrefix(class, languageClassPrefix) {
				kept = append(kept, class)
			}
		}
		if n == code && lang != "" {
			kept = append(kept, languageClassPrefix+lang)
		}
		SetAttr(n, "class", strings.Join(kept, " "))
	}
}

func codeChild(pre *html.Node) *html.Node {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Code {
			return c
		}
	}
	return nil
}

// Render serializes the children of root as HTML.
func Render(root *html.Node) string {
	if root == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// Parse parses an HTML fragment into a new surface root.
func Parse(fragment string) (*html.Node, error) {
	root := NewRoot()
	nodes, err := html.ParseFragment(strings.NewReader(fragment), NewElement(atom.Div))
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// Clone deep-copies n. The copy is detached.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

func replaceNode(old, n *html.Node) {
	old.Parent.InsertBefore(n, old)
	old.Parent.RemoveChild(old)
}

func moveChildren(dst, src *html.Node) {
	for c := src.FirstChild; c != nil; {
		next := c.NextSibling
		src.RemoveChild(c)
		dst.AppendChild(c)
		c = next
	}
}

func setAtom(n *html.Node, a atom.Atom) {
	n.DataAtom = a
	n.Data = a.String()
}
