// Package cmark converts the rich-text surface tree back into markdown.
package cmark

import (
	"bytes"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/blueeyes/writer/internal/highlight"
	"github.com/blueeyes/writer/internal/richtext"
)

// ToMarkup converts root into markdown. It never fails: shapes it does not
// recognize are written as their text content.
func ToMarkup(root *html.Node) string {
	data, _ := Render(root)
	return string(data)
}

// Render converts root into markdown and reports the first write error, if
// any. The returned bytes hold everything written up to that point.
func Render(root *html.Node) ([]byte, error) {
	r := renderer{
		lineBreak:       []byte{'\n'},
		finalLineBreaks: 1,
	}
	return r.Render(root)
}

// Converter adapts ToMarkup to an interface value.
type Converter struct{}

func (Converter) ToMarkup(root *html.Node) string {
	return ToMarkup(root)
}

type renderer struct {
	lineBreak []byte

	beginLine       bool
	buf             bytes.Buffer
	finalLineBreaks int
	needCR          int
	prefix          []byte
	err             error

	// openMarker is set right after a list marker or quote prefix; the first
	// block of the container continues on the marker line.
	openMarker bool
}

func (r *renderer) blankline() {
	if r.openMarker {
		return
	}
	if r.needCR < 2 {
		r.needCR = 2
	}
}

func (r *renderer) cr() {
	if r.openMarker {
		return
	}
	if r.needCR < 1 {
		r.needCR = 1
	}
}

func (r *renderer) write(data []byte) {
	if r.err != nil {
		return
	}
	if len(data) > 0 {
		r.openMarker = false
	}
	k := len(r.buf.Bytes()) - 1

	for r.needCR > 0 {
		if k < 0 || r.buf.Bytes()[k] == '\n' {
			k--
			if r.beginLine && r.needCR > 1 && k >= 0 {
				prefix := bytes.TrimFunc(r.prefix, unicode.IsSpace)
				r.err = writeAll(&r.buf, prefix)
			}
		} else {
			r.err = writeAll(&r.buf, r.lineBreak)
			if r.needCR > 1 {
				prefix := bytes.TrimFunc(r.prefix, unicode.IsSpace)
				r.err = writeAll(&r.buf, prefix)
			}
		}

		r.beginLine = true
		r.needCR--
	}

	for _, c := range data {
		if r.beginLine {
			r.err = writeAll(&r.buf, r.prefix)
		}
		if err := r.buf.WriteByte(c); err != nil {
			r.err = err
		}
		r.beginLine = c == '\n'
	}
}

func (r *renderer) writeString(s string) {
	r.write([]byte(s))
}

func writeAll(buf *bytes.Buffer, data []byte) error {
	_, err := buf.Write(data)
	return err
}

func (r *renderer) pushPrefix(p string) {
	r.prefix = append(r.prefix, p...)
}

func (r *renderer) popPrefix(p string) {
	r.prefix = r.prefix[0 : len(r.prefix)-len(p)]
}

func (r *renderer) Render(root *html.Node) ([]byte, error) {
	if root != nil {
		r.blocks(root, false)
	}

	// Finish writing any remaining characters.
	if r.buf.Len() > 0 {
		r.needCR = r.finalLineBreaks
		r.write(nil)
	}
	return r.buf.Bytes(), errors.WithStack(r.err)
}

// blocks renders the children of parent as a sequence of blocks. Runs of
// inline content between blocks become paragraphs. In a tight list item they
// are ended with a single line break instead of a blank line.
func (r *renderer) blocks(parent *html.Node, tight bool) {
	var run []*html.Node
	flush := func() {
		if len(run) == 0 {
			return
		}
		r.paragraph(run, tight)
		run = nil
	}

	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode {
			continue
		}
		if richtext.IsBlock(c) {
			flush()
			r.block(c, tight)
			continue
		}
		run = append(run, c)
	}
	flush()
}

func (r *renderer) block(n *html.Node, tight bool) {
	switch n.DataAtom {
	case atom.P:
		r.paragraph(children(n), tight)

	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		content := inlineMarkup(children(n), inlineContext{})
		content = strings.Join(strings.Fields(strings.ReplaceAll(content, "\\\n", " ")), " ")
		r.blankline()
		r.writeString(strings.Repeat("#", richtext.HeadingLevel(n)))
		if content != "" {
			r.writeString(" " + content)
		}
		r.blankline()

	case atom.Blockquote:
		prefix := "> "
		r.blankline()
		r.writeString(prefix)
		r.openMarker = true
		r.pushPrefix(prefix)
		r.blocks(n, false)
		r.popPrefix(prefix)
		r.openMarker = false
		r.blankline()

	case atom.Pre:
		r.codeBlock(n)

	case atom.Ul, atom.Ol:
		r.list(n, tight)

	case atom.Li:
		// A list item outside of a list renders as its content.
		r.blocks(n, tight)

	case atom.Table:
		r.table(n)

	case atom.Hr:
		r.blankline()
		r.writeString("---")
		r.blankline()

	case atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Details, atom.Summary, atom.Figure, atom.Dl, atom.Dt, atom.Dd:
		r.htmlBlock(n)

	default:
		r.blocks(n, tight)
	}
}

// htmlBlock writes n back as a raw HTML block. Blank lines would end the
// block early, so they are dropped.
func (r *renderer) htmlBlock(n *html.Node) {
	if n.DataAtom == atom.Div && slices.Contains(richtext.Classes(n), richtext.RootClass) {
		r.blocks(n, false)
		return
	}

	clone := richtext.Clone(n)
	var strip func(*html.Node)
	strip = func(n *html.Node) {
		if n.DataAtom == atom.Code && highlight.Colored(n) {
			highlight.Strip(n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			strip(c)
		}
	}
	strip(clone)

	var buf bytes.Buffer
	if err := html.Render(&buf, clone); err != nil {
		r.err = errors.WithStack(err)
		return
	}
	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return
	}
	r.blankline()
	r.writeString(strings.Join(lines, "\n"))
	r.blankline()
}

func (r *renderer) paragraph(nodes []*html.Node, tight bool) {
	content := inlineMarkup(nodes, inlineContext{})
	content = strings.Trim(content, " \t\r\n")
	content = strings.TrimSuffix(content, "\\")
	if content == "" {
		return
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = escapeLineStart(strings.TrimLeft(line, " \t"))
	}

	if !tight {
		r.blankline()
	}
	r.writeString(strings.Join(lines, "\n"))
	if tight {
		r.cr()
	} else {
		r.blankline()
	}
}

func (r *renderer) codeBlock(pre *html.Node) {
	code := pre
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Code {
			code = c
			break
		}
	}
	// The text content is read directly so coloring spans never leak into
	// the markup.
	text := richtext.TextContent(code)
	lang := richtext.CodeLanguage(pre)

	ticksCount := longestBacktickSeq([]byte(text)) + 1
	if ticksCount < 3 {
		ticksCount = 3
	}
	fence := strings.Repeat("`", ticksCount)

	firstInListItem := pre.Parent != nil && pre.Parent.DataAtom == atom.Li && prevElement(pre) == nil
	if !firstInListItem {
		r.blankline()
	}
	r.writeString(fence + lang)
	r.cr()
	if text != "" {
		r.writeString(text)
	}
	r.cr()
	r.writeString(fence)
	r.blankline()
}

// list renders a list. Inside a tight list item it is separated from the
// surrounding content by line breaks only.
func (r *renderer) list(n *html.Node, tight bool) {
	ordered := n.DataAtom == atom.Ol
	start := 1
	if v, err := strconv.Atoi(richtext.Attr(n, "start")); err == nil {
		start = v
	}

	// Adjacent lists of the same type would merge into one, so the second one
	// switches its marker character.
	alternate := false
	for prev := prevElement(n); prev != nil && prev.DataAtom == n.DataAtom; prev = prevElement(prev) {
		alternate = !alternate
	}

	var items []*html.Node
	loose := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		items = append(items, c)
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			if gc.Type == html.ElementNode && gc.DataAtom == atom.P {
				loose = true
			}
		}
	}

	r.openMarker = false
	if tight {
		r.cr()
	} else {
		r.blankline()
	}
	for i, item := range items {
		var marker string
		if ordered {
			delim := "."
			if alternate {
				delim = ")"
			}
			marker = strconv.Itoa(start+i) + delim + " "
		} else {
			bullet := "-"
			if alternate {
				bullet = "*"
			}
			marker = bullet + " "
		}

		r.openMarker = false
		if i > 0 {
			if loose {
				r.blankline()
			} else {
				r.cr()
			}
		}
		r.writeString(marker)
		r.openMarker = true
		indent := strings.Repeat(" ", len(marker))
		r.pushPrefix(indent)
		if hasContent(item) {
			r.blocks(item, !loose)
		}
		r.popPrefix(indent)
	}
	r.openMarker = false
	if tight {
		r.cr()
	} else {
		r.blankline()
	}
}

func (r *renderer) table(n *html.Node) {
	var rows []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Tr:
				rows = append(rows, c)
			case atom.Thead, atom.Tbody, atom.Tfoot:
				collect(c)
			}
		}
	}
	collect(n)
	if len(rows) == 0 {
		return
	}

	cellsOf := func(tr *html.Node) []*html.Node {
		var cells []*html.Node
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Th || c.DataAtom == atom.Td) {
				cells = append(cells, c)
			}
		}
		return cells
	}

	header := cellsOf(rows[0])
	cols := len(header)
	if cols == 0 {
		return
	}

	writeRow := func(cells []string) {
		r.writeString("| " + strings.Join(cells, " | ") + " |")
		r.cr()
	}
	cellText := func(cells []*html.Node) []string {
		result := make([]string, cols)
		for i := 0; i < cols && i < len(cells); i++ {
			content := inlineMarkup(children(cells[i]), inlineContext{inTable: true})
			result[i] = strings.Join(strings.Fields(content), " ")
		}
		return result
	}

	r.blankline()
	writeRow(cellText(header))

	separator := make([]string, cols)
	for i, cell := range header {
		switch cellAlign(cell) {
		case "left":
			separator[i] = ":---"
		case "center":
			separator[i] = ":---:"
		case "right":
			separator[i] = "---:"
		default:
			separator[i] = "---"
		}
	}
	writeRow(separator)

	for _, tr := range rows[1:] {
		writeRow(cellText(cellsOf(tr)))
	}
	r.blankline()
}

func cellAlign(n *html.Node) string {
	if v := richtext.Attr(n, "align"); v != "" {
		return v
	}
	style := strings.ReplaceAll(richtext.Attr(n, "style"), " ", "")
	if v, ok := strings.CutPrefix(style, "text-align:"); ok {
		return strings.TrimSuffix(v, ";")
	}
	return ""
}

type inlineContext struct {
	inTable bool
}

func inlineMarkup(nodes []*html.Node, ctx inlineContext) string {
	var b strings.Builder
	for _, n := range nodes {
		inline(&b, n, ctx)
	}
	return b.String()
}

func inline(b *strings.Builder, n *html.Node, ctx inlineContext) {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if prev := n.PrevSibling; prev != nil && prev.Type == html.ElementNode && prev.DataAtom == atom.Br {
			text = strings.TrimLeft(text, "\n")
		}
		if ctx.inTable {
			text = strings.ReplaceAll(text, "\n", " ")
		}
		b.WriteString(escapeText(text, ctx))
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Strong, atom.B:
		delimited(b, "**", children(n), ctx)
	case atom.Em, atom.I:
		delimited(b, "*", children(n), ctx)
	case atom.Del, atom.S, atom.Strike:
		delimited(b, "~~", children(n), ctx)
	case atom.Code:
		b.WriteString(codeSpan(richtext.TextContent(n)))
	case atom.A:
		content := inlineMarkup(children(n), ctx)
		href := richtext.Attr(n, "href")
		if href == "" {
			b.WriteString(content)
			return
		}
		fmt.Fprintf(b, "[%s](%s%s)", content, destination(href), title(richtext.Attr(n, "title")))
	case atom.Img:
		alt := escapeText(richtext.Attr(n, "alt"), ctx)
		fmt.Fprintf(b, "![%s](%s%s)", alt, destination(richtext.Attr(n, "src")), title(richtext.Attr(n, "title")))
	case atom.Br:
		if isTrailingBreak(n) {
			return
		}
		if ctx.inTable {
			b.WriteString("<br>")
			return
		}
		b.WriteString("\\\n")
	case atom.Input:
		if richtext.Attr(n, "type") != "checkbox" {
			return
		}
		if hasAttr(n, "checked") {
			b.WriteString("[x]")
		} else {
			b.WriteString("[ ]")
		}
		if next := n.NextSibling; next == nil || next.Type != html.TextNode || !strings.HasPrefix(next.Data, " ") {
			b.WriteByte(' ')
		}
	case atom.Script, atom.Style:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			inline(b, c, ctx)
		}
	}
}

// delimited wraps the content in mark. Surrounding whitespace is moved outside
// the delimiters since it would otherwise prevent them from matching.
func delimited(b *strings.Builder, mark string, nodes []*html.Node, ctx inlineContext) {
	content := inlineMarkup(nodes, ctx)
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		b.WriteString(content)
		return
	}
	start := strings.Index(content, trimmed)
	b.WriteString(content[:start])
	b.WriteString(mark)
	b.WriteString(trimmed)
	b.WriteString(mark)
	b.WriteString(content[start+len(trimmed):])
}

func codeSpan(text string) string {
	ticks := strings.Repeat("`", longestBacktickSeq([]byte(text))+1)
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") ||
		(strings.HasPrefix(text, " ") && strings.HasSuffix(text, " ") && strings.Trim(text, " ") != "") {
		return ticks + " " + text + " " + ticks
	}
	return ticks + text + ticks
}

func destination(dest string) string {
	if dest == "" || strings.ContainsAny(dest, " ()<>") {
		return "<" + strings.NewReplacer("<", "%3C", ">", "%3E").Replace(dest) + ">"
	}
	return dest
}

func title(t string) string {
	if t == "" {
		return ""
	}
	return ` "` + strings.ReplaceAll(t, `"`, `\"`) + `"`
}

var (
	textEscaper = strings.NewReplacer(
		`\`, `\\`,
		"`", "\\`",
		`*`, `\*`,
		`_`, `\_`,
		`[`, `\[`,
		`]`, `\]`,
		`<`, `\<`,
		`~`, `\~`,
	)
	entityLike = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

	orderedMarker = regexp.MustCompile(`^(\d{1,9})([.)])(\s|$)`)
	setextLine    = regexp.MustCompile(`^(=+|-+)\s*$`)
)

func escapeText(text string, ctx inlineContext) string {
	text = textEscaper.Replace(text)
	text = entityLike.ReplaceAllString(text, `\&$1;`)
	if ctx.inTable {
		text = strings.ReplaceAll(text, "|", `\|`)
	}
	return text
}

// escapeLineStart escapes a character at the start of a paragraph line that
// would otherwise open a block.
func escapeLineStart(line string) string {
	if line == "" {
		return line
	}
	switch {
	case setextLine.MatchString(line):
		return `\` + line
	case strings.HasPrefix(line, "#"):
		hashes := len(line) - len(strings.TrimLeft(line, "#"))
		rest := line[hashes:]
		if hashes <= 6 && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
			return `\` + line
		}
	case line[0] == '>':
		return `\` + line
	case line[0] == '-' || line[0] == '+':
		if len(line) == 1 || line[1] == ' ' || line[1] == '\t' {
			return `\` + line
		}
	}
	if m := orderedMarker.FindStringSubmatchIndex(line); m != nil {
		end := m[3]
		return line[:end] + `\` + line[end:]
	}
	return line
}

func longestBacktickSeq(data []byte) int {
	longest, current := 0, 0
	for _, b := range data {
		if b == '`' {
			current++
		} else {
			if current > longest {
				longest = current
			}
			current = 0
		}
	}
	if current > longest {
		longest = current
	}
	return longest
}

func children(n *html.Node) []*html.Node {
	var result []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result = append(result, c)
	}
	return result
}

func prevElement(n *html.Node) *html.Node {
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			return c
		}
		if c.Type == html.TextNode && strings.Trim(c.Data, " \t\r\n") != "" {
			return nil
		}
	}
	return nil
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasContent(n *html.Node) bool {
	return strings.Trim(richtext.TextContent(n), " \t\r\n") != "" || n.FirstChild != nil && hasEmbedded(n)
}

func hasEmbedded(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Img || c.DataAtom == atom.Hr || c.DataAtom == atom.Input || c.DataAtom == atom.Pre) {
			return true
		}
		if hasEmbedded(c) {
			return true
		}
	}
	return false
}

// isTrailingBreak reports whether br only holds an otherwise empty line open at
// the end of its block, the way editable surfaces keep empty paragraphs alive.
func isTrailingBreak(br *html.Node) bool {
	for n := br; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		for c := n.NextSibling; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && strings.Trim(c.Data, " \t\r\n") == "" {
				continue
			}
			if c.Type == html.CommentNode {
				continue
			}
			if richtext.IsBlock(c) {
				return true
			}
			return false
		}
		if n.Parent == nil || richtext.IsBlock(n.Parent) || n.Parent.DataAtom == atom.Td || n.Parent.DataAtom == atom.Th {
			return true
		}
	}
	return true
}
