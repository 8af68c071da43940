// Package markup renders markdown into the rich-text surface tree.
package markup

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/blueeyes/writer/internal/richtext"
)

// Colorer re-applies syntax coloring to every code block under a root.
type Colorer interface {
	HighlightAll(root *html.Node)
}

// Renderer turns markdown source into a rich-text tree. It is deterministic and
// never fails: what goldmark cannot parse it renders as literal text.
type Renderer struct {
	colorer Colorer
	logger  *zap.Logger
	md      goldmark.Markdown
}

type Option func(*Renderer)

func WithColorer(c Colorer) Option {
	return func(r *Renderer) {
		r.colorer = c
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Render converts markup into a detached surface root.
func (r *Renderer) Render(markup string) *html.Node {
	root, err := r.render(markup)
	if err != nil {
		r.logger.Warn("failed to render markup, falling back to literal text", zap.Error(err))
		root = richtext.NewRoot()
		p := richtext.NewElement(atom.P)
		p.AppendChild(richtext.NewText(markup))
		root.AppendChild(p)
	}
	if r.colorer != nil {
		r.colorer.HighlightAll(root)
	}
	return root
}

// HTML renders markup and serializes the resulting tree.
func (r *Renderer) HTML(markup string) string {
	return richtext.Render(r.Render(markup))
}

func (r *Renderer) render(markup string) (*html.Node, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markup), &buf); err != nil {
		return nil, err
	}
	root, err := richtext.Parse(buf.String())
	if err != nil {
		return nil, err
	}
	dropLayoutWhitespace(root)
	return root, nil
}

// dropLayoutWhitespace removes the newlines goldmark puts between block tags.
// They carry no content and would otherwise shift text offsets on the surface.
func dropLayoutWhitespace(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode && strings.Trim(c.Data, " \t\r\n") == "" && isContainer(n) {
			n.RemoveChild(c)
		} else if c.Type == html.TextNode && strings.HasSuffix(c.Data, "\n") && next != nil && richtext.IsBlock(next) {
			c.Data = strings.TrimRight(c.Data, "\n")
		} else if c.Type == html.ElementNode && c.DataAtom != atom.Pre {
			dropLayoutWhitespace(c)
		}
		c = next
	}
}

func isContainer(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Div, atom.Ul, atom.Ol, atom.Blockquote, atom.Table,
		atom.Thead, atom.Tbody, atom.Tfoot, atom.Tr:
		return true
	case atom.Li:
		return hasBlockChild(n)
	}
	return false
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if richtext.IsBlock(c) {
			return true
		}
	}
	return false
}
