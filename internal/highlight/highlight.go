// Package highlight colors code blocks of the rich-text surface.
//
// Coloring is presentation only: it splits the text of a <code> element into
// <span> tokens without changing the text itself, so the text content of a
// colored block always equals the original code.
package highlight

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/blueeyes/writer/internal/richtext"
)

// ClassPrefix prefixes the token class of every coloring span.
const ClassPrefix = "hl-"

const coloredAttr = "data-highlighted"

// Highlighter colors code elements with chroma lexers.
type Highlighter struct {
	logger *zap.Logger

	mu      sync.Mutex
	lexers  map[string]chroma.Lexer
	aliases map[string]string
}

type Option func(*Highlighter)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Highlighter) {
		h.logger = logger
	}
}

// WithAliases maps editor language tags to lexer names, for example "html"
// to "markup".
func WithAliases(aliases map[string]string) Option {
	return func(h *Highlighter) {
		for k, v := range aliases {
			h.aliases[k] = v
		}
	}
}

func New(opts ...Option) *Highlighter {
	h := &Highlighter{
		lexers:  make(map[string]chroma.Lexer),
		aliases: make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// HighlightAll colors every code block under root.
func (h *Highlighter) HighlightAll(root *html.Node) {
	var blocks []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if richtext.KindOf(n) == richtext.KindCodeBlock {
			blocks = append(blocks, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	for _, pre := range blocks {
		h.Highlight(richtext.CodeElement(pre))
	}
}

// Highlight colors a single <code> element according to the language class of
// its block. Previous coloring is removed first, so calling it repeatedly
// yields the same tree. Code without a known language is left as plain text.
func (h *Highlighter) Highlight(code *html.Node) {
	if code == nil {
		return
	}
	Strip(code)

	pre := code.Parent
	if pre == nil || pre.DataAtom != atom.Pre {
		pre = code
	}
	lang := richtext.CodeLanguage(pre)
	if lang == "" {
		return
	}
	lexer := h.lexer(lang)
	if lexer == nil {
		h.logger.Debug("no lexer for language", zap.String("language", lang))
		return
	}

	text := richtext.TextContent(code)
	tokens, ok := tokenise(lexer, text)
	if !ok {
		h.logger.Debug("tokens do not cover the code text", zap.String("language", lang))
		return
	}

	for c := code.FirstChild; c != nil; {
		next := c.NextSibling
		code.RemoveChild(c)
		c = next
	}
	for _, tok := range tokens {
		class := chroma.StandardTypes[tok.Type]
		if class == "" {
			code.AppendChild(richtext.NewText(tok.Value))
			continue
		}
		span := richtext.NewElement(atom.Span, html.Attribute{Key: "class", Val: ClassPrefix + class})
		span.AppendChild(richtext.NewText(tok.Value))
		code.AppendChild(span)
	}
	richtext.SetAttr(code, coloredAttr, "true")
}

// Strip removes coloring spans from code, leaving its exact text as a single
// text node.
func Strip(code *html.Node) {
	if code == nil {
		return
	}
	text := richtext.TextContent(code)
	for c := code.FirstChild; c != nil; {
		next := c.NextSibling
		code.RemoveChild(c)
		c = next
	}
	code.AppendChild(richtext.NewText(text))
	richtext.SetAttr(code, coloredAttr, "")
}

// Colored reports whether code currently carries coloring spans.
func Colored(code *html.Node) bool {
	return richtext.Attr(code, coloredAttr) != ""
}

func (h *Highlighter) lexer(lang string) chroma.Lexer {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := strings.ToLower(lang)
	if alias, ok := h.aliases[name]; ok {
		name = alias
	}
	if l, ok := h.lexers[name]; ok {
		return l
	}
	l := lexers.Get(name)
	if l != nil {
		l = chroma.Coalesce(l)
	}
	h.lexers[name] = l
	return l
}

// tokenise runs the lexer and checks that the tokens spell out text exactly.
// Lexers that force a trailing newline get it trimmed from the last token.
func tokenise(lexer chroma.Lexer, text string) ([]chroma.Token, bool) {
	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return nil, false
	}
	tokens := it.Tokens()

	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Value)
	}
	got := b.String()
	if got == text {
		return tokens, true
	}
	if extra, ok := strings.CutPrefix(got, text); ok && strings.Trim(extra, "\n") == "" {
		trim := len(extra)
		for i := len(tokens) - 1; i >= 0 && trim > 0; i-- {
			n := min(trim, len(tokens[i].Value))
			tokens[i].Value = tokens[i].Value[:len(tokens[i].Value)-n]
			trim -= n
		}
		var kept []chroma.Token
		for _, tok := range tokens {
			if tok.Value != "" {
				kept = append(kept, tok)
			}
		}
		return kept, true
	}
	return nil, false
}
