package editor

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/blueeyes/writer/internal/highlight"
	"github.com/blueeyes/writer/internal/richtext"
)

// Colorer applies syntax coloring to a single <code> element.
type Colorer interface {
	Highlight(code *html.Node)
}

// LanguageTracker follows the code block holding the caret of the live
// surface and lets the user retag its language.
type LanguageTracker struct {
	surface *richtext.Surface
	block   *html.Node
	lang    string

	colorer Colorer
	pull    func()
	logger  *zap.Logger

	handlers []func(lang string, tracked bool)
}

func NewLanguageTracker(colorer Colorer, pull func(), logger *zap.Logger) *LanguageTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LanguageTracker{
		colorer: colorer,
		pull:    pull,
		logger:  logger,
	}
}

// Attach starts following the caret of s.
func (t *LanguageTracker) Attach(s *richtext.Surface) {
	t.surface = s
	s.OnSelectionChange(t.Refresh)
	t.Refresh()
}

// Detach stops tracking and clears the tracked block.
func (t *LanguageTracker) Detach() {
	t.surface = nil
	t.set(nil)
}

// OnChange registers fn to run when the tracked block or its language
// changes.
func (t *LanguageTracker) OnChange(fn func(lang string, tracked bool)) {
	t.handlers = append(t.handlers, fn)
}

// Block returns the tracked code block, or nil.
func (t *LanguageTracker) Block() *html.Node {
	return t.block
}

// Language returns the language of the tracked block. The second value is
// false when no block is tracked.
func (t *LanguageTracker) Language() (string, bool) {
	return t.lang, t.block != nil
}

// Refresh recomputes the tracked block from the caret.
func (t *LanguageTracker) Refresh() {
	if t.surface == nil {
		t.set(nil)
		return
	}
	root := t.surface.Root()
	anchor := t.surface.Selection().Anchor
	if anchor.IsZero() || !richtext.IsDescendant(anchor.Node, root) {
		t.set(nil)
		return
	}
	t.set(richtext.FindAncestorOfKind(anchor.Node, richtext.KindCodeBlock, root))
}

// SetLanguage retags the tracked block. Old language classes and coloring
// are removed first, so retagging with the same language twice is the same
// as doing it once. The caret keeps its text position and the change is
// pulled into the buffer. Without a tracked block it does nothing.
func (t *LanguageTracker) SetLanguage(lang string) {
	if t.block == nil || t.surface == nil || !richtext.IsDescendant(t.block, t.surface.Root()) {
		return
	}
	block := t.block
	caret := richtext.OffsetOf(block, t.surface.Selection().Anchor)

	code := richtext.CodeElement(block)
	highlight.Strip(code)
	richtext.SetCodeLanguage(block, lang)
	if lang != "" && t.colorer != nil {
		t.colorer.Highlight(code)
	}
	t.logger.Debug("retagged code block", zap.String("language", lang))

	t.lang = lang
	if caret >= 0 {
		t.surface.SetCursor(richtext.PointAt(block, caret))
	}
	t.notify()

	if t.pull != nil {
		t.pull()
	}
}

func (t *LanguageTracker) set(block *html.Node) {
	lang := ""
	if block != nil {
		lang = richtext.CodeLanguage(block)
	}
	if block == t.block && lang == t.lang {
		return
	}
	t.block = block
	t.lang = lang
	t.notify()
}

func (t *LanguageTracker) notify() {
	for _, fn := range t.handlers {
		fn(t.lang, t.block != nil)
	}
}
