// Package editor implements dual-mode editing of a markup document: raw text
// editing of the buffer and rich-text editing of a live surface kept in sync
// with it.
package editor

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/blueeyes/writer/internal/document"
	"github.com/blueeyes/writer/internal/highlight"
	"github.com/blueeyes/writer/internal/history"
	"github.com/blueeyes/writer/internal/renderer/cmark"
	"github.com/blueeyes/writer/internal/renderer/markup"
	"github.com/blueeyes/writer/internal/richtext"
)

// Language is an entry of the code language picker. An empty Value means
// plain text.
type Language struct {
	Value string
	Label string
}

var DefaultLanguages = []Language{
	{Value: "", Label: "Plain text"},
	{Value: "javascript", Label: "JavaScript"},
	{Value: "typescript", Label: "TypeScript"},
	{Value: "html", Label: "HTML"},
	{Value: "css", Label: "CSS"},
	{Value: "python", Label: "Python"},
	{Value: "bash", Label: "Bash"},
	{Value: "json", Label: "JSON"},
	{Value: "sql", Label: "SQL"},
	{Value: "csharp", Label: "C#"},
	{Value: "java", Label: "Java"},
	{Value: "cpp", Label: "C++"},
	{Value: "markdown", Label: "Markdown"},
}

const DefaultFontSize = 16

// Asker generates markup text for a prompt.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// ErrNoAsker is returned when text generation is requested without an Asker.
var ErrNoAsker = errors.New("no text generator configured")

// Editor is the editing core of one window. It exposes the operations the
// surrounding application uses: reading and loading content, formatting
// commands, code language tagging and history.
type Editor struct {
	sync       *Synchronizer
	dispatcher *Dispatcher
	tracker    *LanguageTracker
	history    *history.Log

	languages []Language
	fontSize  int
	logger    *zap.Logger
}

type options struct {
	logger       *zap.Logger
	prompter     Prompter
	placeholders Placeholders
	tableSize    TableSize
	languages    []Language
	history      *history.Log
	fontSize     int
	live         bool
	highlighter  *highlight.Highlighter
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithPrompter(p Prompter) Option {
	return func(o *options) {
		o.prompter = p
	}
}

func WithPlaceholders(p Placeholders) Option {
	return func(o *options) {
		o.placeholders = p
	}
}

// WithTableSize sets the size the table prompt starts from.
func WithTableSize(size TableSize) Option {
	return func(o *options) {
		o.tableSize = size
	}
}

func WithLanguages(languages []Language) Option {
	return func(o *options) {
		o.languages = languages
	}
}

func WithHistory(log *history.Log) Option {
	return func(o *options) {
		o.history = log
	}
}

func WithFontSize(size int) Option {
	return func(o *options) {
		o.fontSize = size
	}
}

// WithLive starts the editor in live mode.
func WithLive(live bool) Option {
	return func(o *options) {
		o.live = live
	}
}

func WithHighlighter(h *highlight.Highlighter) Option {
	return func(o *options) {
		o.highlighter = h
	}
}

func New(doc *document.Document, opts ...Option) *Editor {
	o := options{
		placeholders: DefaultPlaceholders,
		tableSize:    DefaultTableSize,
		languages:    DefaultLanguages,
		fontSize:     DefaultFontSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.highlighter == nil {
		o.highlighter = highlight.New(highlight.WithLogger(o.logger))
	}
	if o.history == nil {
		o.history = history.NewLog(50)
	}

	renderer := markup.New(
		markup.WithColorer(o.highlighter),
		markup.WithLogger(o.logger),
	)
	sync := NewSynchronizer(doc, renderer, cmark.Converter{}, o.logger.Named("sync"))
	tracker := NewLanguageTracker(o.highlighter, sync.Pull, o.logger.Named("tracker"))
	sync.OnSurfaceCreated(tracker.Attach)
	sync.OnSurfaceDestroyed(func(*richtext.Surface) { tracker.Detach() })

	e := &Editor{
		sync:       sync,
		dispatcher: NewDispatcher(sync, o.prompter, o.placeholders, o.tableSize, o.logger.Named("dispatch")),
		tracker:    tracker,
		history:    o.history,
		languages:  o.languages,
		fontSize:   o.fontSize,
		logger:     o.logger,
	}
	if o.live {
		sync.SetMode(ModeLive)
	}
	return e
}

// Content returns the current markup.
func (e *Editor) Content() string {
	return e.sync.Content()
}

// SetContent loads markup from outside the editor.
func (e *Editor) SetContent(content string) {
	e.sync.Load(content)
}

// OnContentChange registers fn to run whenever the markup changes.
func (e *Editor) OnContentChange(fn func(content string)) {
	e.sync.OnContentChange(fn)
}

// InsertFormat splices prefix and suffix around the selection or applies the
// formatting they describe.
func (e *Editor) InsertFormat(prefix, suffix string) {
	e.dispatcher.InsertFormat(prefix, suffix)
}

// Selection returns the selected text.
func (e *Editor) Selection() string {
	return e.dispatcher.Selection()
}

// Dispatch runs a formatting command.
func (e *Editor) Dispatch(ctx context.Context, cmd Command) error {
	return e.dispatcher.Dispatch(ctx, cmd)
}

// InsertTable inserts a table of an already confirmed size.
func (e *Editor) InsertTable(size TableSize) {
	e.dispatcher.InsertTable(size)
}

// InsertImage inserts an already chosen image.
func (e *Editor) InsertImage(img ImageRef) {
	e.dispatcher.InsertImage(img)
}

func (e *Editor) Live() bool {
	return e.sync.Mode() == ModeLive
}

func (e *Editor) SetLive(live bool) {
	if live {
		e.sync.SetMode(ModeLive)
	} else {
		e.sync.SetMode(ModeRaw)
	}
}

// FontSize is presentation only.
func (e *Editor) FontSize() int {
	return e.fontSize
}

func (e *Editor) SetFontSize(size int) {
	e.fontSize = size
}

// Languages returns the code language picker entries.
func (e *Editor) Languages() []Language {
	return e.languages
}

// CodeLanguage returns the language of the code block holding the caret. The
// second value is false outside code blocks.
func (e *Editor) CodeLanguage() (string, bool) {
	return e.tracker.Language()
}

// SetCodeLanguage retags the code block holding the caret.
func (e *Editor) SetCodeLanguage(lang string) {
	e.tracker.SetLanguage(lang)
}

// OnCodeLanguageChange registers fn to run when the caret enters or leaves a
// code block or the block is retagged.
func (e *Editor) OnCodeLanguageChange(fn func(lang string, tracked bool)) {
	e.tracker.OnChange(fn)
}

// Surface returns the live surface, or nil in raw mode.
func (e *Editor) Surface() *richtext.Surface {
	return e.sync.Surface()
}

func (e *Editor) Document() *document.Document {
	return e.sync.Document()
}

// Buffer returns the buffer of the active document.
func (e *Editor) Buffer() *document.Buffer {
	return e.sync.Buffer()
}

// Input types text at the caret of the active representation.
func (e *Editor) Input(text string) {
	e.sync.Input(text)
}

// Switch makes doc the active document.
func (e *Editor) Switch(doc *document.Document) {
	e.sync.Switch(doc)
}

// Save records the current content in the history log.
func (e *Editor) Save() history.Entry {
	entry := e.history.Record(e.Document().ID(), e.Content())
	e.logger.Debug("saved history entry", zap.String("id", entry.ID), zap.String("summary", entry.Summary))
	return entry
}

// History returns the saved entries, newest first.
func (e *Editor) History() []history.Entry {
	return e.history.Entries()
}

// Restore loads the content of a history entry.
func (e *Editor) Restore(id string) error {
	entry, err := e.history.Get(id)
	if err != nil {
		return err
	}
	e.SetContent(entry.Content)
	return nil
}

// InsertGenerated asks for text and inserts it at the caret.
func (e *Editor) InsertGenerated(ctx context.Context, asker Asker, prompt string) error {
	if asker == nil {
		return ErrNoAsker
	}
	text, err := asker.Ask(ctx, prompt)
	if err != nil {
		return errors.Wrap(err, "failed to generate text")
	}
	if text == "" {
		return nil
	}
	e.InsertFormat(text, "")
	return nil
}
