package editor

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/blueeyes/writer/internal/document"
	"github.com/blueeyes/writer/internal/richtext"
)

// Mode selects which representation of a document is authoritative for edits.
type Mode int

const (
	ModeRaw Mode = iota
	ModeLive
)

func (m Mode) String() string {
	if m == ModeLive {
		return "live"
	}
	return "raw"
}

// Renderer derives a rich-text tree from markup.
type Renderer interface {
	Render(markup string) *html.Node
}

// Converter reduces a rich-text tree back to markup.
type Converter interface {
	ToMarkup(root *html.Node) string
}

// Synchronizer owns the document buffer and keeps the live surface consistent
// with it.
//
// Edits made on the surface are pulled into the buffer right away. External
// loads are pushed to the surface only while it does not hold focus; a load
// arriving during a focused edit leaves the surface alone and is pushed on
// the next blur, unless the user edits the surface first.
type Synchronizer struct {
	doc       *document.Document
	mode      Mode
	surface   *richtext.Surface
	renderer  Renderer
	converter Converter
	logger    *zap.Logger

	pendingPush bool

	contentHandlers   []func(content string)
	createdHandlers   []func(s *richtext.Surface)
	destroyedHandlers []func(s *richtext.Surface)
}

func NewSynchronizer(doc *document.Document, renderer Renderer, converter Converter, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		doc:       doc,
		renderer:  renderer,
		converter: converter,
		logger:    logger,
	}
}

func (s *Synchronizer) Mode() Mode {
	return s.mode
}

func (s *Synchronizer) Document() *document.Document {
	return s.doc
}

// Buffer returns the buffer of the active document.
func (s *Synchronizer) Buffer() *document.Buffer {
	return s.doc.Buffer()
}

// Content returns the markup of the active document.
func (s *Synchronizer) Content() string {
	return s.doc.Content()
}

// Surface returns the live surface, or nil in raw mode.
func (s *Synchronizer) Surface() *richtext.Surface {
	return s.surface
}

// PendingPush reports whether an external load is waiting for the surface to
// lose focus.
func (s *Synchronizer) PendingPush() bool {
	return s.pendingPush
}

// OnContentChange registers fn to run whenever the buffer changes.
func (s *Synchronizer) OnContentChange(fn func(content string)) {
	s.contentHandlers = append(s.contentHandlers, fn)
}

// OnSurfaceCreated registers fn to run for every new surface.
func (s *Synchronizer) OnSurfaceCreated(fn func(surface *richtext.Surface)) {
	s.createdHandlers = append(s.createdHandlers, fn)
}

// OnSurfaceDestroyed registers fn to run right before a surface is discarded.
func (s *Synchronizer) OnSurfaceDestroyed(fn func(surface *richtext.Surface)) {
	s.destroyedHandlers = append(s.destroyedHandlers, fn)
}

// SetMode switches between raw and live editing. Entering live mode renders
// the buffer into a new surface. Leaving it discards the surface; the buffer
// is already current since every surface edit was pulled.
func (s *Synchronizer) SetMode(mode Mode) {
	if mode == s.mode {
		return
	}
	s.mode = mode
	s.logger.Debug("switching mode", zap.Stringer("mode", mode))

	if mode == ModeLive {
		s.createSurface()
		s.push()
		return
	}
	s.destroySurface()
}

// Load replaces the buffer with content loaded from outside the editor, like
// an opened file, generated text or a restored history entry.
func (s *Synchronizer) Load(content string) {
	s.setContent(content)
	if s.surface == nil {
		return
	}
	if s.surface.Focused() {
		s.pendingPush = true
		return
	}
	s.push()
}

// Input applies a keystroke. In raw mode text replaces the buffer selection;
// in live mode it is typed into the surface and pulled back.
func (s *Synchronizer) Input(text string) {
	if s.surface != nil {
		s.surface.Type(text)
		return
	}
	s.doc.Buffer().Insert(text)
	s.notify()
}

// Switch makes doc the active document. The surface is always recreated so
// no editing state leaks from the previous document.
func (s *Synchronizer) Switch(doc *document.Document) {
	s.logger.Debug("switching document", zap.String("from", s.doc.ID()), zap.String("to", doc.ID()))
	s.destroySurface()
	s.doc = doc
	s.pendingPush = false
	if s.mode == ModeLive {
		s.createSurface()
		s.push()
	}
	s.notify()
}

// Pull converts the surface back into markup and stores it in the buffer.
// It supersedes any deferred push.
func (s *Synchronizer) Pull() {
	if s.surface == nil {
		return
	}
	s.pendingPush = false
	content := s.converter.ToMarkup(s.surface.Root())
	s.logger.Debug("pulled surface into buffer", zap.Int("length", len(content)))
	if content == s.doc.Content() {
		return
	}
	s.setContent(content)
}

func (s *Synchronizer) push() {
	s.pendingPush = false
	s.logger.Debug("rendering buffer into surface", zap.String("document", s.doc.ID()))
	s.surface.Replace(s.renderer.Render(s.doc.Content()))
}

func (s *Synchronizer) reconcile() {
	if s.pendingPush && s.surface != nil {
		s.push()
	}
}

func (s *Synchronizer) setContent(content string) {
	s.doc.Buffer().SetText(content)
	s.notify()
}

func (s *Synchronizer) notify() {
	content := s.doc.Content()
	for _, fn := range s.contentHandlers {
		fn(content)
	}
}

func (s *Synchronizer) createSurface() {
	surface := richtext.NewSurface()
	surface.OnChange(s.Pull)
	surface.OnBlur(s.reconcile)
	s.surface = surface
	for _, fn := range s.createdHandlers {
		fn(surface)
	}
}

func (s *Synchronizer) destroySurface() {
	if s.surface == nil {
		return
	}
	for _, fn := range s.destroyedHandlers {
		fn(s.surface)
	}
	s.surface.Close()
	s.surface = nil
	s.pendingPush = false
}
