package editor

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/blueeyes/writer/internal/document"
	"github.com/blueeyes/writer/internal/richtext"
)

// Command is a discrete formatting action.
type Command int

const (
	CommandStrong Command = iota
	CommandEmphasis
	CommandHeading1
	CommandHeading2
	CommandHeading3
	CommandParagraph
	CommandUnorderedList
	CommandOrderedList
	CommandCodeBlock
	CommandTable
	CommandImage
)

var commandNames = map[Command]string{
	CommandStrong:        "strong",
	CommandEmphasis:      "emphasis",
	CommandHeading1:      "heading-1",
	CommandHeading2:      "heading-2",
	CommandHeading3:      "heading-3",
	CommandParagraph:     "paragraph",
	CommandUnorderedList: "unordered-list",
	CommandOrderedList:   "ordered-list",
	CommandCodeBlock:     "code-block",
	CommandTable:         "table",
	CommandImage:         "image",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCommand returns the command with the given name.
func ParseCommand(name string) (Command, error) {
	for c, n := range commandNames {
		if n == name {
			return c, nil
		}
	}
	return 0, errors.Errorf("unknown command %q", name)
}

// ImageRef is an image chosen by the user.
type ImageRef struct {
	// Name is the file name, used as the alternative text.
	Name string
	// Path is the resolved location of the file. It may be empty when only
	// the name is known.
	Path string
}

// Target returns the reference the image markup points at.
func (r ImageRef) Target() string {
	if r.Path != "" {
		return r.Path
	}
	return r.Name
}

// ErrPromptCanceled is returned by a Prompter when the user dismisses it.
var ErrPromptCanceled = errors.New("prompt canceled")

// Prompter asks the user for the payload of table and image commands. Values
// it returns are expected to be validated already.
type Prompter interface {
	PromptTable(ctx context.Context, defaults TableSize) (TableSize, error)
	PromptImage(ctx context.Context) (ImageRef, error)
}

const fence = "```"

var (
	headingMarkers = map[Command]string{
		CommandHeading1: "# ",
		CommandHeading2: "## ",
		CommandHeading3: "### ",
	}
	blockKinds = map[Command]richtext.BlockKind{
		CommandHeading1:      richtext.BlockHeading1,
		CommandHeading2:      richtext.BlockHeading2,
		CommandHeading3:      richtext.BlockHeading3,
		CommandParagraph:     richtext.BlockParagraph,
		CommandUnorderedList: richtext.BlockUnorderedList,
		CommandOrderedList:   richtext.BlockOrderedList,
	}

	headingPrefix = regexp.MustCompile(`^#{1,6}[ \t]+`)
	imageMarkup   = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)
	orderedMarker = regexp.MustCompile(`^\d+[.)]$`)
)

// Dispatcher applies formatting commands to the active representation of the
// document: the buffer in raw mode, the surface in live mode.
type Dispatcher struct {
	sync         *Synchronizer
	prompter     Prompter
	placeholders Placeholders
	tableSize    TableSize
	logger       *zap.Logger
}

func NewDispatcher(sync *Synchronizer, prompter Prompter, placeholders Placeholders, tableSize TableSize, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sync:         sync,
		prompter:     prompter,
		placeholders: placeholders,
		tableSize:    tableSize,
		logger:       logger,
	}
}

// Dispatch runs cmd. Table and image commands ask the prompter for their
// payload first; a canceled prompt leaves the document untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) error {
	d.logger.Debug("dispatching command", zap.Stringer("command", cmd), zap.Stringer("mode", d.sync.Mode()))

	switch cmd {
	case CommandTable:
		if d.prompter == nil {
			return errors.New("no prompter to ask for the table size")
		}
		size, err := d.prompter.PromptTable(ctx, d.tableSize)
		if errors.Is(err, ErrPromptCanceled) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to prompt for table size")
		}
		d.InsertTable(size)
		return nil
	case CommandImage:
		if d.prompter == nil {
			return errors.New("no prompter to ask for the image")
		}
		ref, err := d.prompter.PromptImage(ctx)
		if errors.Is(err, ErrPromptCanceled) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to prompt for image")
		}
		d.InsertImage(ref)
		return nil
	}

	if _, ok := commandNames[cmd]; !ok {
		return errors.Errorf("unknown command %d", cmd)
	}

	if s := d.sync.Surface(); s != nil {
		d.applyLive(s, cmd)
		return nil
	}
	d.applyRaw(cmd)
	return nil
}

// Selection returns the selected text of the active representation.
func (d *Dispatcher) Selection() string {
	if s := d.sync.Surface(); s != nil {
		return s.SelectedText()
	}
	return d.sync.Buffer().SelectedText()
}

// InsertTable inserts a table skeleton of the given size at the caret.
func (d *Dispatcher) InsertTable(size TableSize) {
	skeleton := TableSkeleton(size, d.placeholders)
	if s := d.sync.Surface(); s != nil {
		s.Focus()
		s.InsertNode(richtext.NewTable(skeleton[0], skeleton[2:]))
		s.Changed()
		return
	}
	d.splice(TableMarkup(skeleton), "")
}

// InsertImage inserts a reference to img. The image replaces the selection.
func (d *Dispatcher) InsertImage(img ImageRef) {
	if s := d.sync.Surface(); s != nil {
		s.Focus()
		s.InsertNode(richtext.NewImage(img.Name, img.Target()))
		s.Changed()
		return
	}
	d.replaceSelection(imageText(img.Name, img.Target()))
}

// InsertFormat is the generic insertion entry point. In raw mode it splices
// prefix and suffix around the selection; image markup replaces the selection
// instead. In live mode the shape of prefix picks the matching surface edit
// and anything unrecognized is rendered and inserted as content.
func (d *Dispatcher) InsertFormat(prefix, suffix string) {
	s := d.sync.Surface()
	if s == nil {
		if isImageText(prefix) {
			d.replaceSelection(prefix)
			return
		}
		d.splice(prefix, suffix)
		return
	}

	s.Focus()
	defer s.Changed()

	marker := strings.TrimSpace(prefix)
	switch {
	case prefix == "**" && suffix == "**":
		s.ToggleInlineStyle(richtext.InlineStrong)
	case prefix == "*" && suffix == "*":
		s.ToggleInlineStyle(richtext.InlineEmphasis)
	case prefix == "# ":
		s.SetBlockKind(richtext.BlockHeading1)
	case prefix == "## ":
		s.SetBlockKind(richtext.BlockHeading2)
	case prefix == "### ":
		s.SetBlockKind(richtext.BlockHeading3)
	case suffix == "" && orderedMarker.MatchString(marker):
		s.SetBlockKind(richtext.BlockOrderedList)
	case suffix == "" && (marker == "-" || marker == "*" || marker == "+"):
		s.SetBlockKind(richtext.BlockUnorderedList)
	case isFenceOpening(prefix):
		d.insertCodeBlock(s, fenceLanguage(prefix))
	case isImageMarkup(marker):
		m := imageMarkup.FindStringSubmatch(marker)
		s.InsertNode(richtext.NewImage(m[1], m[2]))
	default:
		d.insertMarkup(s, prefix+suffix)
	}
}

func (d *Dispatcher) applyLive(s *richtext.Surface, cmd Command) {
	s.Focus()
	defer s.Changed()

	switch cmd {
	case CommandStrong:
		s.ToggleInlineStyle(richtext.InlineStrong)
	case CommandEmphasis:
		s.ToggleInlineStyle(richtext.InlineEmphasis)
	case CommandCodeBlock:
		d.insertCodeBlock(s, "")
	default:
		s.SetBlockKind(blockKinds[cmd])
	}
}

func (d *Dispatcher) applyRaw(cmd Command) {
	switch cmd {
	case CommandStrong:
		d.splice("**", "**")
	case CommandEmphasis:
		d.splice("*", "*")
	case CommandHeading1, CommandHeading2, CommandHeading3:
		d.linePrefix(headingMarkers[cmd])
	case CommandParagraph:
		d.stripHeading()
	case CommandUnorderedList:
		d.linePrefix("- ")
	case CommandOrderedList:
		d.linePrefix("1. ")
	case CommandCodeBlock:
		d.fence()
	}
}

// splice inserts prefix and suffix around the selection and moves the caret
// right after the suffix.
func (d *Dispatcher) splice(prefix, suffix string) {
	buf := d.sync.Buffer()
	sel := buf.Selection()
	buf.Replace(sel, prefix+buf.SelectedText()+suffix)
	d.sync.notify()
}

func (d *Dispatcher) replaceSelection(text string) {
	buf := d.sync.Buffer()
	buf.Replace(buf.Selection(), text)
	d.sync.notify()
}

// linePrefix inserts marker at the start of the line holding the selection.
// The caret ends after the selection, shifted by the marker.
func (d *Dispatcher) linePrefix(marker string) {
	buf := d.sync.Buffer()
	sel := buf.Selection()
	start := buf.LineStart(sel.Start)
	buf.Replace(document.Range{Start: start, End: start}, marker)

	shift := len([]rune(marker))
	buf.SetCursor(sel.End + shift)
	d.sync.notify()
}

func (d *Dispatcher) stripHeading() {
	buf := d.sync.Buffer()
	sel := buf.Selection()
	start := buf.LineStart(sel.Start)
	marker := headingPrefix.FindString(buf.Line(start))
	if marker == "" {
		return
	}
	n := len([]rune(marker))
	buf.Replace(document.Range{Start: start, End: start + n}, "")
	buf.SetCursor(max(start, sel.End-n))
	d.sync.notify()
}

// fence wraps the selection in a fenced code block that starts and ends on
// lines of its own.
func (d *Dispatcher) fence() {
	buf := d.sync.Buffer()
	sel := buf.Selection()

	prefix := fence + "\n"
	if buf.LineStart(sel.Start) != sel.Start {
		prefix = "\n" + prefix
	}
	suffix := "\n" + fence
	if sel.End < buf.Len() && buf.Slice(sel.End, sel.End+1) != "\n" {
		suffix += "\n"
	}
	d.splice(prefix, suffix)
}

func (d *Dispatcher) insertCodeBlock(s *richtext.Surface, lang string) {
	text := s.SelectedText()
	if text == "" {
		text = " "
	}
	s.InsertNode(richtext.NewCodeBlock(text, lang))
}

// insertMarkup renders markup and inserts the result at the caret. A lone
// paragraph is inserted inline so plain text joins the current block.
func (d *Dispatcher) insertMarkup(s *richtext.Surface, markup string) {
	root := d.sync.renderer.Render(markup)

	var nodes []*html.Node
	if first := root.FirstChild; first != nil && first.NextSibling == nil && richtext.KindOf(first) == richtext.KindParagraph {
		root = first
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, c)
	}
	for _, n := range nodes {
		n.Parent.RemoveChild(n)
		s.InsertNode(n)
	}
}

func imageText(name, target string) string {
	return "\n![" + name + "](" + target + ")\n"
}

func isImageMarkup(text string) bool {
	return imageMarkup.FindString(text) == text && text != ""
}

// isFenceOpening reports whether prefix is a lone fence line, optionally
// carrying a language tag.
func isFenceOpening(prefix string) bool {
	line := strings.TrimLeft(prefix, "\n")
	if !strings.HasPrefix(line, fence) {
		return false
	}
	line, rest, _ := strings.Cut(line, "\n")
	return rest == "" && !strings.Contains(line[len(fence):], "`")
}

func fenceLanguage(prefix string) string {
	line, _, _ := strings.Cut(strings.TrimLeft(prefix, "\n"), "\n")
	info := strings.TrimSpace(strings.TrimLeft(line, "`"))
	lang, _, _ := strings.Cut(info, " ")
	return lang
}

func isImageText(prefix string) bool {
	return strings.HasPrefix(strings.TrimLeft(prefix, "\n"), "![") && strings.HasSuffix(prefix, ")\n")
}
