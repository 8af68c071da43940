package document

import (
	"path/filepath"
	"strings"

	"github.com/blueeyes/writer/internal/ulid"
)

// Document is one open document. Its identity changes only when a new
// document is created, never when its contents are replaced.
type Document struct {
	id     string
	name   string
	buffer *Buffer
}

// New creates a document with a fresh identity.
func New(name, content string) *Document {
	return &Document{
		id:     ulid.GenerateID(),
		name:   name,
		buffer: NewBuffer(content),
	}
}

// NewFromFile creates a document named after the base name of path.
func NewFromFile(path string, content []byte) *Document {
	return New(filepath.Base(path), string(content))
}

func (d *Document) ID() string {
	return d.id
}

func (d *Document) Name() string {
	return d.name
}

func (d *Document) SetName(name string) {
	d.name = name
}

// Buffer returns the markup source of truth of the document.
func (d *Document) Buffer() *Buffer {
	return d.buffer
}

func (d *Document) Content() string {
	return d.buffer.Text()
}

// Title returns the first non-empty line stripped of heading markers, or the
// document name.
func (d *Document) Title() string {
	for _, line := range strings.Split(d.Content(), "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			return line
		}
	}
	return d.name
}
