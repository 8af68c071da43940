package cmd

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"github.com/blueeyes/writer/internal/editor"
	"github.com/blueeyes/writer/internal/tui/prompt"
)

// imageRef validates that path names an image file and returns its reference.
func imageRef(path string) (editor.ImageRef, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return editor.ImageRef{}, errors.Wrapf(err, "failed to read image %q", path)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return editor.ImageRef{}, errors.Errorf("%q is not an image but %s", path, mtype.String())
	}
	return editor.ImageRef{Name: filepath.Base(path), Path: filepath.ToSlash(path)}, nil
}

// answer is one queued reply of a scriptPrompter.
type answer struct {
	table    *editor.TableSize
	image    *editor.ImageRef
	canceled bool
}

// scriptPrompter replies to prompts with answers queued by a script. A prompt
// without a queued answer fails.
type scriptPrompter struct {
	limits  editor.TableLimits
	answers []answer
}

func (p *scriptPrompter) queueTable(size editor.TableSize) error {
	if err := editor.ValidateTableSize(size, p.limits); err != nil {
		return err
	}
	p.answers = append(p.answers, answer{table: &size})
	return nil
}

func (p *scriptPrompter) queueImage(path string) error {
	ref, err := imageRef(path)
	if err != nil {
		return err
	}
	p.answers = append(p.answers, answer{image: &ref})
	return nil
}

func (p *scriptPrompter) queueCancel() {
	p.answers = append(p.answers, answer{canceled: true})
}

func (p *scriptPrompter) next(kind string) (answer, error) {
	if len(p.answers) == 0 {
		return answer{}, errors.Errorf("no answer queued for the %s prompt", kind)
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	if a.canceled {
		return a, editor.ErrPromptCanceled
	}
	return a, nil
}

func (p *scriptPrompter) PromptTable(_ context.Context, _ editor.TableSize) (editor.TableSize, error) {
	a, err := p.next("table")
	if err != nil {
		return editor.TableSize{}, err
	}
	if a.table == nil {
		return editor.TableSize{}, errors.New("queued answer is not a table size")
	}
	return *a.table, nil
}

func (p *scriptPrompter) PromptImage(context.Context) (editor.ImageRef, error) {
	a, err := p.next("image")
	if err != nil {
		return editor.ImageRef{}, err
	}
	if a.image == nil {
		return editor.ImageRef{}, errors.New("queued answer is not an image")
	}
	return *a.image, nil
}

// terminalPrompter asks on the terminal.
type terminalPrompter struct {
	in     io.Reader
	out    io.Writer
	limits editor.TableLimits
}

func (p *terminalPrompter) PromptTable(ctx context.Context, defaults editor.TableSize) (editor.TableSize, error) {
	rows, err := p.number(ctx, "Rows", defaults.Rows, p.limits.MaxRows)
	if err != nil {
		return editor.TableSize{}, err
	}
	cols, err := p.number(ctx, "Columns", defaults.Cols, p.limits.MaxCols)
	if err != nil {
		return editor.TableSize{}, err
	}
	size := editor.TableSize{Rows: rows, Cols: cols}
	return size, editor.ValidateTableSize(size, p.limits)
}

func (p *terminalPrompter) PromptImage(ctx context.Context) (editor.ImageRef, error) {
	value, err := prompt.Input(ctx, p.in, p.out, prompt.InputParams{
		Label: "Image file",
		Validate: func(s string) error {
			_, err := imageRef(s)
			return err
		},
	})
	if err != nil {
		return editor.ImageRef{}, translateCancel(err)
	}
	return imageRef(value)
}

func (p *terminalPrompter) number(ctx context.Context, label string, def, limit int) (int, error) {
	parse := func(s string) (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, errors.Errorf("%q is not a number", s)
		}
		if n < 1 || (limit > 0 && n > limit) {
			return 0, errors.Errorf("enter a number between 1 and %d", limit)
		}
		return n, nil
	}

	value, err := prompt.Input(ctx, p.in, p.out, prompt.InputParams{
		Label:       label,
		PlaceHolder: strconv.Itoa(def),
		Validate: func(s string) error {
			_, err := parse(s)
			return err
		},
	})
	if err != nil {
		return 0, translateCancel(err)
	}
	return parse(value)
}

func translateCancel(err error) error {
	if errors.Is(err, prompt.ErrCanceled) {
		return editor.ErrPromptCanceled
	}
	return err
}
