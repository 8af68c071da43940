package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueeyes/writer/internal/editor"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImageRef(t *testing.T) {
	svg := writeFile(t, "logo.svg", `<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)
	ref, err := imageRef(svg)
	require.NoError(t, err)
	assert.Equal(t, "logo.svg", ref.Name)
	assert.Equal(t, filepath.ToSlash(svg), ref.Target())

	text := writeFile(t, "notes.png", "plain text pretending to be an image")
	_, err = imageRef(text)
	assert.ErrorContains(t, err, "is not an image")

	_, err = imageRef(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "failed to read image")
}

func TestScriptPrompter(t *testing.T) {
	ctx := context.Background()
	p := &scriptPrompter{limits: editor.TableLimits{MaxRows: 5, MaxCols: 5}}

	_, err := p.PromptTable(ctx, editor.DefaultTableSize)
	assert.ErrorContains(t, err, "no answer queued")

	assert.ErrorContains(t, p.queueTable(editor.TableSize{Rows: 6, Cols: 1}), "at most 5 rows")

	require.NoError(t, p.queueTable(editor.TableSize{Rows: 2, Cols: 3}))
	p.queueCancel()

	size, err := p.PromptTable(ctx, editor.DefaultTableSize)
	require.NoError(t, err)
	assert.Equal(t, editor.TableSize{Rows: 2, Cols: 3}, size)

	_, err = p.PromptImage(ctx)
	assert.ErrorIs(t, err, editor.ErrPromptCanceled)

	require.NoError(t, p.queueTable(editor.TableSize{Rows: 1, Cols: 1}))
	_, err = p.PromptImage(ctx)
	assert.ErrorContains(t, err, "not an image")
}
