package autoconfig

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueeyes/writer/internal/config"
	"github.com/blueeyes/writer/internal/document"
	"github.com/blueeyes/writer/internal/editor"
	"github.com/blueeyes/writer/internal/history"
)

func newTestBuilder(t *testing.T, fsys fstest.MapFS, path string) *Builder {
	t.Helper()

	builder := NewBuilder()
	err := builder.Decorate(func() (*config.Loader, error) {
		return config.NewLoader(config.FileName, config.FileType, fsys), nil
	})
	require.NoError(t, err)
	err = builder.Decorate(func(ConfigPath) ConfigPath { return ConfigPath(path) })
	require.NoError(t, err)
	return builder
}

func TestBuilder_Config(t *testing.T) {
	fsys := fstest.MapFS{
		"bew.yaml":       {Data: []byte("version: v1\nhistory:\n  capacity: 3\n")},
		"notes/bew.yaml": {Data: []byte("version: v1\neditor:\n  live: true\n  font_size: 18\n")},
	}
	builder := newTestBuilder(t, fsys, "notes")

	err := builder.Invoke(func(cfg *config.Config, hist *history.Log) error {
		assert.True(t, cfg.Editor.Live)
		assert.Equal(t, 3, cfg.History.Capacity)
		for i := 0; i < 5; i++ {
			hist.Record("doc", "content")
		}
		assert.Equal(t, 3, hist.Len())
		return nil
	})
	require.NoError(t, err)
}

func TestBuilder_EditorFactory(t *testing.T) {
	fsys := fstest.MapFS{
		"bew.yaml": {Data: []byte("version: v1\neditor:\n  live: true\n  font_size: 20\ntable:\n  cell: \"x\"\n")},
	}
	builder := newTestBuilder(t, fsys, "")

	err := builder.Invoke(func(newEditor EditorFactory, cfg *config.Config) error {
		ed := newEditor(document.New("doc.md", "# Title\n"))
		assert.True(t, ed.Live())
		assert.Equal(t, 20, ed.FontSize())
		assert.Len(t, ed.Languages(), len(cfg.Code.Languages))

		ed.SetLive(false)
		ed.Buffer().SetCursor(ed.Buffer().Len())
		ed.InsertTable(editor.TableSize{Rows: 1, Cols: 1})
		assert.Equal(t, "# Title\n\n| Header |\n| --- |\n| x |\n", ed.Content())

		assert.Equal(t, 50, TableLimits(cfg).MaxRows)
		return nil
	})
	require.NoError(t, err)
}

func TestBuilder_InvalidConfig(t *testing.T) {
	fsys := fstest.MapFS{
		"bew.yaml": {Data: []byte("version: v1\neditor:\n  font_size: 1\n")},
	}
	builder := newTestBuilder(t, fsys, "")

	err := builder.Invoke(func(*config.Config) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FontSize")
}
