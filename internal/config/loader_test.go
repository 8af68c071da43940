package config

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewLoader(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		NewLoader("", FileType, fstest.MapFS{})
	}, "config name is not set")
}

func TestLoader_RootConfig(t *testing.T) {
	t.Parallel()

	t.Run("without root config", func(t *testing.T) {
		t.Parallel()

		loader := NewLoader(FileName, FileType, fstest.MapFS{}, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.RootConfig()
		require.ErrorIs(t, err, ErrRootConfigNotFound)
		require.Nil(t, result)
	})

	t.Run("with root config", func(t *testing.T) {
		t.Parallel()

		data := []byte("version: v1\n")
		fsys := fstest.MapFS{
			"bew.yaml": {Data: data},
		}
		loader := NewLoader(FileName, FileType, fsys, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.RootConfig()
		require.NoError(t, err)
		require.Equal(t, data, result)
	})
}

func TestLoader_FindConfigChain(t *testing.T) {
	t.Parallel()

	t.Run("without root config", func(t *testing.T) {
		t.Parallel()

		loader := NewLoader(FileName, FileType, fstest.MapFS{}, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.FindConfigChain("")
		require.NoError(t, err)
		require.Nil(t, result)
	})

	fsys := fstest.MapFS{
		"bew.yaml":             {Data: []byte("path:bew.yaml")},
		"notes/bew.yaml":       {Data: []byte("path:notes/bew.yaml")},
		"notes/draft/bew.yaml": {Data: []byte("path:notes/draft/bew.yaml")},
		"notes/draft/todo.md":  {Data: []byte("# todo")},
		"other/bew.yaml":       {Data: []byte("path:other/bew.yaml")},
		"without/config":       {Mode: fs.ModeDir},
	}
	loader := NewLoader(FileName, FileType, fsys, WithLogger(zaptest.NewLogger(t)))

	testCases := []struct {
		name     string
		path     string
		expected []string
	}{
		{name: "root config", path: "", expected: []string{"path:bew.yaml"}},
		{name: "nested config", path: "notes", expected: []string{"path:bew.yaml", "path:notes/bew.yaml"}},
		{
			name:     "document path",
			path:     "notes/draft/todo.md",
			expected: []string{"path:bew.yaml", "path:notes/bew.yaml", "path:notes/draft/bew.yaml"},
		},
		{name: "nested without config", path: "without/config", expected: []string{"path:bew.yaml"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := loader.FindConfigChain(tc.path)
			require.NoError(t, err)

			var got []string
			for _, data := range result {
				got = append(got, string(data))
			}
			assert.Equal(t, tc.expected, got)
		})
	}

	t.Run("missing path", func(t *testing.T) {
		_, err := loader.FindConfigChain("missing")
		require.Error(t, err)
	})
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"bew.yaml": {Data: []byte("version: v1\neditor:\n  font_size: 20\ntable:\n  rows: 5\n")},
		"notes/bew.yaml": {Data: []byte("version: v1\neditor:\n  live: true\ntable:\n  cell: \"-\"\n")},
	}
	loader := NewLoader(FileName, FileType, fsys, WithLogger(zaptest.NewLogger(t)))

	cfg, err := loader.Load("notes")
	require.NoError(t, err)
	assert.True(t, cfg.Editor.Live)
	assert.Equal(t, 20, cfg.Editor.FontSize)
	assert.Equal(t, 5, cfg.Table.Rows)
	assert.Equal(t, 3, cfg.Table.Cols)
	assert.Equal(t, "-", cfg.Table.Cell)
	assert.Equal(t, "Header", cfg.Table.Header)

	root, err := loader.Load("")
	require.NoError(t, err)
	assert.False(t, root.Editor.Live)
	assert.Equal(t, "...", root.Table.Cell)
}

func TestLoader_DocumentsRootPath(t *testing.T) {
	t.Parallel()

	configRoot := fstest.MapFS{
		"bew.yaml": {Data: []byte("version: v1\neditor:\n  font_size: 12\n")},
	}
	documents := fstest.MapFS{
		"book/bew.yaml": {Data: []byte("version: v1\neditor:\n  font_size: 14\n")},
	}
	loader := NewLoader(FileName, FileType, configRoot, WithDocumentsRootPath(documents))

	cfg, err := loader.Load("book")
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.Editor.FontSize)
}
