// Package autoconfig builds the editor components from the configuration
// found on disk.
//
// For example, to get an editor factory and the logger:
//
//	autoconfig.NewBuilder().Invoke(func(newEditor autoconfig.EditorFactory, logger *zap.Logger) error {
//	    ...
//	})
//
// Treat it as a dependency injection mechanism. Tests replace the loader with
// Builder.Decorate.
package autoconfig

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/blueeyes/writer/internal/config"
	"github.com/blueeyes/writer/internal/document"
	"github.com/blueeyes/writer/internal/editor"
	"github.com/blueeyes/writer/internal/highlight"
	"github.com/blueeyes/writer/internal/history"
	"github.com/blueeyes/writer/internal/log"
	"github.com/blueeyes/writer/internal/renderer/markup"
)

// EditorFactory creates an editor for doc configured from the settings.
// Extra options are applied last.
type EditorFactory func(doc *document.Document, opts ...editor.Option) *editor.Editor

// ConfigPath is the path whose configuration chain is loaded. It defaults
// to the current directory.
type ConfigPath string

type Builder struct {
	container *dig.Container
}

func NewBuilder() *Builder {
	c := dig.New()

	mustProvide(c.Provide(getConfigPath))
	mustProvide(c.Provide(getLoader))
	mustProvide(c.Provide(getConfig))
	mustProvide(c.Provide(getLogger))
	mustProvide(c.Provide(getHighlighter))
	mustProvide(c.Provide(getRenderer))
	mustProvide(c.Provide(getHistory))
	mustProvide(c.Provide(getEditorFactory))

	return &Builder{container: c}
}

func mustProvide(err error) {
	if err != nil {
		panic("failed to provide: " + err.Error())
	}
}

// Decorate replaces a provided value, for example the loader or the path.
func (b *Builder) Decorate(decorator interface{}, opts ...dig.DecorateOption) error {
	return errors.WithStack(b.container.Decorate(decorator, opts...))
}

// Invoke calls function with its arguments built from the configuration.
func (b *Builder) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	err := b.container.Invoke(function, opts...)
	return dig.RootCause(err)
}

func getConfigPath() ConfigPath {
	return "."
}

func getLoader() (*config.Loader, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return config.NewLoader(config.FileName, config.FileType, os.DirFS(cwd)), nil
}

func getConfig(loader *config.Loader, path ConfigPath) (*config.Config, error) {
	return loader.Load(string(path))
}

func getLogger(c *config.Config) (*zap.Logger, error) {
	logger, err := log.New(c.Log.Enabled, c.Log.Path, c.Log.Verbose)
	if err != nil {
		return nil, err
	}
	log.Set(logger)
	return logger, nil
}

func getHighlighter(c *config.Config, logger *zap.Logger) *highlight.Highlighter {
	return highlight.New(
		highlight.WithLogger(logger.Named("highlight")),
		highlight.WithAliases(c.Code.Aliases),
	)
}

func getRenderer(h *highlight.Highlighter, logger *zap.Logger) *markup.Renderer {
	return markup.New(markup.WithColorer(h), markup.WithLogger(logger.Named("render")))
}

func getHistory(c *config.Config) *history.Log {
	return history.NewLog(c.History.Capacity)
}

func getEditorFactory(c *config.Config, h *highlight.Highlighter, hist *history.Log, logger *zap.Logger) EditorFactory {
	languages := make([]editor.Language, 0, len(c.Code.Languages))
	for _, l := range c.Code.Languages {
		languages = append(languages, editor.Language{Value: l.Value, Label: l.Label})
	}

	base := []editor.Option{
		editor.WithLogger(logger.Named("editor")),
		editor.WithHighlighter(h),
		editor.WithHistory(hist),
		editor.WithLanguages(languages),
		editor.WithFontSize(c.Editor.FontSize),
		editor.WithLive(c.Editor.Live),
		editor.WithTableSize(editor.TableSize{Rows: c.Table.Rows, Cols: c.Table.Cols}),
		editor.WithPlaceholders(editor.Placeholders{
			Header:    c.Table.Header,
			Separator: c.Table.Separator,
			Cell:      c.Table.Cell,
		}),
	}

	return func(doc *document.Document, opts ...editor.Option) *editor.Editor {
		return editor.New(doc, append(append([]editor.Option(nil), base...), opts...)...)
	}
}

// TableLimits returns the prompt caps configured for tables.
func TableLimits(c *config.Config) editor.TableLimits {
	return editor.TableLimits{MaxRows: c.Table.MaxRows, MaxCols: c.Table.MaxCols}
}
