package cmd

import (
	"fmt"
	"html"
	"io"
	"path/filepath"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/blueeyes/writer/internal/config"
	"github.com/blueeyes/writer/internal/highlight"
	"github.com/blueeyes/writer/internal/renderer/markup"
	"github.com/blueeyes/writer/internal/richtext"
)

func renderCmd() *cobra.Command {
	var standalone bool

	cmd := cobra.Command{
		Use:   "render <file>",
		Short: "Render markdown into the rich-text surface HTML.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			return invoke(func(r *markup.Renderer, cfg *config.Config) error {
				body := richtext.Render(r.Render(string(data)))
				out := cmd.OutOrStdout()
				if !standalone {
					_, err := fmt.Fprintln(out, body)
					return errors.WithStack(err)
				}
				return writeStandalone(out, filepath.Base(args[0]), body, cfg.Code.Style)
			})
		},
	}

	cmd.Flags().BoolVar(&standalone, "standalone", false, "Write a complete HTML page including the code coloring stylesheet.")

	return &cmd
}

func writeStandalone(w io.Writer, title, body, styleName string) error {
	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.ClassPrefix(highlight.ClassPrefix),
	)

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>\n", html.EscapeString(title)); err != nil {
		return errors.WithStack(err)
	}
	if err := formatter.WriteCSS(w, styles.Get(styleName)); err != nil {
		return errors.Wrap(err, "failed to write stylesheet")
	}
	_, err := fmt.Fprintf(w, "</style>\n</head>\n<body>\n<div class=\"visual-editor\">\n%s\n</div>\n</body>\n</html>\n", body)
	return errors.WithStack(err)
}
