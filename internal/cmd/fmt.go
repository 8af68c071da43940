package cmd

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blueeyes/writer/internal/renderer/cmark"
	"github.com/blueeyes/writer/internal/renderer/markup"
)

func fmtCmd() *cobra.Command {
	var write bool

	cmd := cobra.Command{
		Use:   "fmt <file>",
		Short: "Format a markdown file the way the live editor writes it.",
		Long: `Format renders the file into the rich-text surface and converts it back,
which is exactly what happens to a document edited in live mode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileName := args[0]
			data, err := readSource(cmd, fileName)
			if err != nil {
				return err
			}

			return invoke(func(r *markup.Renderer, logger *zap.Logger) error {
				result, err := cmark.Render(r.Render(string(data)))
				if err != nil {
					return errors.Wrap(err, "failed to convert document")
				}

				if write && fileName != "-" && !isURL(fileName) {
					loggerFor(logger, cmd).Debug("writing formatted file", zap.String("file", fileName))
					return errors.Wrapf(os.WriteFile(fileName, result, 0o644), "failed to write %q", fileName)
				}

				_, err = cmd.OutOrStdout().Write(result)
				return errors.Wrap(err, "failed to write result")
			})
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the file instead of stdout.")

	return &cmd
}

func isURL(name string) bool {
	return strings.HasPrefix(name, "https://")
}

// readSource reads a file, stdin for "-", or an https URL.
func readSource(cmd *cobra.Command, fileName string) ([]byte, error) {
	var data []byte

	if fileName == "-" {
		var err error
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Wrap(err, "failed to read from stdin")
		}
	} else if isURL(fileName) {
		client := http.Client{
			Timeout: time.Second * 10,
		}
		resp, err := client.Get(fileName)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get a file %q", fileName)
		}
		data, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read body")
		}
	} else {
		var err error
		data, err = os.ReadFile(fileName)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read file %q", fileName)
		}
	}

	return data, nil
}
