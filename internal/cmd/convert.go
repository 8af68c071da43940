package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/blueeyes/writer/internal/renderer/cmark"
	"github.com/blueeyes/writer/internal/richtext"
)

func convertCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "convert <file>",
		Short: "Convert rich-text surface HTML back into markdown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			root, err := richtext.Parse(string(data))
			if err != nil {
				return errors.Wrap(err, "failed to parse html")
			}

			result, err := cmark.Render(root)
			if err != nil {
				return errors.Wrap(err, "failed to convert html")
			}
			_, err = cmd.OutOrStdout().Write(result)
			return errors.Wrap(err, "failed to write result")
		},
	}

	return &cmd
}
