package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/blueeyes/writer/internal/config"
	"github.com/blueeyes/writer/internal/config/autoconfig"
	"github.com/blueeyes/writer/internal/editor"
)

func tableCmd() *cobra.Command {
	var (
		rows int
		cols int
	)

	cmd := cobra.Command{
		Use:   "table",
		Short: "Print the markup of a new table.",
		Long: `Table prints the pipe table the editor inserts for the given size. Without
--rows and --cols it asks for the size when attached to a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(func(cfg *config.Config, logger *zap.Logger) error {
				limits := autoconfig.TableLimits(cfg)
				size := editor.TableSize{Rows: cfg.Table.Rows, Cols: cfg.Table.Cols}

				asked := !cmd.Flags().Changed("rows") && !cmd.Flags().Changed("cols")
				if asked && isTerminal(cmd) {
					p := &terminalPrompter{in: cmd.InOrStdin(), out: cmd.ErrOrStderr(), limits: limits}
					var err error
					size, err = p.PromptTable(cmd.Context(), size)
					if errors.Is(err, editor.ErrPromptCanceled) {
						return nil
					}
					if err != nil {
						return err
					}
				} else {
					if cmd.Flags().Changed("rows") {
						size.Rows = rows
					}
					if cmd.Flags().Changed("cols") {
						size.Cols = cols
					}
					if err := editor.ValidateTableSize(size, limits); err != nil {
						return err
					}
				}

				loggerFor(logger, cmd).Debug("printing table", zap.Int("rows", size.Rows), zap.Int("cols", size.Cols))

				skeleton := editor.TableSkeleton(size, editor.Placeholders{
					Header:    cfg.Table.Header,
					Separator: cfg.Table.Separator,
					Cell:      cfg.Table.Cell,
				})
				_, err := fmt.Fprint(cmd.OutOrStdout(), editor.TableMarkup(skeleton))
				return errors.WithStack(err)
			})
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 0, "Number of data rows.")
	cmd.Flags().IntVar(&cols, "cols", 0, "Number of columns.")

	return &cmd
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
