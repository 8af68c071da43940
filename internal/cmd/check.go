package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blueeyes/writer/internal/renderer/cmark"
	"github.com/blueeyes/writer/internal/renderer/markup"
	"github.com/blueeyes/writer/internal/richtext"
)

// checkResult is the outcome of the round-trip check of one file.
type checkResult struct {
	file   string
	stable bool
	// before and after are the surface HTML of the original and the
	// round-tripped markup.
	before string
	after  string
	err    error
}

func checkCmd() *cobra.Command {
	var (
		jobs     int
		showDiff bool
	)

	cmd := cobra.Command{
		Use:   "check <file>...",
		Short: "Check that files survive a live mode round trip.",
		Long: `Check renders every file, converts the surface back into markup and renders
that again. A file passes when both surfaces are identical.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(func(r *markup.Renderer, logger *zap.Logger) error {
				results := make([]checkResult, len(args))

				g := new(errgroup.Group)
				g.SetLimit(max(jobs, 1))
				for i, file := range args {
					i, file := i, file
					g.Go(func() error {
						results[i] = checkFile(cmd, r, file)
						return nil
					})
				}
				_ = g.Wait()

				loggerFor(logger, cmd).Debug("checked files", zap.Int("count", len(results)))
				return reportCheck(cmd.OutOrStdout(), results, showDiff)
			})
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Number of files checked concurrently.")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show the difference of unstable files.")

	return &cmd
}

func checkFile(cmd *cobra.Command, r *markup.Renderer, file string) checkResult {
	res := checkResult{file: file}

	data, err := readSource(cmd, file)
	if err != nil {
		res.err = err
		return res
	}

	first := r.Render(string(data))
	res.before = richtext.Render(first)

	converted := cmark.ToMarkup(first)
	res.after = richtext.Render(r.Render(converted))
	res.stable = res.before == res.after
	return res
}

func reportCheck(w io.Writer, results []checkResult, showDiff bool) error {
	var (
		green = color.New(color.FgGreen).SprintFunc()
		red   = color.New(color.FgRed).SprintFunc()
		err   error
	)

	for _, res := range results {
		switch {
		case res.err != nil:
			_, _ = fmt.Fprintf(w, "%s %s: %v\n", red("ERROR"), res.file, res.err)
			err = multierr.Append(err, res.err)
		case res.stable:
			_, _ = fmt.Fprintf(w, "%s %s\n", green("OK"), res.file)
		default:
			_, _ = fmt.Fprintf(w, "%s %s\n", red("UNSTABLE"), res.file)
			if showDiff {
				dmp := diffmatchpatch.New()
				diffs := dmp.DiffMain(res.before, res.after, false)
				_, _ = fmt.Fprintln(w, dmp.DiffPrettyText(diffs))
			}
			err = multierr.Append(err, errors.Errorf("%s does not survive a round trip", res.file))
		}
	}

	return err
}
