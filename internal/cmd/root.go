package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blueeyes/writer/internal/config"
	"github.com/blueeyes/writer/internal/config/autoconfig"
	"github.com/blueeyes/writer/internal/log"
)

var (
	fChdir      string
	fConfigPath string
	fVerbose    bool
)

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "bew",
		Short:         "Convert and edit markdown documents in raw and live mode",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if fChdir != "" && fChdir != "." {
				if err := os.Chdir(fChdir); err != nil {
					return errors.Wrapf(err, "failed to change directory to %q", fChdir)
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Flush()
		},
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&fChdir, "chdir", ".", "Switch to a different working directory before executing the command.")
	pflags.StringVar(&fConfigPath, "config-path", ".", "Path whose bew.yaml chain is loaded, relative to the working directory.")
	pflags.BoolVar(&fVerbose, "verbose", false, "Write debug logs to stderr.")

	cmd.AddCommand(renderCmd())
	cmd.AddCommand(convertCmd())
	cmd.AddCommand(fmtCmd())
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(tableCmd())
	cmd.AddCommand(scriptCmd())

	return &cmd
}

// newBuilder returns the component builder for the configured path. The
// --verbose flag overrides the logging settings of the configuration.
func newBuilder() (*autoconfig.Builder, error) {
	builder := autoconfig.NewBuilder()
	err := builder.Decorate(func(autoconfig.ConfigPath) autoconfig.ConfigPath {
		return autoconfig.ConfigPath(fConfigPath)
	})
	if err != nil {
		return nil, err
	}
	if fVerbose {
		err := builder.Decorate(func(c *config.Config) (*config.Config, error) {
			c.Log = config.Log{Enabled: true, Verbose: true}
			return c, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return builder, nil
}

// invoke runs fn with components built from the configuration.
func invoke(fn interface{}) error {
	builder, err := newBuilder()
	if err != nil {
		return err
	}
	return builder.Invoke(fn)
}

func loggerFor(logger *zap.Logger, cmd *cobra.Command) *zap.Logger {
	return logger.Named("cmd").With(zap.String("command", cmd.Name()))
}
