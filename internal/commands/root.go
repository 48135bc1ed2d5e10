package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dotcommander/doccache/internal/app"
	"github.com/dotcommander/doccache/internal/output"
)

const rootName = "doccache"

// Execute runs the CLI application.
func Execute(version string) error {
	return execute(NewRootCmd(version))
}

func execute(root *cobra.Command) error {
	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			// Flag and argument errors never reach a RunE, so report them here.
			_ = output.PrintError(err)
			log.Error().Err(err).Msg("command failed")
		}
	}
	return err
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	var logCloser func()

	root := &cobra.Command{
		Use:           rootName,
		Short:         "Encrypted key/value cache over a document collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}

			app.SetOverrides(overridesFromFlags(cmd))

			cfg, err := app.Resolve()
			if err != nil {
				return err
			}

			logger, closer, err := app.NewLogger(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.String("db-path", "", "Override database path (sqlite driver)")
	pf.String("driver", "", "Backing store: sqlite|mongo|memory")
	pf.String("collection", "", "Collection name (default: cache)")
	pf.String("prefix", "", "Key prefix (default: $DOCCACHE_PREFIX or config)")
	pf.String("log-level", "", "Log level: trace|debug|info|warn|error|disabled")
	root.Flags().BoolP("version", "v", false, "version for doccache")

	root.AddCommand(newGetCmd())
	root.AddCommand(newPutCmd())
	root.AddCommand(newForeverCmd())
	root.AddCommand(newForgetCmd())
	root.AddCommand(newFlushCmd())
	root.AddCommand(newIncrementCmd())
	root.AddCommand(newDecrementCmd())
	root.AddCommand(NewSweepCmd())
	root.AddCommand(NewStatusCmd())
	root.AddCommand(NewKeyCmd())
	root.AddCommand(NewSchemaCmd(root))

	return root
}

// overridesFromFlags maps persistent flags to app overrides. The prefix is
// only overridden when the flag was given, so an explicit empty prefix wins.
func overridesFromFlags(cmd *cobra.Command) app.Overrides {
	var o app.Overrides
	flags := cmd.Flags()
	o.DBPath, _ = flags.GetString("db-path")
	o.Driver, _ = flags.GetString("driver")
	o.Collection, _ = flags.GetString("collection")
	o.LogLevel, _ = flags.GetString("log-level")
	if f := flags.Lookup("prefix"); f != nil && f.Changed {
		v := f.Value.String()
		o.Prefix = &v
	}
	return o
}
