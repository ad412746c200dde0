package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // optional TOML config path

	cfg *Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rill CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rill",
		Short: "rill - a single-worker reactive dataflow kernel",
		Long: `rill compiles signal graphs written in CUE, drives them through an
engine worker from YAML scenarios, and journals what listeners observed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, err := opts.settings(); err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to TOML config file")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// settings loads the config file once. Commands built without the root
// command (as in tests) get defaults.
func (o *RootOptions) settings() (*Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := LoadConfig(o.Config)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// logger builds the diagnostic logger for one command invocation.
func (o *RootOptions) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := o.settings()
	if err != nil {
		return nil, err
	}
	return NewLogger(cmd.ErrOrStderr(), cfg, o.Verbose)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
