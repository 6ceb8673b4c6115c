// Package cli is the approachlog command line.
package cli

import (
	"approachlog/internal"
	"approachlog/internal/structures"
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Debug      bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Factories builds the service graph; di.InitCore and di.InitApp in production.
type Factories struct {
	Core func(flags *structures.CliFlags) (*internal.Core, error)
	App  func(flags *structures.CliFlags) (*internal.App, error)
}

func (o *RootOptions) flags() *structures.CliFlags {
	return &structures.CliFlags{ConfigPath: o.ConfigPath, DebugMode: o.Debug}
}

// NewRootCommand creates the root command.
func NewRootCommand(f Factories) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "approachlog",
		Short: "Approach record keeping",
		Long:  "Keeps stop-and-search approach records on this device, with local backups and person lookup.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.yaml", "path to the YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "also log to the console")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts, f))
	cmd.AddCommand(NewListCommand(opts, f))
	cmd.AddCommand(NewGetCommand(opts, f))
	cmd.AddCommand(NewAddCommand(opts, f))
	cmd.AddCommand(NewDeleteCommand(opts, f))
	cmd.AddCommand(NewSearchCommand(opts, f))
	cmd.AddCommand(NewPeopleCommand(opts, f))
	cmd.AddCommand(NewRelatedCommand(opts, f))
	cmd.AddCommand(NewProfileCommand(opts, f))
	cmd.AddCommand(NewExportCommand(opts, f))
	cmd.AddCommand(NewImportCommand(opts, f))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
