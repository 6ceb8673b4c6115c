package cli

import (
	"approachlog/internal"
	"approachlog/internal/models"
	"approachlog/internal/services"
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// withCore builds and opens the core, runs fn, and closes the core again so
// pending backups are written before the command returns.
func withCore(cmd *cobra.Command, opts *RootOptions, f Factories, fn func(ctx context.Context, core *internal.Core, p *printer) error) (err error) {
	core, err := f.Core(opts.flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize", err)
	}
	defer func() {
		if closeErr := core.Close(); err == nil && closeErr != nil {
			err = WrapExitError(ExitFailure, "failed to close store", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := core.Open(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to open record store", err)
	}
	return fn(ctx, core, &printer{format: opts.Format, w: cmd.OutOrStdout()})
}

func NewServeCommand(opts *RootOptions, f Factories) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the local JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := f.App(opts.flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to initialize", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return app.Run(ctx)
		},
	}
}

func NewListCommand(opts *RootOptions, f Factories) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every approach, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, f, func(ctx context.Context, core *internal.Core, p *printer) error {
				records, err := core.Service.ListAll(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list approaches", err)
				}
				return p.records(services.SortByDateDesc(records))
			})
		},
	}
}

func NewGetCommand(opts *RootOptions, f Factories) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one approach",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, f, func(ctx context.Context, core *internal.Core, p *printer) error {
				record, err := core.Service.FindByID(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read approach", err)
				}
				if record == nil {
					return &ExitError{Code: ExitFailure, Message: "approach " + args[0] + " not found"}
				}
				return p.record(record)
			})
		},
	}
}

type addOptions struct {
	date, location, address, observations string
	person                                  models.PersonEntry
	plate                                   string
	companions                              []string
}

func NewAddCommand(opts *RootOptions, f Factories) *cobra.Command {
	a := &addOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new approach",
		Long: `Record a new approach for one person, optionally with companions.

Examples:
  approachlog add --name "João Silva" --rg 111 --location "Praça Central"
  approachlog add --name "Ana" --companion "Pedro" --companion "Maria"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := &models.ApproachRecord{
				Date:         a.date,
				Location:     a.location,
				Address:      a.address,
				Observations: a.observations,
			}
			primary := a.person
			if a.plate != "" {
				primary.Vehicle = &models.Vehicle{Plate: a.plate}
			}
			draft.People = append(draft.People, primary)
			for _, name := range a.companions {
				draft.People = append(draft.People, models.PersonEntry{Name: name})
			}

			return withCore(cmd, opts, f, func(ctx context.Context, core *internal.Core, p *printer) error {
				record, err := core.Service.Create(ctx, draft)
				if errors.Is(err, services.ErrInvalid) {
					return WrapExitError(ExitFailure, "approach rejected", err)
				}
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to save approach", err)
				}
				return p.record(record)
			})
		},
	}

	cmd.Flags().StringVar(&a.person.ID, "person-id", "", "reuse the id of a person approached before")
	cmd.Flags().StringVar(&a.person.Name, "name", "", "name of the approached person (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&a.person.MotherName, "mother", "", "mother's name")
	cmd.Flags().StringVar(&a.person.FatherName, "father", "", "father's name")
	cmd.Flags().StringVar(&a.person.BirthDate, "birth-date", "", "birth date")
	cmd.Flags().StringVar(&a.person.RG, "rg", "", "RG number")
	cmd.Flags().StringVar(&a.person.CPF, "cpf", "", "CPF number")
	cmd.Flags().StringVar(&a.person.Notes, "notes", "", "notes about the person")
	cmd.Flags().StringVar(&a.plate, "plate", "", "vehicle plate")
	cmd.Flags().StringVar(&a.date, "date", "", "approach date (default now)")
	cmd.Flags().StringVar(&a.location, "location", "", "where the approach happened")
	cmd.Flags().StringVar(&a.address, "address", "", "street address")
	cmd.Flags().StringVar(&a.observations, "observations", "", "observations")
	cmd.Flags().StringArrayVar(&a.companions, "companion", nil, "companion name (repeatable)")

	return cmd
}

func NewDeleteCommand(opts *RootOptions, f Factories) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an approach",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, f, func(ctx context.Context, core *internal.Core, p *printer) error {
				if err := core.Service.Delete(ctx, args[0]); err != nil {
					return WrapExitError(ExitCommandError, "failed to delete approach", err)
				}
				return p.message(map[string]string{"deleted": args[0]}, "deleted %s", args[0])
			})
		},
	}
}

func NewSearchCommand(opts *RootOptions, f Factories) *cobra.Command {
	var filters services.Filters

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search approaches by text and filters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return withCore(cmd, opts, f, func(ctx context.Context, core *internal.Core, p *printer) error {
				records, err := core.Service.Search(ctx, query, filters)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to search", err)
				}
				return p.records(services.SortByDateDesc(records))
			})
		},
	}

	cmd.Flags().StringVar(&filters.Name, "name", "", "name contains")
	cmd.Flags().StringVar(&filters.RG, "rg", "", "RG contains")
	cmd.Flags().StringVar(&filters.CPF, "cpf", "", "CPF contains")
	cmd.Flags().StringVar(&filters.Location, "location", "", "location or address contains")
	cmd.Flags().StringVar(&filters.Observations, "observations", "", "observations contain")
	cmd.Flags().StringVar(&filters.VehiclePlate, "plate", "", "vehicle plate contains")
	cmd.Flags().StringVar(&filters.Companion, "companion", "", "companion contains")

	return cmd
}

func NewPeopleCommand(opts *RootOptions, f Factories) *cobra.Command {
	return &cobra.Command{
		Use:   "people [query]",
		Short: "List known people matching a name, RG or CPF",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return withCore(cmd, opts, f, func(ctx context.Context, core *internal.Core, p *printer) error {
				people, err := core.Service.People(ctx, query)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read people", err)
				}
				return p.people(people)
			})
		},
	}
}

func NewRelatedCommand(opts *RootOptions, f Factories) *cobra.Command {
	var exclude string

	cmd := &cobra.Command{
		Use:   "related <person-id>",
		Short: "List approaches involving a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, f, func(ctx context.Context, core *internal.Core, p *printer) error {
				records, err := core.Service.Related(ctx, args[0], exclude)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read approaches", err)
				}
				return p.records(records)
			})
		},
	}
	cmd.Flags().StringVar(&exclude, "exclude", "", "approach id to leave out")
	return cmd
}

func NewProfileCommand(opts *RootOptions, f Factories) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <person-id>",
		Short: "Show what is known about a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, f, func(ctx context.Context, core *internal.Core, p *printer) error {
				profile, err := core.Service.Profile(ctx, args[0])
				if errors.Is(err, services.ErrNotFound) {
					return WrapExitError(ExitFailure, "unknown person", err)
				}
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read profile", err)
				}
				if p.format == "json" {
					return p.json(profile)
				}
				p.personLine(&profile.Person)
				return p.records(profile.Approaches)
			})
		},
	}
}

func NewExportCommand(opts *RootOptions, f Factories) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup now",
		Long: `Write a backup of every approach.

Without --out the backup goes to the configured backup targets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, f, func(ctx context.Context, core *internal.Core, p *printer) error {
				var (
					ok  bool
					err error
				)
				if out != "" {
					ok, err = core.Service.ExportTo(ctx, core.PathGateway(out))
				} else {
					ok, err = core.Service.ExportNow(ctx)
				}
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read approaches", err)
				}
				if !ok {
					return &ExitError{Code: ExitFailure, Message: "backup was not written, see log"}
				}
				return p.message(map[string]bool{"ok": true}, "backup written")
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the backup to this file")
	return cmd
}

func NewImportCommand(opts *RootOptions, f Factories) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace every approach with a backup",
		Long: `Replace the stored approaches with the contents of a backup.

Without --in the newest backup from the primary backup target is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, f, func(ctx context.Context, core *internal.Core, p *printer) error {
				var (
					n   int
					err error
				)
				if in != "" {
					n, err = core.Service.RestoreFrom(ctx, core.PathGateway(in))
				} else {
					n, err = core.Service.RestoreFromBackup(ctx)
				}
				if errors.Is(err, services.ErrRestoreFailed) {
					return WrapExitError(ExitFailure, "restore failed", err)
				}
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to restore", err)
				}
				return p.message(map[string]int{"restored": n}, "restored %d approaches", n)
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "read the backup from this file")
	return cmd
}
