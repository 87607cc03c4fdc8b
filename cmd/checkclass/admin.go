package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/config"
	"github.com/example/checkclass/internal/permission"
	"github.com/example/checkclass/internal/persistence/sqlite"
	"github.com/example/checkclass/internal/persistence/sqlite/migration"
	"github.com/example/checkclass/internal/token"
)

// cliActor performs administrative commands issued from the terminal.
var cliActor = permission.Actor{ID: "cli", Role: permission.RoleAdmin, DisplayName: "checkclass"}

func newMigrateCmd(a *app) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(config.WithoutTokenSecret()); err != nil {
				return err
			}
			ctx := cmd.Context()

			if a.cfg.DBDriver != config.DriverSQLite {
				if statusOnly {
					return fmt.Errorf("--status is only available for the sqlite driver")
				}
				store, err := openStore(ctx, a.cfg, a.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "schema up to date (%s)\n", a.cfg.DBDriver)
				return store.Close()
			}

			store, err := sqlite.Open(migration.DefaultSQLiteConfig(a.cfg.SQLitePath), a.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if !statusOnly {
				applied, err := store.Migrate(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "applied %d migration(s)\n", applied)
			}

			status, err := store.MigrationStatus(ctx)
			if err != nil {
				return err
			}
			version := status.CurrentVersion
			if version == "" {
				version = "none"
			}
			fmt.Fprintf(a.stdout, "current version: %s, pending: %d\n", version, len(status.Pending))
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "report the schema version without applying migrations")
	return cmd
}

// withDirectory opens the configured store and hands a directory service to fn.
func (a *app) withDirectory(ctx context.Context, fn func(*application.DirectoryService) error) error {
	if err := a.load(config.WithoutTokenSecret()); err != nil {
		return err
	}
	store, err := openStore(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := newServices(store, calendar.DefaultTimeSlotSet(), a.logger)
	return fn(svc.directory)
}

func newRoomsCmd(a *app) *cobra.Command {
	rooms := &cobra.Command{
		Use:   "rooms",
		Short: "Manage bookable rooms",
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Register a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDirectory(cmd.Context(), func(dir *application.DirectoryService) error {
				room, err := dir.CreateRoom(cmd.Context(), cliActor, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s\t%s\n", room.ID, room.Name)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List rooms ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDirectory(cmd.Context(), func(dir *application.DirectoryService) error {
				rooms, err := dir.ListRooms(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME")
				for _, room := range rooms {
					fmt.Fprintf(w, "%s\t%s\n", room.ID, room.Name)
				}
				return w.Flush()
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a room without bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDirectory(cmd.Context(), func(dir *application.DirectoryService) error {
				return dir.DeleteRoom(cmd.Context(), cliActor, args[0])
			})
		},
	}

	rooms.AddCommand(add, list, remove)
	return rooms
}

func newStudentsCmd(a *app) *cobra.Command {
	students := &cobra.Command{
		Use:   "students",
		Short: "Manage the student roster",
	}

	var student application.Student
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDirectory(cmd.Context(), func(dir *application.DirectoryService) error {
				created, err := dir.CreateStudent(cmd.Context(), cliActor, student)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", created.ID, created.FullName(), created.ClassName)
				return nil
			})
		},
	}
	add.Flags().StringVar(&student.ID, "id", "", "student identifier (generated when empty)")
	add.Flags().StringVar(&student.Surname, "surname", "", "surname")
	add.Flags().StringVar(&student.Name, "name", "", "given name")
	add.Flags().StringVar(&student.ClassName, "class", "", "class, e.g. 2A")
	_ = add.MarkFlagRequired("surname")
	_ = add.MarkFlagRequired("class")

	list := &cobra.Command{
		Use:   "list",
		Short: "List students ordered by surname",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDirectory(cmd.Context(), func(dir *application.DirectoryService) error {
				all, err := dir.ListStudents(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTUDENT\tCLASS")
				for _, s := range all {
					fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.FullName(), s.ClassName)
				}
				return w.Flush()
			})
		},
	}

	students.AddCommand(add, list)
	return students
}

func newTokenCmd(a *app) *cobra.Command {
	tokens := &cobra.Command{
		Use:   "token",
		Short: "Work with actor tokens",
	}

	var subject, role, name string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Mint a bearer token for an actor",
		Long: `Mint a bearer token for an actor. No credentials are checked; the command
is meant for development and for provisioning service accounts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(); err != nil {
				return err
			}
			parsed, err := permission.ParseRole(role)
			if err != nil {
				return err
			}
			issuer, err := token.NewIssuer(a.cfg.TokenSecret, a.cfg.TokenTTL, nil)
			if err != nil {
				return err
			}
			raw, err := issuer.Issue(permission.Actor{ID: subject, Role: parsed, DisplayName: name})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, raw)
			return nil
		},
	}
	issue.Flags().StringVar(&subject, "subject", "", "actor identifier")
	issue.Flags().StringVar(&role, "role", string(permission.RoleStandard), "admin or standard")
	issue.Flags().StringVar(&name, "name", "", "display name used as booking holder")
	_ = issue.MarkFlagRequired("subject")
	_ = issue.MarkFlagRequired("name")

	tokens.AddCommand(issue)
	return tokens
}
