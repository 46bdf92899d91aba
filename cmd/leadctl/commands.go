package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stelliformdigital/stelliform-web/internal/app/bootstrap"
	appconfig "github.com/stelliformdigital/stelliform-web/internal/config"
	"github.com/stelliformdigital/stelliform-web/internal/leads"
	"github.com/stelliformdigital/stelliform-web/internal/notify"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

type app struct {
	cfg           *appconfig.Config
	logger        *logging.Logger
	openStore     func(context.Context, *appconfig.Config, *logging.Logger) (*bootstrap.LeadStore, error)
	buildNotifier func(context.Context, *appconfig.Config, *logging.Logger) (*notify.Service, error)
}

func (a *app) withStore(ctx context.Context, fn func(leads.Repository) error) error {
	store, err := a.openStore(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store.Repo)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Operate the Stelliform lead store",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newLeadsCmd(a), newNotifyCmd(a))
	return root
}

func newLeadsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List, triage and export leads",
	}
	cmd.AddCommand(newLeadsListCmd(a), newLeadsStatusCmd(a), newLeadsExportCmd(a))
	return cmd
}

func newLeadsListCmd(a *app) *cobra.Command {
	var (
		status string
		limit  int
		offset int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := leads.ListFilter{Limit: limit, Offset: offset}
			if status != "" {
				st, err := leads.ParseStatus(status)
				if err != nil {
					return fmt.Errorf("--status %q: %w", status, err)
				}
				filter.Status = st
			}
			return a.withStore(cmd.Context(), func(repo leads.Repository) error {
				list, err := repo.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(list)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tNAME\tEMAIL\tPROJECT\tNOTIFY")
				for _, l := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						l.ID, l.CreatedAt.UTC().Format(time.RFC3339), l.Status, l.Name, l.Email, l.Project, l.NotifyStatus)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only leads in this status")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum leads to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "leads to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newLeadsStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a lead to a triage status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := leads.ParseStatus(args[1])
			if err != nil {
				return fmt.Errorf("status %q: %w", args[1], err)
			}
			return a.withStore(cmd.Context(), func(repo leads.Repository) error {
				lead, err := repo.Update(cmd.Context(), args[0], leads.LeadPatch{Status: &st})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", lead.ID, lead.Status)
				return nil
			})
		},
	}
}

func newLeadsExportCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write leads to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var st leads.Status
			if status != "" {
				parsed, err := leads.ParseStatus(status)
				if err != nil {
					return fmt.Errorf("--status %q: %w", status, err)
				}
				st = parsed
			}
			return a.withStore(cmd.Context(), func(repo leads.Repository) error {
				list, err := leads.ListAll(cmd.Context(), repo, st, 0)
				if err != nil {
					return err
				}
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("create %s: %w", args[0], err)
				}
				if err := leads.WriteXLSX(f, list); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d leads to %s\n", len(list), args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only leads in this status")
	return cmd
}

func newNotifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Check alert channels",
	}
	var name, email string
	test := &cobra.Command{
		Use:   "test",
		Short: "Send a sample lead alert through every configured channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.buildNotifier(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			result := svc.Notify(cmd.Context(), notify.Alert{
				LeadID:     "test-" + time.Now().UTC().Format("20060102T150405"),
				Name:       name,
				Email:      email,
				Project:    "Alert channel test",
				Message:    "Sent by leadctl notify test",
				ReceivedAt: time.Now().UTC(),
			})
			for _, o := range result.Outcomes {
				line := fmt.Sprintf("%s: %s", o.Channel, o.Status)
				if o.Err != nil {
					line += " (" + o.Err.Error() + ")"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			if result.Status() == notify.StatusFailed {
				return fmt.Errorf("no channel delivered the test alert")
			}
			return nil
		},
	}
	test.Flags().StringVar(&name, "name", "Test Lead", "name on the sample alert")
	test.Flags().StringVar(&email, "email", "test@stelliformdigital.com", "email on the sample alert")
	cmd.AddCommand(test)
	return cmd
}
