package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
)

// instanceService is the subset of the instance use case the CLI drives.
type instanceService interface {
	List(ctx context.Context) ([]instance.Descriptor, error)
	Add(ctx context.Context, name, rawURL, apiKey string, kind domain.EngineKind) (instance.Descriptor, error)
	Remove(ctx context.Context, name string) error
	Probe(ctx context.Context, name string) (instance.Descriptor, error)
}

type cliApp struct {
	open serviceOpener
	env  *string
}

func (a *cliApp) run(cmd *cobra.Command, fn func(ctx context.Context, svc instanceService) error) error {
	svc, closeFn, err := a.open(*a.env)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(cmd.Context(), svc)
}

func newInstancesCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"instance", "inst"},
		Short:   "List, register, remove and probe database instances",
	}
	cmd.AddCommand(
		newListCmd(app),
		newAddCmd(app),
		newRemoveCmd(app),
		newProbeCmd(app),
	)
	return cmd
}

func newListCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context, svc instanceService) error {
				list, err := svc.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "NAME\tTYPE\tURL\tAPI KEY\tLEGACY")
				for _, d := range list {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						d.Name(), d.Kind(), d.URL(), yesNo(d.HasCredential()), yesNo(d.Legacy()))
				}
				return tw.Flush()
			})
		},
	}
}

func newAddCmd(app *cliApp) *cobra.Command {
	var (
		kind   string
		apiKey string
	)
	cmd := &cobra.Command{
		Use:   "add NAME URL",
		Short: "Probe and register an instance",
		Example: `  vecscopectl instances add local-qdrant http://localhost:6333
  vecscopectl instances add docs http://chroma:8000 --type chromadb`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, svc instanceService) error {
				d, err := svc.Add(ctx, args[0], args[1], apiKey, domain.EngineKind(kind))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Instance %s added (%s)\n", d.Name(), d.Kind())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", string(domain.DefaultEngineKind), "engine type: qdrant or chromadb")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "engine API key")
	return cmd
}

func newRemoveCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove an instance",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, svc instanceService) error {
				if err := svc.Remove(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Instance %s removed\n", args[0])
				return nil
			})
		},
	}
}

func newProbeCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "probe NAME",
		Short: "Check connectivity of a registered instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, svc instanceService) error {
				d, err := svc.Probe(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Instance %s (%s) is reachable\n", d.Name(), d.Kind())
				return nil
			})
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
