package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runsCommand creates the command for browsing stored runs.
func (c *CLI) runsCommand() *cobra.Command {
	var storeURI string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and show stored analysis runs",
	}
	cmd.PersistentFlags().StringVar(&storeURI, "store", "", "run store: a directory or mongodb:// URI")

	cmd.AddCommand(c.runsListCommand(&storeURI))
	cmd.AddCommand(c.runsShowCommand(&storeURI))
	return cmd
}

func (c *CLI) runsListCommand(storeURI *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if *storeURI != "" {
				cfg.Store.URI = *storeURI
			}
			store, err := c.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			runs, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No stored runs")
				return nil
			}
			fmt.Println(runsTable(runs))
			return nil
		},
	}
}

func (c *CLI) runsShowCommand(storeURI *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the reports of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if *storeURI != "" {
				cfg.Store.URI = *storeURI
			}
			store, err := c.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			run, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if output != "" {
				return writeReports(output, run.Reports)
			}

			fmt.Println(StyleTitle.Render(run.Project))
			printKeyValue("Run", run.ID)
			printKeyValue("Created", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			printKeyValue("Reports", fmt.Sprint(len(run.Reports)))
			printNewline()
			fmt.Println(reportTable(run.Reports))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the reports as JSON to this file (- for stdout)")
	return cmd
}
