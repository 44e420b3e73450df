package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/todoledger/sdk-go/server"
	"github.com/todoledger/sdk-go/types"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Refresh bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "Show the tracker's record view",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-read the ledger before listing")

	return cmd
}

func runList(cmd *cobra.Command, opts *ListOptions) error {
	c, err := server.Dial(opts.Server)
	if err != nil {
		return err
	}
	defer c.Close()

	var records []types.RecordView
	if opts.Refresh {
		records, err = c.Refresh(cmd.Context())
	} else {
		records, err = c.List(cmd.Context())
	}
	if err != nil {
		return err
	}
	return printRecords(cmd, opts.Format, records)
}

func printRecords(cmd *cobra.Command, format string, records []types.RecordView) error {
	w := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "no records")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDONE\tTITLE\tDESCRIPTION")
	for i, r := range records {
		done := " "
		if r.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%d\t[%s]\t%s\t%s\n", i+1, done, r.Title, r.Description)
	}
	return tw.Flush()
}
