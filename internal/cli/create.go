package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/todoledger/sdk-go/server"
	"github.com/todoledger/sdk-go/types"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Description string
	RequestID   string
	Wait        time.Duration
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Submit a new todo record and wait for confirmation",
		Long: `Submit a new todo record through a running tracker and wait for it to be mined.

Re-running with the same --request-id returns the original transaction
instead of submitting a second one.

Example:
  todoledger create "Buy milk" --description "2L" --wait 30s`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Description, "description", "", "record description")
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "idempotency key (generated when empty)")
	cmd.Flags().DurationVar(&opts.Wait, "wait", time.Minute, "how long to wait for confirmation (0 skips waiting)")

	return cmd
}

type createOutput struct {
	RequestID   string `json:"request_id"`
	TxHash      string `json:"tx_hash"`
	Outcome     string `json:"outcome,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	GasUsed     uint64 `json:"gas_used,omitempty"`
}

func runCreate(cmd *cobra.Command, opts *CreateOptions, title string) error {
	c, err := server.Dial(opts.Server)
	if err != nil {
		return err
	}
	defer c.Close()

	handle, err := c.Create(cmd.Context(), opts.RequestID, title, opts.Description)
	if err != nil {
		return err
	}
	out := createOutput{RequestID: handle.RequestID(), TxHash: handle.TxHash()}

	var awaitErr error
	if opts.Wait > 0 {
		var conf types.Confirmation
		conf, awaitErr = c.Await(cmd.Context(), handle, opts.Wait)
		out.Outcome = conf.Outcome.String()
		out.BlockNumber = conf.BlockNumber
		out.GasUsed = conf.GasUsed
		if awaitErr == nil {
			awaitErr = conf.Outcome.Err()
		}
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		return awaitErr
	}

	fmt.Fprintf(w, "request %s submitted as %s\n", out.RequestID, out.TxHash)
	switch out.Outcome {
	case "":
	case types.OutcomeConfirmed.String(), types.OutcomeReverted.String():
		fmt.Fprintf(w, "%s in block %s, gas %s\n", out.Outcome, humanize.Comma(int64(out.BlockNumber)), humanize.Comma(int64(out.GasUsed)))
	default:
		fmt.Fprintf(w, "%s after %s; run again with --request-id %s to keep waiting\n", out.Outcome, opts.Wait, out.RequestID)
	}
	return awaitErr
}
