package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/nblineage/internal/server"
)

// UUIDResult is the JSON payload of uuid; it matches the server's
// /nblineage/uuid/v1/{count} response.
type UUIDResult struct {
	UUID []string `json:"uuid"`
}

// NewUUIDCommand creates the uuid command.
func NewUUIDCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uuid <count>",
		Short: "Mint fresh identities",
		Long: fmt.Sprintf(`Mint count fresh, unbranched identities, one per line.

count must be between 0 and %d.`, server.MaxUUIDCount),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUUID(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runUUID(opts *RootOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	count, err := strconv.Atoi(arg)
	if err != nil || count < 0 || count > server.MaxUUIDCount {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgument,
			fmt.Sprintf("count must be an integer in [0, %d], got %q", server.MaxUUIDCount, arg), nil)
	}

	ids := opts.engine(cmd).Codec().MintN(count)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}

	if opts.Format == "json" {
		return f.Success(UUIDResult{UUID: out})
	}
	for _, id := range out {
		fmt.Fprintln(f.Writer, id)
	}
	return nil
}
