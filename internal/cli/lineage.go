package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nblineage/internal/meme"
	"github.com/roach88/nblineage/internal/store"
)

// LineageOptions holds flags for the lineage command.
type LineageOptions struct {
	*RootOptions
	DB string
}

// LineageResult is the JSON payload of lineage.
type LineageResult struct {
	Identity   string               `json:"identity"`
	UUID       string               `json:"uuid"`
	Relatives  []store.Cell         `json:"relatives"`
	History    []store.HistoryEntry `json:"history"`
	Successors []store.HistoryEntry `json:"successors"`
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LineageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lineage <identity>",
		Short: "Query the index for an identity's relatives",
		Long: `Query the lineage index for an identity.

Prints every indexed cell sharing the identity's UUID (its branches and
itself), the history recorded on the cells holding it, and the cells
whose history archived it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(opts, meme.Identity(args[0]), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "index database (default from config, ~/.nblineage/index.db)")

	return cmd
}

func runLineage(opts *LineageOptions, id meme.Identity, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	parts, err := meme.Decode(id)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgument, "identity", err)
	}

	st, _, err := openIndex(opts.RootOptions, opts.DB)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "open index", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	result := LineageResult{Identity: string(id), UUID: parts.UUID}
	if result.Relatives, err = st.CellsByLineage(ctx, parts.UUID); err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "query index", err)
	}
	if result.History, err = st.HistoryFor(ctx, id); err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "query index", err)
	}
	if result.Successors, err = st.Successors(ctx, id); err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "query index", err)
	}

	if opts.Format == "json" {
		return f.Success(result)
	}

	w := f.Writer
	fmt.Fprintf(w, "%s (uuid %s)\n", id, parts.UUID)
	fmt.Fprintf(w, "\nRelatives (%d):\n", len(result.Relatives))
	for _, c := range result.Relatives {
		marker := " "
		if c.Identity == id {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %s [%d] %s (branch %d)\n", marker, c.NotebookPath, c.Position, c.Identity, c.BranchCount)
	}
	fmt.Fprintf(w, "\nHistory (%d):\n", len(result.History))
	for _, h := range result.History {
		fmt.Fprintf(w, "  %s [%d] #%d %s\n", h.NotebookPath, h.Position, h.Seq, h.Current)
	}
	fmt.Fprintf(w, "\nArchived in (%d):\n", len(result.Successors))
	for _, h := range result.Successors {
		fmt.Fprintf(w, "  %s [%d] #%d\n", h.NotebookPath, h.Position, h.Seq)
	}
	return nil
}
