package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/meme"
	"github.com/roach88/nblineage/internal/notebook"
)

// BranchOptions holds flags for the branch command.
type BranchOptions struct {
	*RootOptions
	Notebook bool // branch every cell of a notebook copy
}

// BranchResult is the JSON payload of branch <identity>.
type BranchResult struct {
	Identity     string   `json:"identity"`
	UUID         string   `json:"uuid"`
	BranchCount  int      `json:"branch_count"`
	BranchTokens []string `json:"branch_tokens"`
}

// BranchNotebookResult is the JSON payload of branch --notebook.
type BranchNotebookResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Branched    int    `json:"branched"`
	Minted      int    `json:"minted"`
}

// NewBranchCommand creates the branch command.
func NewBranchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BranchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "branch <identity> | branch --notebook <src> <dst>",
		Short: "Record a duplication event",
		Long: `Record one duplication event.

With an identity, print the identity a duplicate of it receives: the UUID
is kept, the branch count grows by one and a new branch token is added.

With --notebook, copy src to dst branching every cell identity, then
synchronize the copy. The destination must not exist.

Examples:
  nblineage branch 6f1c2a1e-8d4b-11ee-b9d1-0242ac120002
  nblineage branch --notebook original.ipynb copy.ipynb`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.Notebook {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Notebook {
				return runBranchNotebook(opts, args[0], args[1], cmd)
			}
			return runBranchIdentity(opts, meme.Identity(args[0]), cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Notebook, "notebook", false, "branch every cell of a notebook copy")

	return cmd
}

func runBranchIdentity(opts *BranchOptions, id meme.Identity, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	branched, err := opts.engine(cmd).Codec().Branch(id)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgument, "branch", err)
	}

	if opts.Format == "json" {
		parts, err := meme.Decode(branched)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArgument, "decode", err)
		}
		return f.Success(BranchResult{
			Identity:     string(branched),
			UUID:         parts.UUID,
			BranchCount:  parts.BranchCount,
			BranchTokens: parts.BranchTokens,
		})
	}
	fmt.Fprintln(f.Writer, branched)
	return nil
}

func runBranchNotebook(opts *BranchOptions, src, dst string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(dst); err == nil {
		return f.Fail(ExitCommandError, ErrCodeDestinationExists, fmt.Sprintf("destination exists: %s", dst), nil)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("stat %s", dst), err)
	}

	doc, err := notebook.ParseFile(src)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("read %s", src), err)
	}

	e := opts.engine(cmd)
	// Cells must carry an identity before they can branch.
	res, err := e.Synchronize(doc, engine.SyncOptions{})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeMalformedDocument, src, err)
	}
	minted := res.Minted

	branched, err := e.Branch(doc)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgument, src, err)
	}
	if res, err = e.Synchronize(doc, engine.SyncOptions{}); err != nil {
		return f.Fail(ExitCommandError, ErrCodeMalformedDocument, src, err)
	}
	minted += res.Minted

	if err := notebook.WriteFile(dst, doc); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("write %s", dst), err)
	}

	if opts.Format == "json" {
		return f.Success(BranchNotebookResult{Source: src, Destination: dst, Branched: branched, Minted: minted})
	}
	fmt.Fprintf(f.Writer, "\u2713 %s -> %s (%d cells branched)\n", src, dst, branched)
	return nil
}
