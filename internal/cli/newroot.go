package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/notebook"
)

// NewRootMemeOptions holds flags for the new-root-meme command.
type NewRootMemeOptions struct {
	*RootOptions
	TrimHistory          int
	ClearServerSignature bool
}

// NewRootMemeResult is the JSON payload of new-root-meme.
type NewRootMemeResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Notebook    string `json:"notebook"`
	Cells       int    `json:"cells"`
	Minted      int    `json:"minted"`
}

// NewNewRootMemeCommand creates the new-root-meme command.
func NewNewRootMemeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewRootMemeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new-root-meme <src> <dst>",
		Short: "Copy a notebook with fresh root identities",
		Long: `Copy a notebook, giving the document and every cell a new identity.

Each old identity is archived into its record's history and the new cell
identities are stored as the document's root_cells. The destination must
not exist.

Exit codes:
  0 - Destination written
  2 - Destination exists, source unreadable or malformed

Examples:
  nblineage new-root-meme exercise.ipynb answer.ipynb
  nblineage new-root-meme --trim-history 3 --clear-server-signature in.ipynb out.ipynb`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNewRootMeme(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.TrimHistory, "trim-history", 0, "keep only the most recent N history entries (default from config, else unbounded)")
	cmd.Flags().BoolVar(&opts.ClearServerSignature, "clear-server-signature", false, "drop the origin signature")

	return cmd
}

func runNewRootMeme(opts *NewRootMemeOptions, src, dst string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(dst); err == nil {
		return f.Fail(ExitCommandError, ErrCodeDestinationExists, fmt.Sprintf("destination exists: %s", dst), nil)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("stat %s", dst), err)
	}

	cfg, err := opts.config()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "load config", err)
	}

	resetOpts := engine.ResetOptions{
		Trim:                 cfg.Trim(),
		ClearOriginSignature: cfg.ClearServerSignature,
	}
	if cmd.Flags().Changed("trim-history") {
		if opts.TrimHistory < 0 {
			return f.Fail(ExitCommandError, ErrCodeInvalidArgument,
				fmt.Sprintf("--trim-history must be >= 0, got %d", opts.TrimHistory), nil)
		}
		resetOpts.Trim = lineage.TrimTo(opts.TrimHistory)
	}
	if cmd.Flags().Changed("clear-server-signature") {
		resetOpts.ClearOriginSignature = opts.ClearServerSignature
	}

	doc, err := notebook.ParseFile(src)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("read %s", src), err)
	}

	res, err := opts.engine(cmd).Reset(doc, resetOpts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeMalformedDocument, src, err)
	}
	f.VerboseLog("reset %s: %d identities minted, trim %s", src, res.Minted, resetOpts.Trim)

	if err := notebook.WriteFile(dst, res.Document); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("write %s", dst), err)
	}

	if opts.Format == "json" {
		return f.Success(NewRootMemeResult{
			Source:      src,
			Destination: dst,
			Notebook:    string(res.Document.Metadata.Lineage.Current),
			Cells:       len(res.Document.Cells),
			Minted:      res.Minted,
		})
	}
	fmt.Fprintf(f.Writer, "\u2713 %s -> %s (%s)\n", src, dst, res.Document.Metadata.Lineage.Current)
	return nil
}
