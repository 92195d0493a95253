package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/nblineage/internal/notebook"
	"github.com/roach88/nblineage/internal/store"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	DB     string
	Remove bool
}

// IndexFileResult is the per-file entry of IndexResult.
type IndexFileResult struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// IndexResult is the JSON payload of index.
type IndexResult struct {
	DB    string            `json:"db"`
	Files []IndexFileResult `json:"files"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index <notebook>...",
		Short: "Record notebook lineage in the index",
		Long: `Record each notebook's lineage in the SQLite index.

Notebooks are stored under their absolute path. A notebook whose lineage
is unchanged since it was last indexed is skipped. Notebooks must have
been synchronized first.

Examples:
  nblineage index notebooks/*.ipynb
  nblineage index --db ./lineage.db analysis.ipynb
  nblineage index --remove old.ipynb`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "index database (default from config, ~/.nblineage/index.db)")
	cmd.Flags().BoolVar(&opts.Remove, "remove", false, "drop the notebooks from the index instead")

	return cmd
}

// openIndex opens the database named by --db or the configuration.
func openIndex(opts *RootOptions, db string) (*store.Store, string, error) {
	if db == "" {
		cfg, err := opts.config()
		if err != nil {
			return nil, "", err
		}
		db = cfg.Index.DB
	}
	st, err := store.Open(db)
	if err != nil {
		return nil, db, err
	}
	return st, db, nil
}

func runIndex(opts *IndexOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	st, db, err := openIndex(opts.RootOptions, opts.DB)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "open index", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	result := IndexResult{DB: db, Files: make([]IndexFileResult, 0, len(paths))}
	failed := 0
	for _, path := range paths {
		entry := IndexFileResult{Path: path}
		if abs, err := filepath.Abs(path); err == nil {
			entry.Path = abs
		}

		if opts.Remove {
			err = st.RemoveNotebook(ctx, entry.Path)
			entry.Changed = err == nil
		} else {
			var doc *notebook.Document
			doc, err = notebook.ParseFile(path)
			if err == nil {
				entry.Changed, err = st.IndexNotebook(ctx, entry.Path, doc)
			}
		}
		if err != nil {
			entry.Error = err.Error()
			failed++
		}
		result.Files = append(result.Files, entry)
	}

	if opts.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		for _, e := range result.Files {
			switch {
			case e.Error != "":
				fmt.Fprintf(f.Writer, "\u2717 %s\n  %s\n", e.Path, e.Error)
			case opts.Remove:
				fmt.Fprintf(f.Writer, "\u2713 %s (removed)\n", e.Path)
			case e.Changed:
				fmt.Fprintf(f.Writer, "\u2713 %s\n", e.Path)
			default:
				fmt.Fprintf(f.Writer, "  %s (unchanged)\n", e.Path)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %d of %d notebook(s) failed", ErrCodeReadFailed, failed, len(paths)))
	}
	return nil
}
