package cli

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/nblineage/internal/signature"
	"github.com/roach88/nblineage/internal/watch"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Signature bool // track the origin signature
	Jobs      int  // concurrent files
}

// SyncFileResult is the per-file entry of SyncResult.
type SyncFileResult struct {
	Path            string `json:"path"`
	Changed         bool   `json:"changed"`
	Minted          int    `json:"minted"`
	HistoryRecorded int    `json:"history_recorded"`
	Branched        int    `json:"branched,omitempty"`
	Error           string `json:"error,omitempty"`
}

// SyncResult is the JSON payload of sync.
type SyncResult struct {
	Files   []SyncFileResult `json:"files"`
	Changed int              `json:"changed"`
	Failed  int              `json:"failed"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <notebook>...",
		Short: "Synchronize notebook lineage in place",
		Long: `Synchronize the lineage of each notebook with its current cell order.

Missing identities are minted, drifted links are archived into history and
every previous/next link is refreshed. A file is rewritten only when its
lineage changed. Files are processed concurrently.

Exit codes:
  0 - All notebooks synchronized
  2 - One or more notebooks could not be read, synchronized or written

Examples:
  nblineage sync analysis.ipynb
  nblineage sync --signature notebooks/*.ipynb`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Signature, "signature", false, "record the origin signature of this environment")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.GOMAXPROCS(0), "notebooks processed concurrently")

	return cmd
}

func runSync(opts *SyncOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Jobs < 1 {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgument, fmt.Sprintf("--jobs must be >= 1, got %d", opts.Jobs), nil)
	}

	var sig signature.Provider
	if opts.Signature {
		cfg, err := opts.config()
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeReadFailed, "load config", err)
		}
		sig = opts.signatureStore(cmd, cfg)
	}

	// Each file is rewritten by exactly one goroutine.
	paths = uniquePaths(paths)

	e := opts.engine(cmd)
	results := make([]SyncFileResult, len(paths))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(opts.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			res, err := watch.SyncFile(ctx, e, path, path, sig)
			results[i] = SyncFileResult{
				Path:            path,
				Changed:         res.Changed,
				Minted:          res.Minted,
				HistoryRecorded: res.HistoryRecorded,
				Branched:        res.Branched,
			}
			if err != nil {
				results[i].Error = err.Error()
			}
			// Failures are per file; the other notebooks still run.
			return nil
		})
	}
	_ = g.Wait()

	summary := SyncResult{Files: results}
	for _, r := range results {
		switch {
		case r.Error != "":
			summary.Failed++
		case r.Changed:
			summary.Changed++
		}
	}

	if opts.Format == "json" {
		if err := f.Success(summary); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			switch {
			case r.Error != "":
				fmt.Fprintf(f.Writer, "\u2717 %s\n  %s\n", r.Path, r.Error)
			case r.Changed:
				fmt.Fprintf(f.Writer, "\u2713 %s (minted %d, history %d)\n", r.Path, r.Minted, r.HistoryRecorded)
			default:
				fmt.Fprintf(f.Writer, "  %s (unchanged)\n", r.Path)
			}
		}
	}

	if summary.Failed > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %d of %d notebook(s) failed", ErrCodeReadFailed, summary.Failed, len(paths)))
	}
	return nil
}

// uniquePaths drops repeated paths, keeping the first occurrence. Paths
// naming the same file through different spellings are compared cleaned
// and made absolute.
func uniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		key := filepath.Clean(p)
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
