package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/nblineage/internal/watch"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Debounce  time.Duration
	Signature bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Synchronize notebooks as they are saved",
		Long: `Watch a directory tree and synchronize every .ipynb file shortly after
it is written. Hidden files and directories, checkpoints included, are
ignored. Runs until interrupted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 0, "quiet period before a file is synchronized (default from config, 500ms)")
	cmd.Flags().BoolVar(&opts.Signature, "signature", false, "record the origin signature of this environment")

	return cmd
}

func runWatch(opts *WatchOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	info, err := os.Stat(dir)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("stat %s", dir), err)
	}
	if !info.IsDir() {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgument, fmt.Sprintf("not a directory: %s", dir), nil)
	}

	cfg, err := opts.config()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "load config", err)
	}
	debounce := cfg.Watch.Debounce
	if opts.Debounce > 0 {
		debounce = opts.Debounce
	}

	logger := opts.logger(cmd)
	wopts := []watch.Option{
		watch.WithDebounce(debounce),
		watch.WithLogger(logger),
		watch.OnSync(func(res watch.FileResult, err error) {
			if err == nil && res.Changed && opts.Format != "json" {
				fmt.Fprintf(f.Writer, "\u2713 %s (minted %d, history %d)\n", res.Path, res.Minted, res.HistoryRecorded)
			}
		}),
	}
	if opts.Signature {
		wopts = append(wopts, watch.WithSignature(opts.signatureStore(cmd, cfg)))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watch.New(dir, opts.engine(cmd), wopts...).Run(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "watch", err)
	}
	return nil
}
