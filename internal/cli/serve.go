package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/nblineage/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lineage HTTP API",
		Long: `Serve the lineage HTTP API until interrupted.

Routes:
  GET  /nblineage/uuid/v1/{count}      mint count identities
  GET  /nblineage/lc/server_signature  origin signature of this server
  POST /nblineage/lineage/synchronize  synchronize or reset a notebook body
  GET  /metrics                        prometheus metrics`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config, 127.0.0.1:8890)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.config()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "load config", err)
	}
	addr := cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(opts.engine(cmd), opts.signatureStore(cmd, cfg), server.WithLogger(opts.logger(cmd)))
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "serve", err)
	}
	return nil
}
