package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/nblineage/internal/config"
	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/meme"
	"github.com/roach88/nblineage/internal/signature"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string // "" means config.DefaultPath

	cfg   *config.Config
	codec *meme.Codec // nil means meme.NewCodec()
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the nblineage CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nblineage",
		Short: "nblineage - notebook cell lineage",
		Long: `Track the lineage of notebook cells.

Every notebook and every cell carries a lineage identity in its metadata.
Identities survive edits, record their neighbours, grow branch tokens
when a cell is duplicated and keep a history of earlier identities.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("%s: invalid format %q: must be one of %v", ErrCodeInvalidArgument, opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.nblineage/config.yaml)")

	cmd.AddCommand(NewNewRootMemeCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewBranchCommand(opts))
	cmd.AddCommand(NewUUIDCommand(opts))
	cmd.AddCommand(NewSignatureCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewLineageCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter returns an OutputFormatter writing to cmd's streams.
// Verbose logs go to stderr to avoid corrupting JSON output.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger returns a text logger on cmd's stderr, at Debug with --verbose.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// config loads the configuration once per invocation.
func (o *RootOptions) config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// engine returns an engine minting through o.codec.
func (o *RootOptions) engine(cmd *cobra.Command) *engine.Engine {
	return engine.New(o.codec, engine.WithLogger(o.logger(cmd)))
}

// signatureStore returns the file-backed origin signature provider
// described by cfg.
func (o *RootOptions) signatureStore(cmd *cobra.Command, cfg *config.Config) *signature.FileStore {
	return signature.NewFileStore(cfg.DataDir,
		signature.WithNotebookDir(cfg.Server.NotebookDir),
		signature.WithServerURL(cfg.Server.ServerURL),
		signature.WithLogger(o.logger(cmd)),
	)
}
