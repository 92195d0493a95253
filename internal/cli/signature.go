package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SignatureResult is the JSON payload of signature.
type SignatureResult struct {
	SignatureID string `json:"signature_id"`
	NotebookDir string `json:"notebook_dir,omitempty"`
	ServerURL   string `json:"server_url,omitempty"`
	Path        string `json:"path"`
}

// NewSignatureCommand creates the signature command.
func NewSignatureCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signature",
		Short: "Print the origin signature of this environment",
		Long: `Print the origin signature recorded by sync --signature.

The signature id is read from <data_dir>/server_signature and created on
first use.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignature(rootOpts, cmd)
		},
	}
	return cmd
}

func runSignature(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.config()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "load config", err)
	}
	store := opts.signatureStore(cmd, cfg)
	rec, err := store.Signature(cmd.Context())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "server signature", err)
	}

	if opts.Format == "json" {
		return f.Success(SignatureResult{
			SignatureID: rec.SignatureID,
			NotebookDir: rec.NotebookDir,
			ServerURL:   rec.ServerURL,
			Path:        store.Path(),
		})
	}
	fmt.Fprintln(f.Writer, rec.SignatureID)
	f.VerboseLog("read from %s", store.Path())
	return nil
}
