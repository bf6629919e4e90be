// Package cli implements the schemagraph command-line interface.
//
// Commands read JSON or YAML schema files (chosen by extension), run them
// through the node graph and write them back:
//   - fmt, convert: re-serialize documents
//   - tree, refs, unused, check: inspect a document
//   - edit: apply one structural edit
//   - drafts: keep a local revision history
//
// All commands accept --config (a TOML file) and --verbose. The logger is
// carried in the command context.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/reoring/schemagraph/i18n"
	"github.com/reoring/schemagraph/internal/config"
)

var version = "dev"

// SetVersion sets the version printed by --version.
func SetVersion(v string) { version = v }

// app is the state shared by the commands of one invocation.
type app struct {
	cfg config.Config
}

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)
	a := &app{cfg: config.Default()}

	root := &cobra.Command{
		Use:          "schemagraph",
		Short:        "Edit JSON Schema documents as a graph of nodes",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			i18n.SetLanguage(cfg.Output.Language)
			l := newLogger(cmd.ErrOrStderr(), logLevel(cfg.Log.Level, verbose))
			cmd.SetContext(withLogger(cmd.Context(), l))
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "schemagraph.toml", "configuration file")

	root.AddCommand(a.newFmtCmd())
	root.AddCommand(a.newConvertCmd())
	root.AddCommand(a.newTreeCmd())
	root.AddCommand(a.newRefsCmd())
	root.AddCommand(a.newUnusedCmd())
	root.AddCommand(a.newCheckCmd())
	root.AddCommand(a.newEditCmd())
	root.AddCommand(a.newDraftsCmd())
	return root
}

func writeLine(w io.Writer, s string) {
	io.WriteString(w, s+"\n")
}
