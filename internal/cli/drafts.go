package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/schemagraph/drafts"
	"github.com/reoring/schemagraph/jsonschema"
)

func (a *app) newDraftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Save and inspect local revisions of schema files",
	}
	cmd.AddCommand(a.newDraftsSaveCmd())
	cmd.AddCommand(a.newDraftsHistoryCmd())
	cmd.AddCommand(a.newDraftsShowCmd())
	return cmd
}

func (a *app) newDraftsSaveCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Record the current content of a schema file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadStore(args[0])
			if err != nil {
				return err
			}
			doc, err := jsonschema.Serialize(s)
			if err != nil {
				return err
			}
			if name == "" {
				name = draftName(args[0])
			}
			return a.saveDraft(cmd.Context(), name, doc)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "draft name (default: file name without extension)")
	return cmd
}

func (a *app) newDraftsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <name>",
		Short: "List the revisions of a draft, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := drafts.Open(cmd.Context(), a.cfg.Drafts.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			revs, err := store.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(revs) == 0 {
				return fmt.Errorf("no drafts named %q", args[0])
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range revs {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", r.ID, r.Digest[:12], r.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func (a *app) newDraftsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name> [revision]",
		Short: "Print a draft revision (default: latest)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := drafts.Open(ctx, a.cfg.Drafts.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			var rev drafts.Revision
			if len(args) == 2 {
				id, perr := strconv.ParseInt(args[1], 10, 64)
				if perr != nil {
					return fmt.Errorf("bad revision %q", args[1])
				}
				rev, err = store.Get(ctx, id)
				if err == nil && rev.Name != args[0] {
					err = drafts.ErrNotFound
				}
			} else {
				rev, err = store.Latest(ctx, args[0])
			}
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			loggerFrom(ctx).Debug("draft loaded", zap.Int64("revision", rev.ID), zap.String("digest", rev.Digest))
			_, err = cmd.OutOrStdout().Write(rev.Content)
			return err
		},
	}
}
