package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/jsonschema"
	"github.com/reoring/schemagraph/pointer"
)

func (a *app) newFmtCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt <glob>...",
		Short: "Re-serialize schema files; lists files whose layout would change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := loggerFrom(cmd.Context())
			var files []string
			for _, pattern := range args {
				matches, err := doublestar.FilepathGlob(pattern)
				if err != nil {
					return fmt.Errorf("bad pattern %q: %w", pattern, err)
				}
				files = append(files, matches...)
			}
			if len(files) == 0 {
				return fmt.Errorf("no files match %s", strings.Join(args, " "))
			}
			for _, f := range files {
				old, err := os.ReadFile(f)
				if err != nil {
					return err
				}
				s, err := a.loadStore(f)
				if err != nil {
					return err
				}
				out, err := a.render(s, formatOf(f, formatJSON))
				if err != nil {
					return err
				}
				if bytes.Equal(old, out) {
					log.Debug("already formatted", zap.String("file", f))
					continue
				}
				writeLine(cmd.OutOrStdout(), f)
				if write {
					if err := os.WriteFile(f, out, 0o644); err != nil {
						return err
					}
					log.Info("formatted", zap.String("file", f))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the files")
	return cmd
}

func (a *app) newConvertCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Print a schema as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = a.cfg.Output.Format
			}
			if to != formatJSON && to != formatYAML {
				return fmt.Errorf("--to must be json or yaml, got %q", to)
			}
			s, err := a.loadStore(args[0])
			if err != nil {
				return err
			}
			out, err := a.render(s, to)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "output format: json or yaml (default from config)")
	return cmd
}

func (a *app) newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Print the node tree of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadStore(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return s.Walk(func(depth int, n *schemagraph.Node) error {
				writeLine(w, strings.Repeat("  ", depth)+describe(n))
				return nil
			})
		},
	}
}

// describe renders one tree line: name, shape and flags.
func describe(n *schemagraph.Node) string {
	name := n.Name()
	if n.Pointer == pointer.Root {
		name = "#"
	}
	var shape string
	switch sh := n.Shape.(type) {
	case *schemagraph.Field:
		shape = string(sh.Type)
	case *schemagraph.Combination:
		shape = string(sh.Combinator)
	case *schemagraph.Reference:
		shape = "-> " + string(sh.Ref)
		if sh.Ref == "" {
			shape = "-> (unset)"
		}
	}
	if n.IsArray {
		shape = "[]" + shape
	}
	line := name + " " + shape
	if n.IsRequired {
		line += " (required)"
	}
	return line
}

func (a *app) newRefsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refs <file> <pointer>",
		Short: "List the references to a node or anything under it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadStore(args[0])
			if err != nil {
				return err
			}
			target := pointer.Pointer(args[1])
			if !s.Has(target) {
				return schemagraph.NewError(schemagraph.CodeNotFound, target, "no such node")
			}
			for _, p := range schemagraph.FindIncomingReferences(s, target) {
				writeLine(cmd.OutOrStdout(), string(p))
			}
			return nil
		},
	}
}

func (a *app) newUnusedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unused <file>",
		Short: "List definitions not reachable from the root's properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadStore(args[0])
			if err != nil {
				return err
			}
			for _, p := range schemagraph.UnusedDefinitions(s) {
				writeLine(cmd.OutOrStdout(), string(p))
			}
			return nil
		},
	}
}

func (a *app) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Check keyword shapes and that the schema parses into a node graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, f := range args {
				if err := a.check(f); err != nil {
					failed++
					writeLine(cmd.OutOrStdout(), fmt.Sprintf("%s: %s", f, message(err)))
					continue
				}
				writeLine(cmd.OutOrStdout(), f+": ok")
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}

func (a *app) check(path string) error {
	doc, err := a.readDocument(path)
	if err != nil {
		return err
	}
	if err := jsonschema.CheckShape(doc); err != nil {
		return err
	}
	s, err := jsonschema.Parse(doc)
	if err != nil {
		return err
	}
	return s.Validate()
}

// message prefers the localized text of engine errors.
func message(err error) string {
	if e, ok := schemagraph.AsError(err); ok {
		return e.Localize()
	}
	return err.Error()
}
