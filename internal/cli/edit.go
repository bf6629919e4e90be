package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/drafts"
	"github.com/reoring/schemagraph/jsonschema"
	"github.com/reoring/schemagraph/pointer"
)

// editFlags are shared by every edit subcommand.
type editFlags struct {
	write bool
	save  bool
}

func (a *app) newEditCmd() *cobra.Command {
	f := &editFlags{}
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply one structural edit to a schema file",
		Long: `Apply one structural edit and print the resulting document.

With --write the file is replaced; with --save the result is also recorded
as a draft revision named after the file.`,
	}
	cmd.PersistentFlags().BoolVarP(&f.write, "write", "w", false, "write the result back to the file")
	cmd.PersistentFlags().BoolVar(&f.save, "save", false, "record the result in the draft store")

	cmd.AddCommand(a.newAddCmd(f))
	cmd.AddCommand(a.editCmd(f, "add-item <file> <combination>", "Append an item to a combination", 2,
		func(args []string) (schemagraph.Edit, error) {
			return schemagraph.Edit{Op: schemagraph.OpAddItem, Pointer: pointer.Pointer(args[1])}, nil
		}))
	cmd.AddCommand(a.editCmd(f, "delete <file> <pointer>", "Delete a property, definition or combination item", 2,
		func(args []string) (schemagraph.Edit, error) {
			return schemagraph.Edit{Op: schemagraph.OpDelete, Pointer: pointer.Pointer(args[1])}, nil
		}))
	cmd.AddCommand(a.editCmd(f, "rename <file> <pointer> <name>", "Rename a property or definition", 3,
		func(args []string) (schemagraph.Edit, error) {
			return schemagraph.Edit{Op: schemagraph.OpRename, Pointer: pointer.Pointer(args[1]), Name: args[2]}, nil
		}))
	cmd.AddCommand(a.editCmd(f, "promote <file> <pointer>", "Move an inline node to a definition and reference it", 2,
		func(args []string) (schemagraph.Edit, error) {
			return schemagraph.Edit{Op: schemagraph.OpPromote, Pointer: pointer.Pointer(args[1])}, nil
		}))
	cmd.AddCommand(a.editCmd(f, "combinator <file> <pointer> <allOf|anyOf|oneOf>", "Change the kind of a combination", 3,
		func(args []string) (schemagraph.Edit, error) {
			return schemagraph.Edit{Op: schemagraph.OpSetCombinator, Pointer: pointer.Pointer(args[1]), Kind: schemagraph.CombinationKind(args[2])}, nil
		}))
	cmd.AddCommand(a.editCmd(f, "ref <file> <pointer> <target>", "Turn a node into a reference, or retarget one (\"\" unsets)", 3,
		func(args []string) (schemagraph.Edit, error) {
			return schemagraph.Edit{Op: schemagraph.OpSetReference, Pointer: pointer.Pointer(args[1]), Target: pointer.Pointer(args[2])}, nil
		}))
	cmd.AddCommand(a.newFlagEditCmd(f, "require", "Mark a property required (--off to clear)", schemagraph.OpSetRequired))
	cmd.AddCommand(a.newFlagEditCmd(f, "array", "Make a node an array of itself (--off to clear)", schemagraph.OpSetArray))
	cmd.AddCommand(a.editCmd(f, "title <file> <pointer> <text>", "Set the title (empty removes it)", 3,
		func(args []string) (schemagraph.Edit, error) {
			return schemagraph.Edit{Op: schemagraph.OpSetTitle, Pointer: pointer.Pointer(args[1]), Name: args[2]}, nil
		}))
	cmd.AddCommand(a.editCmd(f, "description <file> <pointer> <text>", "Set the description (empty removes it)", 3,
		func(args []string) (schemagraph.Edit, error) {
			return schemagraph.Edit{Op: schemagraph.OpSetDescription, Pointer: pointer.Pointer(args[1]), Name: args[2]}, nil
		}))
	cmd.AddCommand(a.editCmd(f, "type <file> <pointer> <type>", "Change the type of a field", 3,
		func(args []string) (schemagraph.Edit, error) {
			return schemagraph.Edit{Op: schemagraph.OpSetType, Pointer: pointer.Pointer(args[1]), Type: schemagraph.FieldType(args[2])}, nil
		}))
	cmd.AddCommand(a.editCmd(f, "enum <file> <pointer> [value]...", "Set the enum values (none removes the keyword)", 2,
		func(args []string) (schemagraph.Edit, error) {
			var values []any
			for _, raw := range args[2:] {
				v, err := jsonValue(raw)
				if err != nil {
					return schemagraph.Edit{}, err
				}
				values = append(values, v)
			}
			return schemagraph.Edit{Op: schemagraph.OpSetEnum, Pointer: pointer.Pointer(args[1]), Values: values}, nil
		}))
	cmd.AddCommand(a.newRestrictCmd(f))
	cmd.AddCommand(a.newMoveCmd(f))
	return cmd
}

// editCmd builds a subcommand whose arguments are <file> plus positional
// operands; minArgs counts the file. build turns the arguments into an edit.
func (a *app) editCmd(f *editFlags, use, short string, minArgs int, build func(args []string) (schemagraph.Edit, error)) *cobra.Command {
	args := cobra.ExactArgs(minArgs)
	if strings.HasSuffix(use, "...") {
		args = cobra.MinimumNArgs(minArgs)
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			e, err := build(argv)
			if err != nil {
				return err
			}
			return a.runEdit(cmd, f, argv[0], e)
		},
	}
}

func (a *app) newAddCmd(f *editFlags) *cobra.Command {
	var (
		typ        string
		combinator string
		ref        string
		definition bool
	)
	cmd := &cobra.Command{
		Use:   "add <file> <parent> [name]",
		Short: "Add a property (or, with --definition, a definition)",
		Long: `Add a property under <parent>, an object field or a combination.

The new node is an object field unless --type, --combinator or --ref says
otherwise. With --definition the node becomes a root definition and
<parent> is ignored. A name that is taken gets a numeric suffix.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := schemagraph.Edit{Pointer: pointer.Pointer(args[1])}
			if len(args) == 3 {
				e.Name = args[2]
			}
			switch {
			case definition:
				e.Op = schemagraph.OpAddDefinition
			case combinator != "":
				e.Op, e.Kind = schemagraph.OpAddCombination, schemagraph.CombinationKind(combinator)
			case ref != "":
				e.Op, e.Target = schemagraph.OpAddReference, pointer.Pointer(ref)
			default:
				e.Op, e.Type = schemagraph.OpAddField, schemagraph.FieldType(typ)
			}
			return a.runEdit(cmd, f, args[0], e)
		},
	}
	cmd.Flags().StringVar(&typ, "type", string(schemagraph.TypeObject), "field type")
	cmd.Flags().StringVar(&combinator, "combinator", "", "add a combination of this kind")
	cmd.Flags().StringVar(&ref, "ref", "", "add a reference to this pointer")
	cmd.Flags().BoolVar(&definition, "definition", false, "add a root definition")
	cmd.MarkFlagsMutuallyExclusive("combinator", "ref", "definition")
	return cmd
}

func (a *app) newFlagEditCmd(f *editFlags, name, short string, op schemagraph.Op) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   name + " <file> <pointer>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEdit(cmd, f, args[0], schemagraph.Edit{Op: op, Pointer: pointer.Pointer(args[1]), Flag: !off})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "clear instead of set")
	return cmd
}

func (a *app) newRestrictCmd(f *editFlags) *cobra.Command {
	var del bool
	cmd := &cobra.Command{
		Use:   "restrict <file> <pointer> <keyword> [json-value]",
		Short: "Set or delete a validation keyword such as minLength or pattern",
		Long: `Set a validation keyword on a node. The value is read as JSON when it
parses as JSON and as a plain string otherwise.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := schemagraph.Edit{Op: schemagraph.OpDeleteRestriction, Pointer: pointer.Pointer(args[1]), Key: args[2]}
			if !del {
				if len(args) < 4 {
					return fmt.Errorf("restrict %s needs a value", args[2])
				}
				v, err := jsonValue(args[3])
				if err != nil {
					return err
				}
				e.Op, e.Value = schemagraph.OpSetRestriction, v
			}
			return a.runEdit(cmd, f, args[0], e)
		},
	}
	cmd.Flags().BoolVar(&del, "delete", false, "remove the keyword")
	return cmd
}

func (a *app) newMoveCmd(f *editFlags) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "move <file> <pointer> <new-parent>",
		Short: "Move a node to another parent or position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := index
			if at < 0 {
				at = math.MaxInt
			}
			return a.runEdit(cmd, f, args[0], schemagraph.Edit{
				Op: schemagraph.OpMove, Pointer: pointer.Pointer(args[1]), Target: pointer.Pointer(args[2]), Index: at,
			})
		},
	}
	cmd.Flags().IntVar(&index, "index", -1, "position among the new siblings (default last)")
	return cmd
}

// runEdit loads path, applies e through a session and writes the result.
func (a *app) runEdit(cmd *cobra.Command, f *editFlags, path string, e schemagraph.Edit) error {
	ctx := cmd.Context()
	log := loggerFrom(ctx)
	s, err := a.loadStore(path)
	if err != nil {
		return err
	}
	sess := schemagraph.NewSession(s, schemagraph.WithLogger(log))
	p, err := sess.Dispatch(e)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	doc, err := jsonschema.Serialize(sess.Store())
	if err != nil {
		return err
	}
	out, err := a.encode(doc, formatOf(path, formatJSON))
	if err != nil {
		return err
	}
	if f.write {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return err
		}
		log.Info("edit written", zap.String("file", path), zap.String("op", string(e.Op)), zap.String("pointer", string(p)))
	} else if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}
	if f.save {
		return a.saveDraft(ctx, draftName(path), doc)
	}
	return nil
}

func (a *app) saveDraft(ctx context.Context, name string, doc *jsonschema.Object) error {
	store, err := drafts.Open(ctx, a.cfg.Drafts.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	rev, created, err := store.Saver(name)(ctx, doc)
	if err != nil {
		return err
	}
	loggerFrom(ctx).Info("draft saved", zap.String("name", name), zap.Int64("revision", rev.ID), zap.Bool("created", created))
	return nil
}

// draftName is the file name without directory or extension.
func draftName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// jsonValue reads raw as a JSON value, or as a string if it is not JSON.
func jsonValue(raw string) (any, error) {
	if !j.Valid([]byte(raw)) {
		return raw, nil
	}
	o, err := jsonschema.DecodeJSON(strings.NewReader(`{"v":` + raw + `}`))
	if err != nil {
		return nil, err
	}
	v, _ := o.Get("v")
	return v, nil
}
