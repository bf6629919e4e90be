package schemagraph

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reoring/schemagraph/pointer"
)

// Op names an edit intent.
type Op string

const (
	OpAddProperty       Op = "add_property"
	OpAddField          Op = "add_field"
	OpAddCombination    Op = "add_combination"
	OpAddReference      Op = "add_reference"
	OpAddDefinition     Op = "add_definition"
	OpAddItem           Op = "add_item"
	OpDelete            Op = "delete"
	OpDeleteItem        Op = "delete_item"
	OpRename            Op = "rename"
	OpPromote           Op = "promote"
	OpSetCombinator     Op = "set_combinator"
	OpSetReference      Op = "set_reference"
	OpSetRequired       Op = "set_required"
	OpSetTitle          Op = "set_title"
	OpSetDescription    Op = "set_description"
	OpSetRestriction    Op = "set_restriction"
	OpDeleteRestriction Op = "delete_restriction"
	OpSetEnum           Op = "set_enum"
	OpSetType           Op = "set_type"
	OpSetArray          Op = "set_array"
	OpMove              Op = "move"
)

// Edit is one user intent. Only the fields the Op needs are read:
//
//	Pointer  node acted on (parent for the add ops)
//	Target   ref target (add_reference, set_reference) or new parent (move)
//	Name     property or definition name, new name for rename
//	Kind     combinator for add_combination and set_combinator
//	Type     field type for add_field and set_type
//	Key      restriction keyword; Value its value
//	Values   enum values (nil removes the keyword)
//	Flag     required / array switch
//	Index    position for move
type Edit struct {
	Op      Op
	Pointer pointer.Pointer
	Target  pointer.Pointer
	Name    string
	Kind    CombinationKind
	Type    FieldType
	Key     string
	Value   any
	Values  []any
	Flag    bool
	Index   int
}

// Apply runs the edit against s. The returned pointer is the node the edit
// created, renamed, removed or modified.
func (e Edit) Apply(s *Store) (*Store, pointer.Pointer, error) {
	var (
		next *Store
		err  error
	)
	switch e.Op {
	case OpAddProperty:
		return s.AddProperty(e.Pointer, e.Name)
	case OpAddField:
		return s.AddField(e.Pointer, e.Name, e.Type)
	case OpAddCombination:
		return s.AddCombination(e.Pointer, e.Name, e.Kind)
	case OpAddReference:
		return s.AddReference(e.Pointer, e.Name, e.Target)
	case OpAddDefinition:
		return s.AddDefinition(e.Name)
	case OpAddItem:
		return s.AddCombinationItem(e.Pointer)
	case OpDelete:
		return s.DeleteProperty(e.Pointer)
	case OpDeleteItem:
		return s.DeleteCombinationItem(e.Pointer)
	case OpRename:
		return s.RenamePropertyName(e.Pointer, e.Name)
	case OpPromote:
		return s.Promote(e.Pointer)
	case OpMove:
		return s.MoveNode(e.Pointer, e.Target, e.Index)
	case OpSetCombinator:
		next, err = s.SetCombinatorKind(e.Pointer, e.Kind)
	case OpSetReference:
		next, err = s.SetReference(e.Pointer, e.Target)
	case OpSetRequired:
		next, err = s.SetRequired(e.Pointer, e.Flag)
	case OpSetTitle:
		next, err = s.SetTitle(e.Pointer, e.Name)
	case OpSetDescription:
		next, err = s.SetDescription(e.Pointer, e.Name)
	case OpSetRestriction:
		next, err = s.SetRestriction(e.Pointer, e.Key, e.Value)
	case OpDeleteRestriction:
		next, err = s.DeleteRestriction(e.Pointer, e.Key)
	case OpSetEnum:
		next, err = s.SetEnum(e.Pointer, e.Values)
	case OpSetType:
		next, err = s.SetFieldType(e.Pointer, e.Type)
	case OpSetArray:
		next, err = s.SetArray(e.Pointer, e.Flag)
	default:
		return nil, "", NewError(CodeInvalidValue, e.Pointer, fmt.Sprintf("unknown edit %q", e.Op), "op", e.Op)
	}
	if err != nil {
		return nil, "", err
	}
	return next, e.Pointer, nil
}

// Session holds the current store of one open document together with the
// node selected in the UI. It is not safe for concurrent use.
type Session struct {
	id       string
	store    *Store
	selected pointer.Pointer
	log      *zap.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSession opens a session on store (a fresh store when nil).
func NewSession(store *Store, opts ...SessionOption) *Session {
	if store == nil {
		store = New()
	}
	s := &Session{id: uuid.NewString(), store: store, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(zap.String("session", s.id))
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Store returns the current store.
func (s *Session) Store() *Store { return s.store }

// Load replaces the document and clears the selection.
func (s *Session) Load(store *Store) {
	s.store = store
	s.selected = ""
	s.log.Debug("document loaded", zap.Int("nodes", store.Len()))
}

// Select marks p as the selected node.
func (s *Session) Select(p pointer.Pointer) error {
	if !s.store.Has(p) {
		return notFound(p)
	}
	s.selected = p
	return nil
}

// Selected returns the selected node, if any.
func (s *Session) Selected() (pointer.Pointer, bool) { return s.selected, s.selected != "" }

// Dispatch applies e to the current store. On failure the store is kept and
// the error returned. The selection follows renames and is cleared when the
// selected node is removed.
func (s *Session) Dispatch(e Edit) (pointer.Pointer, error) {
	next, p, err := e.Apply(s.store)
	if err != nil {
		fields := []zap.Field{zap.String("op", string(e.Op)), zap.String("pointer", string(e.Pointer)), zap.Error(err)}
		if ee, ok := AsError(err); ok {
			fields = append(fields, zap.String("code", ee.Code))
		}
		s.log.Warn("edit rejected", fields...)
		return "", err
	}
	if next != s.store && s.selected != "" {
		if q, ok := next.Follow(s.selected); ok {
			s.selected = q
		} else {
			s.selected = ""
		}
	}
	s.store = next
	s.log.Debug("edit applied",
		zap.String("op", string(e.Op)),
		zap.String("pointer", string(e.Pointer)),
		zap.String("result", string(p)),
		zap.Int("nodes", next.Len()))
	return p, nil
}
