package schemagraph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/reoring/schemagraph/i18n"
	"github.com/reoring/schemagraph/pointer"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeNotFound          = "not_found"
	CodeInvalidParent     = "invalid_parent"
	CodeRootDeletion      = "root_deletion"
	CodeInUse             = "in_use"
	CodeDanglingReference = "dangling_reference"
	CodeReferenceChain    = "reference_chain"
	CodeNameCollision     = "name_collision"
	CodeInvalidValue      = "invalid_value"
	CodeInvalidDocument   = "invalid_document"
)

// Sentinel errors matched with errors.Is against any *Error of the same code.
var (
	ErrNotFound          = errors.New("schemagraph: node not found")
	ErrInvalidParent     = errors.New("schemagraph: invalid parent")
	ErrRootDeletion      = errors.New("schemagraph: root cannot be deleted or renamed")
	ErrInUse             = errors.New("schemagraph: node is referenced")
	ErrDanglingReference = errors.New("schemagraph: dangling reference")
	ErrReferenceChain    = errors.New("schemagraph: reference chain")
	ErrNameCollision     = errors.New("schemagraph: name collision")
	ErrInvalidValue      = errors.New("schemagraph: invalid value")
	ErrInvalidDocument   = errors.New("schemagraph: invalid document")
)

var sentinels = map[string]error{
	CodeNotFound:          ErrNotFound,
	CodeInvalidParent:     ErrInvalidParent,
	CodeRootDeletion:      ErrRootDeletion,
	CodeInUse:             ErrInUse,
	CodeDanglingReference: ErrDanglingReference,
	CodeReferenceChain:    ErrReferenceChain,
	CodeNameCollision:     ErrNameCollision,
	CodeInvalidValue:      ErrInvalidValue,
	CodeInvalidDocument:   ErrInvalidDocument,
}

// Error describes a rejected operation. None of them are retried: they are
// either contract violations or conditions the user has to resolve.
type Error struct {
	Code    string          // One of the codes listed above.
	Pointer pointer.Pointer // Node the operation was aimed at ("" when not applicable).
	Message string
	// Params carries structured parameters (e.g., {"referrers": [...]}) for
	// i18n and logging.
	Params map[string]any
	Cause  error // Optional: underlying error.
}

// NewError creates an Error. kv is an alternating list of param keys and
// values.
func NewError(code string, p pointer.Pointer, msg string, kv ...any) *Error {
	e := &Error{Code: code, Pointer: p, Message: msg}
	if len(kv) > 1 {
		e.Params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Params[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return e
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString(e.Code)
	if e.Pointer != "" {
		fmt.Fprintf(b, " at %s", e.Pointer)
	}
	if e.Message != "" {
		fmt.Fprintf(b, ": %s", e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes both the code's sentinel and the cause.
func (e *Error) Unwrap() []error {
	var out []error
	if s, ok := sentinels[e.Code]; ok {
		out = append(out, s)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// Localize renders the error for display using the current i18n translator.
func (e *Error) Localize() string {
	data := map[string]string{"pointer": string(e.Pointer)}
	keys := make([]string, 0, len(e.Params))
	for k := range e.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		data[k] = fmt.Sprint(e.Params[k])
	}
	return i18n.T(e.Code, data)
}

// AsError extracts an *Error using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func notFound(p pointer.Pointer) *Error {
	return NewError(CodeNotFound, p, "no such node")
}
