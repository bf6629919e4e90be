package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/pointer"
)

// DuplicateKeyError reports a key that occurs twice in one object. Line and
// Col are only known for YAML input.
type DuplicateKeyError struct {
	Key       string
	Pointer   pointer.Pointer // object holding the key
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("duplicate key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
	}
	return fmt.Sprintf("duplicate key %q in %s", e.Key, e.Pointer)
}

// Unwrap lets errors.Is match schemagraph.ErrInvalidDocument.
func (e *DuplicateKeyError) Unwrap() error { return schemagraph.ErrInvalidDocument }

// Limits caps what a decoder accepts. Zero values mean no limit.
type Limits struct {
	// MaxDepth is the deepest allowed nesting of objects and arrays.
	MaxDepth int
	// MaxBytes is the largest accepted input.
	MaxBytes int64
}

// limited applies MaxBytes to r.
func (l Limits) limited(r io.Reader) (io.Reader, error) {
	if l.MaxBytes <= 0 {
		return r, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, l.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.MaxBytes {
		return nil, schemagraph.NewError(schemagraph.CodeInvalidDocument, "",
			fmt.Sprintf("document larger than %d bytes", l.MaxBytes), "max_bytes", l.MaxBytes)
	}
	return bytes.NewReader(data), nil
}

func (l Limits) checkDepth(depth int, at pointer.Pointer) error {
	if l.MaxDepth > 0 && depth > l.MaxDepth {
		return schemagraph.NewError(schemagraph.CodeInvalidDocument, at,
			fmt.Sprintf("nesting deeper than %d", l.MaxDepth), "max_depth", l.MaxDepth)
	}
	return nil
}

func lastLimits(limits []Limits) Limits {
	if len(limits) == 0 {
		return Limits{}
	}
	return limits[len(limits)-1]
}

// DecodeJSON reads one JSON document whose top level is an object. Key order
// is kept and numbers stay as j.Number literals. When several Limits are
// given the last one applies.
func DecodeJSON(r io.Reader, limits ...Limits) (*Object, error) {
	l := lastLimits(limits)
	r, err := l.limited(r)
	if err != nil {
		return nil, err
	}
	v, err := decodeValue(r, l)
	if err != nil {
		return nil, err
	}
	o, ok := v.(*Object)
	if !ok {
		return nil, schemagraph.NewError(schemagraph.CodeInvalidDocument, pointer.Root, "top level is not an object")
	}
	return o, nil
}

func decodeValue(r io.Reader, l Limits) (any, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	d := &tokenReader{dec: dec, limits: l}
	tok, err := d.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, invalidJSON(io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	v, err := d.value(tok, pointer.Root)
	if err != nil {
		return nil, err
	}
	if _, err := d.next(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("trailing data after document")
		}
		return nil, err
	}
	return v, nil
}

type tokenReader struct {
	dec    *j.Decoder
	limits Limits
	depth  int
}

func (d *tokenReader) next() (any, error) {
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, invalidJSON(err)
	}
	return tok, nil
}

// must reads the next token, treating end of input as an error.
func (d *tokenReader) must() (any, error) {
	tok, err := d.next()
	if errors.Is(err, io.EOF) {
		return nil, invalidJSON(io.ErrUnexpectedEOF)
	}
	return tok, err
}

func (d *tokenReader) value(tok any, at pointer.Pointer) (any, error) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return d.object(at)
		case '[':
			return d.array(at)
		}
		return nil, invalidJSON(fmt.Errorf("unexpected %q", rune(v)))
	case string, bool, nil:
		return v, nil
	case j.Number:
		return v, nil
	case float64:
		return j.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	}
	return nil, invalidJSON(fmt.Errorf("unexpected token %v", tok))
}

func (d *tokenReader) object(at pointer.Pointer) (*Object, error) {
	d.depth++
	defer func() { d.depth-- }()
	if err := d.limits.checkDepth(d.depth, at); err != nil {
		return nil, err
	}
	o := &Object{}
	for {
		tok, err := d.must()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(j.Delim); ok && delim == '}' {
			return o, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, invalidJSON(fmt.Errorf("object key expected in %s", at))
		}
		if o.Has(key) {
			return nil, &DuplicateKeyError{Key: key, Pointer: at}
		}
		tok, err = d.must()
		if err != nil {
			return nil, err
		}
		v, err := d.value(tok, pointer.Child(at, key))
		if err != nil {
			return nil, err
		}
		o.Set(key, v)
	}
}

func (d *tokenReader) array(at pointer.Pointer) ([]any, error) {
	d.depth++
	defer func() { d.depth-- }()
	if err := d.limits.checkDepth(d.depth, at); err != nil {
		return nil, err
	}
	out := []any{}
	for {
		tok, err := d.must()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(j.Delim); ok && delim == ']' {
			return out, nil
		}
		v, err := d.value(tok, pointer.Child(at, strconv.Itoa(len(out))))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func invalidJSON(err error) error {
	return schemagraph.NewError(schemagraph.CodeInvalidDocument, "", "malformed JSON").Wrap(err)
}
