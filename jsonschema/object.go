package jsonschema

import (
	"bytes"
	"math/big"
	"strconv"

	j "github.com/goccy/go-json"
)

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object that remembers the order of its keys. Values are
// string, j.Number, bool, nil, []any or *Object; other Go values are accepted
// by the encoders and converted through their JSON form.
type Object struct {
	members []Member
	index   map[string]int
}

// NewObject returns an object holding members in order. A repeated key
// keeps its first position and its last value.
func NewObject(members ...Member) *Object {
	o := &Object{}
	for _, m := range members {
		o.Set(m.Key, m.Value)
	}
	return o
}

// Len is the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores v under key, appending key when it is new.
func (o *Object) Set(key string, v any) {
	if o.index == nil {
		o.index = map[string]int{}
	}
	if i, ok := o.index[key]; ok {
		o.members[i].Value = v
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: v})
}

// Delete removes key.
func (o *Object) Delete(key string) {
	i, ok := o.index[key]
	if !ok {
		return
	}
	o.members = append(o.members[:i], o.members[i+1:]...)
	delete(o.index, key)
	for k, idx := range o.index {
		if idx > i {
			o.index[k] = idx - 1
		}
	}
}

// Keys returns the keys in order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.members))
	for i, m := range o.members {
		out[i] = m.Key
	}
	return out
}

// Members returns a copy of the members in order.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	return append([]Member(nil), o.members...)
}

// MarshalJSON writes the members in order.
func (o *Object) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := writeJSON(buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping key order. Duplicate keys fail.
func (o *Object) UnmarshalJSON(b []byte) error {
	decoded, err := DecodeJSON(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*o = *decoded
	return nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case j.Number:
		if x == "" {
			buf.WriteByte('0')
			return nil
		}
		buf.WriteString(string(x))
	case string:
		b, err := j.MarshalNoEscape(x)
		if err != nil {
			return err
		}
		buf.Write(b)
	case []any:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Object:
		buf.WriteByte('{')
		for i, m := range x.Members() {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := j.MarshalNoEscape(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := writeJSON(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		nv, err := normalize(v)
		if err != nil {
			return err
		}
		return writeJSON(buf, nv)
	}
	return nil
}

// normalize converts an arbitrary Go value into the Object value model by
// round-tripping it through JSON.
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, bool, string, j.Number, []any, *Object:
		return v, nil
	}
	b, err := j.MarshalNoEscape(v)
	if err != nil {
		return nil, err
	}
	return decodeValue(bytes.NewReader(b), Limits{})
}

// Equal reports whether a and b are the same JSON value. Object key order is
// ignored; array order is not; numbers compare by value.
func Equal(a, b any) bool {
	na, err := normalize(a)
	if err != nil {
		return false
	}
	nb, err := normalize(b)
	if err != nil {
		return false
	}
	switch x := na.(type) {
	case *Object:
		y, ok := nb.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, m := range x.members {
			w, ok := y.Get(m.Key)
			if !ok || !Equal(m.Value, w) {
				return false
			}
		}
		return true
	case []any:
		y, ok := nb.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case j.Number:
		y, ok := nb.(j.Number)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		fx, okx := new(big.Float).SetString(string(x))
		fy, oky := new(big.Float).SetString(string(y))
		return okx && oky && fx.Cmp(fy) == 0
	default:
		return na == nb
	}
}
