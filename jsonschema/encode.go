package jsonschema

import (
	"bytes"
	"strings"

	j "github.com/goccy/go-json"
)

// EncodeJSON writes o in key order. indent > 0 pretty-prints with that many
// spaces; the output always ends with a newline.
func EncodeJSON(o *Object, indent int) ([]byte, error) {
	compact, err := o.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if indent <= 0 {
		return append(compact, '\n'), nil
	}
	var buf bytes.Buffer
	if err := j.Indent(&buf, compact, "", strings.Repeat(" ", indent)); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
