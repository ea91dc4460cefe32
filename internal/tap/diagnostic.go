package tap

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is a single key of a diagnostic block.
type Field struct {
	Key   string
	Value any
}

// Diagnostic is structured detail attached beneath a result line.
// Keys render in the order they were added.
type Diagnostic []Field

// Diag builds a diagnostic from alternating key/value arguments.
// A trailing key without a value renders empty.
func Diag(kv ...any) Diagnostic {
	d := make(Diagnostic, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		f := Field{Key: fmt.Sprint(kv[i])}
		if i+1 < len(kv) {
			f.Value = kv[i+1]
		}
		d = append(d, f)
	}
	return d
}

// With returns a copy of d with key appended.
func (d Diagnostic) With(key string, value any) Diagnostic {
	out := make(Diagnostic, len(d), len(d)+1)
	copy(out, d)
	return append(out, Field{Key: key, Value: value})
}

// Render formats the block:
//
//	  ---
//	  key: value
//	  nested:
//	    child: value
//	  ...
//
// Nil values render empty. Nested structures render as YAML, each level
// indented two more spaces. Multi-line strings render as literal blocks.
func (d Diagnostic) Render() string {
	var buf strings.Builder
	buf.WriteString("  ---\n")
	for _, f := range d {
		writeField(&buf, f)
	}
	buf.WriteString("  ...")
	return buf.String()
}

func writeField(buf *strings.Builder, f Field) {
	const indent = "  "

	value, block := renderValue(f.Value)
	switch {
	case block == nil:
		fmt.Fprintf(buf, "%s%s: %s", indent, f.Key, value)
	case value != "":
		fmt.Fprintf(buf, "%s%s: %s", indent, f.Key, value)
	default:
		fmt.Fprintf(buf, "%s%s:", indent, f.Key)
	}
	buf.WriteString("\n")

	for _, line := range block {
		buf.WriteString(indent + indent + line + "\n")
	}
}

// renderValue returns an inline value and, for structured or multi-line
// values, the lines of the nested block. A nil block means inline only.
func renderValue(v any) (string, []string) {
	if v == nil {
		return "", nil
	}

	switch val := v.(type) {
	case string:
		return renderString(val)
	case error:
		return renderString(val.Error())
	case fmt.Stringer:
		return renderString(val.String())
	}

	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return renderStructured(v)
	case reflect.Invalid:
		return "", nil
	default:
		return renderString(fmt.Sprint(reflect.Indirect(reflect.ValueOf(v)).Interface()))
	}
}

func renderString(s string) (string, []string) {
	s = strings.TrimRight(s, "\n")
	if !strings.Contains(s, "\n") {
		return s, nil
	}
	return "|-", strings.Split(s, "\n")
}

func renderStructured(v any) (string, []string) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return renderString(fmt.Sprintf("%#v", v))
	}
	_ = enc.Close()

	out := strings.TrimRight(buf.String(), "\n")
	lines := strings.Split(out, "\n")
	if len(lines) == 1 && (lines[0] == "{}" || lines[0] == "[]") {
		return lines[0], nil
	}
	return "", lines
}
