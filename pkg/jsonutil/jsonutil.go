// Package jsonutil flattens, inspects and queries arbitrary JSON documents.
//
// Paths use dots between object keys and decimal array indices, for example
// "posts.0.caption". Object keys are visited in sorted order so every
// traversal is deterministic.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrTrailingData is returned when input holds more than one value.
	ErrTrailingData = errors.New("jsonutil: trailing data after document")

	// ErrPathNotFound is returned when a path does not resolve.
	ErrPathNotFound = errors.New("jsonutil: path not found")
)

// Field is one leaf of a flattened document.
type Field struct {
	Path  string `json:"path"  yaml:"path"`
	Value string `json:"value" yaml:"value"`
}

// Parse decodes data keeping numbers as json.Number.
func Parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("jsonutil: parse: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	return v, nil
}

type visit struct {
	path  string
	value any
}

// walk traverses v depth-first in document order, calling fn for every
// node. Containers are reported before their children.
func walk(v any, fn func(path string, value any)) {
	stack := []visit{{value: v}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(cur.path, cur.value)

		switch node := cur.value.(type) {
		case map[string]any:
			keys := make([]string, 0, len(node))
			for k := range node {
				keys = append(keys, k)
			}

			sort.Strings(keys)

			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, visit{path: join(cur.path, keys[i]), value: node[keys[i]]})
			}
		case []any:
			for i := len(node) - 1; i >= 0; i-- {
				stack = append(stack, visit{path: join(cur.path, strconv.Itoa(i)), value: node[i]})
			}
		}
	}
}

func join(prefix, seg string) string {
	if prefix == "" {
		return seg
	}

	return prefix + "." + seg
}

// Flatten returns every scalar leaf of v with its path. Empty containers
// appear as leaves with the values "{}" and "[]".
func Flatten(v any) []Field {
	fields := make([]Field, 0)

	walk(v, func(path string, value any) {
		switch node := value.(type) {
		case map[string]any:
			if len(node) == 0 {
				fields = append(fields, Field{Path: path, Value: "{}"})
			}
		case []any:
			if len(node) == 0 {
				fields = append(fields, Field{Path: path, Value: "[]"})
			}
		default:
			fields = append(fields, Field{Path: path, Value: Scalar(value)})
		}
	})

	return fields
}

// Scalar renders a decoded leaf the way it appears in JSON, with strings
// unquoted.
func Scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Normalize parses data and renders it as one "path = value" line per leaf.
func Normalize(data []byte) (string, error) {
	v, err := Parse(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	for _, f := range Flatten(v) {
		path := f.Path
		if path == "" {
			path = "$"
		}

		sb.WriteString(path)
		sb.WriteString(" = ")
		sb.WriteString(f.Value)
		sb.WriteByte('\n')
	}

	return sb.String(), nil
}

// Keys returns the path of every object member in data, in traversal order.
func Keys(data []byte) ([]string, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0)

	walk(v, func(path string, _ any) {
		if path == "" {
			return
		}

		// Array elements are positions, not keys.
		last := path[strings.LastIndexByte(path, '.')+1:]
		if _, err := strconv.Atoi(last); err == nil && isArrayChild(v, path) {
			return
		}

		keys = append(keys, path)
	})

	return keys, nil
}

func isArrayChild(root any, path string) bool {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		_, ok := root.([]any)

		return ok
	}

	parent, ok := ValueByPath(root, path[:idx])
	if !ok {
		return false
	}

	_, isArr := parent.([]any)

	return isArr
}

// ValueByPath resolves path inside a decoded document. The empty path
// resolves to v itself.
func ValueByPath(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}

	cur := v

	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}

			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}

			cur = node[i]
		default:
			return nil, false
		}
	}

	return cur, true
}

// Lookup parses data and resolves path in it.
func Lookup(data []byte, path string) (any, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}

	out, ok := ValueByPath(v, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}

	return out, nil
}
