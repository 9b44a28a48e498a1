// Package persist saves and loads typed state through pluggable codecs.
package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// File extensions for supported codecs.
const (
	jsonExtension    = ".json"
	yamlExtension    = ".yaml"
	lz4JSONExtension = ".json.lz4"
)

const defaultIndent = "  "

// Codec serializes state to and from a stream.
type Codec interface {
	Encode(w io.Writer, state any) error
	Decode(r io.Reader, state any) error
	// Extension is the file suffix for this codec, including the dot.
	Extension() string
}

// JSONCodec encodes state as JSON.
type JSONCodec struct {
	// Indent is the per-level indentation; empty means compact output.
	Indent string
}

// NewJSONCodec returns a JSON codec with two-space indentation.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	enc := json.NewEncoder(w)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}

	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	if err := json.NewDecoder(r).Decode(state); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// YAMLCodec encodes state as YAML.
type YAMLCodec struct{}

// Encode implements Codec.
func (YAMLCodec) Encode(w io.Writer, state any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(len(defaultIndent))

	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (YAMLCodec) Decode(r io.Reader, state any) error {
	if err := yaml.NewDecoder(r).Decode(state); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (YAMLCodec) Extension() string {
	return yamlExtension
}

// LZ4Codec wraps another codec in an LZ4 frame.
type LZ4Codec struct {
	Inner Codec
}

// NewLZ4JSONCodec returns compact JSON inside an LZ4 frame.
func NewLZ4JSONCodec() *LZ4Codec {
	return &LZ4Codec{Inner: &JSONCodec{}}
}

// Encode implements Codec.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	if err := c.Inner.Encode(zw, state); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("lz4 close: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	return c.Inner.Decode(lz4.NewReader(r), state)
}

// Extension implements Codec.
func (c *LZ4Codec) Extension() string {
	return c.Inner.Extension() + ".lz4"
}

// CodecFor picks a codec from a file name. Unknown suffixes get JSON.
func CodecFor(path string) Codec {
	switch {
	case strings.HasSuffix(path, lz4JSONExtension):
		return NewLZ4JSONCodec()
	case strings.HasSuffix(path, yamlExtension), strings.HasSuffix(path, ".yml"):
		return YAMLCodec{}
	default:
		return NewJSONCodec()
	}
}
