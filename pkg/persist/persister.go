package persist

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveFile encodes state into path. The file is written to a temporary name
// in the same directory and renamed into place.
func SaveFile(path string, codec Codec, state any) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}

	defer os.Remove(tmp.Name())

	if err = codec.Encode(tmp, state); err != nil {
		tmp.Close()

		return fmt.Errorf("encode state: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}

	return nil
}

// LoadFile decodes path into state, which must be a pointer.
func LoadFile(path string, codec Codec, state any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer f.Close()

	if err = codec.Decode(f, state); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}

// Persister stores one state type under a fixed base name.
type Persister[T any] struct {
	basename string
	codec    Codec
}

// NewPersister creates a persister writing basename+codec.Extension().
func NewPersister[T any](basename string, codec Codec) *Persister[T] {
	return &Persister[T]{basename: basename, codec: codec}
}

// Path returns the file the persister uses inside dir.
func (p *Persister[T]) Path(dir string) string {
	return filepath.Join(dir, p.basename+p.codec.Extension())
}

// Save writes state into dir.
func (p *Persister[T]) Save(dir string, state *T) error {
	return SaveFile(p.Path(dir), p.codec, state)
}

// Load reads the state stored in dir.
func (p *Persister[T]) Load(dir string) (*T, error) {
	var state T

	if err := LoadFile(p.Path(dir), p.codec, &state); err != nil {
		return nil, err
	}

	return &state, nil
}
