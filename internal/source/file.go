package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/chameleon/pkg/persist"
)

// Snapshot documents store tables under these keys.
const (
	snapshotProfilesKey = "profiles"
	snapshotEventsKey   = "events"
)

// FileSource reads rows from a local document: either a snapshot written by
// SaveSnapshot or a raw dump {"<table>": [rows...]}. The codec follows the
// file extension (.json, .yaml, .json.lz4).
type FileSource struct {
	path string
}

// NewFileSource reads path on every Rows call.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Rows returns the rows stored under table. Snapshot files answer any
// table name containing "profile" or "event" from their own keys.
func (f *FileSource) Rows(_ context.Context, table string) ([]any, error) {
	var doc map[string]any
	if err := persist.LoadFile(f.path, persist.CodecFor(f.path), &doc); err != nil {
		return nil, fmt.Errorf("load %s: %w", f.path, err)
	}

	if rows, ok := doc[table].([]any); ok {
		return rows, nil
	}

	if key := snapshotKey(table); key != "" {
		if rows, ok := doc[key].([]any); ok {
			return rows, nil
		}

		if _, present := doc[key]; present && doc[key] == nil {
			return nil, nil
		}
	}

	return nil, fmt.Errorf("%w: %s in %s", ErrTableNotFound, table, f.path)
}

func snapshotKey(table string) string {
	table = strings.ToLower(table)

	switch {
	case strings.Contains(table, "profile"):
		return snapshotProfilesKey
	case strings.Contains(table, "event"):
		return snapshotEventsKey
	default:
		return ""
	}
}
