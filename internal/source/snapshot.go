package source

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/chameleon/internal/model"
	"github.com/Sumatoshi-tech/chameleon/pkg/persist"
)

// Snapshot is one consistent load of both tables.
type Snapshot struct {
	FetchedAt time.Time                `json:"fetched_at" yaml:"fetched_at"`
	Profiles  []model.InstagramProfile `json:"profiles"   yaml:"profiles"`
	Events    []model.WhatsAppEvent    `json:"events"     yaml:"events"`
	Stats     LoadStats                `json:"stats"      yaml:"stats"`
	ID        uuid.UUID                `json:"id"         yaml:"id"`
}

// Load fetches profiles and events concurrently. The first failure cancels
// the other fetch.
func Load(ctx context.Context, src Source) (*Snapshot, error) {
	var (
		profiles []model.InstagramProfile
		events   []model.WhatsAppEvent
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		profiles, err = src.Profiles(gCtx)

		return err
	})

	g.Go(func() error {
		var err error

		events, err = src.Events(gCtx)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snap := &Snapshot{
		ID:        uuid.New(),
		FetchedAt: time.Now().UTC(),
		Profiles:  profiles,
		Events:    events,
	}

	if s, ok := src.(interface{ Stats() LoadStats }); ok {
		snap.Stats = s.Stats()
	}

	return snap, nil
}

// SaveSnapshot writes snap to path with the codec chosen by extension.
func SaveSnapshot(path string, snap *Snapshot) error {
	return persist.SaveFile(path, persist.CodecFor(path), snap)
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	var snap Snapshot
	if err := persist.LoadFile(path, persist.CodecFor(path), &snap); err != nil {
		return nil, err
	}

	return &snap, nil
}
