package snapshotv1

import "context"

// Store defines the interface for persisting and restoring order book
// snapshots.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=snapshotv1_mock
type Store interface {
	// Store persists a snapshot for the snapshot's symbol.
	Store(ctx context.Context, snapshot *Snapshot) error
	// Load returns the latest snapshot for the given symbol, or nil when no
	// snapshot exists.
	Load(ctx context.Context, symbol string) (*Snapshot, error)
}
