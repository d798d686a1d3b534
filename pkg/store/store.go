// Package store persists floorplan snapshots for the API server.
//
// [MemoryStore] keeps snapshots in process and is the default for
// `stackplan serve`; [MongoStore] keeps them in a MongoDB collection so
// several server replicas share one history.
package store

import (
	"context"
	"time"

	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/snapshot"
)

// Summary is the listing view of a stored snapshot.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Circuit   string    `json:"circuit" bson:"circuit"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	HPWL      float64   `json:"hpwl" bson:"hpwl"`
	CutNets   int       `json:"cut_nets" bson:"cut_nets"`
}

// Store saves and loads snapshots. Implementations are safe for concurrent
// use.
type Store interface {
	// Put saves s, replacing any snapshot with the same id.
	Put(ctx context.Context, s *snapshot.Snapshot) error

	// Get returns the snapshot with id, or an error with code NOT_FOUND.
	Get(ctx context.Context, id string) (*snapshot.Snapshot, error)

	// List returns up to limit summaries, newest first. An empty circuit
	// lists all circuits; limit <= 0 means no limit.
	List(ctx context.Context, circuit string, limit int) ([]Summary, error)

	// Delete removes the snapshot with id. Deleting a missing id is not an
	// error.
	Delete(ctx context.Context, id string) error

	Close(ctx context.Context) error
}

func summarize(s *snapshot.Snapshot) Summary {
	return Summary{
		ID:        s.ID,
		Circuit:   s.Circuit,
		CreatedAt: s.CreatedAt,
		HPWL:      s.Stats.HPWL,
		CutNets:   s.Stats.CutNets,
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "snapshot %s not found", id)
}
