package storage

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Cache is the durable on-device mirror of watched-episode sets. It is
// a last-resort fallback only: stale entries are overwritten on every
// successful write-through from the remote store.
type Cache struct {
	store *bolthold.Store
}

type cachedSeason struct {
	Key       string `boltholdKey:"Key"` // "<titleID>:<season>"
	TitleID   int64
	Season    int
	Episodes  []int
	UpdatedAt time.Time
}

// NewCache opens the local episode cache
func NewCache(path string) (*Cache, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return &Cache{store: store}, nil
}

// Close closes the cache
func (c *Cache) Close() error {
	return c.store.Close()
}

// GetSeason returns the mirrored watched-episode list for a season.
// The second return value is false when no entry exists.
func (c *Cache) GetSeason(titleID int64, season int) ([]int, bool, error) {
	var entry cachedSeason
	err := c.store.Get(seasonKey(titleID, season), &entry)
	if err == bolthold.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached season: %w", err)
	}
	return entry.Episodes, true, nil
}

// PutSeason replaces the mirrored watched-episode list for a season
func (c *Cache) PutSeason(titleID int64, season int, episodes []int) error {
	entry := cachedSeason{
		Key:       seasonKey(titleID, season),
		TitleID:   titleID,
		Season:    season,
		Episodes:  episodes,
		UpdatedAt: time.Now(),
	}
	if err := c.store.Upsert(entry.Key, &entry); err != nil {
		return fmt.Errorf("failed to write cached season: %w", err)
	}
	return nil
}

func seasonKey(titleID int64, season int) string {
	return fmt.Sprintf("%d:%d", titleID, season)
}
