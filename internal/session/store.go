// Package session persists the viewer's subscription state and watches
// it for changes on behalf of the aggregation engine. The store stands
// in for the browser-persisted key/value store the dashboard reads its
// tier and API key from.
package session

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/polycrisisio/wssi-deck/internal/models"
)

var (
	keyTier   = []byte("session:tier")
	keyAPIKey = []byte("session:api_key")
)

// Store holds the viewer's tier and API key in a Badger database. The
// engine never writes here; writes come from the session surface.
type Store struct {
	db *badger.DB
}

// StoreOptions configures a session store.
type StoreOptions struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps the store in RAM. For tests.
	InMemory bool
}

// NewStore opens the session database, creating it if absent.
func NewStore(opts StoreOptions) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// TierState reads the current subscription state. A missing tier key
// means unauthenticated and reads as free; a tier value outside the
// known enum also maps to free. Only a database failure is an error.
func (s *Store) TierState() (models.TierState, error) {
	var rawTier, rawKey string

	err := s.db.View(func(txn *badger.Txn) error {
		if v, err := readString(txn, keyTier); err != nil {
			return err
		} else {
			rawTier = v
		}
		if v, err := readString(txn, keyAPIKey); err != nil {
			return err
		} else {
			rawKey = v
		}
		return nil
	})
	if err != nil {
		return models.TierState{}, fmt.Errorf("failed to read session state: %w", err)
	}

	return models.TierState{
		Tier:   models.ParseTier(rawTier),
		APIKey: rawKey,
	}, nil
}

// SetTier stores the raw tier value. The value is stored verbatim; the
// free-tier fallback for unknown values happens on read, so an external
// writer can never corrupt the gate.
func (s *Store) SetTier(raw string) error {
	return s.writeString(keyTier, raw)
}

// SetAPIKey stores the upstream API key.
func (s *Store) SetAPIKey(key string) error {
	return s.writeString(keyAPIKey, key)
}

// HasTier reports whether a tier value has ever been stored. Dev
// seeding uses this so it never overwrites a deliberately chosen tier,
// including an explicit downgrade to free.
func (s *Store) HasTier() (bool, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(keyTier)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to read session state: %w", err)
	}
	return found, nil
}

func (s *Store) writeString(key []byte, val string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte(val))
	})
	if err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	return nil
}

func readString(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var out string
	err = item.Value(func(val []byte) error {
		out = string(val)
		return nil
	})
	return out, err
}
