package state

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	dbm "github.com/cosmos/cosmos-db"
)

var (
	// latestKey holds the JSON snapshot of the last committed state.
	latestKey = []byte("s/latest")
	// appHashPrefix || u64be(height) holds the app hash committed at height.
	appHashPrefix = []byte("h/")
)

func appHashKey(height int64) []byte {
	bz := make([]byte, len(appHashPrefix)+8)
	copy(bz, appHashPrefix)
	binary.BigEndian.PutUint64(bz[len(appHashPrefix):], uint64(height))
	return bz
}

// Store persists committed state snapshots in a cosmos-db key/value database.
type Store struct {
	db dbm.DB
}

func NewStore(db dbm.DB) *Store {
	return &Store{db: db}
}

// OpenStore opens (or creates) <home>/data/state.db with the given backend.
func OpenStore(home string, backend dbm.BackendType) (*Store, error) {
	db, err := dbm.NewDB("state", backend, filepath.Join(home, "data"))
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	return NewStore(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the last committed state, or a fresh state for an empty db.
func (s *Store) Load() (*State, error) {
	b, err := s.db.Get(latestKey)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if b == nil {
		return NewState(), nil
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	st.normalize()
	return &st, nil
}

// Save writes the snapshot and its app hash atomically.
func (s *Store) Save(st *State, appHash []byte) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(latestKey, b); err != nil {
		return fmt.Errorf("stage state: %w", err)
	}
	if err := batch.Set(appHashKey(st.Height), appHash); err != nil {
		return fmt.Errorf("stage app hash: %w", err)
	}
	if err := batch.WriteSync(); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// AppHashAt returns the app hash committed at height, or nil if unknown.
func (s *Store) AppHashAt(height int64) ([]byte, error) {
	b, err := s.db.Get(appHashKey(height))
	if err != nil {
		return nil, fmt.Errorf("read app hash: %w", err)
	}
	return b, nil
}
