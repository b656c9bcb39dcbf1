package storage

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

type journalEntry struct {
	key     string
	prev    []byte
	existed bool
}

// JournalDB layers an RLP-encoding key-value view with snapshot and revert
// support over a Database. Writes stay in memory until Commit flushes them in
// a single batch. A JournalDB is not safe for concurrent use; the host that
// owns it serialises access.
type JournalDB struct {
	db      Database
	dirty   map[string][]byte
	journal []journalEntry
}

// NewJournalDB wraps the provided backend.
func NewJournalDB(db Database) *JournalDB {
	return &JournalDB{db: db, dirty: make(map[string][]byte)}
}

// KVPut stores the RLP encoding of value under key.
func (j *JournalDB) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	j.set(string(key), encoded)
	return nil
}

// KVGet decodes the value stored under key into out. The boolean reports
// whether the key existed.
func (j *JournalDB) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := j.raw(string(key))
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes key from the view.
func (j *JournalDB) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	j.set(string(key), nil)
	return nil
}

// Snapshot returns an identifier for the current journal position.
func (j *JournalDB) Snapshot() int {
	return len(j.journal)
}

// RevertToSnapshot undoes every write recorded after the snapshot was taken.
func (j *JournalDB) RevertToSnapshot(id int) {
	if id < 0 || id > len(j.journal) {
		return
	}
	for i := len(j.journal) - 1; i >= id; i-- {
		entry := j.journal[i]
		if entry.existed {
			j.dirty[entry.key] = entry.prev
		} else {
			delete(j.dirty, entry.key)
		}
	}
	j.journal = j.journal[:id]
}

// Commit flushes pending writes to the backend and clears the journal.
func (j *JournalDB) Commit() error {
	if len(j.dirty) == 0 {
		j.journal = j.journal[:0]
		return nil
	}
	if err := j.db.Write(j.dirty); err != nil {
		return fmt.Errorf("kv: commit: %w", err)
	}
	j.dirty = make(map[string][]byte)
	j.journal = j.journal[:0]
	return nil
}

// Discard drops every pending write.
func (j *JournalDB) Discard() {
	j.dirty = make(map[string][]byte)
	j.journal = j.journal[:0]
}

// Pending reports the number of keys written since the last commit.
func (j *JournalDB) Pending() int {
	return len(j.dirty)
}

func (j *JournalDB) set(key string, value []byte) {
	prev, existed := j.dirty[key]
	j.journal = append(j.journal, journalEntry{key: key, prev: prev, existed: existed})
	j.dirty[key] = value
}

func (j *JournalDB) raw(key string) ([]byte, error) {
	if value, ok := j.dirty[key]; ok {
		return value, nil
	}
	data, err := j.db.Get([]byte(key))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}
