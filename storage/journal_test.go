package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type storedRecord struct {
	Name   string
	Amount string
	Height uint64
}

func TestJournalDBPutGetCommit(t *testing.T) {
	mem := NewMemDB()
	j := NewJournalDB(mem)

	require.NoError(t, j.KVPut([]byte("rec/1"), storedRecord{Name: "usdc", Amount: "100", Height: 7}))

	var got storedRecord
	ok, err := j.KVGet([]byte("rec/1"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, storedRecord{Name: "usdc", Amount: "100", Height: 7}, got)
	require.Equal(t, 0, mem.Len())

	require.NoError(t, j.Commit())
	require.Equal(t, 1, mem.Len())
	require.Equal(t, 0, j.Pending())

	reopened := NewJournalDB(mem)
	var again storedRecord
	ok, err = reopened.KVGet([]byte("rec/1"), &again)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, got, again)
}

func TestJournalDBRevertToSnapshot(t *testing.T) {
	j := NewJournalDB(NewMemDB())
	require.NoError(t, j.KVPut([]byte("a"), uint64(1)))

	snap := j.Snapshot()
	require.NoError(t, j.KVPut([]byte("a"), uint64(2)))
	require.NoError(t, j.KVPut([]byte("b"), uint64(3)))
	require.NoError(t, j.KVDelete([]byte("a")))

	ok, err := j.KVGet([]byte("a"), nil)
	require.NoError(t, err)
	require.False(t, ok)

	j.RevertToSnapshot(snap)

	var a uint64
	ok, err = j.KVGet([]byte("a"), &a)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), a)

	ok, err = j.KVGet([]byte("b"), nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestJournalDBDeleteCommitsToBackend(t *testing.T) {
	mem := NewMemDB()
	require.NoError(t, mem.Put([]byte("gone"), []byte{0x01}))

	j := NewJournalDB(mem)
	require.NoError(t, j.KVDelete([]byte("gone")))
	require.NoError(t, j.Commit())

	_, err := mem.Get([]byte("gone"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestJournalDBDiscard(t *testing.T) {
	mem := NewMemDB()
	j := NewJournalDB(mem)
	require.NoError(t, j.KVPut([]byte("k"), "v"))
	j.Discard()

	ok, err := j.KVGet([]byte("k"), nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, j.Commit())
	require.Equal(t, 0, mem.Len())
}

func TestJournalDBRejectsEmptyKey(t *testing.T) {
	j := NewJournalDB(NewMemDB())
	require.Error(t, j.KVPut(nil, "v"))
	_, err := j.KVGet([]byte{}, nil)
	require.Error(t, err)
}

func TestLevelDBRoundTrip(t *testing.T) {
	dir := t.TempDir()

	db, err := NewLevelDB(dir)
	require.NoError(t, err)

	j := NewJournalDB(db)
	require.NoError(t, j.KVPut([]byte("pool/1"), storedRecord{Name: "pool", Amount: "5", Height: 1}))
	require.NoError(t, j.Commit())
	db.Close()

	db2, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	var got storedRecord
	ok, err := NewJournalDB(db2).KVGet([]byte("pool/1"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "5", got.Amount)

	_, err = db2.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)
}
