package stableamm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Storage abstracts the key-value view the pool store persists into.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// Store persists pools, the pool identifier counter and the LP currency
// registry. Amounts are stored as decimal strings.
type Store struct {
	kv Storage
}

// NewStore wraps the provided key-value view.
func NewStore(kv Storage) *Store { return &Store{kv: kv} }

type storedPool struct {
	ID                uint64
	CurrencyIDs       []string
	LpCurrencyID      string
	TokenMultipliers  []string
	Balances          []string
	Fee               uint64
	AdminFee          uint64
	InitialA          uint64
	FutureA           uint64
	InitialATime      uint64
	FutureATime       uint64
	Account           common.Address
	AdminFeeReceiver  common.Address
	LpCurrencySymbol  string
	LpCurrencyDecimal uint64
}

type storedLpPool struct {
	PoolID uint64
}

func newStoredPool(pool *Pool) *storedPool {
	ids := make([]string, len(pool.CurrencyIDs))
	for i, id := range pool.CurrencyIDs {
		ids[i] = string(id)
	}
	return &storedPool{
		ID:                uint64(pool.ID),
		CurrencyIDs:       ids,
		LpCurrencyID:      string(pool.LpCurrencyID),
		TokenMultipliers:  encodeAmounts(pool.TokenMultipliers),
		Balances:          encodeAmounts(pool.Balances),
		Fee:               pool.Fee,
		AdminFee:          pool.AdminFee,
		InitialA:          pool.InitialA,
		FutureA:           pool.FutureA,
		InitialATime:      pool.InitialATime,
		FutureATime:       pool.FutureATime,
		Account:           pool.Account,
		AdminFeeReceiver:  pool.AdminFeeReceiver,
		LpCurrencySymbol:  pool.LpCurrencySymbol,
		LpCurrencyDecimal: uint64(pool.LpCurrencyDecimal),
	}
}

func (s *storedPool) toPool() (*Pool, error) {
	if len(s.CurrencyIDs) != len(s.Balances) || len(s.CurrencyIDs) != len(s.TokenMultipliers) {
		return nil, fmt.Errorf("stableamm: corrupt pool record %d", s.ID)
	}
	multipliers, err := decodeAmounts(s.TokenMultipliers)
	if err != nil {
		return nil, err
	}
	balances, err := decodeAmounts(s.Balances)
	if err != nil {
		return nil, err
	}
	ids := make([]CurrencyID, len(s.CurrencyIDs))
	for i, id := range s.CurrencyIDs {
		ids[i] = CurrencyID(id)
	}
	return &Pool{
		ID:                PoolID(s.ID),
		CurrencyIDs:       ids,
		LpCurrencyID:      CurrencyID(s.LpCurrencyID),
		TokenMultipliers:  multipliers,
		Balances:          balances,
		Fee:               s.Fee,
		AdminFee:          s.AdminFee,
		InitialA:          s.InitialA,
		FutureA:           s.FutureA,
		InitialATime:      s.InitialATime,
		FutureATime:       s.FutureATime,
		Account:           s.Account,
		AdminFeeReceiver:  s.AdminFeeReceiver,
		LpCurrencySymbol:  s.LpCurrencySymbol,
		LpCurrencyDecimal: uint8(s.LpCurrencyDecimal),
	}, nil
}

func encodeAmounts(xs []*uint256.Int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = orZero(x).Dec()
	}
	return out
}

func decodeAmounts(values []string) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(values))
	for i, value := range values {
		parsed, err := uint256.FromDecimal(value)
		if err != nil {
			return nil, fmt.Errorf("stableamm: decode amount %q: %w", value, err)
		}
		out[i] = parsed
	}
	return out, nil
}

// PoolGet loads a pool by identifier.
func (s *Store) PoolGet(id PoolID) (*Pool, bool, error) {
	var stored storedPool
	ok, err := s.kv.KVGet(poolRecordKey(id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	pool, err := stored.toPool()
	if err != nil {
		return nil, false, err
	}
	return pool, true, nil
}

// PoolPut persists the pool record.
func (s *Store) PoolPut(pool *Pool) error {
	if pool == nil {
		return fmt.Errorf("stableamm: nil pool")
	}
	return s.kv.KVPut(poolRecordKey(pool.ID), newStoredPool(pool))
}

// NextPoolID returns the next unused identifier and advances the counter.
func (s *Store) NextPoolID() (PoolID, error) {
	next, err := s.PoolCount()
	if err != nil {
		return 0, err
	}
	if next > uint64(^uint32(0)) {
		return 0, ErrArithmetic
	}
	if err := s.kv.KVPut(poolNextIDKey, next+1); err != nil {
		return 0, err
	}
	return PoolID(next), nil
}

// PoolCount returns the number of identifiers handed out so far.
func (s *Store) PoolCount() (uint64, error) {
	var next uint64
	if _, err := s.kv.KVGet(poolNextIDKey, &next); err != nil {
		return 0, err
	}
	return next, nil
}

// LpPoolGet resolves the pool registered for lp.
func (s *Store) LpPoolGet(lp CurrencyID) (PoolID, bool, error) {
	var stored storedLpPool
	ok, err := s.kv.KVGet(lpCurrencyKey(lp), &stored)
	if err != nil || !ok {
		return 0, ok, err
	}
	return PoolID(stored.PoolID), true, nil
}

// LpPoolInsert registers lp for id. It reports false and leaves the registry
// untouched when lp is already registered.
func (s *Store) LpPoolInsert(lp CurrencyID, id PoolID) (bool, error) {
	_, exists, err := s.LpPoolGet(lp)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.kv.KVPut(lpCurrencyKey(lp), storedLpPool{PoolID: uint64(id)}); err != nil {
		return false, err
	}
	return true, nil
}
