package stableamm

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stableamm/core/types"
)

// CurrencyID aliases the ledger currency identifier.
type CurrencyID = types.CurrencyID

// PoolID identifies a pool. Identifiers are assigned sequentially from zero.
type PoolID uint32

func (id PoolID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Pool is the persisted state of a single StableSwap pool. Balances are the
// pool's tracked reserves in native token units; they may diverge from the
// ledger balance of Account by accrued admin fees.
type Pool struct {
	ID                PoolID
	CurrencyIDs       []CurrencyID
	LpCurrencyID      CurrencyID
	TokenMultipliers  []*uint256.Int
	Balances          []*uint256.Int
	Fee               uint64
	AdminFee          uint64
	InitialA          uint64
	FutureA           uint64
	InitialATime      uint64
	FutureATime       uint64
	Account           common.Address
	AdminFeeReceiver  common.Address
	LpCurrencySymbol  string
	LpCurrencyDecimal uint8
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.CurrencyIDs = append([]CurrencyID(nil), p.CurrencyIDs...)
	clone.TokenMultipliers = cloneAmounts(p.TokenMultipliers)
	clone.Balances = cloneAmounts(p.Balances)
	return &clone
}

// CurrencyCount returns the number of pooled currencies.
func (p *Pool) CurrencyCount() int { return len(p.CurrencyIDs) }

// CurrencyIndex returns the position of currency in the pool.
func (p *Pool) CurrencyIndex(currency CurrencyID) (int, bool) {
	for i, id := range p.CurrencyIDs {
		if id == currency {
			return i, true
		}
	}
	return 0, false
}

// CreatePoolParams groups the arguments accepted by CreatePool.
type CreatePoolParams struct {
	CurrencyIDs       []CurrencyID
	CurrencyDecimals  []uint8
	LpCurrencyID      CurrencyID
	A                 uint64
	Fee               uint64
	AdminFee          uint64
	AdminFeeReceiver  common.Address
	LpCurrencySymbol  string
	LpCurrencyDecimal uint8
}

// AddLiquidityRequest deposits currencies into a pool in exchange for LP tokens.
// A zero To mints to Who.
type AddLiquidityRequest struct {
	Who           common.Address
	PoolID        PoolID
	Amounts       []*uint256.Int
	MinMintAmount *uint256.Int
	To            common.Address
	Deadline      uint64
}

// SwapRequest exchanges InAmount of currency In for currency Out.
type SwapRequest struct {
	Who          common.Address
	PoolID       PoolID
	In           int
	Out          int
	InAmount     *uint256.Int
	MinOutAmount *uint256.Int
	To           common.Address
	Deadline     uint64
}

// RemoveLiquidityRequest burns LP tokens for a proportional share of every
// pooled currency.
type RemoveLiquidityRequest struct {
	Who        common.Address
	PoolID     PoolID
	LpAmount   *uint256.Int
	MinAmounts []*uint256.Int
	To         common.Address
	Deadline   uint64
}

// RemoveLiquidityOneCurrencyRequest burns LP tokens for a single currency.
type RemoveLiquidityOneCurrencyRequest struct {
	Who       common.Address
	PoolID    PoolID
	LpAmount  *uint256.Int
	Index     int
	MinAmount *uint256.Int
	To        common.Address
	Deadline  uint64
}

// RemoveLiquidityImbalanceRequest withdraws exact amounts, burning at most
// MaxBurnAmount LP tokens.
type RemoveLiquidityImbalanceRequest struct {
	Who           common.Address
	PoolID        PoolID
	Amounts       []*uint256.Int
	MaxBurnAmount *uint256.Int
	To            common.Address
	Deadline      uint64
}

// SwapResult describes an executed swap.
type SwapResult struct {
	OutAmount *uint256.Int
	Fee       *uint256.Int
	AdminFee  *uint256.Int
}

// RemoveOneResult describes an executed single-currency withdrawal.
type RemoveOneResult struct {
	OutAmount *uint256.Int
	Fee       *uint256.Int
}

func recipient(who, to common.Address) common.Address {
	if to == (common.Address{}) {
		return who
	}
	return to
}
