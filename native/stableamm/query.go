package stableamm

import (
	"github.com/holiman/uint256"
)

// Pool returns a copy of the stored pool.
func (e *Engine) Pool(id PoolID) (*Pool, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, err := e.loadPool(id)
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// PoolByLpCurrency resolves the pool minting lp.
func (e *Engine) PoolByLpCurrency(lp CurrencyID) (PoolID, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	id, ok, err := e.state.LpPoolGet(lp)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrInvalidPoolID
	}
	return id, nil
}

// PoolCount returns the number of pools created so far.
func (e *Engine) PoolCount() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.PoolCount()
}

// APrecise returns the pool's current A scaled by APrecision.
func (e *Engine) APrecise(id PoolID) (uint64, error) {
	pool, err := e.Pool(id)
	if err != nil {
		return 0, err
	}
	return pool.APrecise(e.now())
}

// A returns the pool's current unscaled A.
func (e *Engine) A(id PoolID) (uint64, error) {
	pool, err := e.Pool(id)
	if err != nil {
		return 0, err
	}
	return pool.A(e.now())
}

// quoteContext loads what every pricing query needs.
func (e *Engine) quoteContext(id PoolID) (*Pool, uint64, *uint256.Int, error) {
	pool, err := e.Pool(id)
	if err != nil {
		return nil, 0, nil, err
	}
	amp, err := pool.APrecise(e.now())
	if err != nil {
		return nil, 0, nil, err
	}
	supply, err := e.totalSupply(pool)
	if err != nil {
		return nil, 0, nil, err
	}
	return pool, amp, supply, nil
}

// VirtualPrice returns D scaled by 1e18 per LP token, or zero when no LP
// tokens exist.
func (e *Engine) VirtualPrice(id PoolID) (*uint256.Int, error) {
	pool, amp, supply, err := e.quoteContext(id)
	if err != nil {
		return nil, err
	}
	return pool.virtualPrice(amp, supply)
}

// CalculateSwap quotes the output of swapping inAmount of currency in for
// currency out, net of the swap fee.
func (e *Engine) CalculateSwap(id PoolID, in, out int, inAmount *uint256.Int) (*uint256.Int, error) {
	pool, amp, _, err := e.quoteContext(id)
	if err != nil {
		return nil, err
	}
	outcome, err := pool.calculateSwap(amp, in, out, orZero(inAmount))
	if err != nil {
		return nil, err
	}
	return outcome.dy, nil
}

// CalculateCurrencyAmount estimates the LP tokens minted by depositing, or
// burned by withdrawing, amounts. Fees are not included.
func (e *Engine) CalculateCurrencyAmount(id PoolID, amounts []*uint256.Int, deposit bool) (*uint256.Int, error) {
	pool, amp, supply, err := e.quoteContext(id)
	if err != nil {
		return nil, err
	}
	return pool.calculateCurrencyAmount(amp, amounts, deposit, supply)
}

// CalculateRemoveLiquidity quotes a balanced withdrawal of lpAmount.
func (e *Engine) CalculateRemoveLiquidity(id PoolID, lpAmount *uint256.Int) ([]*uint256.Int, error) {
	pool, _, supply, err := e.quoteContext(id)
	if err != nil {
		return nil, err
	}
	return pool.calculateRemoveLiquidity(orZero(lpAmount), supply)
}

// CalculateRemoveLiquidityOneCurrency quotes the amount and fee of burning
// lpAmount for currency index.
func (e *Engine) CalculateRemoveLiquidityOneCurrency(id PoolID, lpAmount *uint256.Int, index int) (*RemoveOneResult, error) {
	pool, amp, supply, err := e.quoteContext(id)
	if err != nil {
		return nil, err
	}
	outcome, err := pool.calculateRemoveLiquidityOneCurrency(amp, orZero(lpAmount), index, supply)
	if err != nil {
		return nil, err
	}
	return &RemoveOneResult{OutAmount: outcome.dy, Fee: outcome.fee}, nil
}

// AdminBalances returns the admin fees accrued per currency and not yet
// withdrawn.
func (e *Engine) AdminBalances(id PoolID) ([]*uint256.Int, error) {
	pool, err := e.Pool(id)
	if err != nil {
		return nil, err
	}
	out := make([]*uint256.Int, pool.CurrencyCount())
	for i, currency := range pool.CurrencyIDs {
		held, err := e.ledger.FreeBalance(currency, pool.Account)
		if err != nil {
			return nil, err
		}
		out[i] = saturatingSub(orZero(held), pool.Balances[i])
	}
	return out, nil
}
