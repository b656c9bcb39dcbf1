package stableamm

import (
	"github.com/holiman/uint256"
)

// AddLiquidity deposits req.Amounts into the pool and mints LP tokens to the
// recipient. The first deposit must include every currency.
func (e *Engine) AddLiquidity(req AddLiquidityRequest) (*uint256.Int, error) {
	var minted *uint256.Int
	err := e.run("add_liquidity", req.Who, func(scope *opScope) error {
		if err := e.checkDeadline(req.Deadline); err != nil {
			return err
		}
		pool, err := e.loadPool(req.PoolID)
		if err != nil {
			return err
		}
		scope.pool = pool
		n := pool.CurrencyCount()
		if len(req.Amounts) != n {
			return ErrMismatchParameter
		}
		supply, err := e.totalSupply(pool)
		if err != nil {
			return err
		}
		if supply.IsZero() {
			for _, amount := range req.Amounts {
				if orZero(amount).IsZero() {
					return ErrRequireAllCurrencies
				}
			}
		}
		amp, err := pool.APrecise(e.now())
		if err != nil {
			return err
		}

		credited := zeroAmounts(n)
		for i, amount := range req.Amounts {
			if orZero(amount).IsZero() {
				continue
			}
			if credited[i], err = e.transferIn(pool.CurrencyIDs[i], req.Who, pool.Account, amount); err != nil {
				return err
			}
		}
		outcome, err := pool.calculateDeposit(amp, credited, supply)
		if err != nil {
			return err
		}
		if outcome.mint.Cmp(orZero(req.MinMintAmount)) < 0 {
			return ErrAmountSlippage
		}

		to := recipient(req.Who, req.To)
		pool.Balances = outcome.balances
		if err := e.mintLp(pool, to, outcome.mint); err != nil {
			return err
		}
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
		newSupply, err := e.totalSupply(pool)
		if err != nil {
			return err
		}
		scope.emit(LiquidityAddedEvent(pool, req.Who, to, credited, outcome.fees, outcome.d1, outcome.mint, newSupply))
		minted = outcome.mint
		return nil
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// RemoveLiquidity burns req.LpAmount for a pro-rata share of every balance.
// No fee is charged.
func (e *Engine) RemoveLiquidity(req RemoveLiquidityRequest) ([]*uint256.Int, error) {
	var out []*uint256.Int
	err := e.run("remove_liquidity", req.Who, func(scope *opScope) error {
		if err := e.checkDeadline(req.Deadline); err != nil {
			return err
		}
		pool, err := e.loadPool(req.PoolID)
		if err != nil {
			return err
		}
		scope.pool = pool
		supply, err := e.totalSupply(pool)
		if err != nil {
			return err
		}
		lpAmount := orZero(req.LpAmount)
		if supply.Cmp(lpAmount) < 0 {
			return ErrInsufficientSupply
		}
		if len(req.MinAmounts) != pool.CurrencyCount() {
			return ErrMismatchParameter
		}
		amounts, err := pool.calculateRemoveLiquidity(lpAmount, supply)
		if err != nil {
			return err
		}
		for i, amount := range amounts {
			if amount.Cmp(orZero(req.MinAmounts[i])) < 0 {
				return ErrAmountSlippage
			}
		}

		to := recipient(req.Who, req.To)
		c := new(checked)
		for i, amount := range amounts {
			pool.Balances[i] = c.sub(pool.Balances[i], amount)
		}
		if c.err != nil {
			return c.err
		}
		for i, amount := range amounts {
			if err := e.transferOut(pool.CurrencyIDs[i], pool.Account, to, amount); err != nil {
				return err
			}
		}
		if err := e.burnLp(pool, req.Who, lpAmount); err != nil {
			return err
		}
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
		newSupply, err := e.totalSupply(pool)
		if err != nil {
			return err
		}
		scope.emit(LiquidityRemovedEvent(pool, req.Who, to, lpAmount, amounts, newSupply))
		out = amounts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveLiquidityOneCurrency burns req.LpAmount for currency req.Index only.
// The withdrawal pays the imbalance fee it introduces.
func (e *Engine) RemoveLiquidityOneCurrency(req RemoveLiquidityOneCurrencyRequest) (*RemoveOneResult, error) {
	var result *RemoveOneResult
	err := e.run("remove_liquidity_one_currency", req.Who, func(scope *opScope) error {
		if err := e.checkDeadline(req.Deadline); err != nil {
			return err
		}
		pool, err := e.loadPool(req.PoolID)
		if err != nil {
			return err
		}
		scope.pool = pool
		supply, err := e.totalSupply(pool)
		if err != nil {
			return err
		}
		if supply.IsZero() {
			return ErrInsufficientSupply
		}
		if req.Index < 0 || req.Index >= pool.CurrencyCount() {
			return ErrCurrencyIndexOutRange
		}
		lpAmount := orZero(req.LpAmount)
		held, err := e.ledger.FreeBalance(pool.LpCurrencyID, req.Who)
		if err != nil {
			return err
		}
		if lpAmount.Cmp(orZero(held)) > 0 {
			return ErrInsufficientLpReserve
		}
		if lpAmount.Cmp(supply) > 0 {
			return ErrInsufficientSupply
		}
		amp, err := pool.APrecise(e.now())
		if err != nil {
			return err
		}
		outcome, err := pool.calculateRemoveLiquidityOneCurrency(amp, lpAmount, req.Index, supply)
		if err != nil {
			return err
		}
		if outcome.dy.Cmp(orZero(req.MinAmount)) < 0 {
			return ErrAmountSlippage
		}

		to := recipient(req.Who, req.To)
		c := new(checked)
		adminShare := c.div(c.mul(outcome.fee, u(pool.AdminFee)), u(FeeDenominator))
		pool.Balances[req.Index] = c.sub(pool.Balances[req.Index], c.add(outcome.dy, adminShare))
		if c.err != nil {
			return c.err
		}
		if err := e.burnLp(pool, req.Who, lpAmount); err != nil {
			return err
		}
		if err := e.transferOut(pool.CurrencyIDs[req.Index], pool.Account, to, outcome.dy); err != nil {
			return err
		}
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
		newSupply, err := e.totalSupply(pool)
		if err != nil {
			return err
		}
		scope.emit(LiquidityRemovedOneEvent(pool, req.Who, to, lpAmount, req.Index, outcome.dy, outcome.fee, newSupply))
		result = &RemoveOneResult{OutAmount: outcome.dy, Fee: outcome.fee}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveLiquidityImbalance withdraws exactly req.Amounts, burning the LP
// tokens their value requires plus the imbalance fee. It returns the amount
// burned, which never exceeds req.MaxBurnAmount.
func (e *Engine) RemoveLiquidityImbalance(req RemoveLiquidityImbalanceRequest) (*uint256.Int, error) {
	var burned *uint256.Int
	err := e.run("remove_liquidity_imbalance", req.Who, func(scope *opScope) error {
		if err := e.checkDeadline(req.Deadline); err != nil {
			return err
		}
		pool, err := e.loadPool(req.PoolID)
		if err != nil {
			return err
		}
		scope.pool = pool
		supply, err := e.totalSupply(pool)
		if err != nil {
			return err
		}
		if supply.IsZero() {
			return ErrInsufficientSupply
		}
		if len(req.Amounts) != pool.CurrencyCount() {
			return ErrMismatchParameter
		}
		amp, err := pool.APrecise(e.now())
		if err != nil {
			return err
		}
		outcome, err := pool.calculateRemoveLiquidityImbalance(amp, req.Amounts, supply)
		if err != nil {
			return err
		}
		if outcome.burn.IsZero() || outcome.burn.Cmp(orZero(req.MaxBurnAmount)) > 0 {
			return ErrAmountSlippage
		}

		to := recipient(req.Who, req.To)
		pool.Balances = outcome.balances
		if err := e.burnLp(pool, req.Who, outcome.burn); err != nil {
			return err
		}
		for i, amount := range req.Amounts {
			if err := e.transferOut(pool.CurrencyIDs[i], pool.Account, to, orZero(amount)); err != nil {
				return err
			}
		}
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
		newSupply, err := e.totalSupply(pool)
		if err != nil {
			return err
		}
		scope.emit(LiquidityRemovedImbalanceEvent(pool, req.Who, to, cloneAmounts(req.Amounts), outcome.fees, outcome.d1, outcome.burn, newSupply))
		burned = outcome.burn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return burned, nil
}
