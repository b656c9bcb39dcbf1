package stableamm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CreatePool registers a new pool and returns its identifier.
func (e *Engine) CreatePool(who common.Address, params CreatePoolParams) (PoolID, error) {
	var created PoolID
	err := e.run("create_pool", who, func(scope *opScope) error {
		if err := e.ensureAdmin(who); err != nil {
			return err
		}
		if e.validator == nil {
			return ErrNilState
		}
		if !e.validator.ValidatePooledCurrency(params.CurrencyIDs) {
			return ErrInvalidPooledCurrency
		}
		if !e.validator.ValidatePoolLpCurrency(params.LpCurrencyID) {
			return ErrInvalidLpCurrency
		}
		if _, used, err := e.state.LpPoolGet(params.LpCurrencyID); err != nil {
			return err
		} else if used {
			return ErrLpCurrencyAlreadyUsed
		}
		if len(params.CurrencyIDs) != len(params.CurrencyDecimals) {
			return ErrMismatchParameter
		}
		multipliers := make([]*uint256.Int, len(params.CurrencyDecimals))
		for i, decimals := range params.CurrencyDecimals {
			multiplier, err := tokenMultiplier(decimals)
			if err != nil {
				return err
			}
			multipliers[i] = multiplier
		}
		if params.A >= MaxA {
			return ErrExceedMaxA
		}
		if params.Fee > MaxSwapFee {
			return ErrExceedMaxFee
		}
		if params.AdminFee > MaxAdminFee {
			return ErrExceedMaxAdminFee
		}

		id, err := e.state.NextPoolID()
		if err != nil {
			return err
		}
		inserted, err := e.state.LpPoolInsert(params.LpCurrencyID, id)
		if err != nil {
			return err
		}
		if !inserted {
			return ErrLpCurrencyAlreadyUsed
		}
		pool := &Pool{
			ID:                id,
			CurrencyIDs:       append([]CurrencyID(nil), params.CurrencyIDs...),
			LpCurrencyID:      params.LpCurrencyID,
			TokenMultipliers:  multipliers,
			Balances:          zeroAmounts(len(params.CurrencyIDs)),
			Fee:               params.Fee,
			AdminFee:          params.AdminFee,
			InitialA:          params.A * APrecision,
			FutureA:           params.A * APrecision,
			Account:           PoolAccount(id),
			AdminFeeReceiver:  params.AdminFeeReceiver,
			LpCurrencySymbol:  params.LpCurrencySymbol,
			LpCurrencyDecimal: params.LpCurrencyDecimal,
		}
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
		scope.pool = pool
		scope.emit(PoolCreatedEvent(pool, who))
		created = id
		return nil
	})
	return created, err
}

// SetFee replaces the swap and admin fees of a pool.
func (e *Engine) SetFee(who common.Address, id PoolID, fee, adminFee uint64) error {
	return e.run("set_fee", who, func(scope *opScope) error {
		if err := e.ensureAdmin(who); err != nil {
			return err
		}
		pool, err := e.loadPool(id)
		if err != nil {
			return err
		}
		scope.pool = pool
		if fee > MaxSwapFee {
			return ErrExceedMaxFee
		}
		if adminFee > MaxAdminFee {
			return ErrExceedMaxAdminFee
		}
		pool.Fee = fee
		pool.AdminFee = adminFee
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
		scope.emit(FeeUpdatedEvent(pool))
		return nil
	})
}

// UpdateFeeReceiver changes where admin fees are swept to.
func (e *Engine) UpdateFeeReceiver(who common.Address, id PoolID, receiver common.Address) error {
	return e.run("update_fee_receiver", who, func(scope *opScope) error {
		if err := e.ensureAdmin(who); err != nil {
			return err
		}
		pool, err := e.loadPool(id)
		if err != nil {
			return err
		}
		scope.pool = pool
		pool.AdminFeeReceiver = receiver
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
		scope.emit(FeeReceiverUpdatedEvent(pool))
		return nil
	})
}

// RampA schedules a linear move of the pool's A to futureA, completing at
// the unix time futureATime.
func (e *Engine) RampA(who common.Address, id PoolID, futureA, futureATime uint64) error {
	return e.run("ramp_a", who, func(scope *opScope) error {
		if err := e.ensureAdmin(who); err != nil {
			return err
		}
		pool, err := e.loadPool(id)
		if err != nil {
			return err
		}
		scope.pool = pool
		if err := pool.rampA(futureA, futureATime, e.now()); err != nil {
			return err
		}
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
		scope.emit(RampAStartedEvent(pool))
		return nil
	})
}

// StopRampA freezes an in-flight ramp at the current A.
func (e *Engine) StopRampA(who common.Address, id PoolID) error {
	return e.run("stop_ramp_a", who, func(scope *opScope) error {
		if err := e.ensureAdmin(who); err != nil {
			return err
		}
		pool, err := e.loadPool(id)
		if err != nil {
			return err
		}
		scope.pool = pool
		if err := pool.stopRampA(e.now()); err != nil {
			return err
		}
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
		scope.emit(RampAStoppedEvent(pool))
		return nil
	})
}

// WithdrawAdminFee sweeps, per currency, the surplus of the pool account's
// ledger balance over the tracked pool balance to the admin fee receiver.
func (e *Engine) WithdrawAdminFee(who common.Address, id PoolID) ([]*uint256.Int, error) {
	var swept []*uint256.Int
	err := e.run("withdraw_admin_fee", who, func(scope *opScope) error {
		if err := e.ensureAdmin(who); err != nil {
			return err
		}
		pool, err := e.loadPool(id)
		if err != nil {
			return err
		}
		scope.pool = pool
		amounts := zeroAmounts(pool.CurrencyCount())
		c := new(checked)
		for i, currency := range pool.CurrencyIDs {
			held, err := e.ledger.FreeBalance(currency, pool.Account)
			if err != nil {
				return err
			}
			amounts[i] = c.sub(orZero(held), pool.Balances[i])
			if c.err != nil {
				return c.err
			}
			if err := e.transferOut(currency, pool.Account, pool.AdminFeeReceiver, amounts[i]); err != nil {
				return err
			}
		}
		scope.emit(AdminFeeWithdrawnEvent(pool, amounts))
		swept = amounts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return swept, nil
}
