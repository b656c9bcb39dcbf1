package stableamm

// Swap exchanges req.InAmount of currency req.In for currency req.Out. The
// amount actually credited to the pool is priced, so currencies that charge
// on transfer are handled.
func (e *Engine) Swap(req SwapRequest) (*SwapResult, error) {
	var result *SwapResult
	err := e.run("swap", req.Who, func(scope *opScope) error {
		if err := e.checkDeadline(req.Deadline); err != nil {
			return err
		}
		pool, err := e.loadPool(req.PoolID)
		if err != nil {
			return err
		}
		scope.pool = pool
		if req.In == req.Out {
			return ErrSwapSameCurrency
		}
		n := pool.CurrencyCount()
		if req.In < 0 || req.Out < 0 || req.In >= n || req.Out >= n {
			return ErrCurrencyIndexOutRange
		}
		amp, err := pool.APrecise(e.now())
		if err != nil {
			return err
		}

		credited, err := e.transferIn(pool.CurrencyIDs[req.In], req.Who, pool.Account, orZero(req.InAmount))
		if err != nil {
			return err
		}
		outcome, err := pool.calculateSwap(amp, req.In, req.Out, credited)
		if err != nil {
			return err
		}
		if outcome.dy.Cmp(orZero(req.MinOutAmount)) < 0 {
			return ErrAmountSlippage
		}

		c := new(checked)
		pool.Balances[req.In] = c.balance(c.add(pool.Balances[req.In], credited))
		pool.Balances[req.Out] = c.sub(pool.Balances[req.Out], c.add(outcome.dy, outcome.adminFee))
		if c.err != nil {
			return c.err
		}
		to := recipient(req.Who, req.To)
		if err := e.transferOut(pool.CurrencyIDs[req.Out], pool.Account, to, outcome.dy); err != nil {
			return err
		}
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
		scope.emit(SwapEvent(pool, req.Who, to, req.In, req.Out, credited, outcome.dy, outcome.fee))
		result = &SwapResult{OutAmount: outcome.dy, Fee: outcome.fee, AdminFee: outcome.adminFee}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
