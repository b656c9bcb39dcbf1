package stableamm

// APrecise returns the amplification coefficient, scaled by APrecision, at
// the unix time now. Between InitialATime and FutureATime the value moves
// linearly from InitialA to FutureA.
func (p *Pool) APrecise(now uint64) (uint64, error) {
	if now >= p.FutureATime {
		return p.FutureA, nil
	}
	c := new(checked)
	elapsed := c.sub(u(now), u(p.InitialATime))
	window := c.sub(u(p.FutureATime), u(p.InitialATime))
	if p.FutureA > p.InitialA {
		step := c.mulDiv(u(p.FutureA-p.InitialA), elapsed, window)
		a := c.add(u(p.InitialA), step)
		if c.err != nil {
			return 0, c.err
		}
		return a.Uint64(), nil
	}
	step := c.mulDiv(u(p.InitialA-p.FutureA), elapsed, window)
	a := c.sub(u(p.InitialA), step)
	if c.err != nil {
		return 0, c.err
	}
	return a.Uint64(), nil
}

// A returns the unscaled amplification coefficient at now.
func (p *Pool) A(now uint64) (uint64, error) {
	precise, err := p.APrecise(now)
	if err != nil {
		return 0, err
	}
	return precise / APrecision, nil
}

// rampA schedules a linear move of A to futureA (unscaled) ending at
// futureATime.
func (p *Pool) rampA(futureA, futureATime, now uint64) error {
	if now < p.InitialATime+Day {
		return ErrRampADelay
	}
	if futureATime < now+MinRampTime {
		return ErrMinRampTime
	}
	if futureA == 0 || futureA >= MaxA {
		return ErrExceedThreshold
	}
	current, err := p.APrecise(now)
	if err != nil {
		return err
	}
	futurePrecise := futureA * APrecision
	if futurePrecise < current {
		if futurePrecise*MaxAChange < current {
			return ErrExceedMaxAChange
		}
	} else if futurePrecise > current*MaxAChange {
		return ErrExceedMaxAChange
	}
	p.InitialA = current
	p.FutureA = futurePrecise
	p.InitialATime = now
	p.FutureATime = futureATime
	return nil
}

// stopRampA freezes A at its current value.
func (p *Pool) stopRampA(now uint64) error {
	if p.FutureATime <= now {
		return ErrAlreadyStoppedRampA
	}
	current, err := p.APrecise(now)
	if err != nil {
		return err
	}
	p.InitialA = current
	p.FutureA = current
	p.InitialATime = now
	p.FutureATime = now
	return nil
}
