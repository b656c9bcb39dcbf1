package stableamm

import (
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stableamm/core/events"
	"stableamm/core/types"
	"stableamm/observability/metrics"
)

// Ledger moves real balances on the multi-asset ledger backing the pools.
type Ledger interface {
	FreeBalance(currency CurrencyID, who common.Address) (*uint256.Int, error)
	TotalIssuance(currency CurrencyID) (*uint256.Int, error)
	Transfer(currency CurrencyID, from, to common.Address, amount *uint256.Int) error
	Deposit(currency CurrencyID, to common.Address, amount *uint256.Int) error
	Withdraw(currency CurrencyID, from common.Address, amount *uint256.Int) error
}

// CurrencyValidator decides which currencies may be pooled and which may
// represent pool shares.
type CurrencyValidator interface {
	ValidatePooledCurrency(ids []CurrencyID) bool
	ValidatePoolLpCurrency(id CurrencyID) bool
}

// Authorizer gates administrative operations.
type Authorizer interface {
	EnsureAdmin(who common.Address) error
}

// Journal provides the transactional scope every operation runs in. Writes
// made through the state and ledger after Snapshot are undone by
// RevertToSnapshot.
type Journal interface {
	Snapshot() int
	RevertToSnapshot(id int)
}

type engineState interface {
	PoolGet(id PoolID) (*Pool, bool, error)
	PoolPut(pool *Pool) error
	// NextPoolID returns the next identifier and advances the counter.
	NextPoolID() (PoolID, error)
	PoolCount() (uint64, error)
	LpPoolGet(lp CurrencyID) (PoolID, bool, error)
	// LpPoolInsert registers lp for id unless lp is already registered.
	LpPoolInsert(lp CurrencyID, id PoolID) (bool, error)
}

// Engine executes StableSwap pool operations against injected state, ledger
// and policy collaborators. The engine holds no locks; the host serialises
// calls so that no two operations interleave.
type Engine struct {
	state       engineState
	ledger      Ledger
	validator   CurrencyValidator
	auth        Authorizer
	journal     Journal
	emitter     events.Emitter
	telemetry   *metrics.StableAMMMetrics
	logger      *slog.Logger
	nowFn       func() int64
	blockHeight uint64
}

// NewEngine constructs an engine with default dependencies. State, ledger,
// validator and authorizer must be configured before use.
func NewEngine() *Engine {
	return &Engine{
		emitter:   events.NoopEmitter{},
		telemetry: metrics.StableAMM(),
		logger:    slog.Default(),
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the pool store.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the ledger adapter.
func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

// SetValidator configures the currency policy.
func (e *Engine) SetValidator(validator CurrencyValidator) { e.validator = validator }

// SetAuthorizer configures the admin origin check.
func (e *Engine) SetAuthorizer(auth Authorizer) { e.auth = auth }

// SetJournal configures the transactional scope. Mutating operations fail
// with ErrNilState until a journal is set.
func (e *Engine) SetJournal(journal Journal) { e.journal = journal }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger overrides the structured logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		e.logger = slog.Default()
		return
	}
	e.logger = logger
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetBlockHeight records the logical height that operation deadlines are
// checked against.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.blockHeight = height
}

// BlockHeight returns the configured logical height.
func (e *Engine) BlockHeight() uint64 {
	if e == nil {
		return 0
	}
	return e.blockHeight
}

func (e *Engine) now() uint64 {
	var ts int64
	if e == nil || e.nowFn == nil {
		ts = time.Now().Unix()
	} else {
		ts = e.nowFn()
	}
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil || e.ledger == nil {
		return ErrNilState
	}
	return nil
}

func (e *Engine) readyToMutate() error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.journal == nil {
		return ErrNilState
	}
	return nil
}

func (e *Engine) checkDeadline(deadline uint64) error {
	if deadline <= e.blockHeight {
		return ErrDeadline
	}
	return nil
}

func (e *Engine) ensureAdmin(who common.Address) error {
	if e.auth == nil {
		return ErrUnauthorized
	}
	return e.auth.EnsureAdmin(who)
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

// opScope collects what an operation produced so that events are released
// only once it has succeeded.
type opScope struct {
	pool    *Pool
	pending []*types.Event
}

func (s *opScope) emit(evt *types.Event) { s.pending = append(s.pending, evt) }

// run executes fn as one all-or-nothing unit. On error the journal is
// reverted and buffered events are dropped.
func (e *Engine) run(op string, actor common.Address, fn func(scope *opScope) error) error {
	if err := e.readyToMutate(); err != nil {
		return err
	}
	snapshot := e.journal.Snapshot()
	scope := &opScope{}
	err := fn(scope)
	logger := e.logger.With("op", op, "actor", actor.Hex())
	if scope.pool != nil {
		logger = logger.With("pool", scope.pool.ID.String())
	}
	if err != nil {
		e.journal.RevertToSnapshot(snapshot)
		e.telemetry.ObserveOperation(op, ErrorLabel(err))
		logger.Warn("stableamm operation failed", "error", err)
		return err
	}
	for _, evt := range scope.pending {
		e.emit(evt)
	}
	e.telemetry.ObserveOperation(op, ErrorLabel(nil))
	e.observePool(scope.pool)
	logger.Debug("stableamm operation applied")
	return nil
}

func (e *Engine) observePool(pool *Pool) {
	if pool == nil || e.telemetry == nil {
		return
	}
	now := e.now()
	amp, err := pool.APrecise(now)
	if err != nil {
		return
	}
	supply, err := e.ledger.TotalIssuance(pool.LpCurrencyID)
	if err != nil {
		return
	}
	price, err := pool.virtualPrice(amp, supply)
	if err != nil {
		return
	}
	scaled, _ := new(big.Float).Quo(new(big.Float).SetInt(price.ToBig()), big.NewFloat(1e18)).Float64()
	e.telemetry.ObservePool(pool.ID.String(), scaled, amp)
}

func (e *Engine) loadPool(id PoolID) (*Pool, error) {
	pool, ok, err := e.state.PoolGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrInvalidPoolID
	}
	return pool, nil
}

func (e *Engine) totalSupply(pool *Pool) (*uint256.Int, error) {
	supply, err := e.ledger.TotalIssuance(pool.LpCurrencyID)
	if err != nil {
		return nil, err
	}
	return orZero(supply), nil
}

// transferIn moves amount from who into the pool account and returns the
// amount the pool was actually credited.
func (e *Engine) transferIn(currency CurrencyID, who, account common.Address, amount *uint256.Int) (*uint256.Int, error) {
	before, err := e.ledger.FreeBalance(currency, account)
	if err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(currency, who, account, amount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInsufficientReserve, err)
	}
	after, err := e.ledger.FreeBalance(currency, account)
	if err != nil {
		return nil, err
	}
	c := new(checked)
	credited := c.sub(orZero(after), orZero(before))
	if c.err != nil {
		return nil, c.err
	}
	return credited, nil
}

func (e *Engine) transferOut(currency CurrencyID, account, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := e.ledger.Transfer(currency, account, to, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientReserve, err)
	}
	return nil
}

func (e *Engine) mintLp(pool *Pool, to common.Address, amount *uint256.Int) error {
	if err := e.ledger.Deposit(pool.LpCurrencyID, to, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientSupply, err)
	}
	return nil
}

func (e *Engine) burnLp(pool *Pool, from common.Address, amount *uint256.Int) error {
	if err := e.ledger.Withdraw(pool.LpCurrencyID, from, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientLpReserve, err)
	}
	return nil
}
