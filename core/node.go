package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stableamm/config"
	"stableamm/core/events"
	"stableamm/core/types"
	"stableamm/native/stableamm"
	"stableamm/native/tokens"
	"stableamm/observability/metrics"
	"stableamm/storage"
)

// ErrNodeClosed is returned by operations on a closed node.
var ErrNodeClosed = errors.New("core: node closed")

var heightKey = []byte("node/height")

// Node is the host the pool engine runs in. It owns the single execution slot:
// every mutating call holds the write lock, runs at the next logical block
// height and either commits the journal as a whole or discards it.
type Node struct {
	mu        sync.RWMutex
	db        storage.Database
	view      *storage.JournalDB
	engine    *stableamm.Engine
	ledger    *tokens.Ledger
	height    uint64
	closed    bool
	pending   *events.Recorder
	sink      events.Emitter
	tracer    trace.Tracer
	telemetry *metrics.StableAMMMetrics
	logger    *slog.Logger
}

// Option customises a Node.
type Option func(*Node)

// WithLogger overrides the node and engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithEmitter forwards committed events to emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(n *Node) {
		if emitter != nil {
			n.sink = emitter
		}
	}
}

// WithNowFunc overrides the engine clock.
func WithNowFunc(now func() int64) Option {
	return func(n *Node) { n.engine.SetNowFunc(now) }
}

// NewNode opens the pool state stored in db and restores the last committed
// height.
func NewNode(db storage.Database, opts ...Option) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	view := storage.NewJournalDB(db)
	n := &Node{
		db:        db,
		view:      view,
		engine:    stableamm.NewEngine(),
		ledger:    tokens.NewLedger(view),
		pending:   &events.Recorder{},
		sink:      events.NoopEmitter{},
		tracer:    otel.Tracer("stableamm/core"),
		telemetry: metrics.StableAMM(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.engine.SetState(stableamm.NewStore(view))
	n.engine.SetLedger(n.ledger)
	n.engine.SetJournal(view)
	n.engine.SetEmitter(n.pending)
	n.engine.SetLogger(n.logger)

	if _, err := view.KVGet(heightKey, &n.height); err != nil {
		return nil, fmt.Errorf("core: load height: %w", err)
	}
	n.engine.SetBlockHeight(n.height)
	n.telemetry.ObserveHeight(n.height)
	return n, nil
}

// Height returns the last committed block height.
func (n *Node) Height() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.height
}

// Configure installs the currency policy and administrator set.
func (n *Node) Configure(validator stableamm.CurrencyValidator, auth stableamm.Authorizer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.engine.SetValidator(validator)
	n.engine.SetAuthorizer(auth)
}

// Execute runs fn as one block at height+1. Deadlines are checked against that
// height. Any error discards every write fn made; on success the writes and the
// new height are committed together and the events fn produced are forwarded.
func (n *Node) Execute(ctx context.Context, op string, fn func(engine *stableamm.Engine) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, span := n.tracer.Start(ctx, "node.execute", trace.WithAttributes(
		attribute.String("op", op),
		attribute.Int64("height", int64(n.height+1)),
	))
	defer span.End()

	if n.closed {
		span.SetStatus(codes.Error, ErrNodeClosed.Error())
		return ErrNodeClosed
	}

	next := n.height + 1
	n.engine.SetBlockHeight(next)
	err := fn(n.engine)
	if err == nil {
		err = n.view.KVPut(heightKey, next)
	}
	if err == nil {
		err = n.view.Commit()
	}
	if err != nil {
		n.view.Discard()
		n.pending.Reset()
		n.engine.SetBlockHeight(n.height)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.Debug("block discarded", slog.String("op", op), slog.Uint64("height", next), slog.Any("error", err))
		return err
	}

	n.height = next
	committed := n.pending.Events()
	n.pending.Reset()
	for _, evt := range committed {
		n.sink.Emit(evt)
	}
	n.telemetry.ObserveHeight(next)
	span.SetAttributes(attribute.Int("events", len(committed)))
	span.SetStatus(codes.Ok, "committed")
	n.logger.Debug("block committed", slog.String("op", op), slog.Uint64("height", next), slog.Int("events", len(committed)))
	return nil
}

// Query runs a read-only fn against committed state.
func (n *Node) Query(fn func(engine *stableamm.Engine) error) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNodeClosed
	}
	return fn(n.engine)
}

// Balance returns the free balance of who in currency.
func (n *Node) Balance(currency types.CurrencyID, who common.Address) (*uint256.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return nil, ErrNodeClosed
	}
	return n.ledger.FreeBalance(currency, who)
}

// TotalIssuance returns the circulating supply of currency.
func (n *Node) TotalIssuance(currency types.CurrencyID) (*uint256.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return nil, ErrNodeClosed
	}
	return n.ledger.TotalIssuance(currency)
}

// ApplyGenesis installs the genesis currency policy and administrators. On a
// fresh node it also credits the initial balances and creates the genesis
// pools in the first block; a node that already has history keeps its state.
func (n *Node) ApplyGenesis(ctx context.Context, g *config.Genesis) error {
	if err := g.Validate(); err != nil {
		return err
	}
	admins := g.AdminAddresses()
	n.Configure(
		stableamm.NewCurrencyRegistry(currencyIDs(g.PooledCurrencies), currencyIDs(g.LpCurrencies)),
		stableamm.NewAdminSet(admins...),
	)
	if n.Height() > 0 {
		return nil
	}
	return n.Execute(ctx, "genesis", func(engine *stableamm.Engine) error {
		for i, bal := range g.Balances {
			amount, err := uint256.FromDecimal(bal.Amount)
			if err != nil {
				return fmt.Errorf("genesis balance %d: %w", i, err)
			}
			if err := n.ledger.Deposit(types.CurrencyID(bal.Currency), common.HexToAddress(bal.Account), amount); err != nil {
				return fmt.Errorf("genesis balance %d: %w", i, err)
			}
		}
		for i, pool := range g.Pools {
			params := stableamm.CreatePoolParams{
				CurrencyIDs:       currencyIDs(pool.Currencies),
				CurrencyDecimals:  pool.Decimals,
				LpCurrencyID:      types.CurrencyID(pool.LpCurrency),
				A:                 pool.A,
				Fee:               pool.Fee,
				AdminFee:          pool.AdminFee,
				AdminFeeReceiver:  common.HexToAddress(pool.AdminFeeReceiver),
				LpCurrencySymbol:  pool.LpSymbol,
				LpCurrencyDecimal: pool.LpDecimals,
			}
			if _, err := engine.CreatePool(admins[0], params); err != nil {
				return fmt.Errorf("genesis pool %d: %w", i, err)
			}
		}
		return nil
	})
}

// Close releases the database. Pending writes are dropped.
func (n *Node) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.view.Discard()
	n.db.Close()
}

func currencyIDs(raw []string) []types.CurrencyID {
	out := make([]types.CurrencyID, len(raw))
	for i, id := range raw {
		out[i] = types.CurrencyID(id)
	}
	return out
}
