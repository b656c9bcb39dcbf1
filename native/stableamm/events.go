package stableamm

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stableamm/core/events"
	"stableamm/core/types"
)

const (
	// EventTypePoolCreated is emitted when a new pool is registered.
	EventTypePoolCreated = "stableamm.pool.created"
	// EventTypeLiquidityAdded is emitted when LP tokens are minted for a deposit.
	EventTypeLiquidityAdded = "stableamm.liquidity.added"
	// EventTypeLiquidityRemoved is emitted on a balanced withdrawal.
	EventTypeLiquidityRemoved = "stableamm.liquidity.removed"
	// EventTypeLiquidityRemovedOne is emitted on a single-currency withdrawal.
	EventTypeLiquidityRemovedOne = "stableamm.liquidity.removed_one"
	// EventTypeLiquidityRemovedImbalance is emitted on an exact-amount withdrawal.
	EventTypeLiquidityRemovedImbalance = "stableamm.liquidity.removed_imbalance"
	// EventTypeSwap is emitted when currencies are exchanged through a pool.
	EventTypeSwap = "stableamm.swap"

	// EventTypeFeeUpdated is emitted when the swap or admin fee changes.
	EventTypeFeeUpdated = "stableamm.fee.updated"
	// EventTypeFeeReceiverUpdated is emitted when admin fees are redirected.
	EventTypeFeeReceiverUpdated = "stableamm.fee_receiver.updated"
	// EventTypeRampAStarted is emitted when an amplification ramp is scheduled.
	EventTypeRampAStarted = "stableamm.ramp_a.started"
	// EventTypeRampAStopped is emitted when a ramp is frozen at its current A.
	EventTypeRampAStopped = "stableamm.ramp_a.stopped"
	// EventTypeAdminFeeWithdrawn is emitted when accrued admin fees are swept.
	EventTypeAdminFeeWithdrawn = "stableamm.admin_fee.withdrawn"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func formatAmount(x *uint256.Int) string {
	if x == nil {
		return "0"
	}
	return x.Dec()
}

func formatAmounts(xs []*uint256.Int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = formatAmount(x)
	}
	return strings.Join(parts, ",")
}

func formatCurrencies(ids []CurrencyID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

// PoolCreatedEvent describes a newly registered pool.
func PoolCreatedEvent(pool *Pool, creator common.Address) *types.Event {
	return &types.Event{
		Type: EventTypePoolCreated,
		Attributes: map[string]string{
			"pool":             pool.ID.String(),
			"creator":          creator.Hex(),
			"currencies":       formatCurrencies(pool.CurrencyIDs),
			"lpCurrency":       string(pool.LpCurrencyID),
			"account":          pool.Account.Hex(),
			"a":                formatUint(pool.FutureA / APrecision),
			"fee":              formatUint(pool.Fee),
			"adminFee":         formatUint(pool.AdminFee),
			"adminFeeReceiver": pool.AdminFeeReceiver.Hex(),
		},
	}
}

// LiquidityAddedEvent describes a deposit and the resulting pool state.
func LiquidityAddedEvent(pool *Pool, who, to common.Address, amounts, fees []*uint256.Int, d, mint, supply *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeLiquidityAdded,
		Attributes: map[string]string{
			"pool":     pool.ID.String(),
			"who":      who.Hex(),
			"to":       to.Hex(),
			"amounts":  formatAmounts(amounts),
			"fees":     formatAmounts(fees),
			"d":        formatAmount(d),
			"minted":   formatAmount(mint),
			"lpSupply": formatAmount(supply),
		},
	}
}

// LiquidityRemovedEvent describes a balanced withdrawal.
func LiquidityRemovedEvent(pool *Pool, who, to common.Address, lpAmount *uint256.Int, amounts []*uint256.Int, supply *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeLiquidityRemoved,
		Attributes: map[string]string{
			"pool":     pool.ID.String(),
			"who":      who.Hex(),
			"to":       to.Hex(),
			"burned":   formatAmount(lpAmount),
			"amounts":  formatAmounts(amounts),
			"lpSupply": formatAmount(supply),
		},
	}
}

// LiquidityRemovedOneEvent describes a single-currency withdrawal.
func LiquidityRemovedOneEvent(pool *Pool, who, to common.Address, lpAmount *uint256.Int, index int, amount, fee, supply *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeLiquidityRemovedOne,
		Attributes: map[string]string{
			"pool":     pool.ID.String(),
			"who":      who.Hex(),
			"to":       to.Hex(),
			"burned":   formatAmount(lpAmount),
			"currency": string(pool.CurrencyIDs[index]),
			"amount":   formatAmount(amount),
			"fee":      formatAmount(fee),
			"lpSupply": formatAmount(supply),
		},
	}
}

// LiquidityRemovedImbalanceEvent describes an exact-amount withdrawal.
func LiquidityRemovedImbalanceEvent(pool *Pool, who, to common.Address, amounts, fees []*uint256.Int, d, burned, supply *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeLiquidityRemovedImbalance,
		Attributes: map[string]string{
			"pool":     pool.ID.String(),
			"who":      who.Hex(),
			"to":       to.Hex(),
			"amounts":  formatAmounts(amounts),
			"fees":     formatAmounts(fees),
			"d":        formatAmount(d),
			"burned":   formatAmount(burned),
			"lpSupply": formatAmount(supply),
		},
	}
}

// SwapEvent describes an executed exchange.
func SwapEvent(pool *Pool, who, to common.Address, in, out int, inAmount, outAmount, fee *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeSwap,
		Attributes: map[string]string{
			"pool":      pool.ID.String(),
			"who":       who.Hex(),
			"to":        to.Hex(),
			"in":        string(pool.CurrencyIDs[in]),
			"out":       string(pool.CurrencyIDs[out]),
			"inAmount":  formatAmount(inAmount),
			"outAmount": formatAmount(outAmount),
			"fee":       formatAmount(fee),
		},
	}
}

// FeeUpdatedEvent records new fee parameters.
func FeeUpdatedEvent(pool *Pool) *types.Event {
	return &types.Event{
		Type: EventTypeFeeUpdated,
		Attributes: map[string]string{
			"pool":     pool.ID.String(),
			"fee":      formatUint(pool.Fee),
			"adminFee": formatUint(pool.AdminFee),
		},
	}
}

// FeeReceiverUpdatedEvent records a new admin fee receiver.
func FeeReceiverUpdatedEvent(pool *Pool) *types.Event {
	return &types.Event{
		Type: EventTypeFeeReceiverUpdated,
		Attributes: map[string]string{
			"pool":     pool.ID.String(),
			"receiver": pool.AdminFeeReceiver.Hex(),
		},
	}
}

// RampAStartedEvent records a scheduled amplification ramp.
func RampAStartedEvent(pool *Pool) *types.Event {
	return &types.Event{
		Type: EventTypeRampAStarted,
		Attributes: map[string]string{
			"pool":         pool.ID.String(),
			"initialA":     formatUint(pool.InitialA),
			"futureA":      formatUint(pool.FutureA),
			"initialATime": formatUint(pool.InitialATime),
			"futureATime":  formatUint(pool.FutureATime),
		},
	}
}

// RampAStoppedEvent records the amplification frozen by StopRampA.
func RampAStoppedEvent(pool *Pool) *types.Event {
	return &types.Event{
		Type: EventTypeRampAStopped,
		Attributes: map[string]string{
			"pool":     pool.ID.String(),
			"currentA": formatUint(pool.FutureA),
			"time":     formatUint(pool.FutureATime),
		},
	}
}

// AdminFeeWithdrawnEvent records admin fees swept to the receiver.
func AdminFeeWithdrawnEvent(pool *Pool, amounts []*uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeAdminFeeWithdrawn,
		Attributes: map[string]string{
			"pool":     pool.ID.String(),
			"receiver": pool.AdminFeeReceiver.Hex(),
			"amounts":  formatAmounts(amounts),
		},
	}
}
