package rpc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stableamm/native/stableamm"
)

// PoolResult is the JSON projection of a pool.
type PoolResult struct {
	ID                PoolIDParam `json:"poolId"`
	Currencies        []string    `json:"currencies"`
	LpCurrency        string      `json:"lpCurrency"`
	Multipliers       []string    `json:"multipliers"`
	Balances          []string    `json:"balances"`
	Fee               uint64      `json:"fee"`
	AdminFee          uint64      `json:"adminFee"`
	InitialA          uint64      `json:"initialA"`
	FutureA           uint64      `json:"futureA"`
	InitialATime      uint64      `json:"initialATime"`
	FutureATime       uint64      `json:"futureATime"`
	Account           string      `json:"account"`
	AdminFeeReceiver  string      `json:"adminFeeReceiver"`
	LpCurrencySymbol  string      `json:"lpCurrencySymbol"`
	LpCurrencyDecimal uint8       `json:"lpCurrencyDecimal"`
}

// PoolIDParam is a pool identifier in requests and responses.
type PoolIDParam uint32

func newPoolResult(pool *stableamm.Pool) PoolResult {
	currencies := make([]string, len(pool.CurrencyIDs))
	for i, id := range pool.CurrencyIDs {
		currencies[i] = string(id)
	}
	return PoolResult{
		ID:                PoolIDParam(pool.ID),
		Currencies:        currencies,
		LpCurrency:        string(pool.LpCurrencyID),
		Multipliers:       formatAmounts(pool.TokenMultipliers),
		Balances:          formatAmounts(pool.Balances),
		Fee:               pool.Fee,
		AdminFee:          pool.AdminFee,
		InitialA:          pool.InitialA,
		FutureA:           pool.FutureA,
		InitialATime:      pool.InitialATime,
		FutureATime:       pool.FutureATime,
		Account:           pool.Account.Hex(),
		AdminFeeReceiver:  pool.AdminFeeReceiver.Hex(),
		LpCurrencySymbol:  pool.LpCurrencySymbol,
		LpCurrencyDecimal: pool.LpCurrencyDecimal,
	}
}

func formatAmount(x *uint256.Int) string {
	if x == nil {
		return "0"
	}
	return x.Dec()
}

func formatAmounts(xs []*uint256.Int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = formatAmount(x)
	}
	return out
}

// decodeParams unmarshals the single object parameter of req into out.
func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return invalidParams("expected a single parameter object", nil)
	}
	dec := json.NewDecoder(strings.NewReader(string(req.Params[0])))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return invalidParams("invalid payload", err.Error())
	}
	return nil
}

func parseAmount(field, raw string) (*uint256.Int, *RPCError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, invalidParams(fmt.Sprintf("%s must be a decimal amount", field), raw)
	}
	return v, nil
}

func parseAmounts(field string, raw []string) ([]*uint256.Int, *RPCError) {
	out := make([]*uint256.Int, len(raw))
	for i, value := range raw {
		v, err := parseAmount(fmt.Sprintf("%s[%d]", field, i), value)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseAddress accepts an empty string as the zero address.
func parseAddress(field, raw string) (common.Address, *RPCError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, invalidParams(fmt.Sprintf("%s must be a hex address", field), raw)
	}
	return common.HexToAddress(raw), nil
}

// resolveDeadline fills an omitted deadline with the executing height + 1 so
// the request is valid for the block it lands in only.
func resolveDeadline(deadline uint64, engine *stableamm.Engine) uint64 {
	if deadline == 0 {
		return engine.BlockHeight() + 1
	}
	return deadline
}
